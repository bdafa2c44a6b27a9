package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/castlefall/game/service"
	"github.com/wricardo/castlefall/game/wordlist"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Castlefall",
		service.DefaultVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Castlefall - MCP Interface

This is a read-only client that proxies requests to the Castlefall REST API.
Players take part through the websocket at /ws; these tools observe rooms
without revealing anybody's secret word.

AVAILABLE TOOLS:
- list_rooms: List rooms with player counts and current round
- get_room: Show one room's players, spectators and round state
- list_wordlists: List the word lists a round can be started with
- game_rules: Explain how a round of Castlefall is played`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List all rooms on the server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get the state of one room. Secret words are never included",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room": map[string]interface{}{
					"type":        "string",
					"description": "Room name, exactly as players typed it",
				},
			},
			Required: []string{"room"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_wordlists",
		Description: "List the available word lists and their sizes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListWordlists)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Get the rules of Castlefall",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                    `json:"count"`
		Rooms []*service.RoomSummary `json:"rooms"`
	}

	if err := c.apiCall(ctx, http.MethodGet, "/api/rooms", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No rooms yet. A room is created when the first player joins it."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rooms (%d):\n", response.Count)
	for _, r := range response.Rooms {
		fmt.Fprintf(&b, "- %s: %d players, %d spectators, round %d", r.Name, r.Players, r.Spectators, r.Round)
		if !r.Autokick {
			b.WriteString(" (autokick off)")
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	name, _ := args["room"].(string)
	if name == "" {
		return mcp.NewToolResultError("room is required"), nil
	}

	var detail service.RoomDetail
	if err := c.apiCall(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(name), nil, &detail); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoom(&detail)), nil
}

func (c *Client) handleListWordlists(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count     int             `json:"count"`
		Wordlists []wordlist.Info `json:"wordlists"`
	}

	if err := c.apiCall(ctx, http.MethodGet, "/api/wordlists", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Word lists (%d):\n", response.Count)
	for _, info := range response.Wordlists {
		fmt.Fprintf(&b, "- %s: %d words\n", info.Name, info.Size)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameRules), nil
}

func formatRoom(d *service.RoomDetail) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Room: %s\n", d.Name)
	fmt.Fprintf(&b, "Round: %d\n", d.Round)
	if d.Starter != "" {
		fmt.Fprintf(&b, "Started by: %s\n", d.Starter)
	}
	if d.LastStartedAt != nil {
		fmt.Fprintf(&b, "Last start: %s\n", d.LastStartedAt.Format(time.RFC3339))
	}
	if d.WordCount > 0 {
		fmt.Fprintf(&b, "Words on the board: %d\n", d.WordCount)
	}
	fmt.Fprintf(&b, "Autokick: %t\n", d.Autokick)
	fmt.Fprintf(&b, "Spectators: %d\n", d.Spectators)

	fmt.Fprintf(&b, "Players (%d):\n", len(d.Players))
	for _, p := range d.Players {
		fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Status)
	}

	if len(d.PlayersInRound) > 0 {
		fmt.Fprintf(&b, "In this round: %s\n", strings.Join(d.PlayersInRound, ", "))
	}

	return b.String()
}

const gameRules = `Castlefall - Rules

SETUP:
Everybody joins the same room with a unique name. Anyone may start a round by
choosing a word list and how many words go on the board.

THE ROUND:
- Every player sees the same board of words.
- The players are split into two teams of (nearly) equal size.
- Each team gets a different secret word from the board. You know your own
  word, but not who shares it.

GOAL:
Work out who is on your team. Give hints in the chat or out loud without
giving your word away to the other team. Any player can start the shared
countdown timer to close a discussion.

BETWEEN ROUNDS:
When the next round starts everybody sees a spoiler listing the previous
round's words, so disputes can be settled.

SPECTATORS:
Joining with an empty name watches the room without playing.`
