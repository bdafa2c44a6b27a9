package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	if len(result.Content) == 0 {
		t.Fatal("Expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8372/")

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != "http://localhost:8372" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", response["status"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	t.Run("plain body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api/rooms", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error") {
			t.Errorf("Expected 'API error', got: %v", err)
		}
	})

	t.Run("json error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "room not found: nope"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api/rooms/nope", nil, nil)
		if err == nil || err.Error() != "room not found: nope" {
			t.Errorf("Expected API error message, got: %v", err)
		}
	})
}

func TestClient_handleListRooms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rooms" {
			t.Errorf("Expected /api/rooms, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 2,
			"rooms": []map[string]interface{}{
				{"name": "#lobby", "players": 4, "spectators": 1, "round": 3, "autokick": true},
				{"name": "quiet", "players": 1, "spectators": 0, "round": 0, "autokick": false},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleListRooms(context.Background(), callRequest("list_rooms", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleListRooms failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Rooms (2)", "#lobby: 4 players, 1 spectators, round 3", "quiet: 1 players", "(autokick off)"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleListRooms_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"count": 0, "rooms": []interface{}{}})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleListRooms(context.Background(), callRequest("list_rooms", nil))
	if err != nil {
		t.Fatalf("handleListRooms failed: %v", err)
	}

	if text := resultText(t, result); !strings.Contains(text, "No rooms yet") {
		t.Errorf("Expected empty notice, got: %s", text)
	}
}

func TestClient_handleGetRoom(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.EscapedPath()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name":             "#lobby",
			"round":            2,
			"starter":          "ann",
			"autokick":         true,
			"spectators":       1,
			"word_count":       18,
			"players_in_round": []string{"ann", "bob"},
			"players": []map[string]interface{}{
				{"name": "ann", "status": "active"},
				{"name": "bob", "status": "disconnected"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleGetRoom(context.Background(), callRequest("get_room", map[string]interface{}{"room": "#lobby"}))
	if err != nil {
		t.Fatalf("handleGetRoom failed: %v", err)
	}

	if requested != "/api/rooms/%23lobby" {
		t.Errorf("Expected escaped room path, got %s", requested)
	}

	text := resultText(t, result)
	for _, want := range []string{"Room: #lobby", "Round: 2", "Started by: ann", "bob (disconnected)", "In this round: ann, bob"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleGetRoom_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "room not found: nope"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleGetRoom(context.Background(), callRequest("get_room", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGetRoom returned error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected tool error when room is missing")
	}

	result, err = client.handleGetRoom(context.Background(), callRequest("get_room", map[string]interface{}{"room": "nope"}))
	if err != nil {
		t.Fatalf("handleGetRoom returned error: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "room not found") {
		t.Errorf("Expected not found tool error, got %+v", result)
	}
}

func TestClient_handleListWordlists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count":     1,
			"wordlists": []map[string]interface{}{{"name": "basic", "size": 40}},
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleListWordlists(context.Background(), callRequest("list_wordlists", nil))
	if err != nil {
		t.Fatalf("handleListWordlists failed: %v", err)
	}

	if text := resultText(t, result); !strings.Contains(text, "basic: 40 words") {
		t.Errorf("Expected basic wordlist, got: %s", text)
	}
}

func TestClient_handleGameRules(t *testing.T) {
	client := NewClient("http://localhost:8372")

	result, err := client.handleGameRules(context.Background(), callRequest("game_rules", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameRules failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Castlefall - Rules", "SETUP:", "THE ROUND:", "SPECTATORS:"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in rules", want)
		}
	}
}
