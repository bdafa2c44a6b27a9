package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	expectedAppName := "Castlefall Server"
	if AppName != expectedAppName {
		t.Errorf("Expected app name %s, got %s", expectedAppName, AppName)
	}
}

func TestSetupLogging(t *testing.T) {
	original := log.Logger
	originalLevel := zerolog.GlobalLevel()
	defer func() {
		log.Logger = original
		zerolog.SetGlobalLevel(originalLevel)
	}()

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := setupLogging(&buf, false, "json"); err != nil {
			t.Fatalf("setupLogging failed: %v", err)
		}

		log.Info().Str("room", "R").Msg("hello")
		log.Debug().Msg("hidden")

		var entry map[string]interface{}
		if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
			t.Fatalf("Expected a single JSON line, got %q: %v", buf.String(), err)
		}
		if entry["room"] != "R" || entry["message"] != "hello" {
			t.Errorf("Unexpected log entry: %v", entry)
		}
	})

	t.Run("debug", func(t *testing.T) {
		var buf bytes.Buffer
		if err := setupLogging(&buf, true, "console"); err != nil {
			t.Fatalf("setupLogging failed: %v", err)
		}
		if zerolog.GlobalLevel() != zerolog.DebugLevel {
			t.Errorf("Expected debug level, got %s", zerolog.GlobalLevel())
		}

		log.Debug().Msg("visible")
		if !strings.Contains(buf.String(), "visible") {
			t.Errorf("Expected debug message in output, got %q", buf.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if err := setupLogging(&bytes.Buffer{}, false, "xml"); err == nil {
			t.Error("Expected error for unknown log format")
		}
	})
}

func TestCommandFlags(t *testing.T) {
	original := log.Logger
	originalLevel := zerolog.GlobalLevel()
	defer func() {
		log.Logger = original
		zerolog.SetGlobalLevel(originalLevel)
	}()

	t.Setenv("ROUND_COOLDOWN", "5s")
	t.Setenv("ALLOWED_ORIGINS", "https://castlefall.example")

	var got serverConfig
	app := newApp(os.ErrNotExist)
	app.Action = func(ctx context.Context, cmd *cli.Command) error {
		got = configFromCommand(cmd)
		return nil
	}

	if err := app.Run(context.Background(), []string{"castlefall", "--host", "0.0.0.0", "--port", "9000", "--wordlists-dir", "lists"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got.BaseURL != "http://0.0.0.0:9000" {
		t.Errorf("Expected base URL http://0.0.0.0:9000, got %s", got.BaseURL)
	}
	if got.WordlistsDir != "lists" {
		t.Errorf("Expected wordlists dir lists, got %s", got.WordlistsDir)
	}
	if got.Cooldown != 5*time.Second {
		t.Errorf("Expected cooldown from environment, got %s", got.Cooldown)
	}
	if len(got.AllowedOrigins) != 1 || got.AllowedOrigins[0] != "https://castlefall.example" {
		t.Errorf("Expected allowed origin from environment, got %v", got.AllowedOrigins)
	}
}

func TestBuildHandler(t *testing.T) {
	dir := t.TempDir()
	words := "apple\nbridge\ncastle\ndragon\n"
	if err := os.WriteFile(filepath.Join(dir, "tiny.txt"), []byte(words), 0o644); err != nil {
		t.Fatal(err)
	}

	handler, hub, err := buildHandler(serverConfig{WordlistsDir: dir, BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("buildHandler failed: %v", err)
	}
	if hub == nil {
		t.Fatal("Expected hub to be created")
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	t.Run("wordlists", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/wordlists")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var body struct {
			Count     int `json:"count"`
			Wordlists []struct {
				Name string `json:"name"`
				Size int    `json:"size"`
			} `json:"wordlists"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Count != 1 || body.Wordlists[0].Name != "tiny" || body.Wordlists[0].Size != 4 {
			t.Errorf("Unexpected wordlists: %+v", body)
		}
	})

	t.Run("mcp tools", func(t *testing.T) {
		request := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
		resp, err := http.Post(server.URL+"/mcp", "application/json", strings.NewReader(request))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		for _, tool := range []string{"list_rooms", "get_room", "list_wordlists", "game_rules"} {
			if !strings.Contains(buf.String(), tool) {
				t.Errorf("Expected tool %s in response: %s", tool, buf.String())
			}
		}
	})

	t.Run("mcp rejects GET", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/mcp")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("Expected status 405, got %d", resp.StatusCode)
		}
	})
}

func TestBuildHandler_MissingDir(t *testing.T) {
	if _, _, err := buildHandler(serverConfig{WordlistsDir: "/non/existent/path"}); err == nil {
		t.Error("Expected error for non-existent wordlists directory")
	}
}

func TestReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if !reachable(server.URL) {
		t.Error("Expected running server to be reachable")
	}

	server.Close()
	if reachable(server.URL) {
		t.Error("Expected closed server to be unreachable")
	}
}
