// Command castlefall starts the Castlefall word game server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the web client, REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server against a running server, or an internal one if none is reachable
//
// Flags control host/port, word lists, logging, allowed origins, round
// cooldown, and optional ngrok tunneling for playing with friends during
// development. Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/castlefall/api"
	"github.com/wricardo/castlefall/game/room"
	"github.com/wricardo/castlefall/game/service"
	"github.com/wricardo/castlefall/game/session"
	"github.com/wricardo/castlefall/game/wordlist"
	"github.com/wricardo/castlefall/transport/mcp"
	"github.com/wricardo/castlefall/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "0.6.0"
	AppName = "Castlefall Server"
)

// serverConfig is everything buildHandler needs to assemble the server
type serverConfig struct {
	WordlistsDir   string
	StaticDir      string
	AllowedOrigins []string
	Cooldown       time.Duration
	BaseURL        string
}

func main() {
	// Load .env before flags read the environment
	envErr := godotenv.Load()

	app := newApp(envErr)
	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("castlefall stopped")
	}
}

// newApp builds the command tree. envErr is the result of loading .env and
// is reported once logging is configured.
func newApp(envErr error) *cli.Command {
	return &cli.Command{
		Name:    "castlefall",
		Usage:   AppName,
		Version: Version,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8372,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "wordlists-dir",
				Value:   "wordlists",
				Usage:   "Directory containing one .txt word list per file",
				Sources: cli.EnvVars("WORDLISTS_DIR"),
			},
			&cli.StringFlag{
				Name:    "static-dir",
				Value:   "./static/",
				Usage:   "Directory containing the web client",
				Sources: cli.EnvVars("STATIC_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "console",
				Usage:   "Log output format: console or json",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.StringSliceFlag{
				Name:    "allowed-origins",
				Value:   []string{"*"},
				Usage:   "Browser origins allowed to open a websocket (* allows all)",
				Sources: cli.EnvVars("ALLOWED_ORIGINS"),
			},
			&cli.DurationFlag{
				Name:    "cooldown",
				Value:   room.DefaultCooldown,
				Usage:   "Minimum time between two round starts in a room",
				Sources: cli.EnvVars("ROUND_COOLDOWN"),
			},
		}, ngrokFlags()...),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if err := setupLogging(os.Stderr, cmd.Bool("debug"), cmd.String("log-format")); err != nil {
				return ctx, err
			}
			if envErr == nil {
				log.Debug().Msg("loaded environment variables from .env file")
			} else if !errors.Is(envErr, os.ErrNotExist) {
				log.Warn().Err(envErr).Msg("error loading .env file")
			}
			return ctx, nil
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server with web client, REST API, WebSocket, and MCP endpoint",
				Action: runServe,
			},
			{
				Name:  "mcp",
				Usage: "Run an MCP stdio server backed by the REST API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Usage:   "Base URL of a running castlefall server (defaults to http://host:port)",
						Sources: cli.EnvVars("CASTLEFALL_API_URL"),
					},
				},
				Action: runMCP,
			},
		},
	}
}

func ngrokFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}
}

// setupLogging configures the global zerolog logger
func setupLogging(w io.Writer, debug bool, format string) error {
	switch format {
	case "json":
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	case "console", "":
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	default:
		return fmt.Errorf("unknown log format %q (want console or json)", format)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return nil
}

func configFromCommand(cmd *cli.Command) serverConfig {
	return serverConfig{
		WordlistsDir:   cmd.String("wordlists-dir"),
		StaticDir:      cmd.String("static-dir"),
		AllowedOrigins: cmd.StringSlice("allowed-origins"),
		Cooldown:       cmd.Duration("cooldown"),
		BaseURL:        fmt.Sprintf("http://%s", listenAddr(cmd)),
	}
}

func listenAddr(cmd *cli.Command) string {
	return net.JoinHostPort(cmd.String("host"), fmt.Sprint(cmd.Int("port")))
}

// buildHandler loads the word lists and wires rooms, the game service, the
// websocket hub, the REST API and the /mcp endpoint into one handler. The
// caller runs the returned hub.
func buildHandler(cfg serverConfig) (http.Handler, *websocket.Hub, error) {
	catalog, err := wordlist.LoadDir(cfg.WordlistsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load word lists: %w", err)
	}
	log.Info().Str("dir", cfg.WordlistsDir).Int("wordlists", catalog.Len()).Msg("word lists loaded")

	roomOpts := room.DefaultOptions()
	if cfg.Cooldown > 0 {
		roomOpts.Cooldown = cfg.Cooldown
	}
	sessions := session.NewManager(catalog, roomOpts)

	hub := websocket.NewHub(websocket.Options{AllowedOrigins: cfg.AllowedOrigins})
	gameService := service.NewGameService(sessions, catalog, hub, service.Options{})
	hub.SetHandler(gameService)

	var apiOpts []api.Option
	if cfg.StaticDir != "" {
		apiOpts = append(apiOpts, api.WithStaticDir(cfg.StaticDir))
	}
	apiServer := api.NewServer(gameService, hub, apiOpts...)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.Handle("/mcp", mcpHandler(mcp.NewClient(cfg.BaseURL)))

	return mainRouter, hub, nil
}

// mcpHandler serves single JSON-RPC MCP requests over HTTP POST
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// runServe starts the HTTP server and, when enabled, an ngrok tunnel
// serving the same handler. It returns after SIGINT or SIGTERM.
func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg := configFromCommand(cmd)
	handler, hub, err := buildHandler(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	addr := listenAddr(cmd)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Str("api", cfg.BaseURL+"/api").
			Str("ws", "ws://"+addr+"/ws").
			Str("mcp", cfg.BaseURL+"/mcp").
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var wg sync.WaitGroup
	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serveErr:
		stop()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return nil
}

// runNgrok exposes handler through an ngrok tunnel until ctx is cancelled
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	log.Info().Msg("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	log.Info().Str("url", tun.URL()).Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// runMCP serves MCP over stdio. It proxies to the server at --api-url, or
// at host:port when unset; if nothing answers there it starts an internal
// server on a random loopback port and proxies to that.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	apiURL := cmd.String("api-url")
	if apiURL == "" {
		apiURL = fmt.Sprintf("http://%s", listenAddr(cmd))
	}

	if !reachable(apiURL) {
		log.Info().Str("url", apiURL).Msg("no castlefall server found, starting internal HTTP server")

		internalURL, shutdown, err := startInternalServer(ctx, configFromCommand(cmd))
		if err != nil {
			return err
		}
		defer shutdown()
		apiURL = internalURL
	}

	log.Info().Str("api", apiURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcp.NewClient(apiURL).GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func reachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// startInternalServer serves the full stack on a random loopback port
func startInternalServer(ctx context.Context, cfg serverConfig) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	cfg.BaseURL = fmt.Sprintf("http://%s", listener.Addr().String())
	handler, hub, err := buildHandler(cfg)
	if err != nil {
		listener.Close()
		return "", nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: handler}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()

	shutdown := func() {
		cancel()
		httpServer.Close()
	}
	return cfg.BaseURL, shutdown, nil
}
