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
	"path/filepath"
	"strings"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/klondike/api"
	"github.com/wricardo/mcp-training/klondike/game/config"
	"github.com/wricardo/mcp-training/klondike/game/engine"
	"github.com/wricardo/mcp-training/klondike/game/service"
	"github.com/wricardo/mcp-training/klondike/transport/mcp"
	natsevents "github.com/wricardo/mcp-training/klondike/transport/nats"
	"github.com/wricardo/mcp-training/klondike/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// newRouter mounts the REST API at the root and the MCP JSON-RPC endpoint
// at /mcp
func newRouter(apiServer http.Handler, mcpServer *mcpserver.MCPServer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
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

		response := mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// notifications have no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
	return mux
}

// loopbackURL is the address local clients use to reach a server bound to
// host:port
func loopbackURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, fmt.Sprint(port)))
}

// runServe starts the HTTP server with REST API, WebSocket hub and an /mcp
// endpoint, plus an ngrok tunnel when enabled. It returns when ctx is done.
func runServe(ctx context.Context, cmd *cli.Command) error {
	svcs, err := initializeServices(serviceOptionsFrom(cmd))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	go sessionCleanupRoutine(ctx, svcs.Sessions, cmd.Duration("cleanup-interval"), cmd.Duration("session-ttl"))

	host, port := cmd.String("host"), cmd.Int("port")
	addr := net.JoinHostPort(host, fmt.Sprint(port))
	mcpClient := mcp.NewClient(loopbackURL(host, port))
	handler := newRouter(api.NewServer(svcs.Game, hub), mcpClient.GetMCPServer())

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("version", Version).Str("config_dir", cmd.String("config-dir")).Msgf("starting %s", AppName)

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().Str("addr", addr).Msg("HTTP server listening")
		log.Info().Msgf("REST API: http://%s/api", addr)
		log.Info().Msgf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveNgrok(ctx, handler, cmd.String("ngrok-auth"), cmd.String("ngrok-domain")); err != nil {
				log.Error().Err(err).Msg("ngrok tunnel failed")
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case runErr = <-serveErr:
		log.Error().Err(runErr).Msg("HTTP server failed")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return runErr
}

// serveNgrok exposes handler on a public ngrok endpoint until ctx is done
func serveNgrok(ctx context.Context, handler http.Handler, authToken, domain string) error {
	if authToken == "" {
		return errors.New("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	log.Info().Msg("starting ngrok tunnel")
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		return fmt.Errorf("failed to start ngrok tunnel: %w", err)
	}

	ngrokURL := tun.URL()
	log.Info().Str("url", ngrokURL).Msg("🚀 ngrok tunnel established")
	log.Info().Msgf("  REST API (ngrok): %s/api", ngrokURL)
	log.Info().Msgf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Info().Msgf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		return fmt.Errorf("ngrok server error: %w", err)
	}
	log.Info().Msg("ngrok tunnel closed")
	return nil
}

// apiAvailable reports whether a Klondike API answers at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the REST API on a random loopback port and
// returns its base URL
func startInternalAPI(gameService service.GameService) (string, *http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	httpServer.RegisterOnShutdown(hub.Stop)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()

	return "http://" + listener.Addr().String(), httpServer, nil
}

// runStdioMCP runs an MCP stdio server. It reuses the API at --api-url when
// one answers there, and otherwise starts an internal API on a loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	baseURL := cmd.String("api-url")
	log.Info().Str("url", baseURL).Msg("checking for external API server")

	if apiAvailable(ctx, baseURL) {
		log.Info().Str("url", baseURL).Msg("MCP stdio server ready (using external HTTP server)")
	} else {
		svcs, err := initializeServices(serviceOptionsFrom(cmd))
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svcs.Close()

		var httpServer *http.Server
		baseURL, httpServer, err = startInternalAPI(svcs.Game)
		if err != nil {
			return err
		}
		defer httpServer.Close()

		go sessionCleanupRoutine(ctx, svcs.Sessions, cmd.Duration("cleanup-interval"), cmd.Duration("session-ttl"))
		log.Info().Str("url", baseURL).Msg("MCP stdio server ready (using internal HTTP server)")
	}

	mcpClient := mcp.NewClient(baseURL)
	if err := mcpserver.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runDeal prints the opening board for a rule file and seed
func runDeal(ctx context.Context, cmd *cli.Command) error {
	configs, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	rules := configs.GetDefault()
	if name := cmd.String("config"); name != "" {
		if rules, err = configs.LoadConfig(name); err != nil {
			return err
		}
	}

	var opts []engine.Option
	if cmd.IsSet("seed") {
		opts = append(opts, engine.WithSeed(cmd.Int64("seed")))
	}
	game, err := engine.NewEngine(rules, opts...)
	if err != nil {
		return err
	}
	if err := game.CheckInvariants(); err != nil {
		return fmt.Errorf("deal is inconsistent: %w", err)
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "%s (draw %d)\n\n", rules.Name, rules.DrawCount)
	fmt.Fprintln(out, engine.RenderBoard(game.GetState()))

	if cmd.Bool("hints") {
		moves := game.LegalMoves()
		fmt.Fprintf(out, "\nLegal moves (%d):\n", len(moves))
		for _, m := range moves {
			fmt.Fprintf(out, "  %s: %s %d -> %s %d\n", m.Card, m.From, m.FromIndex, m.To, m.ToIndex)
		}
	}
	return nil
}

// ruleFileResult is the outcome of validating one rule file
type ruleFileResult struct {
	File   string
	Config *engine.GameConfig
	Err    error
}

// validateRuleFiles loads every rule file in dir
func validateRuleFiles(dir string) ([]ruleFileResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var results []ruleFileResult
	for _, entry := range entries {
		if entry.IsDir() || !engine.IsConfigFile(entry.Name()) {
			continue
		}
		cfg, err := engine.LoadGameConfig(filepath.Join(dir, entry.Name()))
		results = append(results, ruleFileResult{File: entry.Name(), Config: cfg, Err: err})
	}
	return results, nil
}

// runValidate checks every rule file in the config directory
func runValidate(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("config-dir")
	results, err := validateRuleFiles(dir)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no rule files found in %s", dir)
	}

	out := cmd.Root().Writer
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", r.File, r.Err)
			continue
		}
		fmt.Fprintf(out, "✓ %s: %s (draw %d)\n", r.File, r.Config.Name, r.Config.DrawCount)
	}

	fmt.Fprintf(out, "\n%d/%d rule files valid\n", len(results)-failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d rule file(s) invalid", failed)
	}
	return nil
}

// watchSessionID normalises a session id typed on the command line to the
// lowercased form events are published under
func watchSessionID(arg string) string {
	return strings.ToLower(strings.TrimSpace(arg))
}

// runWatch prints game events published on NATS until interrupted
func runWatch(ctx context.Context, cmd *cli.Command) error {
	url := cmd.String("nats-url")
	if url == "" {
		return errors.New("watch needs --nats-url or NATS_URL")
	}

	nc, err := natsevents.Connect(url, AppName+" watch")
	if err != nil {
		return err
	}
	defer nc.Drain()

	prefix, sessionID := cmd.String("nats-prefix"), watchSessionID(cmd.Args().First())
	log.Info().Str("subject", natsevents.Subject(prefix, sessionID)).Msg("watching game events")

	return natsevents.Watch(ctx, nc, prefix, sessionID, func(subject string, ev service.GameEvent) {
		entry := log.Info().Str("session", ev.SessionID).Str("type", ev.Type)
		if ev.Zone != "" {
			entry = entry.Str("zone", string(ev.Zone)).Int("index", ev.Index)
		}
		if len(ev.Cards) > 0 {
			entry = entry.Strs("cards", ev.Cards)
		}
		entry.Msg(ev.Message)
	})
}
