// Command klondike starts the Klondike solitaire server.
//
// It supports these commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "deal" prints the board for a rule file and seed
//  4. "validate" checks every rule file in the config directory
//  5. "watch" prints game events published on NATS
//
// Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/klondike/game/config"
	"github.com/wricardo/mcp-training/klondike/game/service"
	"github.com/wricardo/mcp-training/klondike/game/session"
	natsevents "github.com/wricardo/mcp-training/klondike/transport/nats"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Klondike Server"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("error loading .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

// newApp builds the command tree. Flags on the root command are shared by
// every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "klondike",
		Usage:   "Klondike solitaire over REST, WebSocket and MCP",
		Version: Version,
		Flags:   globalFlags(),
		Before:  setupLogging,
		Action:  runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server with API, WebSocket, and MCP endpoint",
				Action: runServe,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run an MCP stdio server backed by an external or internal HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Value:   "http://localhost:8080",
						Usage:   "API server to reuse when it is already running",
						Sources: cli.EnvVars("KLONDIKE_API_URL"),
					},
				},
				Action: runStdioMCP,
			},
			{
				Name:  "deal",
				Usage: "Print the opening board for a rule file and seed",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "Rule file to deal with (default: the default config)"},
					&cli.Int64Flag{Name: "seed", Usage: "Shuffle seed (random when unset)"},
					&cli.BoolFlag{Name: "hints", Usage: "Also list the legal card moves"},
				},
				Action: runDeal,
			},
			{
				Name:   "validate",
				Usage:  "Validate every rule file in the config directory",
				Action: runValidate,
			},
			{
				Name:      "watch",
				Usage:     "Print game events published on NATS",
				ArgsUsage: "[session_id]",
				Action:    runWatch,
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
		&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing rule files", Sources: cli.EnvVars("CONFIG_DIR")},
		&cli.StringFlag{Name: "default-config", Usage: "Rule file used when a session names none", Sources: cli.EnvVars("DEFAULT_CONFIG")},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "trace, debug, info, warn or error", Sources: cli.EnvVars("LOG_LEVEL")},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		&cli.BoolFlag{Name: "pretty", Usage: "Human readable logs (default when stderr is a terminal)", Sources: cli.EnvVars("LOG_PRETTY")},
		&cli.DurationFlag{Name: "session-ttl", Value: 24 * time.Hour, Usage: "Drop sessions idle for longer than this", Sources: cli.EnvVars("SESSION_TTL")},
		&cli.DurationFlag{Name: "cleanup-interval", Value: time.Hour, Usage: "How often idle sessions are dropped"},
		&cli.StringFlag{Name: "nats-url", Usage: "Publish game events to this NATS server", Sources: cli.EnvVars("NATS_URL")},
		&cli.StringFlag{Name: "nats-prefix", Value: natsevents.DefaultPrefix, Usage: "NATS subject prefix", Sources: cli.EnvVars("NATS_PREFIX")},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
	}
}

// setupLogging configures the global zerolog logger from flags
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level, err := zerolog.ParseLevel(cmd.String("log-level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cmd.Bool("debug") {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cmd.Bool("pretty") || isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return ctx, nil
}

// serviceOptions selects what initializeServices wires together
type serviceOptions struct {
	ConfigDir     string
	DefaultConfig string
	NATSURL       string
	NATSPrefix    string
}

func serviceOptionsFrom(cmd *cli.Command) serviceOptions {
	return serviceOptions{
		ConfigDir:     cmd.String("config-dir"),
		DefaultConfig: cmd.String("default-config"),
		NATSURL:       cmd.String("nats-url"),
		NATSPrefix:    cmd.String("nats-prefix"),
	}
}

// services holds the managers behind the game service so commands can run
// maintenance against them
type services struct {
	Game     service.GameService
	Sessions *session.Manager
	Configs  *config.Manager

	publisher *natsevents.Publisher
}

// Close drains the event publisher, if any
func (s *services) Close() {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to drain nats connection")
	}
}

// initializeServices wires session/config managers and the game service
func initializeServices(opts serviceOptions) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if opts.DefaultConfig != "" {
		if err := configManager.SetDefault(opts.DefaultConfig); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
	}

	s := &services{
		Sessions: session.NewManager(),
		Configs:  configManager,
	}

	var serviceOpts []service.Option
	if opts.NATSURL != "" {
		nc, err := natsevents.Connect(opts.NATSURL, AppName)
		if err != nil {
			return nil, err
		}
		s.publisher = natsevents.NewPublisher(nc, opts.NATSPrefix)
		serviceOpts = append(serviceOpts, service.WithEventPublisher(s.publisher))
		log.Info().Str("url", nc.ConnectedUrl()).Str("subject", s.publisher.Subject("")).Msg("publishing game events")
	}

	s.Game = service.NewGameService(s.Sessions, configManager, serviceOpts...)
	return s, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every, maxAge time.Duration) {
	if every <= 0 || maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(maxAge)
		}
	}
}
