// Command qbt-mcp exposes a qBittorrent instance as MCP tools over stdio.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	qbt "github.com/seedboxkit/qbt-mcp"
	"github.com/seedboxkit/qbt-mcp/internal/config"
	"github.com/seedboxkit/qbt-mcp/internal/tools"
)

// Build information. Populated at build-time via -ldflags flag.
var (
	version = "dev"
	commit  = "HEAD"
)

type flags struct {
	LogLevel   string
	ConfigPath string
	URL        string
	Username   string
	Password   string
	Timeout    int

	Config *config.Config
}

func main() {
	f := &flags{}

	app := &cli.Command{
		Name:    "qbt-mcp",
		Usage:   "Expose a qBittorrent instance as MCP tools for agent runtimes",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("QBT_MCP_LOG_LEVEL"),
				Value:       "info",
				Destination: &f.LogLevel,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("QBT_MCP_CONFIG"),
				Destination: &f.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "url",
				Usage:       "qBittorrent Web API URL",
				Sources:     cli.EnvVars("QBT_MCP_URL"),
				Destination: &f.URL,
			},
			&cli.StringFlag{
				Name:        "username",
				Usage:       "qBittorrent Web API username",
				Sources:     cli.EnvVars("QBT_MCP_USERNAME"),
				Destination: &f.Username,
			},
			&cli.StringFlag{
				Name:        "password",
				Usage:       "qBittorrent Web API password",
				Sources:     cli.EnvVars("QBT_MCP_PASSWORD"),
				Destination: &f.Password,
			},
			&cli.IntFlag{
				Name:        "timeout",
				Usage:       "request timeout in seconds",
				Sources:     cli.EnvVars("QBT_MCP_TIMEOUT"),
				Destination: &f.Timeout,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := setupLogger(f.LogLevel); err != nil {
				return ctx, err
			}

			cfg, err := config.Load(f.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			// Flags and environment override the config file.
			if f.URL != "" {
				cfg.URL = f.URL
			}
			if f.Username != "" {
				cfg.Username = f.Username
			}
			if f.Password != "" {
				cfg.Password = f.Password
			}
			if f.Timeout > 0 {
				cfg.TimeoutSeconds = f.Timeout
			}
			if err := cfg.Validate(); err != nil {
				return ctx, fmt.Errorf("invalid config: %w", err)
			}

			f.Config = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve MCP tools over stdio (default)",
				Action: func(ctx context.Context, c *cli.Command) error { return runServe(ctx, f) },
			},
			{
				Name:   "check",
				Usage:  "Verify connectivity and credentials against the daemon",
				Action: func(ctx context.Context, c *cli.Command) error { return runCheck(ctx, f) },
			},
		},
		// Serving is the default action when no subcommand is given.
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() > 0 {
				return fmt.Errorf("unknown command %q. Run 'qbt-mcp --help' for usage", c.Args().First())
			}
			return runServe(ctx, f)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("qbt-mcp failed")
		os.Exit(1)
	}
}

func newClient(f *flags) (*qbt.Client, error) {
	return qbt.New(qbt.Config{
		BaseURL:  f.Config.URL,
		Username: f.Config.Username,
		Password: f.Config.Password,
		Timeout:  f.Config.Timeout(),
		Logger:   log.With().Str("component", "qbt").Logger(),
	})
}

func runServe(ctx context.Context, f *flags) error {
	client, err := newClient(f)
	if err != nil {
		return err
	}

	if err := client.Login(ctx); err != nil {
		return err
	}
	defer client.Close()

	s := server.NewMCPServer("qbt-mcp", version,
		server.WithToolCapabilities(false),
	)

	handler := tools.New(client, log.With().Str("component", "tools").Logger())
	handler.RegisterAll(s)

	log.Info().Str("url", f.Config.URL).Msg("serving MCP over stdio")

	return server.ServeStdio(s)
}

// runCheck logs in and exercises a few read-only endpoints so operators
// can verify configuration before wiring the server into an agent.
func runCheck(ctx context.Context, f *flags) error {
	client, err := newClient(f)
	if err != nil {
		return err
	}

	if err := client.Login(ctx); err != nil {
		return err
	}
	defer client.Close()

	appVersion, err := client.GetAppVersion(ctx)
	if err != nil {
		return err
	}

	torrents, err := client.ListTorrents(ctx, qbt.ListOptions{})
	if err != nil {
		return err
	}

	preferences, err := client.GetPreferences(ctx)
	if err != nil {
		return err
	}

	savePath, _ := preferences["save_path"].(string)

	log.Info().
		Str("url", f.Config.URL).
		Str("version", appVersion).
		Int("torrents", len(torrents)).
		Str("save_path", savePath).
		Msg("qBittorrent connection OK")

	return nil
}

func setupLogger(level string) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	// Stdout carries the MCP protocol; all logging goes to stderr.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(parsedLevel)

	return nil
}
