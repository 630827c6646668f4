package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/appcatalog/internal"
	"github.com/starford/appcatalog/internal/query"
	pkgconfig "github.com/starford/appcatalog/pkg/config"
)

// version is set at build time via -ldflags.
var version = "dev"

// loadConfig reads the config file if present and falls back to defaults.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol.
	return internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr),
	)
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	q := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(q) == "" {
		return errors.New("search: query argument is required")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// One-shot lookups should not leave a trail in the analytics table.
	cfg.Analytics.Enabled = false

	req := query.Request{
		Query:  q,
		Page:   int(cmd.Int("page")),
		Limit:  int(cmd.Int("limit")),
		Locale: cmd.String("locale"),
	}
	return internal.RunSearch(ctx, os.Stdout, req,
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr),
	)
}

func main() {
	cmd := &cli.Command{
		Name:    "appcatalog",
		Usage:   "Searchable catalog of applications built from an awesome-list Markdown document",
		Version: version,
		Action:  run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve catalog tools over MCP stdio",
				Action: runMCP,
			},
			{
				Name:      "search",
				Usage:     "Run one search and print the JSON response",
				ArgsUsage: "<query>",
				Action:    runSearch,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "page",
						Usage: "Result page, starting at 1",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Results per page",
					},
					&cli.StringFlag{
						Name:  "locale",
						Usage: "Catalog locale; empty selects the default",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
