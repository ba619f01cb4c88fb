package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultsort/internal"
	"github.com/starford/vaultsort/internal/bulkedit"
	pkgconfig "github.com/starford/vaultsort/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	loaded, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !loaded {
		slog.Debug("config file not found, using defaults", slog.String("path", configPath))
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return cfg, nil
}

func moveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMove(ctx, cmd.Bool("dry-run"), internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunWatch(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// parseWhere turns "key" or "key=value" into a header filter.
func parseWhere(s string) bulkedit.Filter {
	key, value, _ := strings.Cut(s, "=")
	return bulkedit.Filter{Property: strings.TrimSpace(key), Value: strings.TrimSpace(value)}
}

// editAction wraps an operation builder into a command action.
func editAction(build func(cmd *cli.Command) bulkedit.Operation) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		req := internal.EditRequest{
			Dir:        cmd.String("dir"),
			Filter:     parseWhere(cmd.String("where")),
			Operation:  build(cmd),
			AutoAccept: cmd.Bool("yes"),
		}
		if err := internal.RunEdit(ctx, req, internal.WithConfig(cfg)); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func editFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Vault-relative folder to edit recursively (empty for the whole vault)",
		},
		&cli.StringFlag{
			Name:  "where",
			Usage: "Only edit notes whose header has `key[=value]`",
		},
	}, extra...)
}

func requiredString(name, usage string) *cli.StringFlag {
	return &cli.StringFlag{Name: name, Usage: usage, Required: true}
}

func main() {
	cmd := &cli.Command{
		Name:  "vaultsort",
		Usage: "Organize a Markdown vault: route notes and attachments into folders and bulk-edit notes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Path to the vault root (overrides vault.path)",
				Sources: cli.EnvVars("VAULTSORT_VAULT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "move",
				Usage:  "Move notes by note type and attachments by extension, then report what was left",
				Action: moveAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Show where files would go without moving anything",
					},
				},
			},
			{
				Name:  "edit",
				Usage: "Apply a line edit to every matching note",
				Commands: []*cli.Command{
					{
						Name:  "delete-line",
						Usage: "Delete every line equal to --line",
						Flags: editFlags(requiredString("line", "Exact line to delete")),
						Action: editAction(func(cmd *cli.Command) bulkedit.Operation {
							return bulkedit.DeleteLine{Line: cmd.String("line")}
						}),
					},
					{
						Name:  "remove-value",
						Usage: "Remove a value from the first list under a header property",
						Flags: editFlags(
							requiredString("property", "Header property, e.g. tags"),
							requiredString("value", "Value to remove"),
						),
						Action: editAction(func(cmd *cli.Command) bulkedit.Operation {
							return bulkedit.RemoveValue{Property: cmd.String("property"), Value: cmd.String("value")}
						}),
					},
					{
						Name:  "insert-after",
						Usage: "Insert --line after the line equal to --marker",
						Flags: editFlags(
							requiredString("marker", "Exact line to insert after"),
							requiredString("line", "Line to insert"),
							&cli.BoolFlag{Name: "every", Usage: "Insert after every marker, not just the first"},
						),
						Action: editAction(func(cmd *cli.Command) bulkedit.Operation {
							return bulkedit.InsertAfter{Marker: cmd.String("marker"), Line: cmd.String("line"), Every: cmd.Bool("every")}
						}),
					},
					{
						Name:  "replace",
						Usage: "Replace text after reviewing the diff of each note",
						Flags: editFlags(
							requiredString("old", "Text to search for"),
							&cli.StringFlag{Name: "new", Usage: "Replacement text"},
							&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Apply every change without asking"},
						),
						Action: editAction(func(cmd *cli.Command) bulkedit.Operation {
							return bulkedit.Replace{Old: cmd.String("old"), New: cmd.String("new")}
						}),
					},
				},
			},
			{
				Name:   "watch",
				Usage:  "Run a batch now and again whenever files land in the source folders",
				Action: watchAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve read-only vault tools over MCP stdio",
				Action: mcpAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
