package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/standardbeagle/lcc/internal/config"
	"github.com/standardbeagle/lcc/internal/debug"
	"github.com/standardbeagle/lcc/internal/types"
	"github.com/standardbeagle/lcc/internal/version"

	"github.com/urfave/cli/v2"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root != "" {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
		}
		root = absRoot
	}

	configPath := c.String("config")
	cfg, err := config.LoadWithRoot(configPath, root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Apply CLI flag overrides
	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = config.DeduplicatePatterns(append(cfg.Exclude, excludeFlags...))
	}
	if root != "" {
		cfg.Project.Root = root
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "lcc",
		Usage:                  "Identifier completion index for editors and AI assistants",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: .lcc.kdl in the project root, merged over ~/.lcc.kdl)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Only index files matching glob patterns (e.g., --include '**/*.go')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Skip files matching glob patterns (e.g., --exclude '**/testdata/**')",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug output to a file under the temp directory",
			},
		},
		Before: func(c *cli.Context) error {
			if !c.Bool("debug-log") {
				return nil
			}
			path, err := debug.InitDebugLogFile()
			if err != nil {
				return err
			}
			debug.EnableDebug = "true"
			fmt.Fprintf(c.App.ErrWriter, "Debug log: %s\n", path)
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the completion server on a unix socket",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "socket",
						Usage: "Socket path (default: derived from the project root)",
					},
					&cli.BoolFlag{
						Name:  "no-scan",
						Usage: "Do not scan the project on startup",
					},
					&cli.BoolFlag{
						Name:  "no-watch",
						Usage: "Do not watch the project for changes",
					},
				},
			},
			{
				Name:   "shutdown",
				Usage:  "Stop the running server for this project",
				Action: shutdownCommand,
			},
			{
				Name:   "status",
				Usage:  "Show the running server's index status",
				Action: statusCommand,
			},
			{
				Name:      "reindex",
				Usage:     "Rescan the project, or one path, in the running server",
				ArgsUsage: "[path]",
				Action:    reindexCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "wait",
						Usage: "Wait up to this long for the server to report ready",
					},
				},
			},
			{
				Name:      "notify",
				Usage:     "Send an editor event for a file to the running server",
				ArgsUsage: "<file>",
				Action:    notifyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "event",
						Usage: "Event name (FileReadyToParse, BufferUnload, InsertLeave)",
						Value: string(types.EventFileReadyToParse),
					},
					&cli.StringFlag{
						Name:    "filetype",
						Aliases: []string{"f"},
						Usage:   "Filetype (default: detected from the extension)",
					},
					&cli.IntFlag{
						Name:  "line",
						Usage: "1-based cursor line for InsertLeave",
					},
					&cli.IntFlag{
						Name:  "column",
						Usage: "1-based cursor column for InsertLeave",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Run as an MCP server over stdio",
				Action: mcpCommand,
			},
			{
				Name:      "complete",
				Aliases:   []string{"c"},
				Usage:     "Complete an identifier",
				ArgsUsage: "<query>",
				Action:    completeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "filetype",
						Aliases:  []string{"f"},
						Usage:    "Filetype to complete in (e.g., go, python)",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "max",
						Aliases: []string{"n"},
						Usage:   "Maximum candidates (default from configuration)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output candidates as JSON",
					},
					&cli.BoolFlag{
						Name:  "local",
						Usage: "Always scan in-process instead of asking a running server",
					},
				},
			},
			{
				Name:   "scan",
				Usage:  "Scan the project and print index statistics",
				Action: scanCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output statistics as JSON",
					},
				},
			},
			{
				Name:      "tags",
				Usage:     "Load ctags files and optionally complete against them",
				ArgsUsage: "<tags-file>...",
				Action:    tagsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query to complete",
					},
					&cli.StringFlag{
						Name:    "filetype",
						Aliases: []string{"f"},
						Usage:   "Filetype to complete in",
					},
					&cli.BoolFlag{
						Name:  "push",
						Usage: "Send the tags to the running server instead",
					},
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
