// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the config file and history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "check",
				Usage:  "Validate the config and reach both instances",
				Action: r.SetupCheck,
			},
		},
	}
}

// boardsCommand lists boards of a space.
func boardsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "boards",
		Usage: "Board operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List boards of a space with their columns and lanes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "side",
						Usage: "Instance to query (source or target)",
						Value: "source",
					},
					&cli.IntFlag{
						Name:  "space",
						Usage: "Space ID (defaults to the instance's space_id)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.BoardsList,
			},
		},
	}
}

// cardsCommand reads cards from the source instance.
func cardsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cards",
		Usage: "Source card operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cards of a board or column",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "board",
						Aliases:  []string{"b"},
						Usage:    "Source board ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "column",
						Usage: "Source column ID",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of cards to print (0 for all)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CardsList,
			},
			{
				Name:  "export",
				Usage: "Dump full card records for review",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "board",
						Aliases:  []string{"b"},
						Usage:    "Source board ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "column",
						Usage: "Source column ID",
					},
					&cli.IntSliceFlag{
						Name:  "card",
						Usage: "Card ID to export (repeatable, default all)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, yaml)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: cards.{format}, - for stdout)",
					},
				},
				Action: r.CardsExport,
			},
		},
	}
}

// migrateCommand copies cards from the source to the target instance.
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Card migration",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Create copies of source cards on the target board",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "source-board",
						Usage:    "Source board ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "source-column",
						Usage: "Only migrate cards in this source column",
					},
					&cli.IntFlag{
						Name:  "target-space",
						Usage: "Target space ID (defaults to target.space_id)",
					},
					&cli.IntFlag{
						Name:     "target-board",
						Usage:    "Target board ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "target-column",
						Usage:    "Target column ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "target-lane",
						Usage: "Target lane ID (defaults to the board's first lane)",
					},
					&cli.IntSliceFlag{
						Name:  "card",
						Usage: "Source card ID to migrate (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Migrate every card matching the source filter",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write a run report to this path",
					},
					&cli.StringFlag{
						Name:  "report-format",
						Usage: "Report format (json, yaml, csv, markdown, txt); inferred from --report",
					},
					&cli.BoolFlag{
						Name:  "sort-comments",
						Usage: "Copy comments in creation order",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Print the cards that would be created without writing to the target",
					},
					&cli.BoolFlag{
						Name:  "tui",
						Usage: "Confirm and monitor the run in an interactive UI",
					},
				},
				Action: r.MigrateRun,
			},
		},
	}
}

// historyCommand inspects recorded runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Recorded migration runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List runs, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only runs with this status",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show the card outcomes of one run",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:      "run",
						UsageText: "run ID or #sequence",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Render as a report (json, yaml, csv, markdown, txt)",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Hide a run from the history",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:      "run",
						UsageText: "run ID or #sequence",
					},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to an instance's API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "side",
						Usage: "Instance to query (source or target)",
						Value: "source",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "side",
						Usage: "Instance to call (source or target)",
						Value: "target",
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand is a shortcut for `migrate run --tui`.
func tuiCommand(r *Runner) *cli.Command {
	run := migrateCommand(r).Commands[0]
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive migration monitor",
		Flags:   run.Flags,
		Action:  r.MigrateTUI,
	}
}
