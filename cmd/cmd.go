// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/spotpair/internal/formatter"
	"github.com/urfave/cli/v3"
)

func openFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "open",
		Usage: "Open the pairing page in the default browser when pairing is needed",
	}
}

// pairCommand runs the browser pairing wizard
func pairCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "pair",
		Usage:  "Pair with Spotify through the browser wizard",
		Flags:  []cli.Flag{openFlag()},
		Action: r.Pair,
	}
}

// playCommand starts or resumes playback
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Start or resume playback on the paired device",
		Flags: []cli.Flag{
			openFlag(),
			&cli.StringSliceFlag{
				Name:    "uri",
				Aliases: []string{"u"},
				Usage:   "Track URI to play (repeatable)",
			},
			&cli.StringFlag{
				Name:  "context",
				Usage: "Album, artist or playlist URI to play",
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Zero-based position in the context to start from",
			},
			&cli.StringFlag{
				Name:  "offset-uri",
				Usage: "Track URI in the context to start from",
			},
			&cli.IntFlag{
				Name:  "position",
				Usage: "Position in milliseconds to seek to",
			},
		},
		Action: r.Play,
	}
}

// pauseCommand pauses playback
func pauseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "pause",
		Usage:  "Pause playback on the paired device",
		Flags:  []cli.Flag{openFlag()},
		Action: r.Pause,
	}
}

// devicesCommand lists and selects playback devices
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List available playback devices",
		Flags: []cli.Flag{
			openFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, markdown, csv, json)",
				Value:   formatter.FormatText,
			},
		},
		Action: r.Devices,
		Commands: []*cli.Command{
			{
				Name:  "select",
				Usage: "Target a device by id or name and save the choice",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "device"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Target whichever device is active instead",
					},
				},
				Action: r.SelectDevice,
			},
		},
	}
}

// controlCommand reads button presses from stdin
func controlCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "control",
		Usage: "Toggle playback for each line read from stdin (toggle, play, pause)",
		Flags: []cli.Flag{
			openFlag(),
			&cli.IntFlag{
				Name:  "debounce",
				Usage: "Minimum milliseconds between presses, negative disables (overrides config)",
			},
		},
		Action: r.Control,
	}
}

// tuiCommand returns the top-level TUI command for interactive device control.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive device list",
		Flags: []cli.Flag{
			openFlag(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "File that receives log output while the TUI runs",
				Value: "./tmp/spotpair-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// credentialsCommand inspects the stored record
func credentialsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "credentials",
		Aliases: []string{"creds"},
		Usage:   "Inspect stored credentials",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show whether a valid record is stored (secrets masked)",
				Action: r.CredentialsStatus,
			},
			{
				Name:  "history",
				Usage: "List completed pairings (sqlite store only)",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of pairings to show",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CredentialsHistory,
			},
			{
				Name:   "clear",
				Usage:  "Remove the stored record so the next command pairs again",
				Action: r.CredentialsClear,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Destination of the configuration file",
						Value: "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recently applied migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
