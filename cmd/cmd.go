// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// setupCommand handles setup operations for configuration, keys and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:   "key",
				Usage:  "Print a new random session key",
				Action: r.SetupKey,
			},
			{
				Name:   "database",
				Usage:  "Initialize the session database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the local session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with Spotify through the backend",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Verify the stored session, refreshing it if needed",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Replace the stored access token",
				Action: r.AuthRefresh,
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:  "watch",
				Usage: "Re-check the session on an interval",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Usage:   "Time between checks",
						Value:   5 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "exit-on-signout",
						Usage: "Stop watching once the session is gone",
					},
				},
				Action: r.AuthWatch,
			},
			{
				Name:    "monitor",
				Aliases: []string{"tui", "ui"},
				Usage:   "Launch the interactive session monitor",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "log-file",
						Usage: "Where to write logs while the TUI is running",
						Value: "./tmp/plx-tui.log",
					},
				},
				Action: r.Monitor,
			},
		},
	}
}

// playlistsCommand lists playlists of the signed-in account
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "List playlists of the signed-in account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, markdown or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to show",
			},
		},
		Action: r.Playlists,
		Commands: []*cli.Command{
			{
				Name:      "tracks",
				Usage:     "Show the tracks of a playlist, importing them if needed",
				ArgsUsage: "<playlist-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, csv, markdown or json",
						Value:   "text",
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Index of the first track",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Tracks per page",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "Poll until the backend finishes importing the tracks",
					},
				},
				Action: r.PlaylistTracks,
			},
			{
				Name:      "enhance",
				Usage:     "Spend credits to enrich tracks (one credit per 10 tracks)",
				ArgsUsage: "<playlist-id>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "track",
						Aliases: []string{"t"},
						Usage:   "Track ID to enrich, repeatable",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Enrich every track not enriched yet",
					},
				},
				Action: r.PlaylistEnhance,
			},
		},
	}
}

// profileCommand shows the signed-in account
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show the signed-in account and its credits",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Profile,
	}
}
