// Package cmd provides CLI commands for the notemirror binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for output rendering.
var (
	// ConfigFlag points at a notemirror.yaml config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to notemirror.yaml config file",
	}

	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables the Bubble Tea live-progress view for sync commands.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Show live sync progress (sync only)",
	}
)

// OutputFlags returns the shared rendering flags.
func OutputFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		FormatFlag,
		NoColorFlag,
	}
}

// SyncFlags returns the flags shared by the sync subcommands. Flags override
// config file values; zero values fall through to config, then defaults.
func SyncFlags() []cli.Flag {
	return append(OutputFlags(),
		TUIFlag,
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Mirror root directory (fs backend)",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Max items per run (0 uses the default cap)",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Remove the per-run item cap",
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Re-materialize every item regardless of fingerprint",
		},
		&cli.BoolFlag{
			Name:  "save-json",
			Usage: "Keep the raw API payload next to each rendered note",
		},
		&cli.IntFlag{
			Name:  "page-size",
			Usage: "Items requested per page",
		},
		&cli.DurationFlag{
			Name:  "delay",
			Usage: "Pause between page requests",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent attachment downloads per item",
		},
		&cli.StringFlag{
			Name:  "resume",
			Usage: "Resume a fetch-failed run from its printed cursor",
		},
		&cli.StringFlag{
			Name:  "token-file",
			Usage: "Override the cached credential location",
		},
		&cli.StringFlag{
			Name:  "storage",
			Usage: "Storage backend: fs or s3",
		},
		&cli.StringFlag{
			Name:  "s3-bucket",
			Usage: "S3 bucket (s3 backend)",
		},
		&cli.StringFlag{
			Name:  "s3-prefix",
			Usage: "S3 key prefix (s3 backend)",
		},
		&cli.StringFlag{
			Name:  "s3-region",
			Usage: "AWS region (s3 backend, default chain if empty)",
		},
	)
}
