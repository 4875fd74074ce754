package cmd

import (
	"github.com/urfave/cli"

	"github.com/aquabalance/aquabalance/internal/config"
)

const urlEnv = "AQUA_URL"

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "data-dir",
		Usage:  "directory holding the database, log, PID and secret files",
		EnvVar: config.DataDirEnv,
	},
	cli.StringFlag{
		Name:   "secret",
		Usage:  "RPC bearer secret (default: read from the OS keyring)",
		EnvVar: config.SecretEnv,
	},
	cli.StringFlag{
		Name:   "url",
		Usage:  "daemon base URL for client commands (default: http://<listen>)",
		EnvVar: urlEnv,
	},
}

var daemonFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "listen, l",
		Usage:  "HTTP listen address",
		EnvVar: config.ListenEnv,
	},
	cli.StringSliceFlag{
		Name:  "notify-url, n",
		Usage: "Shoutrrr URL notifications are delivered to (repeatable)",
	},
	cli.StringFlag{
		Name:   "public-url",
		Usage:  "base URL of notification action links",
		EnvVar: config.PublicURLEnv,
	},
	cli.BoolTFlag{
		Name:   "exact-alarms",
		Usage:  "report the exact-alarm permission as granted",
		EnvVar: config.ExactAlarmsEnv,
	},
}

var onceFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "seconds, s",
		Usage: "delay in seconds (default: daemon one-shot delay)",
	},
	cli.BoolFlag{
		Name:  "wait, w",
		Usage: "show a countdown and wait until the reminder fires",
	},
}

var dailyFlags = []cli.Flag{
	cli.IntFlag{Name: "id", Usage: "alarm id"},
	cli.IntFlag{Name: "hour", Usage: "hour of day (0-23)"},
	cli.IntFlag{Name: "minute", Usage: "minute (0-59)"},
	cli.StringFlag{Name: "title", Usage: "notification title"},
	cli.StringFlag{Name: "body", Usage: "notification body"},
	cli.StringFlag{Name: "payload", Usage: "opaque string returned with actions"},
}

var cancelFlags = []cli.Flag{
	cli.IntFlag{Name: "id", Usage: "alarm id (default: the default reminder)"},
}

var nextFlags = []cli.Flag{
	cli.IntFlag{Name: "hour", Usage: "hour of day (0-23)"},
	cli.IntFlag{Name: "minute", Usage: "minute (0-59)"},
}
