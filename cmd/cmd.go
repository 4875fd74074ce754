package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"

	"github.com/aquabalance/aquabalance/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var currentBuildArgs BuildArgs

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	app := cli.App{
		Name:                  "aqua",
		HelpName:              "aqua",
		Usage:                 "A hydration reminder daemon.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "aqua <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Flags:                 globalFlags,
		Commands: []cli.Command{
			{
				Name:               "daemon",
				Usage:              "run the reminder daemon",
				Description:        DaemonDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             startDaemon,
				Flags:              daemonFlags,
			},
			{
				Name:   "stop",
				Usage:  "stop the running daemon",
				Action: stopDaemon,
			},
			{
				Name:                   "once",
				Aliases:                []string{"o"},
				Usage:                  "arm a one-shot reminder",
				Description:            OnceDescription,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				OnUsageError:           common.UsageErrorCallback,
				Action:                 once,
				Flags:                  onceFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "daily",
				Aliases:            []string{"d"},
				Usage:              "arm a daily reminder",
				Description:        DailyDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             daily,
				Flags:              dailyFlags,
			},
			{
				Name:               "cancel",
				Aliases:            []string{"c"},
				Usage:              "cancel a daily reminder",
				Description:        CancelDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             cancel,
				Flags:              cancelFlags,
			},
			{
				Name:               "next",
				Usage:              "show when a daily reminder would fire next",
				Description:        NextDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             next,
				Flags:              nextFlags,
			},
			{
				Name:               "list",
				Aliases:            []string{"l"},
				Usage:              "list pending reminders and active notifications",
				Description:        ListDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             list,
			},
			{
				Name:               "listen",
				Usage:              "print notification actions as they happen",
				Description:        ListenDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             listen,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of aqua",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
