// Package common holds the helpers shared by the aqua CLI commands:
// output, error reporting, help display and the reminder countdown bar.
package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Out receives all command output.
var Out io.Writer = os.Stdout

// VersionCmdStr is printed by the version command. Execute fills it from
// the build arguments.
var VersionCmdStr string

var (
	showAppHelpAndExit = cli.ShowAppHelpAndExit
	showCommandHelp    = cli.ShowCommandHelp
)

// SetShowAppHelpAndExit swaps the app help printer and returns the old one.
func SetShowAppHelpAndExit(fn func(*cli.Context, int)) func(*cli.Context, int) {
	prev := showAppHelpAndExit
	showAppHelpAndExit = fn
	return prev
}

// SetShowCommandHelp swaps the command help printer and returns the old one.
func SetShowCommandHelp(fn func(*cli.Context, string) error) func(*cli.Context, string) error {
	prev := showCommandHelp
	showCommandHelp = fn
	return prev
}

// NewCountdownBar adds a bar of whole seconds until a reminder is due.
// Callers Increment it each second and complete it when the reminder fires.
func NewCountdownBar(p *mpb.Progress, name string, total time.Duration) *mpb.Bar {
	secs := int64(total / time.Second)
	if secs < 1 {
		secs = 1
	}
	style := mpb.BarStyle().Lbound("[").Filler("~").Tip("💧").Padding(" ").Rbound("]")
	return p.New(secs, style,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO, decor.WC{W: 4}), "due"),
		),
		mpb.AppendDecorators(decor.CountersNoUnit("%d/%ds")),
	)
}

// Help shows the app help, or the help of the command named by the first
// argument.
func Help(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "" || name == "help" {
		fmt.Fprintf(Out, "%s %s\n", ctx.App.Name, ctx.App.Version)
		showAppHelpAndExit(ctx, 0)
		return nil
	}
	return showCommandHelp(ctx, name)
}

func GetVersion(*cli.Context) error {
	fmt.Fprintln(Out, VersionCmdStr)
	return nil
}

// PrintRuntimeErr reports a failed step of a command as
// "<app>: <cmd>[<step>]: <err>". ctx may be nil.
func PrintRuntimeErr(ctx *cli.Context, cmd, step string, err error) {
	if err == nil {
		return
	}
	name := os.Args[0]
	if ctx != nil {
		name = ctx.App.HelpName
	}
	fmt.Fprintf(Out, "%s: %s[%s]: %v\n", name, cmd, step, err)
}

// PrintErrWithCmdHelp prints err followed by the current command's help.
func PrintErrWithCmdHelp(ctx *cli.Context, err error) error {
	return printErr(ctx, err, func() {
		if herr := showCommandHelp(ctx, ctx.Command.Name); herr != nil {
			fmt.Fprintln(Out, herr)
		}
	})
}

// PrintErrWithHelp prints err followed by the app help and exits with
// status 1.
func PrintErrWithHelp(ctx *cli.Context, err error) error {
	return printErr(ctx, err, func() { showAppHelpAndExit(ctx, 1) })
}

func printErr(ctx *cli.Context, err error, showHelp func()) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case msg == "flag: help requested":
		return Help(ctx)
	case strings.HasSuffix(msg, "-version") || strings.HasSuffix(msg, " -v"):
		return GetVersion(ctx)
	}
	fmt.Fprintf(Out, "%s: %s\n\n", ctx.App.HelpName, err)
	showHelp()
	return nil
}

// UsageErrorCallback is the OnUsageError hook of the app and its commands.
func UsageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	if ctx.Command.Name != "" {
		return PrintErrWithCmdHelp(ctx, err)
	}
	return PrintErrWithHelp(ctx, err)
}
