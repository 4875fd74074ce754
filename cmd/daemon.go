package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli"

	"github.com/aquabalance/aquabalance/cmd/common"
	"github.com/aquabalance/aquabalance/internal/config"
	"github.com/aquabalance/aquabalance/internal/daemon"
	"github.com/aquabalance/aquabalance/pkg/logger"
)

// daemonConfig applies the daemon command flags on top of loadConfig.
func daemonConfig(ctx *cli.Context) config.Config {
	cfg := loadConfig(ctx)
	if ctx.IsSet("listen") {
		cfg.Listen = ctx.String("listen")
	}
	if urls := ctx.StringSlice("notify-url"); len(urls) > 0 {
		cfg.NotifyURLs = urls
	}
	if ctx.IsSet("public-url") {
		cfg.PublicURL = ctx.String("public-url")
	}
	if ctx.IsSet("exact-alarms") {
		cfg.ExactAlarms = ctx.BoolT("exact-alarms")
	}
	return cfg
}

// newDaemonLogger logs to stderr and to the daemon log file.
func newDaemonLogger(cfg config.Config) (logger.Logger, error) {
	console := logger.NewStandardLogger(log.New(os.Stderr, "", log.LstdFlags))
	if err := appFs.MkdirAll(filepath.Dir(cfg.LogPath()), 0755); err != nil {
		return nil, err
	}
	f, err := appFs.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return logger.NewMultiLogger(console, logger.NewFileLogger(f)), nil
}

func startDaemon(ctx *cli.Context) error {
	cfg := daemonConfig(ctx)
	l, err := newDaemonLogger(cfg)
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "logger", err)
		return nil
	}
	defer l.Close()

	pf := NewPidFile(appFs, cfg.PidPath())
	if err := pf.Write(); err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "pidfile", err)
		return nil
	}
	defer pf.Remove()

	secret, err := resolveSecret(cfg, l)
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "secret", err)
		return nil
	}

	comps, err := initDaemonComponents(cfg, secret, l)
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "init", err)
		return nil
	}
	defer comps.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runDaemon(sigCtx, comps.Runner, l)
}

// runDaemon blocks until ctx is cancelled or the server fails. A
// cancellation is a clean stop.
func runDaemon(ctx context.Context, r *daemon.Runner, l logger.Logger) error {
	err := r.Start(ctx)
	if errors.Is(err, context.Canceled) {
		l.Info("received shutdown signal")
		return nil
	}
	return err
}
