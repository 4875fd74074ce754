package cmd

import (
	"context"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/aquabalance/aquabalance/internal/config"
	"github.com/aquabalance/aquabalance/internal/secret"
	"github.com/aquabalance/aquabalance/pkg/aquacli"
	"github.com/aquabalance/aquabalance/pkg/logger"
)

// appFs is the filesystem used for the PID and secret files.
var appFs = afero.NewOsFs()

var newKeyring = func() *secret.Keyring {
	return secret.NewKeyring()
}

var dialDaemon = aquacli.Dial

// loadConfig returns the environment configuration overridden by the
// global flags.
func loadConfig(ctx *cli.Context) config.Config {
	cfg := config.Load()
	if v := ctx.GlobalString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := ctx.GlobalString("secret"); v != "" {
		cfg.Secret = v
	}
	return cfg
}

// resolveSecret returns the configured secret or the one held by the
// keyring, creating it on first use.
func resolveSecret(cfg config.Config, l logger.Logger) (string, error) {
	if cfg.Secret != "" {
		return cfg.Secret, nil
	}
	m := secret.NewManager(newKeyring(), secret.NewFile(appFs, cfg.DataDir), l)
	return m.Load()
}

func daemonURL(ctx *cli.Context, cfg config.Config) string {
	if v := ctx.GlobalString("url"); v != "" {
		return v
	}
	return "http://" + cfg.Listen
}

// connect dials the daemon with the resolved secret.
func connect(ctx *cli.Context, opts aquacli.Options) (*aquacli.Client, error) {
	cfg := loadConfig(ctx)
	s, err := resolveSecret(cfg, nil)
	if err != nil {
		return nil, err
	}
	opts.Secret = s
	dctx, cancel := callContext()
	defer cancel()
	return dialDaemon(dctx, daemonURL(ctx, cfg), opts)
}

func callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DEF_CALL_TIMEOUT)
}

func intPtr(ctx *cli.Context, name string) *int {
	if !ctx.IsSet(name) {
		return nil
	}
	v := ctx.Int(name)
	return &v
}

func stringPtr(ctx *cli.Context, name string) *string {
	if !ctx.IsSet(name) {
		return nil
	}
	v := ctx.String(name)
	return &v
}

func formatTime(t time.Time) string {
	return t.Local().Format("Mon Jan 2 15:04 MST")
}
