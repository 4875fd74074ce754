package cmd

import (
	"context"
	"time"

	"github.com/aquabalance/aquabalance/internal/alarm"
	"github.com/aquabalance/aquabalance/internal/bridge"
	"github.com/aquabalance/aquabalance/internal/config"
	"github.com/aquabalance/aquabalance/internal/daemon"
	"github.com/aquabalance/aquabalance/internal/host/notify"
	"github.com/aquabalance/aquabalance/internal/host/wake"
	"github.com/aquabalance/aquabalance/internal/server"
	"github.com/aquabalance/aquabalance/internal/store"
	"github.com/aquabalance/aquabalance/pkg/logger"
)

const wakeStopTimeout = 2 * time.Second

// DaemonComponents holds all initialized daemon components.
type DaemonComponents struct {
	Store      *store.Store
	Wake       *wake.Service
	Center     *notify.Center
	Scheduler  *alarm.Scheduler
	Dispatcher *alarm.Dispatcher
	Bridge     *bridge.Bridge
	Notifier   *server.RPCNotifier
	RPC        *server.RPCServer
	Web        *server.WebServer
	Runner     *daemon.Runner

	stopWake context.CancelFunc
	logger   logger.Logger
}

// Close releases all daemon component resources in reverse order of
// initialization.
func (c *DaemonComponents) Close() {
	c.logger.Info("Shutting down daemon...")

	if c.Web != nil {
		_ = c.Web.Close()
	}

	if c.stopWake != nil {
		c.stopWake()
		select {
		case <-c.Wake.Done():
		case <-time.After(wakeStopTimeout):
			c.logger.Warning("wake service did not stop within %s", wakeStopTimeout)
		}
	}

	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			c.logger.Warning("close database: %v", err)
		}
	}

	c.logger.Info("Daemon stopped")
}

// initDaemonComponents opens the database, builds the alarm pipeline,
// restores persisted wakes and prepares the server and runner.
//
// On error, any partially initialized components are cleaned up before
// returning.
var initDaemonComponents = func(cfg config.Config, secret string, log logger.Logger) (*DaemonComponents, error) {
	st, err := store.Open(cfg.DBPath(), logger.WithName(log, "store"))
	if err != nil {
		log.Error("Database initialization failed: %v", err)
		return nil, err
	}
	return buildComponents(cfg, secret, st, log)
}

func buildComponents(cfg config.Config, secret string, st *store.Store, log logger.Logger) (*DaemonComponents, error) {
	clock := alarm.NewSystemClock()
	alarmLog := logger.WithName(log, "alarm")
	serverLog := logger.WithName(log, "server")

	wctx, stopWake := context.WithCancel(context.Background())
	ws := wake.New(wctx, clock, st, logger.WithName(log, "wake"))

	center := notify.NewCenter(notify.Config{
		URLs:    cfg.NotifyURLs,
		BaseURL: cfg.BaseURL(),
	}, nil, st, logger.WithName(log, "notify"))

	sched, err := alarm.NewScheduler(cfg.Reminder, alarm.Dependencies{
		Wake:       ws,
		Clock:      clock,
		Permission: alarm.ExactAlarmPolicy(cfg.ExactAlarms),
		Logger:     alarmLog,
	})
	if err != nil {
		log.Error("Scheduler initialization failed: %v", err)
		stopWake()
		st.Close()
		return nil, err
	}

	br := bridge.New(cfg.Reminder, sched, logger.WithName(log, "bridge"))
	notifier := server.NewRPCNotifier(serverLog)
	br.SetSink(notifier)
	notifier.OnConnect(br.Ready)

	disp := alarm.NewDispatcher(cfg.Reminder, sched, center, br, alarmLog)
	disp.Observe(notifier.AlarmFired)
	sched.OnFire(disp.OnFire)

	if _, err := ws.Restore(sched.Callback); err != nil {
		log.Warning("restore wake registrations: %v", err)
	}

	rpc := server.NewRPCServer(&server.RPCConfig{
		Secret:    secret,
		Version:   currentBuildArgs.Version,
		Commit:    currentBuildArgs.Commit,
		BuildType: currentBuildArgs.BuildType,
	}, br, ws, center)
	web := server.NewWebServer(serverLog, rpc, notifier)

	runner := daemon.New(&daemon.Config{
		Listen:          cfg.Listen,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, &daemon.Dependencies{
		Serve:        web.Serve,
		ShutdownFunc: web.Close,
	})

	return &DaemonComponents{
		Store:      st,
		Wake:       ws,
		Center:     center,
		Scheduler:  sched,
		Dispatcher: disp,
		Bridge:     br,
		Notifier:   notifier,
		RPC:        rpc,
		Web:        web,
		Runner:     runner,
		stopWake:   stopWake,
		logger:     log,
	}, nil
}
