package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/aquabalance/aquabalance/cmd/common"
	"github.com/aquabalance/aquabalance/internal/alarm"
	"github.com/aquabalance/aquabalance/internal/server"
	"github.com/aquabalance/aquabalance/pkg/aquacli"
)

func listen(ctx *cli.Context) error {
	disconnected := make(chan error, 1)
	client, err := connect(ctx, aquacli.Options{
		OnDisconnect: func(err error) { disconnected <- err },
		OnAction: func(a alarm.NotificationAction) {
			fmt.Fprintln(common.Out, formatAction(a))
		},
		OnAlarmFired: func(n server.AlarmFiredNotification) {
			fmt.Fprintf(common.Out, "fired\t#%d\t%02d:%02d\t%s\n", n.AlarmID, n.Hour, n.Minute, n.Title)
		},
	})
	if err != nil {
		common.PrintRuntimeErr(ctx, "listen", "connect", err)
		return nil
	}
	defer client.Close()

	fmt.Fprintln(common.Out, "Listening for reminder events, press Ctrl+C to stop.")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	select {
	case <-sig:
	case err := <-disconnected:
		common.PrintRuntimeErr(ctx, "listen", "disconnected", err)
	}
	return nil
}

func formatAction(a alarm.NotificationAction) string {
	label := a.ActionID
	switch a.ActionID {
	case alarm.ActionDrink:
		label = "drank"
	case alarm.ActionSkip:
		label = "skipped"
	}
	if a.Payload == "" {
		return "action\t" + label
	}
	return fmt.Sprintf("action\t%s\t%s", label, a.Payload)
}
