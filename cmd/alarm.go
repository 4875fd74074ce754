package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"

	"github.com/aquabalance/aquabalance/cmd/common"
	"github.com/aquabalance/aquabalance/internal/alarm"
	"github.com/aquabalance/aquabalance/internal/server"
	"github.com/aquabalance/aquabalance/pkg/aquacli"
)

func once(ctx *cli.Context) error {
	seconds := intPtr(ctx, "seconds")
	if seconds != nil && *seconds < 0 {
		return common.PrintErrWithCmdHelp(ctx, fmt.Errorf("seconds must not be negative"))
	}

	fired := make(chan server.AlarmFiredNotification, 1)
	client, err := connect(ctx, aquacli.Options{
		OnAlarmFired: func(n server.AlarmFiredNotification) {
			if n.AlarmID != alarm.OneShotSlot {
				return
			}
			select {
			case fired <- n:
			default:
			}
		},
	})
	if err != nil {
		common.PrintRuntimeErr(ctx, "once", "connect", err)
		return nil
	}
	defer client.Close()

	cctx, cancel := callContext()
	ok, delay, err := client.ScheduleOneShot(cctx, seconds)
	cancel()
	if err != nil {
		common.PrintRuntimeErr(ctx, "once", "schedule", err)
		return nil
	}
	if !ok {
		fmt.Fprintln(common.Out, "The reminder was not scheduled, see the daemon log.")
		return nil
	}

	fmt.Fprintf(common.Out, "One-shot reminder armed in %ds.\n", delay)
	if !ctx.Bool("wait") {
		return nil
	}
	if err := waitForFire(time.Duration(delay)*time.Second, time.Second, fired); err != nil {
		common.PrintRuntimeErr(ctx, "once", "wait", err)
	}
	return nil
}

// waitForFire shows a countdown bar of total and returns once a fire event
// arrives. It gives up DEF_WAIT_GRACE after the countdown ends.
func waitForFire(total, tick time.Duration, fired <-chan server.AlarmFiredNotification) error {
	p := mpb.New(mpb.WithOutput(common.Out), mpb.WithWidth(48))
	bar := common.NewCountdownBar(p, "Reminder", total)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	deadline := time.After(total + DEF_WAIT_GRACE)
	for {
		select {
		case n := <-fired:
			bar.SetCurrent(int64(total / time.Second))
			bar.Abort(false)
			p.Wait()
			fmt.Fprintf(common.Out, "%s\n", n.Title)
			return nil
		case <-ticker.C:
			bar.Increment()
		case <-deadline:
			bar.Abort(false)
			p.Wait()
			return fmt.Errorf("no reminder fired within %s", total+DEF_WAIT_GRACE)
		}
	}
}

func daily(ctx *cli.Context) error {
	p := alarm.DailyParams{
		AlarmID: intPtr(ctx, "id"),
		Hour:    intPtr(ctx, "hour"),
		Minute:  intPtr(ctx, "minute"),
		Title:   stringPtr(ctx, "title"),
		Body:    stringPtr(ctx, "body"),
		Payload: stringPtr(ctx, "payload"),
	}
	client, err := connect(ctx, aquacli.Options{})
	if err != nil {
		common.PrintRuntimeErr(ctx, "daily", "connect", err)
		return nil
	}
	defer client.Close()

	cctx, cancel := callContext()
	defer cancel()
	ok, err := client.ScheduleDaily(cctx, p)
	if err != nil {
		common.PrintRuntimeErr(ctx, "daily", "schedule", err)
		return nil
	}
	if !ok {
		fmt.Fprintln(common.Out, "The reminder was not scheduled, see the daemon log.")
		return nil
	}
	spec := loadConfig(ctx).Reminder.Resolve(p)
	next, err := client.Next(cctx, spec.Hour, spec.Minute)
	if err != nil {
		fmt.Fprintf(common.Out, "Daily reminder %d armed for %02d:%02d.\n", spec.AlarmID, spec.Hour, spec.Minute)
		return nil
	}
	fmt.Fprintf(common.Out, "Daily reminder %d armed, next at %s.\n", spec.AlarmID, formatTime(next.FireAt))
	return nil
}

func cancel(ctx *cli.Context) error {
	id := intPtr(ctx, "id")
	client, err := connect(ctx, aquacli.Options{})
	if err != nil {
		common.PrintRuntimeErr(ctx, "cancel", "connect", err)
		return nil
	}
	defer client.Close()

	cctx, cancelCall := callContext()
	defer cancelCall()
	ok, err := client.Cancel(cctx, id)
	if err != nil {
		common.PrintRuntimeErr(ctx, "cancel", "cancel", err)
		return nil
	}
	if !ok {
		fmt.Fprintln(common.Out, "Cancel failed, see the daemon log.")
		return nil
	}
	fmt.Fprintf(common.Out, "Reminder %d cancelled.\n", loadConfig(ctx).Reminder.AlarmIDOr(id))
	return nil
}

func next(ctx *cli.Context) error {
	def := loadConfig(ctx).Reminder
	hour, minute := def.Hour, def.Minute
	if ctx.IsSet("hour") {
		hour = ctx.Int("hour")
	}
	if ctx.IsSet("minute") {
		minute = ctx.Int("minute")
	}
	if !(alarm.AlarmSpec{Hour: hour, Minute: minute}).Valid() {
		return common.PrintErrWithCmdHelp(ctx, alarm.ErrInvalidTime)
	}
	at := alarm.NextDailyFire(time.Now(), hour, minute)
	fmt.Fprintf(common.Out, "%02d:%02d next fires at %s (in %s).\n",
		hour, minute, formatTime(at), time.Until(at).Round(time.Minute))
	return nil
}

func list(ctx *cli.Context) error {
	client, err := connect(ctx, aquacli.Options{})
	if err != nil {
		common.PrintRuntimeErr(ctx, "list", "connect", err)
		return nil
	}
	defer client.Close()

	cctx, cancel := callContext()
	defer cancel()
	pending, err := client.List(cctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "list", "alarms", err)
		return nil
	}
	active, err := client.Notifications(cctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "list", "notifications", err)
		return nil
	}
	printPending(common.Out, pending)
	printActive(common.Out, active)
	return nil
}

func printPending(w io.Writer, pending []*server.PendingItem) {
	if len(pending) == 0 {
		fmt.Fprintln(w, "No pending reminders.")
		return
	}
	fmt.Fprintln(w, "Pending reminders:")
	for _, p := range pending {
		when := fmt.Sprintf("uptime +%s", time.Duration(p.At)*time.Millisecond)
		if p.ClockBase == string(alarm.WallClock) {
			when = formatTime(time.UnixMilli(p.At))
		}
		title := ""
		if p.Spec != nil {
			title = p.Spec.Title
		}
		fmt.Fprintf(w, "  #%d\t%s\t%s\n", p.Key, when, title)
	}
}

func printActive(w io.Writer, res *server.NotificationsResult) {
	if res == nil || len(res.Notifications) == 0 {
		return
	}
	fmt.Fprintln(w, "Active notifications:")
	for _, n := range res.Notifications {
		fmt.Fprintf(w, "  #%d\t%s\n", n.ID, n.Title)
		for _, l := range n.Links {
			fmt.Fprintf(w, "    %s: %s\n", l.Label, l.URL)
		}
	}
}
