package alarm

import (
	"errors"
	"fmt"

	"github.com/aquabalance/aquabalance/pkg/logger"
)

// Rearmer registers the following day's occurrence of a reminder after it
// fired.
type Rearmer interface {
	Rearm(spec AlarmSpec) bool
}

// Dispatcher turns a fired wake into a notification and re-arms the reminder.
type Dispatcher struct {
	sched    Rearmer
	notifier Notifier
	router   ActionRouter
	defaults Defaults
	log      logger.Logger
	observe  func(AlarmSpec)
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(defaults Defaults, sched Rearmer, n Notifier, r ActionRouter, l logger.Logger) *Dispatcher {
	return &Dispatcher{
		sched:    sched,
		notifier: n,
		router:   r,
		defaults: defaults,
		log:      logger.OrNop(l),
	}
}

// Observe registers fn to be called after each notification is posted.
func (d *Dispatcher) Observe(fn func(AlarmSpec)) {
	d.observe = fn
}

// OnFire posts the reminder notification for spec. The next day's occurrence
// is registered even when posting fails or panics.
func (d *Dispatcher) OnFire(spec AlarmSpec) {
	defer d.rearm(spec)

	if err := d.show(spec); err != nil {
		d.log.Error("alarm %d: %v", spec.AlarmID, err)
	}
}

func (d *Dispatcher) show(spec AlarmSpec) error {
	if err := d.notifier.EnsureChannel(d.defaults.Channel); err != nil {
		return fmt.Errorf("ensure channel %q: %w", d.defaults.Channel.ID, err)
	}

	title, body := spec.Title, spec.Body
	if title == "" {
		title = d.defaults.Title
	}
	if body == "" {
		body = d.defaults.Body
	}

	n := Notification{
		ID:        spec.AlarmID,
		ChannelID: d.defaults.Channel.ID,
		Title:     title,
		Body:      body,
		Actions: []Action{
			d.action(ActionDrink, d.defaults.DrinkLabel, spec.Payload),
			d.action(ActionSkip, d.defaults.SkipLabel, spec.Payload),
		},
		OnTap:      d.router.OpenApp,
		AutoCancel: true,
	}
	err := d.notifier.Post(n)
	if err != nil && !errors.Is(err, ErrNotDelivered) {
		return fmt.Errorf("post notification: %w", err)
	}
	if d.observe != nil {
		d.observe(spec)
	}
	return err
}

func (d *Dispatcher) action(id, label, payload string) Action {
	return Action{
		ID:    id,
		Label: label,
		Invoke: func() {
			d.router.RouteAction(NotificationAction{ActionID: id, Payload: payload})
		},
	}
}

func (d *Dispatcher) rearm(spec AlarmSpec) {
	if r := recover(); r != nil {
		d.log.Error("alarm %d: notification panic: %v", spec.AlarmID, r)
	}
	if !d.sched.Rearm(spec) {
		d.log.Warning("alarm %d: re-arm failed", spec.AlarmID)
	}
}
