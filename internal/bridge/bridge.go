// Package bridge is the application-layer surface of the reminder daemon.
// It turns loosely typed commands into scheduler calls with configured
// defaults and routes notification actions back to the application layer,
// holding the most recent one while no listener is attached.
package bridge

import (
	"errors"
	"sync"

	"github.com/aquabalance/aquabalance/internal/alarm"
	"github.com/aquabalance/aquabalance/pkg/logger"
)

// ErrNoListener is returned by an EventSink that has nobody to deliver to.
var ErrNoListener = errors.New("no action listener attached")

// EventSink delivers notification actions to the application layer.
type EventSink interface {
	DeliverAction(a alarm.NotificationAction) error
}

// Scheduler is the alarm scheduler as seen by the bridge.
type Scheduler interface {
	ScheduleOneShot(delaySeconds int) bool
	ScheduleDaily(spec alarm.AlarmSpec) bool
	Cancel(alarmID int) bool
}

// Bridge implements alarm.ActionRouter.
type Bridge struct {
	defaults alarm.Defaults
	sched    Scheduler
	log      logger.Logger

	mu      sync.Mutex
	sink    EventSink
	pending *alarm.NotificationAction
	onOpen  func()
}

// New creates a Bridge. Absent command parameters take their values from
// defaults.
func New(defaults alarm.Defaults, sched Scheduler, l logger.Logger) *Bridge {
	return &Bridge{
		defaults: defaults,
		sched:    sched,
		log:      logger.OrNop(l),
	}
}

// ScheduleOneShot arms the one-shot alarm. A nil seconds uses the default
// delay.
func (b *Bridge) ScheduleOneShot(seconds *int) bool {
	return b.sched.ScheduleOneShot(b.defaults.OneShotSecondsOr(seconds))
}

// OneShotDelay returns the delay ScheduleOneShot arms for seconds.
func (b *Bridge) OneShotDelay(seconds *int) int {
	return b.defaults.OneShotSecondsOr(seconds)
}

// ScheduleDaily arms a daily reminder with absent fields defaulted.
func (b *Bridge) ScheduleDaily(p alarm.DailyParams) bool {
	return b.sched.ScheduleDaily(b.defaults.Resolve(p))
}

// Cancel cancels a daily reminder. A nil id cancels the default id.
func (b *Bridge) Cancel(alarmID *int) bool {
	return b.sched.Cancel(b.defaults.AlarmIDOr(alarmID))
}

// SetSink sets where actions are delivered.
func (b *Bridge) SetSink(sink EventSink) {
	b.mu.Lock()
	b.sink = sink
	b.mu.Unlock()
}

// OnOpenApp sets the function run when a notification body is tapped.
func (b *Bridge) OnOpenApp(fn func()) {
	b.mu.Lock()
	b.onOpen = fn
	b.mu.Unlock()
}

// RouteAction delivers a to the application layer, or buffers it when no
// listener is attached. Only the most recent undelivered action is kept.
func (b *Bridge) RouteAction(a alarm.NotificationAction) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.deliverLocked(a) {
		return
	}
	if b.pending != nil {
		b.log.Warning("action %q replaces undelivered %q", a.ActionID, b.pending.ActionID)
	}
	b.pending = &a
}

// Ready flushes the buffered action, if any, to the newly attached
// listener. The buffer is cleared once delivery succeeds.
func (b *Bridge) Ready() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == nil {
		return
	}
	if b.deliverLocked(*b.pending) {
		b.pending = nil
	}
}

// Pending returns the buffered action.
func (b *Bridge) Pending() (alarm.NotificationAction, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return alarm.NotificationAction{}, false
	}
	return *b.pending, true
}

func (b *Bridge) deliverLocked(a alarm.NotificationAction) bool {
	if b.sink == nil {
		return false
	}
	err := b.sink.DeliverAction(a)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrNoListener):
	default:
		b.log.Error("deliver action %q: %v", a.ActionID, err)
	}
	return false
}

// OpenApp handles a tap on the notification body.
func (b *Bridge) OpenApp() {
	b.mu.Lock()
	fn := b.onOpen
	b.mu.Unlock()
	if fn != nil {
		fn()
		return
	}
	b.log.Info("notification opened")
}

var _ alarm.ActionRouter = (*Bridge)(nil)
