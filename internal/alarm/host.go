package alarm

import (
	"errors"
	"time"
)

// ClockBase selects the clock a wake time is expressed on.
type ClockBase string

const (
	// WallClock wakes are expressed in Unix milliseconds.
	WallClock ClockBase = "wall_clock"
	// BootUptime wakes are expressed in milliseconds since boot and are not
	// affected by wall-clock or time-zone changes.
	BootUptime ClockBase = "boot_uptime"
)

// Wake describes one exact, doze-exempt wake registration.
type Wake struct {
	Key  int
	At   int64
	Base ClockBase
	// Spec is the data attached to the wake. Nil for one-shot wakes.
	Spec *AlarmSpec
}

// WakeHandle is a pending registration returned by LookupPending.
type WakeHandle interface {
	Wake() Wake
	// Cancel invalidates the handle; a later fire through it is dropped.
	Cancel() error
}

// WakeScheduler is the host timer service. Registering a key that is
// already pending replaces the earlier registration.
type WakeScheduler interface {
	RegisterExactWake(w Wake, onFire func()) error
	Cancel(key int) error
	// LookupPending never creates a registration.
	LookupPending(key int) (WakeHandle, bool)
}

// Importance of a notification channel.
type Importance int

const (
	ImportanceDefault Importance = iota
	ImportanceHigh
)

func (i Importance) String() string {
	switch i {
	case ImportanceHigh:
		return "high"
	default:
		return "default"
	}
}

// Channel is a notification channel (category).
type Channel struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Importance  Importance `json:"importance"`
	Vibrate     bool       `json:"vibrate"`
}

// Action is a button rendered on a notification.
type Action struct {
	ID     string
	Label  string
	Invoke func()
}

// Notification is what the dispatcher hands to the Notifier.
type Notification struct {
	ID         int
	ChannelID  string
	Title      string
	Body       string
	Actions    []Action
	OnTap      func()
	AutoCancel bool
}

// ErrNotDelivered is wrapped by Notifier.Post when the notification is shown
// but could not be delivered to some destination.
var ErrNotDelivered = errors.New("notification not delivered")

// Notifier is the host notification service. EnsureChannel is idempotent
// and Post replaces any notification with the same ID.
type Notifier interface {
	EnsureChannel(ch Channel) error
	Post(n Notification) error
}

// ActionRouter hands notification taps to the application layer.
type ActionRouter interface {
	RouteAction(a NotificationAction)
	OpenApp()
}

// Clock supplies the wall clock and the boot-uptime clock.
type Clock interface {
	Now() time.Time
	Uptime() time.Duration
}

// PermissionChecker reports whether exact alarms may be scheduled.
type PermissionChecker interface {
	CanScheduleExactAlarms() bool
}

// SystemClock measures uptime from the moment it was created.
type SystemClock struct {
	boot time.Time
}

// NewSystemClock returns a clock whose uptime starts now.
func NewSystemClock() *SystemClock {
	return &SystemClock{boot: time.Now()}
}

func (c *SystemClock) Now() time.Time { return time.Now() }

// Uptime uses the monotonic reading, so wall-clock steps do not move it.
func (c *SystemClock) Uptime() time.Duration { return time.Since(c.boot) }

// Boot returns the instant uptime is measured from.
func (c *SystemClock) Boot() time.Time { return c.boot }

// ExactAlarmPolicy is a fixed permission answer.
type ExactAlarmPolicy bool

func (p ExactAlarmPolicy) CanScheduleExactAlarms() bool { return bool(p) }
