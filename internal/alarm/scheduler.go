package alarm

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aquabalance/aquabalance/pkg/logger"
)

// Sentinel errors shared with the host services.
var (
	// ErrNotPending is returned by a WakeScheduler when the key has no
	// pending registration.
	ErrNotPending = errors.New("no pending wake for key")

	// ErrInvalidTime is reported when hour or minute is out of range.
	ErrInvalidTime = errors.New("time of day out of range")

	// ErrNoWakeScheduler is returned by NewScheduler without a wake service.
	ErrNoWakeScheduler = errors.New("wake scheduler is required")
)

// Dependencies are the host services used by the Scheduler.
type Dependencies struct {
	// Wake is the host timer service. Required.
	Wake WakeScheduler

	// Clock defaults to a SystemClock.
	Clock Clock

	// Permission defaults to granting exact alarms.
	Permission PermissionChecker

	// Logger defaults to a NopLogger.
	Logger logger.Logger
}

// Scheduler computes fire instants and registers them with the wake service.
// Every operation reports failure as false; host errors and panics never
// escape.
type Scheduler struct {
	wake     WakeScheduler
	clock    Clock
	perm     PermissionChecker
	log      logger.Logger
	defaults Defaults

	mu     sync.RWMutex
	onFire func(AlarmSpec)

	// armMu orders registrations against Cancel. gen counts explicit
	// schedule and cancel calls per key; firing holds the generation of
	// each key whose fire is in progress.
	armMu  sync.Mutex
	gen    map[int]uint64
	firing map[int]uint64
}

// errSuperseded is reported internally when a re-arm loses to a Cancel or
// an explicit schedule issued during the fire.
var errSuperseded = errors.New("alarm changed while firing")

// NewScheduler creates a Scheduler. Wakes that carry no spec fire as
// defaults.Spec().
func NewScheduler(defaults Defaults, deps Dependencies) (*Scheduler, error) {
	if deps.Wake == nil {
		return nil, ErrNoWakeScheduler
	}
	if deps.Clock == nil {
		deps.Clock = NewSystemClock()
	}
	if deps.Permission == nil {
		deps.Permission = ExactAlarmPolicy(true)
	}
	return &Scheduler{
		wake:     deps.Wake,
		clock:    deps.Clock,
		perm:     deps.Permission,
		log:      logger.OrNop(deps.Logger),
		defaults: defaults,
		gen:      make(map[int]uint64),
		firing:   make(map[int]uint64),
	}, nil
}

// OnFire sets the function invoked when a registered wake fires.
func (s *Scheduler) OnFire(fn func(AlarmSpec)) {
	s.mu.Lock()
	s.onFire = fn
	s.mu.Unlock()
}

// Callback returns the fire callback for w. It is used both for new
// registrations and for registrations restored by the wake service.
func (s *Scheduler) Callback(w Wake) func() {
	s.armMu.Lock()
	defer s.armMu.Unlock()
	return s.callbackLocked(w)
}

func (s *Scheduler) callbackLocked(w Wake) func() {
	spec := s.defaults.Spec()
	if w.Spec != nil {
		spec = *w.Spec
	}
	g := s.gen[w.Key]
	return func() { s.fire(w.Key, g, spec) }
}

// fire runs the fire handler unless key was cancelled or rescheduled after
// the wake was registered with generation g.
func (s *Scheduler) fire(key int, g uint64, spec AlarmSpec) {
	s.armMu.Lock()
	if s.gen[key] != g {
		s.armMu.Unlock()
		s.log.Info("alarm %d: stale wake dropped", key)
		return
	}
	s.firing[key] = g
	s.armMu.Unlock()
	defer func() {
		s.armMu.Lock()
		delete(s.firing, key)
		s.armMu.Unlock()
	}()

	s.mu.RLock()
	fn := s.onFire
	s.mu.RUnlock()
	if fn == nil {
		s.log.Warning("alarm %d fired with no handler", spec.AlarmID)
		return
	}
	fn(spec)
}

// register hands w to the wake service. Explicit registrations start a new
// generation for the key; a re-arm is refused once the key's generation
// moved on during its fire.
func (s *Scheduler) register(w Wake, explicit bool) error {
	s.armMu.Lock()
	defer s.armMu.Unlock()
	if explicit {
		s.gen[w.Key]++
	} else if g, ok := s.firing[w.Key]; ok && g != s.gen[w.Key] {
		return errSuperseded
	}
	return s.wake.RegisterExactWake(w, s.callbackLocked(w))
}

// ScheduleOneShot registers a wake delaySeconds from now on the boot-uptime
// clock in slot OneShotSlot, replacing any pending one-shot alarm.
func (s *Scheduler) ScheduleOneShot(delaySeconds int) (ok bool) {
	defer s.recoverHost("schedule one-shot", &ok)

	at := s.clock.Uptime() + time.Duration(delaySeconds)*time.Second
	w := Wake{
		Key:  OneShotSlot,
		At:   at.Milliseconds(),
		Base: BootUptime,
	}
	if err := s.register(w, true); err != nil {
		s.log.Error("schedule one-shot in %ds: %v", delaySeconds, err)
		return false
	}
	s.log.Info("one-shot alarm armed in %ds", delaySeconds)
	return true
}

// ScheduleDaily registers the next occurrence of spec's time of day under
// spec.AlarmID. It returns false without registering when exact alarms are
// not permitted.
func (s *Scheduler) ScheduleDaily(spec AlarmSpec) (ok bool) {
	defer s.recoverHost("schedule daily", &ok)
	return s.armDaily(spec, true)
}

// Rearm registers the occurrence following a fire of spec. It is a no-op
// reporting true when the alarm was cancelled or rescheduled while the fire
// was in progress.
func (s *Scheduler) Rearm(spec AlarmSpec) (ok bool) {
	defer s.recoverHost("re-arm", &ok)
	return s.armDaily(spec, false)
}

func (s *Scheduler) armDaily(spec AlarmSpec, explicit bool) bool {
	if !spec.Valid() {
		s.log.Warning("alarm %d: %02d:%02d: %v", spec.AlarmID, spec.Hour, spec.Minute, ErrInvalidTime)
		return false
	}
	if !s.perm.CanScheduleExactAlarms() {
		s.log.Warning("alarm %d: exact alarms are not permitted", spec.AlarmID)
		return false
	}

	at := NextDailyFire(s.clock.Now(), spec.Hour, spec.Minute)
	w := Wake{
		Key:  spec.AlarmID,
		At:   at.UnixMilli(),
		Base: WallClock,
		Spec: &spec,
	}
	err := s.register(w, explicit)
	switch {
	case errors.Is(err, errSuperseded):
		s.log.Info("alarm %d: %v, not re-armed", spec.AlarmID, err)
		return true
	case err != nil:
		s.log.Error("schedule alarm %d: %v", spec.AlarmID, err)
		return false
	}
	s.log.Info("alarm %d armed for %s", spec.AlarmID, at.Format(time.RFC3339))
	return true
}

// Cancel removes the pending registration for alarmID. A missing
// registration is not an error. A fire of alarmID already in progress
// completes but does not re-arm.
func (s *Scheduler) Cancel(alarmID int) (ok bool) {
	defer s.recoverHost("cancel", &ok)

	s.armMu.Lock()
	defer s.armMu.Unlock()

	handle, found := s.wake.LookupPending(alarmID)
	if !found {
		s.gen[alarmID]++
		return true
	}
	if err := s.wake.Cancel(alarmID); err != nil && !errors.Is(err, ErrNotPending) {
		s.log.Error("cancel alarm %d: %v", alarmID, err)
		return false
	}
	if err := handle.Cancel(); err != nil {
		s.log.Error("invalidate alarm %d: %v", alarmID, err)
		return false
	}
	s.gen[alarmID]++
	s.log.Info("alarm %d cancelled", alarmID)
	return true
}

func (s *Scheduler) recoverHost(op string, ok *bool) {
	if r := recover(); r != nil {
		s.log.Error("%s: %v", op, fmt.Errorf("host service panic: %v", r))
		*ok = false
	}
}
