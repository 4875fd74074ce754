package wake

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aquabalance/aquabalance/internal/alarm"
	"github.com/aquabalance/aquabalance/pkg/logger"
)

const maxSleepCap = 60 * time.Second

// ErrStopped is returned when registering after the service has stopped.
var ErrStopped = errors.New("wake service stopped")

// Persister stores wall-clock registrations across restarts.
type Persister interface {
	SaveWake(w alarm.Wake) error
	DeleteWake(key int) error
	ListWakes() ([]alarm.Wake, error)
}

type entry struct {
	wake      alarm.Wake
	eta       time.Time
	seq       uint64
	onFire    func()
	cancelled atomic.Bool
}

// handle is the WakeHandle given out by LookupPending.
type handle struct {
	e *entry
}

func (h handle) Wake() alarm.Wake { return h.e.wake }

func (h handle) Cancel() error {
	h.e.cancelled.Store(true)
	return nil
}

// Service is the in-process exact wake service. It implements
// alarm.WakeScheduler.
type Service struct {
	clock alarm.Clock
	store Persister
	log   logger.Logger
	ctx   context.Context
	kick  chan struct{}
	done  chan struct{}

	mu      sync.Mutex
	h       wakeHeap
	entries map[int]*entry
	seq     uint64
}

// New creates and starts a Service. clock converts boot-uptime wakes into
// sleep durations; store may be nil. The service goroutine exits when ctx is
// cancelled.
func New(ctx context.Context, clock alarm.Clock, store Persister, l logger.Logger) *Service {
	if clock == nil {
		clock = alarm.NewSystemClock()
	}
	s := &Service{
		clock:   clock,
		store:   store,
		log:     logger.OrNop(l),
		ctx:     ctx,
		kick:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		entries: make(map[int]*entry),
	}
	go s.run()
	return s
}

// Done is closed when the service goroutine has exited.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// RegisterExactWake registers w, replacing any pending registration with
// the same key. onFire runs on the service goroutine.
func (s *Service) RegisterExactWake(w alarm.Wake, onFire func()) error {
	if s.ctx.Err() != nil {
		return ErrStopped
	}
	old := s.add(w, onFire)
	switch {
	case w.Base == alarm.WallClock && s.store != nil:
		if err := s.store.SaveWake(w); err != nil {
			s.log.Warning("wake %d not persisted: %v", w.Key, err)
		}
	case old != nil:
		s.forget(old.wake)
	}
	return nil
}

// add inserts w and returns the registration it replaced, if any.
func (s *Service) add(w alarm.Wake, onFire func()) *entry {
	s.mu.Lock()
	old, ok := s.entries[w.Key]
	if ok {
		old.cancelled.Store(true)
		heapRemoveByKey(&s.h, w.Key)
	}
	s.seq++
	e := &entry{wake: w, eta: s.eta(w), seq: s.seq, onFire: onFire}
	s.entries[w.Key] = e
	heapPush(&s.h, e)
	s.mu.Unlock()
	s.poke()
	return old
}

// Cancel removes the pending registration for key. It returns
// alarm.ErrNotPending when there is none.
func (s *Service) Cancel(key int) error {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
		heapRemoveByKey(&s.h, key)
	}
	s.mu.Unlock()
	if !ok {
		return alarm.ErrNotPending
	}
	s.forget(e.wake)
	s.poke()
	return nil
}

// LookupPending returns the pending registration for key without creating
// one.
func (s *Service) LookupPending(key int) (alarm.WakeHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return handle{e: e}, true
}

// Pending returns the pending registrations ordered by key.
func (s *Service) Pending() []alarm.Wake {
	s.mu.Lock()
	out := make([]alarm.Wake, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.wake)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Restore loads the persisted registrations and arms them with the callbacks
// built by callback. It returns the number restored.
func (s *Service) Restore(callback func(alarm.Wake) func()) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	wakes, err := s.store.ListWakes()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, w := range wakes {
		if w.Base != alarm.WallClock {
			s.forget(w)
			continue
		}
		s.add(w, callback(w))
		n++
	}
	if n > 0 {
		s.log.Info("restored %d wake registration(s)", n)
	}
	return n, nil
}

// eta estimates the wall-clock instant w is due, used for heap ordering.
func (s *Service) eta(w alarm.Wake) time.Time {
	if w.Base == alarm.BootUptime {
		return time.Now().Add(time.Duration(w.At)*time.Millisecond - s.clock.Uptime())
	}
	return time.UnixMilli(w.At)
}

// remaining is the time left before w is due on its own clock.
func (s *Service) remaining(w alarm.Wake) time.Duration {
	if w.Base == alarm.BootUptime {
		return time.Duration(w.At)*time.Millisecond - s.clock.Uptime()
	}
	return time.UnixMilli(w.At).Sub(s.clock.Now())
}

func (s *Service) forget(w alarm.Wake) {
	if w.Base != alarm.WallClock || s.store == nil {
		return
	}
	if err := s.store.DeleteWake(w.Key); err != nil {
		s.log.Warning("wake %d not removed from store: %v", w.Key, err)
	}
}

func (s *Service) poke() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// run is the service goroutine. It sleeps until the earliest registration
// is due, capped at maxSleepCap, and fires every due registration in order.
func (s *Service) run() {
	defer close(s.done)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.h.Len() == 0 {
			return nil
		}
		dur := s.remaining(s.h[0].wake)
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-s.kick:
			timerCh = resetTimer()

		case <-timerCh:
			for _, e := range s.due() {
				s.fire(e)
			}
			timerCh = resetTimer()
		}
	}
}

// due pops every registration whose time has arrived.
func (s *Service) due() []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entry
	for s.h.Len() > 0 && s.remaining(s.h[0].wake) <= 0 {
		e := heapPop(&s.h)
		if s.entries[e.wake.Key] == e {
			delete(s.entries, e.wake.Key)
		}
		out = append(out, e)
	}
	return out
}

func (s *Service) fire(e *entry) {
	if e.cancelled.Load() {
		return
	}
	s.mu.Lock()
	_, replaced := s.entries[e.wake.Key]
	s.mu.Unlock()
	if !replaced {
		s.forget(e.wake)
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("wake %d callback panic: %v", e.wake.Key, r)
		}
	}()
	e.onFire()
}
