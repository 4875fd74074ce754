package alarm

import (
	"errors"
	"sync"
	"time"
)

type fakeHandle struct {
	wake      Wake
	cancelled bool
}

func (h *fakeHandle) Wake() Wake { return h.wake }

func (h *fakeHandle) Cancel() error {
	h.cancelled = true
	return nil
}

type fakeEntry struct {
	handle *fakeHandle
	onFire func()
}

// fakeWake is an in-memory WakeScheduler. Tests fire registrations by hand.
type fakeWake struct {
	mu          sync.Mutex
	pending     map[int]*fakeEntry
	registered  []Wake
	registerErr error
	cancelErr   error
	panicOn     string
}

func newFakeWake() *fakeWake {
	return &fakeWake{pending: make(map[int]*fakeEntry)}
}

func (f *fakeWake) RegisterExactWake(w Wake, onFire func()) error {
	if f.panicOn == "register" {
		panic("timer service crashed")
	}
	if f.registerErr != nil {
		return f.registerErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[w.Key] = &fakeEntry{handle: &fakeHandle{wake: w}, onFire: onFire}
	f.registered = append(f.registered, w)
	return nil
}

func (f *fakeWake) Cancel(key int) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pending[key]; !ok {
		return ErrNotPending
	}
	delete(f.pending, key)
	return nil
}

func (f *fakeWake) LookupPending(key int) (WakeHandle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.pending[key]
	if !ok {
		return nil, false
	}
	return e.handle, true
}

// fire removes the registration for key and runs its callback, the way the
// wake service does when the registration comes due.
func (f *fakeWake) fire(key int) bool {
	f.mu.Lock()
	e, ok := f.pending[key]
	if ok {
		delete(f.pending, key)
	}
	f.mu.Unlock()
	if !ok || e.handle.cancelled {
		return false
	}
	e.onFire()
	return true
}

func (f *fakeWake) last() Wake {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered[len(f.registered)-1]
}

type fakeClock struct {
	now    time.Time
	uptime time.Duration
}

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Uptime() time.Duration { return c.uptime }

type fakeNotifier struct {
	channels  map[string]Channel
	ensured   int
	posted    []Notification
	postErr   error
	postPanic bool
	onPost    func()
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{channels: make(map[string]Channel)}
}

func (n *fakeNotifier) EnsureChannel(ch Channel) error {
	n.ensured++
	if _, ok := n.channels[ch.ID]; !ok {
		n.channels[ch.ID] = ch
	}
	return nil
}

func (n *fakeNotifier) Post(notif Notification) error {
	if n.onPost != nil {
		n.onPost()
	}
	if n.postPanic {
		panic("notification service crashed")
	}
	if n.postErr != nil && !errors.Is(n.postErr, ErrNotDelivered) {
		return n.postErr
	}
	n.posted = append(n.posted, notif)
	return n.postErr
}

type fakeRouter struct {
	actions []NotificationAction
	opened  int
}

func (r *fakeRouter) RouteAction(a NotificationAction) { r.actions = append(r.actions, a) }
func (r *fakeRouter) OpenApp()                         { r.opened++ }

var errHost = errors.New("host unavailable")
