package notify

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aquabalance/aquabalance/internal/alarm"
	"github.com/aquabalance/aquabalance/internal/store"
	"github.com/aquabalance/aquabalance/pkg/logger"
)

type mockSender struct {
	mu    sync.Mutex
	calls []string
	urls  []string
	fail  map[string]error
}

func (m *mockSender) Send(url, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, url)
	m.calls = append(m.calls, message)
	return m.fail[url]
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.MemoryPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func reminder(id int, onDrink, onSkip, onTap func()) alarm.Notification {
	return alarm.Notification{
		ID:        id,
		ChannelID: "water_reminder_channel",
		Title:     "Time to Hydrate!",
		Body:      "Drink a glass",
		Actions: []alarm.Action{
			{ID: alarm.ActionDrink, Label: "I Drank Water", Invoke: onDrink},
			{ID: alarm.ActionSkip, Label: "Skip", Invoke: onSkip},
		},
		OnTap:      onTap,
		AutoCancel: true,
	}
}

func newTestCenter(t *testing.T, sender Sender, urls ...string) (*Center, *store.Store) {
	t.Helper()
	st := setupTestStore(t)
	c := NewCenter(Config{URLs: urls, BaseURL: "http://127.0.0.1:8765/"}, sender, st, logger.NewMockLogger())
	if err := c.EnsureChannel(alarm.DefaultReminder().Channel); err != nil {
		t.Fatalf("EnsureChannel: %v", err)
	}
	return c, st
}

func TestEnsureChannel_Idempotent(t *testing.T) {
	c, st := newTestCenter(t, &mockSender{})
	ch := alarm.DefaultReminder().Channel
	ch.Name = "changed"
	if err := c.EnsureChannel(ch); err != nil {
		t.Fatalf("EnsureChannel: %v", err)
	}
	chans := c.Channels()
	if len(chans) != 1 || chans[0].Name != "Water Reminders" {
		t.Errorf("expected the first registration to stick, got %+v", chans)
	}
	stored, _ := st.ListChannels()
	if len(stored) != 1 {
		t.Errorf("expected 1 stored channel, got %d", len(stored))
	}
}

// flakyRegistry fails the first failures channel writes.
type flakyRegistry struct {
	*store.Store
	failures int
}

func (r *flakyRegistry) EnsureChannel(ch alarm.Channel) (bool, error) {
	if r.failures > 0 {
		r.failures--
		return false, errors.New("database is locked")
	}
	return r.Store.EnsureChannel(ch)
}

func TestEnsureChannel_RetriesAfterStoreError(t *testing.T) {
	st := setupTestStore(t)
	c := NewCenter(Config{}, &mockSender{}, &flakyRegistry{Store: st, failures: 1}, logger.NewMockLogger())
	ch := alarm.DefaultReminder().Channel

	if err := c.EnsureChannel(ch); err == nil {
		t.Fatal("expected the store error")
	}
	if len(c.Channels()) != 0 {
		t.Fatal("channel registered although it was not persisted")
	}
	if err := c.EnsureChannel(ch); err != nil {
		t.Fatalf("EnsureChannel retry: %v", err)
	}
	stored, _ := st.ListChannels()
	if len(stored) != 1 || len(c.Channels()) != 1 {
		t.Fatalf("stored %d, registered %d channels, want 1 each", len(stored), len(c.Channels()))
	}
}

func TestPost_UnknownChannel(t *testing.T) {
	c := NewCenter(Config{}, &mockSender{}, nil, nil)
	err := c.Post(alarm.Notification{ID: 1, ChannelID: "nope"})
	if !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
}

func TestPost_RendersLinksAndRecords(t *testing.T) {
	sender := &mockSender{}
	c, st := newTestCenter(t, sender, "generic://a", "generic://b")

	if err := c.Post(reminder(3, nil, nil, func() {})); err != nil {
		t.Fatalf("Post: %v", err)
	}

	if len(sender.calls) != 2 {
		t.Fatalf("expected delivery to both URLs, got %d", len(sender.calls))
	}
	msg := sender.calls[0]
	for _, want := range []string{"Time to Hydrate!", "Drink a glass", "I Drank Water: http://127.0.0.1:8765/actions/", "Skip: ", "Open: "} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	active := c.Active()
	if len(active) != 1 || len(active[0].Links) != 3 {
		t.Fatalf("expected one active notification with 3 links, got %+v", active)
	}
	hist, _ := st.ListHistory(10)
	if len(hist) != 2 || hist[0].Status != store.StatusSent {
		t.Errorf("unexpected history %+v", hist)
	}
}

func TestPost_DeliveryFailureRecorded(t *testing.T) {
	sender := &mockSender{fail: map[string]error{"generic://bad": errors.New("refused")}}
	c, st := newTestCenter(t, sender, "generic://bad", "generic://good")

	err := c.Post(reminder(1, nil, nil, nil))
	if !errors.Is(err, alarm.ErrNotDelivered) || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("expected delivery error, got %v", err)
	}
	if len(c.Active()) != 1 {
		t.Error("expected the notification to stay active")
	}
	hist, _ := st.ListHistory(10)
	failed := 0
	for _, h := range hist {
		if h.Status == store.StatusFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failed delivery, got %d", failed)
	}
}

func TestPost_ReplacesSameID(t *testing.T) {
	c, _ := newTestCenter(t, &mockSender{})
	c.Post(reminder(1, nil, nil, nil))
	old := c.Active()[0].Links[0].Token
	c.Post(reminder(1, nil, nil, nil))

	if len(c.Active()) != 1 {
		t.Fatalf("expected a single active notification, got %d", len(c.Active()))
	}
	if _, err := c.Tap(old); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("expected replaced link to be invalid, got %v", err)
	}
}

func TestTap_RunsCallbackAndAutoCancels(t *testing.T) {
	c, _ := newTestCenter(t, &mockSender{})
	var drank, skipped int
	c.Post(reminder(2, func() { drank++ }, func() { skipped++ }, nil))

	links := c.Active()[0].Links
	actionID, err := c.Tap(links[0].Token)
	if err != nil {
		t.Fatalf("Tap: %v", err)
	}
	if actionID != alarm.ActionDrink || drank != 1 {
		t.Errorf("expected drink callback, got action %q drank=%d", actionID, drank)
	}
	if len(c.Active()) != 0 {
		t.Error("expected auto-cancel to dismiss the notification")
	}
	if _, err := c.Tap(links[1].Token); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("expected sibling link invalidated, got %v", err)
	}
	if skipped != 0 {
		t.Error("skip callback must not run")
	}
}

func TestTap_WithoutAutoCancel(t *testing.T) {
	c, _ := newTestCenter(t, &mockSender{})
	n := reminder(4, func() {}, nil, nil)
	n.AutoCancel = false
	c.Post(n)

	token := c.Active()[0].Links[0].Token
	for i := 0; i < 2; i++ {
		if _, err := c.Tap(token); err != nil {
			t.Fatalf("tap %d: %v", i, err)
		}
	}
}

func TestDismiss(t *testing.T) {
	c, _ := newTestCenter(t, &mockSender{})
	c.Post(reminder(5, nil, nil, nil))
	if !c.Dismiss(5) {
		t.Error("expected Dismiss to report an active notification")
	}
	if c.Dismiss(5) {
		t.Error("expected second Dismiss to report nothing")
	}
}

func TestNewCenter_DefaultSenders(t *testing.T) {
	if _, ok := NewCenter(Config{}, nil, nil, nil).sender.(LogSender); !ok {
		t.Error("expected LogSender without URLs")
	}
	if _, ok := NewCenter(Config{URLs: []string{"generic://x"}}, nil, nil, nil).sender.(ShoutrrrSender); !ok {
		t.Error("expected ShoutrrrSender with URLs")
	}
}

func TestLogSender(t *testing.T) {
	m := logger.NewMockLogger()
	if err := (LogSender{Log: m}).Send("", "hello"); err != nil {
		t.Fatal(err)
	}
	if len(m.InfoCalls) != 1 || !strings.Contains(m.InfoCalls[0], "hello") {
		t.Errorf("unexpected log %v", m.InfoCalls)
	}
}
