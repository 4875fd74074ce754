package cmd

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"

	"github.com/aquabalance/aquabalance/cmd/common"
	"github.com/aquabalance/aquabalance/internal/alarm"
	"github.com/aquabalance/aquabalance/internal/config"
	"github.com/aquabalance/aquabalance/internal/server"
	"github.com/aquabalance/aquabalance/internal/store"
	"github.com/aquabalance/aquabalance/pkg/logger"
)

const testSecret = "test-secret"

// syncBuffer is a bytes.Buffer safe for the progress bar goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureStdout(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	old := common.Out
	common.Out = buf
	t.Cleanup(func() { common.Out = old })
	return buf
}

func assertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// startTestDaemon runs the full component graph on an ephemeral port with
// an in-memory database and returns its base URL.
func startTestDaemon(t *testing.T, opts ...func(*config.Config)) (string, *DaemonComponents) {
	t.Helper()
	t.Setenv(config.DataDirEnv, t.TempDir())

	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"
	for _, o := range opts {
		o(&cfg)
	}
	st, err := store.Open(store.MemoryPath, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	comps, err := buildComponents(cfg, testSecret, st, logger.NewMockLogger())
	if err != nil {
		t.Fatalf("buildComponents: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- comps.Runner.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		comps.Close()
	})

	deadline := time.Now().Add(2 * time.Second)
	for comps.Runner.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("daemon did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return "http://" + comps.Runner.Addr().String(), comps
}

func run(t *testing.T, url string, args ...string) {
	t.Helper()
	full := append([]string{"aqua", "--url", url, "--secret", testSecret}, args...)
	if err := Execute(full, BuildArgs{Version: "1.0.0", BuildType: "test"}); err != nil {
		t.Fatalf("Execute(%v): %v", args, err)
	}
}

func TestDailyListCancel(t *testing.T) {
	url, comps := startTestDaemon(t)
	out := captureStdout(t)

	run(t, url, "daily", "--id", "3", "--hour", "7", "--minute", "15", "--title", "Morning glass")
	assertContains(t, out.String(), "Daily reminder 3 armed, next at")

	if _, ok := comps.Wake.LookupPending(3); !ok {
		t.Fatal("expected a pending wake for alarm 3")
	}

	run(t, url, "list")
	assertContains(t, out.String(), "#3")
	assertContains(t, out.String(), "Morning glass")

	run(t, url, "cancel", "--id", "3")
	assertContains(t, out.String(), "Reminder 3 cancelled.")
	if _, ok := comps.Wake.LookupPending(3); ok {
		t.Fatal("expected alarm 3 cancelled")
	}
}

func TestDaily_InvalidTimeNotScheduled(t *testing.T) {
	url, _ := startTestDaemon(t)
	out := captureStdout(t)

	run(t, url, "daily", "--hour", "25")
	assertContains(t, out.String(), "not scheduled")
}

func TestOnceWait_CountdownUntilFired(t *testing.T) {
	url, comps := startTestDaemon(t)
	out := captureStdout(t)

	run(t, url, "once", "--seconds", "1", "--wait")
	assertContains(t, out.String(), "One-shot reminder armed in 1s.")
	assertContains(t, out.String(), alarm.DefaultReminder().Title)

	// The fired one-shot re-arms as the default daily reminder.
	deadline := time.Now().Add(2 * time.Second)
	for {
		w, ok := comps.Wake.LookupPending(alarm.OneShotSlot)
		if ok && w.Wake().Base == alarm.WallClock {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected the default daily reminder re-armed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestOnce_UsesDaemonDefaultDelay(t *testing.T) {
	url, comps := startTestDaemon(t, func(c *config.Config) { c.Reminder.OneShotSeconds = 600 })
	out := captureStdout(t)

	run(t, url, "once")
	assertContains(t, out.String(), "One-shot reminder armed in 600s.")
	w, ok := comps.Wake.LookupPending(alarm.OneShotSlot)
	if !ok || w.Wake().Base != alarm.BootUptime {
		t.Fatalf("expected a pending one-shot wake, got %v", ok)
	}
}

func TestNext_NoDaemonNeeded(t *testing.T) {
	out := captureStdout(t)
	if err := Execute([]string{"aqua", "next", "--hour", "6", "--minute", "5"}, BuildArgs{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	assertContains(t, out.String(), "06:05 next fires at")
}

func TestConnect_BadSecret(t *testing.T) {
	url, _ := startTestDaemon(t)
	out := captureStdout(t)

	full := []string{"aqua", "--url", url, "--secret", "wrong", "list"}
	if err := Execute(full, BuildArgs{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.Contains(out.String(), "Pending reminders") {
		t.Fatal("expected the call to be rejected")
	}
	assertContains(t, out.String(), "list[connect]")
}

func TestResolveSecret_Keyring(t *testing.T) {
	keyring.MockInit()
	old := appFs
	appFs = afero.NewMemMapFs()
	defer func() { appFs = old }()

	cfg := config.Default()
	cfg.DataDir = "/data"
	first, err := resolveSecret(cfg, nil)
	if err != nil || first == "" {
		t.Fatalf("resolveSecret = %q, %v", first, err)
	}
	second, _ := resolveSecret(cfg, nil)
	if second != first {
		t.Fatal("expected the stored secret to be reused")
	}

	cfg.Secret = "explicit"
	if s, _ := resolveSecret(cfg, nil); s != "explicit" {
		t.Fatalf("expected explicit secret, got %q", s)
	}
}

func TestStopDaemon_NoPidFile(t *testing.T) {
	old := appFs
	appFs = afero.NewMemMapFs()
	defer func() { appFs = old }()
	out := captureStdout(t)

	if err := Execute([]string{"aqua", "--data-dir", "/data", "stop"}, BuildArgs{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	assertContains(t, out.String(), "Daemon is not running")
}

func TestStopDaemon_KillsRecordedPid(t *testing.T) {
	old := appFs
	appFs = afero.NewMemMapFs()
	defer func() { appFs = old }()
	afero.WriteFile(appFs, "/data/aquad.pid", []byte("4242"), 0644)

	var killed int
	oldKill := killProcess
	killProcess = func(pid int) error { killed = pid; return nil }
	defer func() { killProcess = oldKill }()
	out := captureStdout(t)

	if err := Execute([]string{"aqua", "--data-dir", "/data", "stop"}, BuildArgs{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if killed != 4242 {
		t.Fatalf("expected PID 4242 killed, got %d", killed)
	}
	assertContains(t, out.String(), "Daemon stopped successfully")
}

func TestRunDaemon_CancelIsCleanStop(t *testing.T) {
	t.Setenv(config.DataDirEnv, t.TempDir())
	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"
	st, err := store.Open(store.MemoryPath, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	other, err := buildComponents(cfg, testSecret, st, logger.NewMockLogger())
	if err != nil {
		t.Fatalf("buildComponents: %v", err)
	}
	defer other.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runDaemon(ctx, other.Runner, logger.NewMockLogger()) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runDaemon: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runDaemon did not return")
	}
}

func TestFormatAction(t *testing.T) {
	tests := []struct {
		in   alarm.NotificationAction
		want string
	}{
		{alarm.NotificationAction{ActionID: alarm.ActionDrink}, "action\tdrank"},
		{alarm.NotificationAction{ActionID: alarm.ActionSkip, Payload: "p"}, "action\tskipped\tp"},
		{alarm.NotificationAction{ActionID: "other"}, "action\tother"},
	}
	for _, tt := range tests {
		if got := formatAction(tt.in); got != tt.want {
			t.Errorf("formatAction(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintPending(t *testing.T) {
	var buf bytes.Buffer
	printPending(&buf, nil)
	assertContains(t, buf.String(), "No pending reminders.")

	buf.Reset()
	printPending(&buf, []*server.PendingItem{
		{Key: 0, ClockBase: string(alarm.BootUptime), At: 90000},
		{Key: 2, ClockBase: string(alarm.WallClock), At: time.Now().UnixMilli(), Spec: &alarm.AlarmSpec{Title: "Noon"}},
	})
	assertContains(t, buf.String(), "uptime +1m30s")
	assertContains(t, buf.String(), "#2")
	assertContains(t, buf.String(), "Noon")
}
