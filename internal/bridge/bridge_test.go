package bridge

import (
	"errors"
	"testing"

	"github.com/aquabalance/aquabalance/internal/alarm"
	"github.com/aquabalance/aquabalance/pkg/logger"
)

type mockScheduler struct {
	oneShot []int
	daily   []alarm.AlarmSpec
	cancel  []int
	result  bool
}

func (m *mockScheduler) ScheduleOneShot(s int) bool {
	m.oneShot = append(m.oneShot, s)
	return m.result
}

func (m *mockScheduler) ScheduleDaily(spec alarm.AlarmSpec) bool {
	m.daily = append(m.daily, spec)
	return m.result
}

func (m *mockScheduler) Cancel(id int) bool {
	m.cancel = append(m.cancel, id)
	return m.result
}

type mockSink struct {
	delivered []alarm.NotificationAction
	err       error
}

func (m *mockSink) DeliverAction(a alarm.NotificationAction) error {
	if m.err != nil {
		return m.err
	}
	m.delivered = append(m.delivered, a)
	return nil
}

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func TestCommands_ApplyDefaults(t *testing.T) {
	sched := &mockScheduler{result: true}
	b := New(alarm.DefaultReminder(), sched, nil)

	if !b.ScheduleOneShot(nil) || !b.ScheduleOneShot(intp(5)) {
		t.Fatal("expected one-shot commands to succeed")
	}
	if sched.oneShot[0] != 30 || sched.oneShot[1] != 5 {
		t.Errorf("unexpected one-shot delays %v", sched.oneShot)
	}

	b.ScheduleDaily(alarm.DailyParams{})
	b.ScheduleDaily(alarm.DailyParams{AlarmID: intp(2), Hour: intp(21), Payload: strp("evening")})

	def := sched.daily[0]
	if def.AlarmID != 0 || def.Hour != 9 || def.Minute != 0 || def.Title != "Time to Hydrate! 💧" || def.Payload != "" {
		t.Errorf("unexpected defaulted spec %+v", def)
	}
	custom := sched.daily[1]
	if custom.AlarmID != 2 || custom.Hour != 21 || custom.Minute != 0 || custom.Payload != "evening" {
		t.Errorf("unexpected custom spec %+v", custom)
	}
	if custom.Body != "Remember to log your water intake and stay hydrated!" {
		t.Errorf("expected default body, got %q", custom.Body)
	}

	b.Cancel(nil)
	b.Cancel(intp(2))
	if sched.cancel[0] != 0 || sched.cancel[1] != 2 {
		t.Errorf("unexpected cancel ids %v", sched.cancel)
	}
}

func TestCommands_PropagateFailure(t *testing.T) {
	b := New(alarm.DefaultReminder(), &mockScheduler{result: false}, nil)
	if b.ScheduleOneShot(nil) || b.ScheduleDaily(alarm.DailyParams{}) || b.Cancel(nil) {
		t.Fatal("expected false results from a failing scheduler")
	}
}

func TestRouteAction_DeliversDirectly(t *testing.T) {
	sink := &mockSink{}
	b := New(alarm.DefaultReminder(), &mockScheduler{}, nil)
	b.SetSink(sink)

	b.RouteAction(alarm.NotificationAction{ActionID: alarm.ActionDrink, Payload: "p"})

	if len(sink.delivered) != 1 {
		t.Fatalf("expected direct delivery, got %d", len(sink.delivered))
	}
	if _, ok := b.Pending(); ok {
		t.Error("expected nothing buffered")
	}
}

func TestRouteAction_BufferOverwriteAndFlushOnce(t *testing.T) {
	sink := &mockSink{err: ErrNoListener}
	log := logger.NewMockLogger()
	b := New(alarm.DefaultReminder(), &mockScheduler{}, log)
	b.SetSink(sink)

	b.RouteAction(alarm.NotificationAction{ActionID: alarm.ActionDrink, Payload: "a"})
	b.RouteAction(alarm.NotificationAction{ActionID: alarm.ActionSkip, Payload: "b"})

	got, ok := b.Pending()
	if !ok || got.ActionID != alarm.ActionSkip || got.Payload != "b" {
		t.Fatalf("expected the second action buffered, got %+v ok=%v", got, ok)
	}
	if len(log.Warnings()) != 1 {
		t.Errorf("expected one overwrite warning, got %v", log.Warnings())
	}

	sink.err = nil
	b.Ready()
	b.Ready()

	if len(sink.delivered) != 1 {
		t.Fatalf("expected exactly one flushed action, got %d", len(sink.delivered))
	}
	if sink.delivered[0].Payload != "b" {
		t.Errorf("expected the last action flushed, got %+v", sink.delivered[0])
	}
	if _, ok := b.Pending(); ok {
		t.Error("expected buffer cleared after flush")
	}
}

func TestRouteAction_NoSinkBuffers(t *testing.T) {
	b := New(alarm.DefaultReminder(), &mockScheduler{}, nil)
	b.RouteAction(alarm.NotificationAction{ActionID: alarm.ActionDrink})
	if _, ok := b.Pending(); !ok {
		t.Fatal("expected action buffered without a sink")
	}
	b.Ready()
	if _, ok := b.Pending(); !ok {
		t.Error("expected action to stay buffered while no sink exists")
	}
}

func TestRouteAction_SinkErrorLogged(t *testing.T) {
	log := logger.NewMockLogger()
	b := New(alarm.DefaultReminder(), &mockScheduler{}, log)
	b.SetSink(&mockSink{err: errors.New("broken pipe")})
	b.RouteAction(alarm.NotificationAction{ActionID: alarm.ActionSkip})
	if len(log.Errors()) != 1 {
		t.Errorf("expected delivery error logged, got %v", log.Errors())
	}
	if _, ok := b.Pending(); !ok {
		t.Error("expected action buffered after a delivery error")
	}
}

func TestOpenApp(t *testing.T) {
	b := New(alarm.DefaultReminder(), &mockScheduler{}, nil)
	b.OpenApp()
	opened := 0
	b.OnOpenApp(func() { opened++ })
	b.OpenApp()
	if opened != 1 {
		t.Errorf("expected hook called once, got %d", opened)
	}
}
