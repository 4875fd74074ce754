package server

import (
	"context"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/aquabalance/aquabalance/internal/alarm"
	"github.com/aquabalance/aquabalance/internal/host/notify"
)

// Custom JSON-RPC error codes.
const (
	codeUnknownToken  = jrpc2.Code(-32001)
	codeInvalidParams = jrpc2.Code(-32602)
)

// Push notification methods.
const (
	MethodNotificationAction = "notification.action"
	MethodAlarmFired         = "alarm.fired"
)

// Commands is the application-layer command surface served over RPC.
type Commands interface {
	ScheduleOneShot(seconds *int) bool
	// OneShotDelay resolves seconds against the daemon's default delay.
	OneShotDelay(seconds *int) int
	ScheduleDaily(p alarm.DailyParams) bool
	Cancel(alarmID *int) bool
}

// WakeLister lists pending wake registrations.
type WakeLister interface {
	Pending() []alarm.Wake
}

// Notifications exposes the active notifications and their action links.
type Notifications interface {
	Active() []notify.Posted
	Tap(token string) (string, error)
}

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Secret    string // Auth token (required -- empty means RPC disabled)
	Version   string // Daemon version
	Commit    string // Git commit
	BuildType string // Build type
}

// RPCServer manages the JSON-RPC 2.0 bridge and method handlers.
type RPCServer struct {
	bridge    jhttp.Bridge
	methods   handler.Map
	secret    string
	version   string
	commit    string
	buildType string
	cmds      Commands
	wakes     WakeLister
	notifs    Notifications
	now       func() time.Time
}

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"buildType,omitempty"`
}

// OneShotParams is the input for alarm.scheduleOneShot.
type OneShotParams struct {
	Seconds *int `json:"seconds,omitempty"`
}

// OneShotResult is the response for alarm.scheduleOneShot. Seconds is the
// delay the daemon armed, which is its default when none was sent.
type OneShotResult struct {
	OK      bool `json:"ok"`
	Seconds int  `json:"seconds"`
}

// CancelParams is the input for alarm.cancel.
type CancelParams struct {
	AlarmID *int `json:"alarmId,omitempty"`
}

// OKResult is the boolean outcome of a scheduling command.
type OKResult struct {
	OK bool `json:"ok"`
}

// NextParams is the input for alarm.next.
type NextParams struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// NextResult is the response for alarm.next.
type NextResult struct {
	FireAt time.Time `json:"fireAt"`
}

// PendingItem is a single entry in the alarm.list response.
type PendingItem struct {
	Key       int              `json:"key"`
	ClockBase string           `json:"clockBase"`
	At        int64            `json:"at"`
	Spec      *alarm.AlarmSpec `json:"spec,omitempty"`
}

// ListResult is the response for alarm.list.
type ListResult struct {
	Alarms []*PendingItem `json:"alarms"`
}

// NotificationsResult is the response for notification.list.
type NotificationsResult struct {
	Notifications []notify.Posted `json:"notifications"`
}

// TapParams is the input for notification.tap.
type TapParams struct {
	Token string `json:"token"`
}

// TapResult is the response for notification.tap.
type TapResult struct {
	ActionID string `json:"actionId"`
}

// NewRPCServer creates a new RPCServer with method handlers and HTTP bridge.
func NewRPCServer(cfg *RPCConfig, cmds Commands, wakes WakeLister, notifs Notifications) *RPCServer {
	rs := &RPCServer{
		secret:    cfg.Secret,
		version:   cfg.Version,
		commit:    cfg.Commit,
		buildType: cfg.BuildType,
		cmds:      cmds,
		wakes:     wakes,
		notifs:    notifs,
		now:       time.Now,
	}

	rs.methods = handler.Map{
		"system.getVersion":     handler.New(rs.systemGetVersion),
		"alarm.scheduleOneShot": handler.New(rs.alarmScheduleOneShot),
		"alarm.scheduleDaily":   handler.New(rs.alarmScheduleDaily),
		"alarm.cancel":          handler.New(rs.alarmCancel),
		"alarm.next":            handler.New(rs.alarmNext),
		"alarm.list":            handler.New(rs.alarmList),
		"notification.list":     handler.New(rs.notificationList),
		"notification.tap":      handler.New(rs.notificationTap),
	}

	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

// Close shuts down the HTTP bridge.
func (rs *RPCServer) Close() error {
	return rs.bridge.Close()
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*VersionResult, error) {
	return &VersionResult{
		Version:   rs.version,
		Commit:    rs.commit,
		BuildType: rs.buildType,
	}, nil
}

func (rs *RPCServer) alarmScheduleOneShot(_ context.Context, p *OneShotParams) (*OneShotResult, error) {
	if p.Seconds != nil && *p.Seconds < 0 {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "seconds must not be negative"}
	}
	return &OneShotResult{
		OK:      rs.cmds.ScheduleOneShot(p.Seconds),
		Seconds: rs.cmds.OneShotDelay(p.Seconds),
	}, nil
}

// alarmScheduleDaily reports an out-of-range time as ok=false, the same
// way the scheduler does.
func (rs *RPCServer) alarmScheduleDaily(_ context.Context, p *alarm.DailyParams) (*OKResult, error) {
	return &OKResult{OK: rs.cmds.ScheduleDaily(*p)}, nil
}

func (rs *RPCServer) alarmCancel(_ context.Context, p *CancelParams) (*OKResult, error) {
	return &OKResult{OK: rs.cmds.Cancel(p.AlarmID)}, nil
}

func (rs *RPCServer) alarmNext(_ context.Context, p *NextParams) (*NextResult, error) {
	spec := alarm.AlarmSpec{Hour: p.Hour, Minute: p.Minute}
	if !spec.Valid() {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: alarm.ErrInvalidTime.Error()}
	}
	return &NextResult{FireAt: alarm.NextDailyFire(rs.now(), p.Hour, p.Minute)}, nil
}

func (rs *RPCServer) alarmList(_ context.Context) (*ListResult, error) {
	pending := rs.wakes.Pending()
	out := make([]*PendingItem, 0, len(pending))
	for _, w := range pending {
		out = append(out, &PendingItem{
			Key:       w.Key,
			ClockBase: string(w.Base),
			At:        w.At,
			Spec:      w.Spec,
		})
	}
	return &ListResult{Alarms: out}, nil
}

func (rs *RPCServer) notificationList(_ context.Context) (*NotificationsResult, error) {
	return &NotificationsResult{Notifications: rs.notifs.Active()}, nil
}

func (rs *RPCServer) notificationTap(_ context.Context, p *TapParams) (*TapResult, error) {
	if p.Token == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: token"}
	}
	actionID, err := rs.notifs.Tap(p.Token)
	if err != nil {
		return nil, &jrpc2.Error{Code: codeUnknownToken, Message: err.Error()}
	}
	return &TapResult{ActionID: actionID}, nil
}
