// Package aquacli is a JSON-RPC client for the AquaBalance daemon. It keeps
// one WebSocket connection open so the daemon can push notification actions
// and alarm events while the client issues calls.
package aquacli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"

	"github.com/aquabalance/aquabalance/internal/alarm"
	"github.com/aquabalance/aquabalance/internal/server"
	"github.com/aquabalance/aquabalance/internal/wschan"
	"github.com/aquabalance/aquabalance/pkg/logger"
)

// WebSocketPath is the daemon's JSON-RPC WebSocket endpoint.
const WebSocketPath = "/jsonrpc/ws"

// ErrNoSecret is returned by Dial when no bearer secret is given.
var ErrNoSecret = errors.New("aquacli: missing RPC secret")

// Options configures a Client. Push handlers must be set here because the
// daemon flushes a buffered action as soon as the connection is registered.
type Options struct {
	Secret       string
	OnAction     func(alarm.NotificationAction)
	OnAlarmFired func(server.AlarmFiredNotification)
	// OnDisconnect runs once when the connection ends.
	OnDisconnect func(error)
	Logger       logger.Logger
}

// Client is a connection to the daemon.
type Client struct {
	conn *cws.Conn
	rpc  *jrpc2.Client
	log  logger.Logger

	mu           sync.RWMutex
	onAction     func(alarm.NotificationAction)
	onAlarmFired func(server.AlarmFiredNotification)
}

// Dial connects to the daemon at baseURL (http://host:port).
func Dial(ctx context.Context, baseURL string, opts Options) (*Client, error) {
	if opts.Secret == "" {
		return nil, ErrNoSecret
	}
	conn, _, err := cws.Dial(ctx, WebSocketURL(baseURL), &cws.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + opts.Secret}},
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to daemon: %w", err)
	}
	c := &Client{
		conn:         conn,
		log:          logger.OrNop(opts.Logger),
		onAction:     opts.OnAction,
		onAlarmFired: opts.OnAlarmFired,
	}
	// The channel context outlives ctx, which only bounds the handshake.
	ch := wschan.New(context.Background(), conn)
	copts := &jrpc2.ClientOptions{OnNotify: c.dispatch}
	if opts.OnDisconnect != nil {
		copts.OnStop = func(_ *jrpc2.Client, err error) { opts.OnDisconnect(err) }
	}
	c.rpc = jrpc2.NewClient(ch, copts)
	return c, nil
}

// WebSocketURL converts an http(s) base URL to the WebSocket endpoint URL.
func WebSocketURL(baseURL string) string {
	u := strings.TrimSuffix(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	case !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://"):
		u = "ws://" + u
	}
	return u + WebSocketPath
}

func (c *Client) dispatch(req *jrpc2.Request) {
	c.mu.RLock()
	onAction, onFired := c.onAction, c.onAlarmFired
	c.mu.RUnlock()

	switch req.Method() {
	case server.MethodNotificationAction:
		var a alarm.NotificationAction
		if err := req.UnmarshalParams(&a); err != nil {
			c.log.Warning("bad %s push: %v", req.Method(), err)
			return
		}
		if onAction != nil {
			onAction(a)
		}
	case server.MethodAlarmFired:
		var n server.AlarmFiredNotification
		if err := req.UnmarshalParams(&n); err != nil {
			c.log.Warning("bad %s push: %v", req.Method(), err)
			return
		}
		if onFired != nil {
			onFired(n)
		}
	default:
		c.log.Info("ignoring push %s", req.Method())
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.rpc.Close()
}

// Version returns the daemon's version information.
func (c *Client) Version(ctx context.Context) (*server.VersionResult, error) {
	var res server.VersionResult
	if err := c.rpc.CallResult(ctx, "system.getVersion", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ScheduleOneShot schedules a one-shot reminder after seconds, or after the
// daemon's default delay when seconds is nil. It returns the delay the
// daemon armed.
func (c *Client) ScheduleOneShot(ctx context.Context, seconds *int) (bool, int, error) {
	var res server.OneShotResult
	err := c.rpc.CallResult(ctx, "alarm.scheduleOneShot", &server.OneShotParams{Seconds: seconds}, &res)
	return res.OK, res.Seconds, err
}

// ScheduleDaily schedules a daily reminder. Unset fields use the daemon's
// defaults.
func (c *Client) ScheduleDaily(ctx context.Context, p alarm.DailyParams) (bool, error) {
	var res server.OKResult
	err := c.rpc.CallResult(ctx, "alarm.scheduleDaily", &p, &res)
	return res.OK, err
}

// Cancel cancels the alarm with the given id, or the default alarm when
// alarmID is nil.
func (c *Client) Cancel(ctx context.Context, alarmID *int) (bool, error) {
	var res server.OKResult
	err := c.rpc.CallResult(ctx, "alarm.cancel", &server.CancelParams{AlarmID: alarmID}, &res)
	return res.OK, err
}

// Next returns the next fire time for a daily alarm at hour:minute.
func (c *Client) Next(ctx context.Context, hour, minute int) (*server.NextResult, error) {
	var res server.NextResult
	if err := c.rpc.CallResult(ctx, "alarm.next", &server.NextParams{Hour: hour, Minute: minute}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// List returns the pending wake registrations.
func (c *Client) List(ctx context.Context) ([]*server.PendingItem, error) {
	var res server.ListResult
	if err := c.rpc.CallResult(ctx, "alarm.list", nil, &res); err != nil {
		return nil, err
	}
	return res.Alarms, nil
}

// Tap activates a notification action link token and returns its action id.
func (c *Client) Tap(ctx context.Context, token string) (string, error) {
	var res server.TapResult
	if err := c.rpc.CallResult(ctx, "notification.tap", &server.TapParams{Token: token}, &res); err != nil {
		return "", err
	}
	return res.ActionID, nil
}

// Notifications returns the daemon's active notifications.
func (c *Client) Notifications(ctx context.Context) (*server.NotificationsResult, error) {
	var res server.NotificationsResult
	if err := c.rpc.CallResult(ctx, "notification.list", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
