package server

import (
	"context"
	"sync"

	"github.com/creachadair/jrpc2"

	"github.com/aquabalance/aquabalance/internal/alarm"
	"github.com/aquabalance/aquabalance/internal/bridge"
	"github.com/aquabalance/aquabalance/pkg/logger"
)

// RPCNotifier tracks the jrpc2 servers of connected websocket clients and
// pushes daemon events to every one of them.
type RPCNotifier struct {
	mu        sync.RWMutex
	servers   map[*jrpc2.Server]struct{}
	log       logger.Logger
	onConnect func()
}

func NewRPCNotifier(l logger.Logger) *RPCNotifier {
	return &RPCNotifier{
		servers: make(map[*jrpc2.Server]struct{}),
		log:     logger.OrNop(l),
	}
}

// OnConnect installs fn to run each time a client registers.
func (n *RPCNotifier) OnConnect(fn func()) {
	n.mu.Lock()
	n.onConnect = fn
	n.mu.Unlock()
}

func (n *RPCNotifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	n.servers[srv] = struct{}{}
	fn := n.onConnect
	n.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (n *RPCNotifier) Unregister(srv ...*jrpc2.Server) {
	n.mu.Lock()
	for _, s := range srv {
		delete(n.servers, s)
	}
	n.mu.Unlock()
}

func (n *RPCNotifier) snapshot() []*jrpc2.Server {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		out = append(out, srv)
	}
	return out
}

// Broadcast pushes method to every client and returns the number that
// accepted it. Clients whose push fails are dropped.
func (n *RPCNotifier) Broadcast(method string, params any) int {
	var dead []*jrpc2.Server
	sent := 0
	for _, srv := range n.snapshot() {
		if err := srv.Notify(context.Background(), method, params); err != nil {
			n.log.Warning("push %s: %v", method, err)
			dead = append(dead, srv)
			continue
		}
		sent++
	}
	if len(dead) > 0 {
		n.Unregister(dead...)
	}
	return sent
}

// Count returns the number of connected clients.
func (n *RPCNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}

// DeliverAction pushes a notification action to the connected clients.
func (n *RPCNotifier) DeliverAction(a alarm.NotificationAction) error {
	if n.Broadcast(MethodNotificationAction, a) == 0 {
		return bridge.ErrNoListener
	}
	return nil
}

// AlarmFired pushes an alarm.fired notification.
func (n *RPCNotifier) AlarmFired(spec alarm.AlarmSpec) {
	n.Broadcast(MethodAlarmFired, &AlarmFiredNotification{
		AlarmID: spec.AlarmID,
		Hour:    spec.Hour,
		Minute:  spec.Minute,
		Title:   spec.Title,
	})
}

// AlarmFiredNotification is sent after a reminder notification is posted.
type AlarmFiredNotification struct {
	AlarmID int    `json:"alarmId"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
	Title   string `json:"title"`
}

var _ bridge.EventSink = (*RPCNotifier)(nil)
