// Package notify implements the daemon's notification center. Posted
// notifications are kept by id, rendered as text with one action link per
// button and delivered through Shoutrrr URLs. Opening an action link runs
// the button's callback.
package notify

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aquabalance/aquabalance/internal/alarm"
	"github.com/aquabalance/aquabalance/internal/store"
	"github.com/aquabalance/aquabalance/pkg/logger"
)

// ActionTap is the link kind for the notification body tap.
const ActionTap = "tap"

var (
	// ErrUnknownChannel is returned when posting to a channel that was never
	// ensured.
	ErrUnknownChannel = errors.New("notification channel not registered")

	// ErrUnknownToken is returned for an action link that does not exist or
	// was invalidated.
	ErrUnknownToken = errors.New("unknown or expired action link")
)

// Registry persists channels and the delivery history. *store.Store
// implements it.
type Registry interface {
	EnsureChannel(ch alarm.Channel) (bool, error)
	RecordDelivery(d store.Delivery) error
}

// Config configures a Center.
type Config struct {
	// URLs are Shoutrrr service URLs. Empty means log-only delivery.
	URLs []string
	// BaseURL prefixes action links, e.g. "http://127.0.0.1:8765".
	BaseURL string
}

// Link is one action link of a posted notification.
type Link struct {
	Token    string `json:"token"`
	ActionID string `json:"actionId"`
	Label    string `json:"label"`
	URL      string `json:"url"`
}

// Posted is the public view of an active notification.
type Posted struct {
	ID        int       `json:"id"`
	ChannelID string    `json:"channelId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Links     []Link    `json:"links"`
	PostedAt  time.Time `json:"postedAt"`
}

type active struct {
	n      alarm.Notification
	links  []Link
	posted time.Time
}

type target struct {
	notifID    int
	invoke     func()
	autoCancel bool
}

// Center implements alarm.Notifier.
type Center struct {
	cfg      Config
	sender   Sender
	registry Registry
	log      logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	channels map[string]alarm.Channel
	active   map[int]*active
	targets  map[string]target
}

// NewCenter creates a Center. sender defaults to ShoutrrrSender when URLs
// are configured and to LogSender otherwise; registry may be nil.
func NewCenter(cfg Config, sender Sender, registry Registry, l logger.Logger) *Center {
	l = logger.OrNop(l)
	if sender == nil {
		if len(cfg.URLs) > 0 {
			sender = ShoutrrrSender{}
		} else {
			sender = LogSender{Log: l}
		}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Center{
		cfg:      cfg,
		sender:   sender,
		registry: registry,
		log:      l,
		now:      time.Now,
		channels: make(map[string]alarm.Channel),
		active:   make(map[int]*active),
		targets:  make(map[string]target),
	}
}

// EnsureChannel registers ch. An existing channel with the same ID is kept
// unchanged.
func (c *Center) EnsureChannel(ch alarm.Channel) error {
	c.mu.Lock()
	_, ok := c.channels[ch.ID]
	c.mu.Unlock()
	if ok {
		return nil
	}
	// The channel is only known once it is persisted, so a failed store
	// write is retried by the next call.
	if c.registry != nil {
		created, err := c.registry.EnsureChannel(ch)
		if err != nil {
			return err
		}
		if created {
			c.log.Info("registered notification channel %q (%s importance)", ch.ID, ch.Importance)
		}
	}
	c.mu.Lock()
	if _, ok := c.channels[ch.ID]; !ok {
		c.channels[ch.ID] = ch
	}
	c.mu.Unlock()
	return nil
}

// Channels returns the registered channels ordered by ID.
func (c *Center) Channels() []alarm.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]alarm.Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Post shows n, replacing an active notification with the same ID, and
// delivers it to every configured URL.
func (c *Center) Post(n alarm.Notification) error {
	c.mu.Lock()
	if _, ok := c.channels[n.ChannelID]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownChannel, n.ChannelID)
	}
	c.dismissLocked(n.ID)

	a := &active{n: n, posted: c.now()}
	for _, act := range n.Actions {
		a.links = append(a.links, c.linkLocked(n, act.ID, act.Label, act.Invoke))
	}
	if n.OnTap != nil {
		a.links = append(a.links, c.linkLocked(n, ActionTap, "Open", n.OnTap))
	}
	c.active[n.ID] = a
	c.mu.Unlock()

	return c.deliver(a)
}

func (c *Center) linkLocked(n alarm.Notification, actionID, label string, invoke func()) Link {
	token := uuid.NewString()
	c.targets[token] = target{notifID: n.ID, invoke: invoke, autoCancel: n.AutoCancel}
	return Link{
		Token:    token,
		ActionID: actionID,
		Label:    label,
		URL:      c.cfg.BaseURL + "/actions/" + token,
	}
}

func (c *Center) deliver(a *active) error {
	msg := Render(a.n, a.links)
	urls := c.cfg.URLs
	if len(urls) == 0 {
		urls = []string{""}
	}

	var errs []error
	for _, u := range urls {
		d := store.Delivery{
			ID:             uuid.NewString(),
			NotificationID: a.n.ID,
			ChannelID:      a.n.ChannelID,
			Title:          a.n.Title,
			Message:        msg,
			Status:         store.StatusSent,
			SentAt:         a.posted,
		}
		if err := c.sender.Send(u, msg); err != nil {
			d.Status = store.StatusFailed
			d.Error = err.Error()
			errs = append(errs, err)
		}
		if c.registry != nil {
			if err := c.registry.RecordDelivery(d); err != nil {
				c.log.Warning("notification %d: history not recorded: %v", a.n.ID, err)
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification %d: %w: %w", a.n.ID, alarm.ErrNotDelivered, errors.Join(errs...))
	}
	return nil
}

// Render formats n as a plain-text message with one line per link.
func Render(n alarm.Notification, links []Link) string {
	var b strings.Builder
	b.WriteString(n.Title)
	if n.Body != "" {
		b.WriteString("\n")
		b.WriteString(n.Body)
	}
	if len(links) > 0 {
		b.WriteString("\n")
	}
	for _, l := range links {
		fmt.Fprintf(&b, "\n%s: %s", l.Label, l.URL)
	}
	return b.String()
}

// Tap runs the callback behind token. Auto-cancel notifications are
// dismissed first, which invalidates all of their links.
func (c *Center) Tap(token string) (string, error) {
	c.mu.Lock()
	t, ok := c.targets[token]
	if !ok {
		c.mu.Unlock()
		return "", ErrUnknownToken
	}
	actionID := c.actionIDLocked(t.notifID, token)
	if t.autoCancel {
		c.dismissLocked(t.notifID)
	}
	c.mu.Unlock()

	if t.invoke != nil {
		t.invoke()
	}
	return actionID, nil
}

func (c *Center) actionIDLocked(notifID int, token string) string {
	if a, ok := c.active[notifID]; ok {
		for _, l := range a.links {
			if l.Token == token {
				return l.ActionID
			}
		}
	}
	return ""
}

// Dismiss removes the active notification id. It reports whether one was
// active.
func (c *Center) Dismiss(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dismissLocked(id)
}

func (c *Center) dismissLocked(id int) bool {
	a, ok := c.active[id]
	if !ok {
		return false
	}
	for _, l := range a.links {
		delete(c.targets, l.Token)
	}
	delete(c.active, id)
	return true
}

// Active returns the active notifications ordered by ID.
func (c *Center) Active() []Posted {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Posted, 0, len(c.active))
	for id, a := range c.active {
		out = append(out, Posted{
			ID:        id,
			ChannelID: a.n.ChannelID,
			Title:     a.n.Title,
			Body:      a.n.Body,
			Links:     append([]Link(nil), a.links...),
			PostedAt:  a.posted,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ alarm.Notifier = (*Center)(nil)
