package notify

import (
	"github.com/nicholas-fedor/shoutrrr"

	"github.com/aquabalance/aquabalance/pkg/logger"
)

// Sender abstracts message delivery so the center can be tested without
// hitting real services.
type Sender interface {
	Send(url, message string) error
}

// ShoutrrrSender delivers through the Shoutrrr library.
type ShoutrrrSender struct{}

func (ShoutrrrSender) Send(url, message string) error {
	return shoutrrr.Send(url, message)
}

// LogSender writes messages to the daemon log. Used when no delivery URL
// is configured.
type LogSender struct {
	Log logger.Logger
}

func (s LogSender) Send(url, message string) error {
	logger.OrNop(s.Log).Info("notification: %s", message)
	return nil
}
