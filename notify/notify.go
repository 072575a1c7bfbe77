// Package notify fans project alerts out to email and WhatsApp.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"p9e.in/sitelog/models"
)

// Message is an alert as delivered to people outside the dashboard.
type Message struct {
	Project   string
	Type      models.AlertType
	Text      string
	CreatedAt time.Time
}

// Notifier is one outbound channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// Fanout delivers every message to all configured channels. Delivery
// failures are logged and never reported to the caller.
type Fanout struct {
	notifiers []Notifier
	logger    *zap.Logger
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewFanout creates a fanout over notifiers. A nil logger discards logs.
func NewFanout(logger *zap.Logger, notifiers ...Notifier) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{notifiers: notifiers, logger: logger, timeout: 30 * time.Second}
}

// Channels names the enabled notifiers.
func (f *Fanout) Channels() []string {
	names := make([]string, 0, len(f.notifiers))
	for _, n := range f.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Notify delivers msg synchronously and returns the channels that accepted it.
func (f *Fanout) Notify(ctx context.Context, msg Message) []string {
	var delivered []string
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			f.logger.Warn("alert notification failed",
				zap.String("channel", n.Name()),
				zap.String("project", msg.Project),
				zap.String("type", string(msg.Type)),
				zap.Error(err),
			)
			continue
		}
		f.logger.Debug("alert notification sent", zap.String("channel", n.Name()), zap.String("project", msg.Project))
		delivered = append(delivered, n.Name())
	}
	return delivered
}

// Dispatch delivers msg in the background so request handlers do not wait
// on SMTP or the WhatsApp API.
func (f *Fanout) Dispatch(msg Message) {
	if len(f.notifiers) == 0 {
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()
		f.Notify(ctx, msg)
	}()
}

// Wait blocks until background deliveries finish.
func (f *Fanout) Wait() {
	f.wg.Wait()
}
