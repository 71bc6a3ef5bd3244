// Package notifiers delivers operator messages (new products, warnings, alerts) over a
// configurable transport. Delivery is best-effort: transport failures are logged and
// never returned to the caller.
package notifiers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/catalog-crawler/internal/domain"
)

// Notifier is the operator-facing notification surface.
type Notifier interface {
	Announce(ctx context.Context, p domain.Product)
	Warn(ctx context.Context, msg string)
	Alert(ctx context.Context, msg string)
}

// Level classifies a message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelAlert   Level = "alert"
)

// Message is what a Sender delivers. Text already carries the class prefix.
type Message struct {
	Level   Level     `json:"level"`
	Text    string    `json:"text"`
	Product string    `json:"product,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Sender is a single transport.
type Sender interface {
	Kind() string
	Send(ctx context.Context, msg Message) error
}

// AnnouncementText formats the informational message for a new product.
func AnnouncementText(p domain.Product) string {
	return fmt.Sprintf(":new: <%s|%s> is now available at %s", p.URL(), p.Name(), p.Price())
}

// WarningText formats a warning message.
func WarningText(msg string) string {
	return fmt.Sprintf(":warning: Something happened that may require your attention. %s", msg)
}

// AlertText formats an alert message.
func AlertText(msg string) string {
	return fmt.Sprintf(":rotating_light: An error occurred! error='%s'", msg)
}

// channelNotifier turns the three message classes into Messages for one Sender.
type channelNotifier struct {
	sender Sender
	log    Logger
	now    func() time.Time
}

func newChannelNotifier(sender Sender, log Logger) *channelNotifier {
	return &channelNotifier{sender: sender, log: ensureLogger(log), now: time.Now}
}

func (n *channelNotifier) Announce(ctx context.Context, p domain.Product) {
	n.deliver(ctx, Message{Level: LevelInfo, Text: AnnouncementText(p), Product: p.Name()})
}

func (n *channelNotifier) Warn(ctx context.Context, msg string) {
	n.deliver(ctx, Message{Level: LevelWarning, Text: WarningText(msg)})
}

func (n *channelNotifier) Alert(ctx context.Context, msg string) {
	n.deliver(ctx, Message{Level: LevelAlert, Text: AlertText(msg)})
}

// Kind reports the transport kind behind this notifier.
func (n *channelNotifier) Kind() string { return n.sender.Kind() }

func (n *channelNotifier) deliver(ctx context.Context, msg Message) {
	if ctx == nil {
		ctx = context.Background()
	}
	msg.SentAt = n.now().UTC()

	if err := n.sender.Send(ctx, msg); err != nil {
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			err = &TransportError{Kind: n.sender.Kind(), Err: err}
		}
		n.log.ErrorObj("notification delivery failed", "notifier_error", map[string]any{
			"kind":  n.sender.Kind(),
			"level": msg.Level,
			"error": err.Error(),
		})
		return
	}
	n.log.DebugObj("notification delivered", "notifier_delivery", map[string]any{
		"kind":  n.sender.Kind(),
		"level": msg.Level,
	})
}
