package notifiers

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// mailer is satisfied by *gomail.Dialer.
type mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailSender struct {
	from   string
	to     []string
	dialer mailer
}

func newEmailSender(_ context.Context, s Settings, _ Logger) (Sender, error) {
	host := strings.TrimSpace(s.SMTPHost)
	from := strings.TrimSpace(s.EmailFrom)
	if host == "" {
		return nil, &ConfigError{Kind: KindEmail, Reason: "smtp_host is required"}
	}
	if from == "" {
		return nil, &ConfigError{Kind: KindEmail, Reason: "email_from is required"}
	}
	to := splitRecipients(s.EmailTo)
	if len(to) == 0 {
		return nil, &ConfigError{Kind: KindEmail, Reason: "email_to is required"}
	}

	return &emailSender{
		from:   from,
		to:     to,
		dialer: gomail.NewDialer(host, s.SMTPPort, s.SMTPUser, s.SMTPPass),
	}, nil
}

func (e *emailSender) Kind() string { return KindEmail }

// Send mails the message. gomail has no context support; the dial honors only its own
// timeouts.
func (e *emailSender) Send(_ context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", e.to...)
	m.SetHeader("Subject", emailSubject(msg))
	m.SetBody("text/plain", msg.Text)

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func emailSubject(msg Message) string {
	switch msg.Level {
	case LevelAlert:
		return "[catalog-crawler] Alert"
	case LevelWarning:
		return "[catalog-crawler] Warning"
	}
	if msg.Product != "" {
		return "[catalog-crawler] New product: " + msg.Product
	}
	return "[catalog-crawler] Notification"
}

func splitRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
