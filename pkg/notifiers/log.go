package notifiers

import "context"

// logSender writes messages through the structured logger.
type logSender struct {
	log Logger
}

func newLogSender(_ context.Context, _ Settings, log Logger) (Sender, error) {
	return &logSender{log: ensureLogger(log)}, nil
}

func (l *logSender) Kind() string { return KindLog }

func (l *logSender) Send(_ context.Context, msg Message) error {
	switch msg.Level {
	case LevelAlert:
		l.log.ErrorObj(msg.Text, "notification", msg)
	case LevelWarning:
		l.log.WarnObj(msg.Text, "notification", msg)
	default:
		l.log.InfoObj(msg.Text, "notification", msg)
	}
	return nil
}
