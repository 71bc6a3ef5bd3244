package notifiers

import (
	"context"
	"errors"
	"strings"
)

// Fanout delivers each message to every wrapped sender. It does not own the senders.
type Fanout struct {
	senders []Sender
}

// NewFanout builds a sender that fans messages out across senders.
func NewFanout(senders []Sender) *Fanout {
	cp := make([]Sender, 0, len(senders))
	for _, s := range senders {
		if s == nil {
			continue
		}
		cp = append(cp, s)
	}
	return &Fanout{senders: cp}
}

// Kind joins the member kinds.
func (f *Fanout) Kind() string {
	kinds := make([]string, len(f.senders))
	for i, s := range f.senders {
		kinds[i] = s.Kind()
	}
	return strings.Join(kinds, ",")
}

// Send forwards msg to every sender. One failing transport does not stop the others.
func (f *Fanout) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, s := range f.senders {
		if err := s.Send(ctx, msg); err != nil {
			errs = append(errs, &TransportError{Kind: s.Kind(), Err: err})
		}
	}
	return errors.Join(errs...)
}
