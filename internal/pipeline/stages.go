package pipeline

import (
	"context"

	"github.com/samvad-hq/catalog-crawler/internal/domain"
)

// Drop reasons produced by the persistence stage.
const (
	ReasonAlreadyExists    = "already exists"
	ReasonStoreWriteFailed = "store write failed"
)

// Store persists products and reports whether a product was newly inserted.
type Store interface {
	Upsert(ctx context.Context, p domain.Product) (bool, error)
}

// Notifier publishes operator-facing messages. Implementations never fail the caller.
type Notifier interface {
	Announce(ctx context.Context, p domain.Product)
	Warn(ctx context.Context, msg string)
	Alert(ctx context.Context, msg string)
}

// Persister upserts products and lets only newly inserted ones continue.
type Persister struct {
	store Store
}

// NewPersister wraps store as a pipeline stage.
func NewPersister(store Store) *Persister {
	return &Persister{store: store}
}

func (s *Persister) Name() string { return "persistence" }

func (s *Persister) Process(ctx context.Context, p domain.Product) Decision {
	inserted, err := s.store.Upsert(ctx, p)
	if err != nil {
		return DropOnError(ReasonStoreWriteFailed, err)
	}
	if !inserted {
		return DropQuietly(ReasonAlreadyExists)
	}
	return Continue(p)
}

// Announcer announces every product that reaches it.
type Announcer struct {
	notifier Notifier
}

// NewAnnouncer wraps notifier as a pipeline stage.
func NewAnnouncer(notifier Notifier) *Announcer {
	return &Announcer{notifier: notifier}
}

func (s *Announcer) Name() string { return "notification" }

func (s *Announcer) Process(ctx context.Context, p domain.Product) Decision {
	s.notifier.Announce(ctx, p)
	return Continue(p)
}
