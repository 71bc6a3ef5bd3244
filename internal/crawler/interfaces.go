package crawler

import (
	"context"

	"github.com/samvad-hq/catalog-crawler/internal/domain"
	"github.com/samvad-hq/catalog-crawler/pkg/notifiers"
)

// PageExtractor fetches one page and reports its raw records and pagination facts.
type PageExtractor interface {
	FetchPage(ctx context.Context, ref string) (domain.Page, error)
}

// NotifierSource resolves a notifier kind to a ready notifier.
type NotifierSource interface {
	Get(ctx context.Context, kind string) (notifiers.Notifier, error)
}
