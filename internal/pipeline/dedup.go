package pipeline

import (
	"context"
	"sync"

	"github.com/samvad-hq/catalog-crawler/internal/domain"
)

// ReasonDuplicate is the drop reason for a name already seen in the current run.
const ReasonDuplicate = "duplicate"

// DeduplicationFilter drops products whose name was already seen during the same crawl run.
// A new filter must be created for every run; the first product with a given name wins.
type DeduplicationFilter struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDeduplicationFilter returns a filter with an empty seen set.
func NewDeduplicationFilter() *DeduplicationFilter {
	return &DeduplicationFilter{seen: make(map[string]struct{})}
}

func (f *DeduplicationFilter) Name() string { return "deduplication" }

func (f *DeduplicationFilter) Process(_ context.Context, p domain.Product) Decision {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[p.Name()]; ok {
		return Drop(ReasonDuplicate)
	}
	f.seen[p.Name()] = struct{}{}
	return Continue(p)
}

// size returns how many distinct names the filter has recorded.
func (f *DeduplicationFilter) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
