package catalogs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/samvad-hq/catalog-crawler/internal/domain"
	"github.com/samvad-hq/catalog-crawler/pkg/httpclient"
)

// Extractor yields the raw records and pagination facts of one page.
type Extractor interface {
	FetchPage(ctx context.Context, ref string) (domain.Page, error)
}

// Factory builds the extractor for one catalog.
type Factory func(cat Catalog, client httpclient.Client) (Extractor, error)

// Extractors resolves the extractor for a catalog by its type.
type Extractors struct {
	client httpclient.Client

	mu     sync.RWMutex
	byType map[string]Factory
}

// NewExtractors returns an empty set of factories sharing client.
func NewExtractors(client httpclient.Client) *Extractors {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &Extractors{client: client, byType: make(map[string]Factory)}
}

// DefaultExtractors wires up the html and json extractors.
func DefaultExtractors(client httpclient.Client) *Extractors {
	e := NewExtractors(client)
	e.Register(TypeHTML, NewHTMLExtractor)
	e.Register(TypeJSON, NewJSONExtractor)
	return e
}

// Register associates a factory with a catalog type.
func (e *Extractors) Register(typ string, f Factory) {
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" || f == nil {
		return
	}
	e.mu.Lock()
	e.byType[key] = f
	e.mu.Unlock()
}

// ExtractorFor builds the extractor for cat.
func (e *Extractors) ExtractorFor(cat Catalog) (Extractor, error) {
	if strings.TrimSpace(cat.ID) == "" {
		return nil, fmt.Errorf("catalog id is empty")
	}

	e.mu.RLock()
	f := e.byType[strings.ToLower(strings.TrimSpace(cat.Type))]
	e.mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("no extractor registered for catalog %q (type %q)", cat.ID, cat.Type)
	}
	return f(cat, e.client)
}

// DefaultHTTPClient returns the resty-backed client extractors use.
func DefaultHTTPClient() httpclient.Client {
	return httpclient.NewRestyClient(httpclient.Options{Timeout: 15 * time.Second, Retries: 2})
}

func fetchBody(ctx context.Context, client httpclient.Client, ref, catalogID string, headers map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, ref, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s page: %w", catalogID, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s page returned status %d (content-type %q) body: %s",
			catalogID, resp.StatusCode(), resp.Header("Content-Type"), responseSnippet(body))
	}
	return body, nil
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// resolveURL makes href absolute against base. Empty or unparsable hrefs are returned
// unchanged so the validator rejects them.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
