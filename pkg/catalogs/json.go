package catalogs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samvad-hq/catalog-crawler/internal/domain"
	"github.com/samvad-hq/catalog-crawler/pkg/httpclient"
)

// Field keys understood by the json extractor.
const (
	FieldItems   = "items_key"
	FieldHasMore = "has_more_key"
	FieldNext    = "next_key"
)

const (
	defaultItemsKey   = "items"
	defaultHasMoreKey = "has_more"
	defaultNextKey    = "next"
)

// jsonExtractor reads a JSON listing of the shape {items: [...], has_more: bool, next: "..."}.
type jsonExtractor struct {
	cat     Catalog
	client  httpclient.Client
	headers map[string]string

	itemsKey, hasMoreKey, nextKey string
	nameKey, priceKey, urlKey     string
}

// NewJSONExtractor builds an extractor for JSON listing endpoints.
func NewJSONExtractor(cat Catalog, client httpclient.Client) (Extractor, error) {
	if client == nil {
		return nil, fmt.Errorf("json extractor for %q requires an http client", cat.ID)
	}
	headers := Headers(cat)
	if _, ok := headers["Accept"]; !ok {
		headers["Accept"] = "application/json"
	}
	return &jsonExtractor{
		cat:        cat,
		client:     client,
		headers:    headers,
		itemsKey:   Field(cat, FieldItems, defaultItemsKey),
		hasMoreKey: Field(cat, FieldHasMore, defaultHasMoreKey),
		nextKey:    Field(cat, FieldNext, defaultNextKey),
		nameKey:    Field(cat, domain.FieldName, domain.FieldName),
		priceKey:   Field(cat, domain.FieldPrice, domain.FieldPrice),
		urlKey:     Field(cat, domain.FieldURL, domain.FieldURL),
	}, nil
}

func (j *jsonExtractor) FetchPage(ctx context.Context, ref string) (domain.Page, error) {
	body, err := fetchBody(ctx, j.client, ref, j.cat.ID, j.headers)
	if err != nil {
		return domain.Page{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return domain.Page{}, fmt.Errorf("decode %s page: %w", j.cat.ID, err)
	}

	rawItems, ok := doc[j.itemsKey]
	if !ok {
		return domain.Page{}, fmt.Errorf("%s page has no %q array", j.cat.ID, j.itemsKey)
	}
	items, ok := rawItems.([]any)
	if !ok && rawItems != nil {
		return domain.Page{}, fmt.Errorf("%s page field %q is not an array", j.cat.ID, j.itemsKey)
	}

	base := j.cat.BaseURL
	if base == "" {
		base = ref
	}

	records := make([]domain.RawRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, domain.RawRecord{
			domain.FieldName:  scalar(obj[j.nameKey]),
			domain.FieldPrice: scalar(obj[j.priceKey]),
			domain.FieldURL:   resolveURL(base, scalar(obj[j.urlKey])),
		})
	}

	page := domain.Page{Ref: ref, Records: records}
	hasMore, ok := doc[j.hasMoreKey].(bool)
	if !ok {
		page.Warnings = append(page.Warnings, fmt.Sprintf("Found no pagination! Assuming it is the last page. url='%s'", ref))
	}
	page.HasMorePages = hasMore
	if next := scalar(doc[j.nextKey]); hasMore && next != "" {
		page.NextRef = resolveURL(ref, next)
	}
	return page, nil
}

// scalar renders a decoded JSON value as record text. Objects and arrays yield "".
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
