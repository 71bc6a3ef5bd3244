package catalogs

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/catalog-crawler/internal/domain"
	"github.com/samvad-hq/catalog-crawler/internal/pagination"
	"github.com/samvad-hq/catalog-crawler/pkg/httpclient"
)

// Selector keys understood by the html extractor.
const (
	SelectorProduct    = "product"
	SelectorName       = "name"
	SelectorLink       = "link"
	SelectorPrice      = "price"
	SelectorPagination = "pagination"
	SelectorActive     = "active_class"
)

const (
	defaultProductSelector    = ".cost"
	defaultNameSelector       = ".productName > a"
	defaultPriceSelector      = ".piners > h3"
	defaultPaginationSelector = ".pagination li a"
	defaultActiveClass        = "active"
)

type htmlExtractor struct {
	cat     Catalog
	client  httpclient.Client
	headers map[string]string

	product, name, link, price string
	pager, active              string
}

// NewHTMLExtractor builds a goquery-based extractor for cat.
func NewHTMLExtractor(cat Catalog, client httpclient.Client) (Extractor, error) {
	if client == nil {
		return nil, fmt.Errorf("html extractor for %q requires an http client", cat.ID)
	}
	name := Selector(cat, SelectorName, defaultNameSelector)
	return &htmlExtractor{
		cat:     cat,
		client:  client,
		headers: Headers(cat),
		product: Selector(cat, SelectorProduct, defaultProductSelector),
		name:    name,
		link:    Selector(cat, SelectorLink, name),
		price:   Selector(cat, SelectorPrice, defaultPriceSelector),
		pager:   Selector(cat, SelectorPagination, defaultPaginationSelector),
		active:  Selector(cat, SelectorActive, defaultActiveClass),
	}, nil
}

func (h *htmlExtractor) FetchPage(ctx context.Context, ref string) (domain.Page, error) {
	body, err := fetchBody(ctx, h.client, ref, h.cat.ID, h.headers)
	if err != nil {
		return domain.Page{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Page{}, fmt.Errorf("parse %s page: %w", h.cat.ID, err)
	}

	base := h.cat.BaseURL
	if base == "" {
		base = ref
	}

	var records []domain.RawRecord
	doc.Find(h.product).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find(h.link).First().Attr("href")
		records = append(records, domain.RawRecord{
			domain.FieldName:  strings.TrimSpace(s.Find(h.name).First().Text()),
			domain.FieldPrice: strings.TrimSpace(s.Find(h.price).First().Text()),
			domain.FieldURL:   resolveURL(base, href),
		})
	})

	var entries []pagination.Entry
	doc.Find(h.pager).Each(func(_ int, s *goquery.Selection) {
		entries = append(entries, pagination.Entry{
			Label:  strings.TrimSpace(s.Text()),
			Active: s.HasClass(h.active) || s.Parent().HasClass(h.active),
		})
	})

	last, warning := pagination.IsLastPage(entries)
	page := domain.Page{Ref: ref, Records: records, HasMorePages: !last}
	if warning != "" {
		page.Warnings = append(page.Warnings, fmt.Sprintf("%s url='%s'", warning, ref))
	}
	return page, nil
}
