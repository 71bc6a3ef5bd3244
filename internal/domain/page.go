package domain

import "fmt"

// Raw record field names every extractor must populate.
const (
	FieldName  = "name"
	FieldPrice = "price"
	FieldURL   = "url"
)

// RawRecord is one catalog entry as yielded by a page extractor, before it becomes a Product.
type RawRecord map[string]string

// Page is what an extractor returns for a single page reference.
type Page struct {
	Ref          string
	Records      []RawRecord
	HasMorePages bool
	// NextRef optionally overrides next-page derivation when the source exposes it.
	NextRef string
	// Warnings are operator-facing notes raised while extracting (e.g. missing pagination).
	Warnings []string
}

// FetchError reports that a page could not be fetched or extracted. It ends the crawl run.
type FetchError struct {
	Ref string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %q: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
