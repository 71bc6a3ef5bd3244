package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Product is one extracted catalog entry. It is immutable once built; two products are
// the same catalog entry when their names match.
type Product struct {
	name  string
	price string
	url   string
}

// NewProduct builds a Product from already extracted values.
func NewProduct(name, price, url string) Product {
	return Product{name: name, price: price, url: url}
}

// ProductFromRecord builds a Product from a raw extractor record, trimming each field.
func ProductFromRecord(rec RawRecord) Product {
	return NewProduct(
		strings.TrimSpace(rec[FieldName]),
		strings.TrimSpace(rec[FieldPrice]),
		strings.TrimSpace(rec[FieldURL]),
	)
}

func (p Product) Name() string  { return p.name }
func (p Product) Price() string { return p.price }
func (p Product) URL() string   { return p.url }

func (p Product) String() string {
	return fmt.Sprintf("name='%s' price='%s' url='%s'", p.name, p.price, p.url)
}

// MarshalJSON exposes the product fields to structured logs and event payloads.
func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		FieldName:  p.name,
		FieldPrice: p.price,
		FieldURL:   p.url,
	})
}
