package domain

import (
	"encoding/json"
	"testing"
)

func TestProductFromRecordTrimsFields(t *testing.T) {
	p := ProductFromRecord(RawRecord{
		FieldName:  "  Cable A ",
		FieldPrice: "€9,99\n",
		FieldURL:   " https://store.example/a",
		"extra":    "ignored",
	})

	if p.Name() != "Cable A" || p.Price() != "€9,99" || p.URL() != "https://store.example/a" {
		t.Fatalf("unexpected product %s", p)
	}
}

func TestProductMarshalJSON(t *testing.T) {
	raw, err := json.Marshal(NewProduct("Cable A", "€9,99", "https://store.example/a"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["name"] != "Cable A" || got["price"] != "€9,99" || got["url"] != "https://store.example/a" {
		t.Fatalf("unexpected payload %v", got)
	}
}
