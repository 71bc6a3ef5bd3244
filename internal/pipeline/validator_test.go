package pipeline

import (
	"context"
	"testing"

	"github.com/samvad-hq/catalog-crawler/internal/domain"
)

func TestValidPrice(t *testing.T) {
	valid := []string{"1", "1.2345", "1,2345", "€1,2345", "£1.2345$", "€1,2345£", "$10", "10$", "9.", "0"}
	for _, price := range valid {
		if !ValidPrice(price) {
			t.Errorf("expected %q to be a valid price", price)
		}
	}

	invalid := []string{"", "€", "abc", "1.2.3", "€€1", "1€€", "-1", " 1", "1 ", "¥100", ".5", "1,2.3"}
	for _, price := range invalid {
		if ValidPrice(price) {
			t.Errorf("expected %q to be an invalid price", price)
		}
	}
}

func TestValidURL(t *testing.T) {
	cases := map[string]bool{
		"https://store.example/a": true,
		"http://x":                true,
		"https://x":               true,
		"/relative/path":          false,
		"store.example/a":         false,
		"":                        false,
		"https://":                false,
		"://missing-scheme":       false,
	}
	for raw, want := range cases {
		if got := ValidURL(raw); got != want {
			t.Errorf("ValidURL(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestValidatorProcess(t *testing.T) {
	cases := []struct {
		name    string
		product domain.Product
		reason  string
	}{
		{"valid", domain.NewProduct("Cable A", "€9,99", "https://store.example/a"), ""},
		{"empty name", domain.NewProduct("", "1", "https://x"), ReasonInvalidName},
		{"bad price", domain.NewProduct("Cable A", "free", "https://x"), ReasonInvalidPrice},
		{"bad url", domain.NewProduct("Cable A", "1", "/a"), ReasonInvalidURL},
		{"name checked first", domain.NewProduct("", "free", "/a"), ReasonInvalidName},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Validator{}.Process(context.Background(), tc.product)
			if tc.reason == "" {
				if d.Dropped() {
					t.Fatalf("expected continue, got drop %q", d.Reason())
				}
				if d.Product() != tc.product {
					t.Fatalf("expected product to pass unchanged")
				}
				return
			}
			if !d.Dropped() || d.Reason() != tc.reason {
				t.Fatalf("expected drop %q, got dropped=%v reason=%q", tc.reason, d.Dropped(), d.Reason())
			}
			if d.Severity() != SeverityWarning {
				t.Fatalf("expected warning severity, got %s", d.Severity())
			}
		})
	}
}
