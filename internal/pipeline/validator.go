package pipeline

import (
	"context"
	"net/url"
	"regexp"

	"github.com/samvad-hq/catalog-crawler/internal/domain"
)

// Drop reasons produced by the validator.
const (
	ReasonInvalidName  = "invalid name"
	ReasonInvalidPrice = "invalid price"
	ReasonInvalidURL   = "invalid url"
)

// pricePattern is a lenient sanity check, not currency parsing: an optional leading and an
// optional trailing currency symbol, checked independently of each other.
var pricePattern = regexp.MustCompile(`^[€£$]?[0-9]+([.,][0-9]*)?[€£$]?$`)

// Validator drops structurally invalid products. It holds no state.
type Validator struct{}

func (Validator) Name() string { return "validation" }

func (Validator) Process(_ context.Context, p domain.Product) Decision {
	switch {
	case !ValidName(p.Name()):
		return Drop(ReasonInvalidName)
	case !ValidPrice(p.Price()):
		return Drop(ReasonInvalidPrice)
	case !ValidURL(p.URL()):
		return Drop(ReasonInvalidURL)
	}
	return Continue(p)
}

// ValidName reports whether name is non-empty.
func ValidName(name string) bool {
	return name != ""
}

// ValidPrice reports whether price looks like a currency amount.
func ValidPrice(price string) bool {
	return pricePattern.MatchString(price)
}

// ValidURL reports whether raw is an absolute URL with both scheme and host.
func ValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
