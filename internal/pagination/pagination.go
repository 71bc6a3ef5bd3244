// Package pagination holds the page-walking rules shared by extractors and the crawler:
// deciding whether a page is the last one and deriving the reference of the next page.
package pagination

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageParam is the query parameter carrying the page number.
const DefaultPageParam = "p"

// Entry is one element of a page's pagination indicator (e.g. one link in a pager).
type Entry struct {
	Label  string
	Active bool
}

// ErrNoPageParam is returned when a reference carries no page-number parameter.
var ErrNoPageParam = errors.New("page parameter not found")

// IsLastPage decides from a pagination indicator whether the current page is the last.
// The page is last when the active entry is the final one. When no entry is marked
// active the page is treated as last and a warning describing the fallback is returned.
func IsLastPage(entries []Entry) (bool, string) {
	for i, e := range entries {
		if !e.Active {
			continue
		}
		return i == len(entries)-1, ""
	}
	if len(entries) == 0 {
		return true, "Found no pagination! Assuming it is the last page."
	}
	return true, fmt.Sprintf("Active page not found among %d pagination entries. Assuming it is the last.", len(entries))
}

// NextPageRef returns ref with its page-number parameter incremented by one.
// Every other query segment is kept byte for byte and in its original position.
func NextPageRef(ref, param string) (string, error) {
	if strings.TrimSpace(param) == "" {
		param = DefaultPageParam
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse page ref: %w", err)
	}

	segments := strings.Split(u.RawQuery, "&")
	found := false
	for i, seg := range segments {
		rawKey, rawValue, _ := strings.Cut(seg, "=")
		if unescape(rawKey) != param {
			continue
		}
		value := strings.TrimSpace(unescape(rawValue))
		if value == "" {
			break
		}
		page, err := strconv.Atoi(value)
		if err != nil {
			return "", fmt.Errorf("page parameter %q is not a number: %w", param, err)
		}
		segments[i] = rawKey + "=" + strconv.Itoa(page+1)
		found = true
		break
	}
	if !found {
		return "", fmt.Errorf("%w: %q in %q", ErrNoPageParam, param, ref)
	}

	u.RawQuery = strings.Join(segments, "&")
	return u.String(), nil
}

// unescape decodes a query component, falling back to the raw text when it is malformed.
func unescape(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
