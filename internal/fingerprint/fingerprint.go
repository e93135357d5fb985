package fingerprint

import (
	"net/url"
	"strings"

	"dealradar/internal/models"
)

// Normalize reduces a raw URL to scheme, host and path. Query string and
// fragment carry tracking and ranking parameters that must not fracture the
// identity of an ad, so they are discarded.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" && u.Host != "" {
		return u.Scheme + "://" + u.Host + u.Path
	}

	// Malformed URL: best effort, cut at the first fragment or query marker.
	if i := strings.IndexAny(raw, "#?"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// Fingerprint derives the stable dedup identity of a listing from its first
// non-empty URL-bearing field.
func Fingerprint(l models.Listing) string {
	u := l.URL
	if u == "" {
		u = l.Link
	}
	if u == "" {
		u = l.DetailURL
	}
	return Normalize(u)
}
