package catalog

import (
	"errors"
	"fmt"
)

// Kind classifies a per-vendor scrape failure. Every error crossing the
// scraper/orchestrator boundary carries exactly one Kind, so isolation logic
// can branch on the tag instead of string-matching messages.
type Kind string

const (
	// KindConfiguration: a descriptor is missing a capability required by
	// its declared fetch strategy. Raised at scraper construction.
	KindConfiguration Kind = "configuration"
	// KindInvalidUpstreamResponse: the search response shape violates the
	// vendor's contract.
	KindInvalidUpstreamResponse Kind = "invalid_upstream_response"
	// KindSearchFailed: non-2xx status from the search endpoint.
	KindSearchFailed Kind = "search_failed"
	// KindProductFetchFailed: transport-level failure or timeout.
	KindProductFetchFailed Kind = "product_fetch_failed"
	// KindParse: the detail response could not be normalized.
	KindParse Kind = "parse"
)

// Error is a kind-tagged vendor scrape error.
type Error struct {
	Kind   Kind
	Vendor string
	Err    error
}

func (e *Error) Error() string {
	if e.Vendor != "" {
		return fmt.Sprintf("%s: %s: %v", e.Vendor, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind tag.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Errorf builds a kind-tagged error from a format string.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err, or "" if err carries none.
func KindOf(err error) Kind {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
