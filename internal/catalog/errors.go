// file: internal/catalog/errors.go
// version: 1.0.0
// guid: 1f2a3b4c-5d6e-7f8a-9b0c-1d2e3f4a5b6d

package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that the catalog has no entry for the requested ASIN.
var ErrNotFound = errors.New("catalog product not found")

// NetworkError wraps transport-level failures talking to the catalog API.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("catalog request failed for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError wraps failures decoding a catalog response body.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to decode catalog response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
