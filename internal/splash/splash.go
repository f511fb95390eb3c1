// Package splash talks to the Splash REST API: OAuth tokens, a throttled resty client and
// a paginated fetcher that keeps only records inside a sync window.
package splash

import (
	"context"
	"errors"
	"fmt"
)

// Record is one decoded JSON object. Numbers are json.Number.
type Record = map[string]any

// FetchSpec describes one paginated listing.
type FetchSpec struct {
	Endpoint string
	PathVar  string
	Params   map[string]string
	// DateFields is a fallback chain; the first non-empty field dates the record.
	DateFields []string
	PageStart  int
	// PageStop is the last page to request; -1 (or 0) means no cap.
	PageStop int
	Limit    int
}

const (
	DefaultPageStart = 1
	NoPageStop       = -1
)

// TokenProvider returns the Authorization header value for the next request.
type TokenProvider interface {
	AuthorizationHeader(ctx context.Context) (string, error)
}

var (
	ErrInvalidSpec = errors.New("invalid_fetch_spec")
	ErrAuth        = errors.New("splash_auth_failed")
)

// AuthError wraps a token failure. Fetching stops and the source fails.
type AuthError struct {
	Grant string
	Err   error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s grant: %v", ErrAuth, e.Grant, e.Err)
}

func (e *AuthError) Unwrap() []error { return []error{ErrAuth, e.Err} }

func (e *AuthError) MetricReason() string { return "auth" }

func (s FetchSpec) withDefaults(pageLimit int) FetchSpec {
	if s.PageStart <= 0 {
		s.PageStart = DefaultPageStart
	}
	if s.PageStop == 0 {
		s.PageStop = NoPageStop
	}
	if s.Limit <= 0 {
		s.Limit = pageLimit
	}
	return s
}

func (s FetchSpec) validate() error {
	if s.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is empty", ErrInvalidSpec)
	}
	if len(s.DateFields) == 0 {
		return fmt.Errorf("%w: no date fields for %s", ErrInvalidSpec, s.Endpoint)
	}
	if s.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidSpec)
	}
	if s.PageStop > 0 && s.PageStop < s.PageStart {
		return fmt.Errorf("%w: page_stop %d before page_start %d", ErrInvalidSpec, s.PageStop, s.PageStart)
	}
	return nil
}

func (s FetchSpec) path() string {
	if s.PathVar == "" {
		return "/" + s.Endpoint
	}
	return "/" + s.Endpoint + "/" + s.PathVar
}
