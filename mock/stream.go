// Package mock provides hand-written test doubles for the root
// interfaces. Set the function fields for the methods a test needs;
// primary methods panic when nil to catch missing setup, while teardown
// and lookup methods are nil-safe because tests rarely customize them.
package mock

import (
	"context"

	"github.com/researchmind/mind"
)

// Interface compliance checks.
var (
	_ mind.EventSource       = (*EventSource)(nil)
	_ mind.StreamOpener      = (*StreamOpener)(nil)
	_ mind.StreamURLResolver = (*StreamURLResolver)(nil)
)

// EventSource is a test double for mind.EventSource.
type EventSource struct {
	NextFn  func() (mind.RawEvent, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *EventSource) Next() (mind.RawEvent, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *EventSource) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// StreamOpener is a test double for mind.StreamOpener.
type StreamOpener struct {
	OpenFn func(ctx context.Context, url string) (mind.EventSource, error)
}

// Open delegates to OpenFn.
func (o *StreamOpener) Open(ctx context.Context, url string) (mind.EventSource, error) {
	return o.OpenFn(ctx, url)
}

// StreamURLResolver is a test double for mind.StreamURLResolver. When
// ResolveStreamURLFn is nil the path is returned unchanged.
type StreamURLResolver struct {
	ResolveStreamURLFn func(path string) string
}

// ResolveStreamURL delegates to ResolveStreamURLFn.
func (r *StreamURLResolver) ResolveStreamURL(path string) string {
	if r.ResolveStreamURLFn == nil {
		return path
	}
	return r.ResolveStreamURLFn(path)
}
