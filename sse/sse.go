// Package sse implements a manually-managed server-sent-events client.
//
// The client opens one long-lived GET request per stream and never
// reconnects on its own: retry policy belongs to the caller, which owns
// the connection lifecycle end to end.
package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/researchmind/mind"
)

// Interface compliance check.
var _ mind.StreamOpener = (*Client)(nil)

// Client opens SSE streams. The zero value is not usable; construct with
// New.
type Client struct {
	httpClient *http.Client
	headers    http.Header
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeader adds a header sent on every stream request, e.g. an
// Authorization bearer token.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// New creates a new SSE [Client] with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open issues a streaming GET against url and returns an event source
// reading tagged frames off the response body.
func (c *Client) Open(ctx context.Context, url string) (mind.EventSource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sse: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	return newEventSource(resp.Body), nil
}

// eventSource implements [mind.EventSource] over an HTTP response body.
type eventSource struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newEventSource(body io.ReadCloser) *eventSource {
	return &eventSource{
		body:    body,
		scanner: bufio.NewScanner(body),
	}
}

// Next reads lines until a complete SSE frame is assembled. An event with
// no event field dispatches as "message" per the SSE spec. Returns io.EOF
// when the server ends the stream normally.
func (s *eventSource) Next() (mind.RawEvent, error) {
	if s.closed.Load() {
		return mind.RawEvent{}, mind.ErrStreamClosed
	}

	eventType := "message"
	var dataBuf strings.Builder
	haveData := false

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			// Empty line signals end of event.
			if haveData {
				return mind.RawEvent{Type: eventType, Data: dataBuf.String()}, nil
			}
			// Empty event, keep reading.
			continue
		}

		if strings.HasPrefix(line, "event:") {
			eventType = strings.TrimPrefix(strings.TrimPrefix(line, "event:"), " ")
		} else if strings.HasPrefix(line, "data:") {
			if haveData {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			haveData = true
		}
		// Ignore comments (lines starting with ':') and unknown fields.
	}

	if s.closed.Load() {
		return mind.RawEvent{}, mind.ErrStreamClosed
	}
	if err := s.scanner.Err(); err != nil {
		return mind.RawEvent{}, fmt.Errorf("sse: %w", err)
	}

	// Scanner exhausted without error = EOF.
	if haveData {
		return mind.RawEvent{Type: eventType, Data: dataBuf.String()}, nil
	}
	return mind.RawEvent{}, io.EOF
}

// Close closes the underlying response body. Safe to call more than once.
func (s *eventSource) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

// apiErrorResponse is the backend's error envelope.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("sse: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return fmt.Errorf("sse: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return fmt.Errorf("sse: %s: %s", apiErr.Error.Code, apiErr.Error.Message)
}
