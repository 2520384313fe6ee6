// Package chat manages the lifecycle of one research chat response
// stream: it opens a transport against a resolved stream URL, decodes the
// tagged event stream, and reduces it into a two-stage output state (a
// process trace and a final answer).
package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/researchmind/mind"
)

// connectionLost is the error surfaced when the transport fails or ends
// without a terminal event.
const connectionLost = "Connection lost"

// Controller owns one streaming connection per chat turn. Starting a new
// connection always supersedes the prior one; a superseded connection's
// events can never mutate state again.
//
// All state mutation goes through a single reducer guarded by the
// controller mutex; callers observe immutable StreamState snapshots.
// Failures never escape the controller: they surface only through the
// snapshot's Status and Err fields.
type Controller struct {
	resolver mind.StreamURLResolver
	opener   mind.StreamOpener

	onChange   func(mind.StreamState)
	onComplete func(mind.StreamState)

	mu     sync.Mutex
	gen    int // connection generation; bumped on every supersede
	state  mind.StreamState
	source mind.EventSource
	cancel context.CancelFunc
}

// Option configures a [Controller].
type Option func(*Controller)

// WithOnChange sets a callback invoked with a state snapshot after every
// state mutation. Called from the connection's reader goroutine.
func WithOnChange(fn func(mind.StreamState)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithOnComplete sets a callback invoked exactly once per successful
// stream, after the state reaches completed and the transport is closed.
// Never invoked on error.
func WithOnComplete(fn func(mind.StreamState)) Option {
	return func(c *Controller) { c.onComplete = fn }
}

// New creates a Controller in the idle state.
func New(resolver mind.StreamURLResolver, opener mind.StreamOpener, opts ...Option) *Controller {
	c := &Controller{
		resolver: resolver,
		opener:   opener,
		state:    mind.StreamState{Status: mind.StreamIdle},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Connect starts streaming the response at streamPath, tearing down any
// prior connection first. An empty streamPath is a no-op. Connection
// failures are absorbed into the error state; Connect never panics or
// returns an error to the caller. Cancelling ctx tears the connection
// down the same way Disconnect does.
func (c *Controller) Connect(ctx context.Context, streamPath string) {
	if streamPath == "" {
		return
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.closeTransportLocked()
	c.state = mind.StreamState{Status: mind.StreamConnecting}
	c.mu.Unlock()
	c.notify()

	url := c.resolver.ResolveStreamURL(streamPath)

	cctx, cancel := context.WithCancel(ctx)
	src, err := c.opener.Open(cctx, url)
	if err != nil {
		cancel()
		c.fail(gen, fmt.Sprintf("failed to open stream: %s", err))
		return
	}

	c.mu.Lock()
	if c.gen != gen {
		// Superseded while the transport was opening.
		c.mu.Unlock()
		cancel()
		_ = src.Close()
		return
	}
	c.source = src
	c.cancel = cancel
	c.mu.Unlock()

	go c.read(gen, src)
}

// Disconnect closes the active transport, if any, and clears the internal
// reference. It does not alter accumulated output or status. Idempotent.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	c.gen++
	c.closeTransportLocked()
	c.mu.Unlock()
}

// Reset disconnects and restores every field of the stream state to its
// initial value.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.gen++
	c.closeTransportLocked()
	c.state = mind.StreamState{Status: mind.StreamIdle}
	c.mu.Unlock()
	c.notify()
}

// State returns a snapshot of the current stream state.
func (c *Controller) State() mind.StreamState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneState(c.state)
}

// IsStreaming reports whether a connection is establishing or active.
func (c *Controller) IsStreaming() bool { return c.State().IsStreaming() }

// IsComplete reports whether the last stream finished successfully.
func (c *Controller) IsComplete() bool { return c.State().IsComplete() }

// HasError reports whether the last stream ended in error.
func (c *Controller) HasError() bool { return c.State().HasError() }

// read pulls frames off the transport and feeds them through the reducer
// until a terminal event or a transport failure.
func (c *Controller) read(gen int, src mind.EventSource) {
	for {
		raw, err := src.Next()
		if err != nil {
			// Covers read failures and io.EOF without a terminal event.
			// Teardown by a superseding Connect/Disconnect lands here too
			// and is discarded by the generation guard inside fail.
			c.fail(gen, connectionLost)
			return
		}

		evt, err := DecodeEvent(raw)
		if err != nil || evt == nil {
			// Malformed or unknown frame: drop it, keep reading.
			continue
		}

		if c.apply(gen, evt) {
			return
		}
	}
}

// fail moves the stream to the error state. It only acts while the
// generation is current and the stream is connecting or streaming, which
// guards against duplicate terminal transitions when a tagged error event
// and a transport-level failure race.
func (c *Controller) fail(gen int, msg string) {
	c.mu.Lock()
	if c.gen != gen || !c.state.IsStreaming() {
		c.mu.Unlock()
		return
	}
	c.state.Status = mind.StreamError
	c.state.Err = msg
	c.closeTransportLocked()
	c.mu.Unlock()
	c.notify()
}

// apply reduces one semantic event into the stream state. Returns true
// when the reader should stop (terminal state reached or the connection
// was superseded).
func (c *Controller) apply(gen int, evt mind.StreamEvent) bool {
	c.mu.Lock()
	if c.gen != gen || c.state.Status.Terminal() {
		c.mu.Unlock()
		return true
	}

	done := false
	completed := false
	changed := true

	switch e := evt.(type) {
	case mind.EventStart:
		c.state.Stage1 = ""
		c.state.Stage2 = ""
		c.state.Metadata = nil
		c.state.Progress = nil
		if e.MessageID != "" {
			c.state.MessageID = e.MessageID
		}
		c.state.Status = mind.StreamStreaming

	case mind.EventInitText:
		c.state.Stage1 += e.Content + "\n"

	case mind.EventSystemTrace:
		c.state.Stage1 += traceLine(e.Tag, e.Content, e.Raw) + "\n"

	case mind.EventToken:
		c.state.Stage1 += e.Content

	case mind.EventAssistant:
		c.state.Stage2 = e.Content

	case mind.EventResult:
		if e.MessageID != "" {
			c.state.MessageID = e.MessageID
		}
		c.state.Stage2 = e.Content
		md := e.Metadata
		c.state.Metadata = &md
		c.state.Progress = nil
		c.state.Status = mind.StreamCompleted
		c.closeTransportLocked()
		done, completed = true, true

	case mind.EventProgress:
		p := e.Progress
		c.state.Progress = &p

	case mind.EventStreamError:
		if e.MessageID != "" {
			c.state.MessageID = e.MessageID
		}
		c.state.Err = e.Message
		c.state.Status = mind.StreamError
		c.closeTransportLocked()
		done = true

	case mind.EventHeartbeat:
		// Liveness only.
		changed = false

	case mind.EventChunk:
		c.state.Stage1 += e.Content + "\n"

	case mind.EventComplete:
		if e.MessageID != "" {
			c.state.MessageID = e.MessageID
		}
		// A result or assistant answer that already arrived outranks the
		// legacy completion payload.
		if c.state.Stage2 == "" {
			c.state.Stage2 = e.Content
		}
		md := e.Metadata
		c.state.Metadata = &md
		c.state.Progress = nil
		c.state.Status = mind.StreamCompleted
		c.closeTransportLocked()
		done, completed = true, true
	}

	snapshot := cloneState(c.state)
	c.mu.Unlock()

	if changed && c.onChange != nil {
		c.onChange(snapshot)
	}
	if completed && c.onComplete != nil {
		c.onComplete(snapshot)
	}
	return done
}

// closeTransportLocked releases the transport resource. The EventSource
// contract makes Close idempotent, so racing terminal paths cannot
// double-close. Callers hold c.mu.
func (c *Controller) closeTransportLocked() {
	if c.source != nil {
		_ = c.source.Close()
		c.source = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.State())
}

// traceLine formats a system trace event as a human-readable line: the
// tag, the content when present, and the raw payload JSON.
func traceLine(tag, content, raw string) string {
	if content == "" {
		return fmt.Sprintf("[%s] %s", tag, raw)
	}
	return fmt.Sprintf("[%s] %s %s", tag, content, raw)
}

// cloneState deep-copies the pointer-valued fields so callers cannot
// mutate controller-owned state through a snapshot.
func cloneState(s mind.StreamState) mind.StreamState {
	if s.Metadata != nil {
		md := *s.Metadata
		if md.Sources != nil {
			md.Sources = append([]mind.Source(nil), md.Sources...)
		}
		s.Metadata = &md
	}
	if s.Progress != nil {
		p := *s.Progress
		s.Progress = &p
	}
	return s
}
