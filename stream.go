package mind

import "context"

// StreamStatus indicates the lifecycle phase of a chat stream.
type StreamStatus string

const (
	StreamIdle       StreamStatus = "idle"       // No connection; initial state.
	StreamConnecting StreamStatus = "connecting" // Transport opening, no events yet.
	StreamStreaming  StreamStatus = "streaming"  // Start event received, deltas flowing.
	StreamCompleted  StreamStatus = "completed"  // Terminal success.
	StreamError      StreamStatus = "error"      // Terminal failure.
)

// Terminal reports whether the status is a terminal state. Once terminal,
// only Reset or a new Connect moves the stream out of it.
func (s StreamStatus) Terminal() bool {
	return s == StreamCompleted || s == StreamError
}

// StreamState is an immutable snapshot of one chat stream's accumulated
// output and lifecycle status. The controller is the sole writer; callers
// receive copies.
//
// Stage1 holds process/trace output (init preamble, system traces, raw
// tokens) and is append-only within a connection. Stage2 holds the final
// answer and may be overwritten as higher-quality content arrives, until
// the stream reaches a terminal state.
type StreamState struct {
	Stage1    string
	Stage2    string
	Status    StreamStatus
	Err       string // set only in StreamError
	MessageID string
	Metadata  *ResultMetadata // set exactly once, at terminal success
	Progress  *Progress       // last-seen progress; cleared at terminal success
}

// IsStreaming reports whether a connection is being established or active.
func (s StreamState) IsStreaming() bool {
	return s.Status == StreamConnecting || s.Status == StreamStreaming
}

// IsComplete reports whether the stream finished successfully.
func (s StreamState) IsComplete() bool { return s.Status == StreamCompleted }

// HasError reports whether the stream ended in error.
func (s StreamState) HasError() bool { return s.Status == StreamError }

// ResultMetadata carries the structured result info delivered by a
// terminal success event: timing, cost, token counts, and citations.
type ResultMetadata struct {
	DurationMS      int64
	DurationAPIMS   int64
	CostUSD         float64
	SessionID       string
	NumTurns        int
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
	Sources         []Source
}

// Source is a citation attached to a completed answer.
type Source struct {
	Title string
	URL   string
}

// Progress is a best-effort telemetry descriptor emitted while the
// backend works on an answer.
type Progress struct {
	Stage   string
	Message string
}

// RawEvent is one tagged frame read off a stream transport. Data is the
// raw payload text; decoding is the consumer's concern.
type RawEvent struct {
	Type string
	Data string
}

// EventSource is a live server-push connection delivering tagged frames
// in arrival order.
//
// Next blocks until a frame arrives and returns io.EOF when the server
// ends the stream normally. Close releases the connection and is safe to
// call more than once; Next calls after Close return ErrStreamClosed.
type EventSource interface {
	Next() (RawEvent, error)
	Close() error
}

// StreamOpener opens a persistent event stream against an absolute URL.
// Implementations must not reconnect on their own: retry policy belongs
// to the caller.
type StreamOpener interface {
	Open(ctx context.Context, url string) (EventSource, error)
}

// StreamURLResolver maps a backend-relative stream path to a fully
// qualified URL.
type StreamURLResolver interface {
	ResolveStreamURL(path string) string
}
