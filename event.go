package mind

// StreamEvent is a sealed interface representing one decoded chat stream
// event. The vocabulary spans two backend protocol generations: the
// current multi-stage tags and the legacy two-event tags (EventChunk,
// EventComplete). Keeping both in one variant type keeps the reducer a
// single totally-ordered table.
// The unexported marker method prevents external implementations.
type StreamEvent interface {
	streamEvent()
}

// EventStart opens a stream: buffers reset, message correlation begins.
type EventStart struct {
	MessageID string
}

func (EventStart) streamEvent() {}

// EventInitText carries raw preamble text for the trace buffer.
type EventInitText struct {
	Content string
}

func (EventInitText) streamEvent() {}

// EventSystemTrace carries a system_init/system_hook trace. Raw is the
// original payload JSON, kept so the trace line can show it verbatim.
type EventSystemTrace struct {
	Tag     string
	Content string
	Raw     string
}

func (EventSystemTrace) streamEvent() {}

// EventToken is a token-level delta appended to the trace buffer with no
// added newline.
type EventToken struct {
	Content string
}

func (EventToken) streamEvent() {}

// EventAssistant is an intermediate answer draft; it may be superseded by
// a later draft or by the terminal result.
type EventAssistant struct {
	Content string
}

func (EventAssistant) streamEvent() {}

// EventResult is the authoritative terminal success event of the current
// protocol.
type EventResult struct {
	MessageID string
	Content   string
	Metadata  ResultMetadata
}

func (EventResult) streamEvent() {}

// EventProgress is a parsed progress descriptor.
type EventProgress struct {
	Progress Progress
}

func (EventProgress) streamEvent() {}

// EventStreamError is a protocol-level error reported by the server.
type EventStreamError struct {
	MessageID string
	Message   string
}

func (EventStreamError) streamEvent() {}

// EventHeartbeat confirms liveness and carries no state.
type EventHeartbeat struct{}

func (EventHeartbeat) streamEvent() {}

// EventChunk is the legacy protocol's trace delta, appended with a
// trailing newline.
type EventChunk struct {
	Content string
}

func (EventChunk) streamEvent() {}

// EventComplete is the legacy protocol's terminal success event. Content
// never overwrites an answer already set by EventAssistant/EventResult.
type EventComplete struct {
	MessageID string
	Content   string
	Metadata  ResultMetadata
}

func (EventComplete) streamEvent() {}

// Interface compliance checks.
var (
	_ StreamEvent = EventStart{}
	_ StreamEvent = EventInitText{}
	_ StreamEvent = EventSystemTrace{}
	_ StreamEvent = EventToken{}
	_ StreamEvent = EventAssistant{}
	_ StreamEvent = EventResult{}
	_ StreamEvent = EventProgress{}
	_ StreamEvent = EventStreamError{}
	_ StreamEvent = EventHeartbeat{}
	_ StreamEvent = EventChunk{}
	_ StreamEvent = EventComplete{}
)
