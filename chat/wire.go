package chat

import (
	"encoding/json"
	"fmt"

	"github.com/researchmind/mind"
)

// Wire payload types for the chat stream protocol. The backend speaks
// either the current multi-stage tags or the legacy two-event tags
// (chunk/complete); both decode into the same [mind.StreamEvent]
// vocabulary.

type startPayload struct {
	MessageID string `json:"message_id"`
}

type textPayload struct {
	Content string `json:"content"`
}

type resultPayload struct {
	MessageID     string          `json:"message_id"`
	Content       string          `json:"content"`
	Result        string          `json:"result"`
	DurationMS    int64           `json:"duration_ms"`
	DurationAPIMS int64           `json:"duration_api_ms"`
	TotalCostUSD  float64         `json:"total_cost_usd"`
	SessionID     string          `json:"session_id"`
	NumTurns      int             `json:"num_turns"`
	Usage         resultUsage     `json:"usage"`
	Sources       []sourcePayload `json:"sources"`
}

type resultUsage struct {
	OutputTokens         int `json:"output_tokens"`
	InputTokens          int `json:"input_tokens"`
	CacheReadInputTokens int `json:"cache_read_input_tokens"`
}

type completePayload struct {
	MessageID  string            `json:"message_id"`
	Content    string            `json:"content"`
	TokenCount int               `json:"token_count"`
	DurationMS int64             `json:"duration_ms"`
	Metadata   *completeMetadata `json:"metadata"`
}

type completeMetadata struct {
	TokenCount      int             `json:"token_count"`
	DurationMS      int64           `json:"duration_ms"`
	CostUSD         float64         `json:"cost_usd"`
	SessionID       string          `json:"session_id"`
	NumTurns        int             `json:"num_turns"`
	InputTokens     int             `json:"input_tokens"`
	CacheReadTokens int             `json:"cache_read_tokens"`
	Sources         []sourcePayload `json:"sources"`
}

type sourcePayload struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type errorPayload struct {
	Error     string `json:"error"`
	MessageID string `json:"message_id"`
}

type progressDescriptor struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// DecodeEvent maps a tagged frame to a semantic [mind.StreamEvent].
// Returns a nil event for unrecognized tags. A non-nil error means the
// payload was malformed; callers drop the event and keep reading — a bad
// frame never terminates the stream.
func DecodeEvent(raw mind.RawEvent) (mind.StreamEvent, error) {
	switch raw.Type {
	case "start":
		var p startPayload
		if err := json.Unmarshal([]byte(raw.Data), &p); err != nil {
			return nil, decodeErr(raw.Type, err)
		}
		return mind.EventStart{MessageID: p.MessageID}, nil

	case "init_text":
		var p textPayload
		if err := json.Unmarshal([]byte(raw.Data), &p); err != nil {
			return nil, decodeErr(raw.Type, err)
		}
		return mind.EventInitText{Content: p.Content}, nil

	case "system_init", "system_hook":
		var p textPayload
		if err := json.Unmarshal([]byte(raw.Data), &p); err != nil {
			return nil, decodeErr(raw.Type, err)
		}
		return mind.EventSystemTrace{Tag: raw.Type, Content: p.Content, Raw: raw.Data}, nil

	case "stream_token":
		var p textPayload
		if err := json.Unmarshal([]byte(raw.Data), &p); err != nil {
			return nil, decodeErr(raw.Type, err)
		}
		return mind.EventToken{Content: p.Content}, nil

	case "assistant":
		var p textPayload
		if err := json.Unmarshal([]byte(raw.Data), &p); err != nil {
			return nil, decodeErr(raw.Type, err)
		}
		return mind.EventAssistant{Content: p.Content}, nil

	case "result":
		return decodeResult(raw.Data)

	case "progress":
		return decodeProgress(raw.Data)

	case "error":
		var p errorPayload
		if err := json.Unmarshal([]byte(raw.Data), &p); err != nil {
			return nil, decodeErr(raw.Type, err)
		}
		msg := p.Error
		if msg == "" {
			msg = "stream error"
		}
		return mind.EventStreamError{MessageID: p.MessageID, Message: msg}, nil

	case "heartbeat":
		return mind.EventHeartbeat{}, nil

	case "chunk":
		var p textPayload
		if err := json.Unmarshal([]byte(raw.Data), &p); err != nil {
			return nil, decodeErr(raw.Type, err)
		}
		return mind.EventChunk{Content: p.Content}, nil

	case "complete":
		return decodeComplete(raw.Data)

	default:
		// Unknown tags are ignored; the protocol may grow.
		return nil, nil
	}
}

// decodeResult extracts the current protocol's terminal success event.
// Metadata comes from top-level and usage.* fields only; the legacy
// complete path reads a different shape by contract, and the two
// extraction rules are deliberately not unified.
func decodeResult(data string) (mind.StreamEvent, error) {
	var p resultPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, decodeErr("result", err)
	}
	content := p.Content
	if content == "" {
		content = p.Result
	}
	return mind.EventResult{
		MessageID: p.MessageID,
		Content:   content,
		Metadata: mind.ResultMetadata{
			DurationMS:      p.DurationMS,
			DurationAPIMS:   p.DurationAPIMS,
			CostUSD:         p.TotalCostUSD,
			SessionID:       p.SessionID,
			NumTurns:        p.NumTurns,
			OutputTokens:    p.Usage.OutputTokens,
			InputTokens:     p.Usage.InputTokens,
			CacheReadTokens: p.Usage.CacheReadInputTokens,
			Sources:         convertSources(p.Sources),
		},
	}, nil
}

// decodeComplete extracts the legacy terminal success event, preferring
// nested metadata.* fields over the legacy top-level token_count and
// duration_ms.
func decodeComplete(data string) (mind.StreamEvent, error) {
	var p completePayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, decodeErr("complete", err)
	}
	md := mind.ResultMetadata{
		OutputTokens: p.TokenCount,
		DurationMS:   p.DurationMS,
	}
	if m := p.Metadata; m != nil {
		if m.TokenCount != 0 {
			md.OutputTokens = m.TokenCount
		}
		if m.DurationMS != 0 {
			md.DurationMS = m.DurationMS
		}
		md.CostUSD = m.CostUSD
		md.SessionID = m.SessionID
		md.NumTurns = m.NumTurns
		md.InputTokens = m.InputTokens
		md.CacheReadTokens = m.CacheReadTokens
		md.Sources = convertSources(m.Sources)
	}
	return mind.EventComplete{
		MessageID: p.MessageID,
		Content:   p.Content,
		Metadata:  md,
	}, nil
}

// decodeProgress parses the progress payload, whose content field is
// itself a JSON-encoded descriptor. Progress is best-effort telemetry:
// either parse failing drops the event.
func decodeProgress(data string) (mind.StreamEvent, error) {
	var p textPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, decodeErr("progress", err)
	}
	var d progressDescriptor
	if err := json.Unmarshal([]byte(p.Content), &d); err != nil {
		return nil, decodeErr("progress", err)
	}
	return mind.EventProgress{Progress: mind.Progress{Stage: d.Stage, Message: d.Message}}, nil
}

func convertSources(src []sourcePayload) []mind.Source {
	if len(src) == 0 {
		return nil
	}
	out := make([]mind.Source, len(src))
	for i, s := range src {
		out[i] = mind.Source{Title: s.Title, URL: s.URL}
	}
	return out
}

func decodeErr(tag string, err error) error {
	return fmt.Errorf("chat: failed to parse %s: %w", tag, err)
}
