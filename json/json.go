// Package json persists chat transcripts as versioned JSON files.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/researchmind/mind"
)

// envelope is the v1 wire format for a persisted transcript.
type envelope struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     []turnDTO `json:"turns"`
}

type turnDTO struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Trace     string       `json:"trace,omitempty"`
	Answer    string       `json:"answer"`
	Metadata  *metadataDTO `json:"metadata,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

type metadataDTO struct {
	DurationMS      int64       `json:"duration_ms,omitempty"`
	DurationAPIMS   int64       `json:"duration_api_ms,omitempty"`
	CostUSD         float64     `json:"cost_usd,omitempty"`
	SessionID       string      `json:"session_id,omitempty"`
	NumTurns        int         `json:"num_turns,omitempty"`
	InputTokens     int         `json:"input_tokens,omitempty"`
	OutputTokens    int         `json:"output_tokens,omitempty"`
	CacheReadTokens int         `json:"cache_read_tokens,omitempty"`
	Sources         []sourceDTO `json:"sources,omitempty"`
}

type sourceDTO struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// MarshalTranscript serializes a Transcript in v1 envelope format.
func MarshalTranscript(t mind.Transcript) ([]byte, error) {
	env := envelope{
		Version:   1,
		ID:        t.ID,
		SessionID: t.SessionID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Turns:     make([]turnDTO, len(t.Turns)),
	}
	for i, turn := range t.Turns {
		env.Turns[i] = turnDTO{
			ID:        turn.ID,
			Question:  turn.Question,
			Trace:     turn.Trace,
			Answer:    turn.Answer,
			Metadata:  marshalMetadata(turn.Metadata),
			Timestamp: turn.Timestamp,
		}
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalTranscript deserializes a Transcript from v1 envelope format.
func UnmarshalTranscript(data []byte) (mind.Transcript, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return mind.Transcript{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return mind.Transcript{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	t := mind.Transcript{
		ID:        env.ID,
		SessionID: env.SessionID,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		Turns:     make([]mind.Turn, len(env.Turns)),
	}
	for i, dto := range env.Turns {
		t.Turns[i] = mind.Turn{
			ID:        dto.ID,
			Question:  dto.Question,
			Trace:     dto.Trace,
			Answer:    dto.Answer,
			Metadata:  unmarshalMetadata(dto.Metadata),
			Timestamp: dto.Timestamp,
		}
	}
	return t, nil
}

// Save writes a Transcript to a JSON file, creating parent directories
// as needed. The write is atomic: temp file then rename.
func Save(path string, t mind.Transcript) error {
	data, err := MarshalTranscript(t)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Transcript from a JSON file.
func Load(path string) (mind.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mind.Transcript{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalTranscript(data)
}

func marshalMetadata(md *mind.ResultMetadata) *metadataDTO {
	if md == nil {
		return nil
	}
	dto := &metadataDTO{
		DurationMS:      md.DurationMS,
		DurationAPIMS:   md.DurationAPIMS,
		CostUSD:         md.CostUSD,
		SessionID:       md.SessionID,
		NumTurns:        md.NumTurns,
		InputTokens:     md.InputTokens,
		OutputTokens:    md.OutputTokens,
		CacheReadTokens: md.CacheReadTokens,
	}
	for _, s := range md.Sources {
		dto.Sources = append(dto.Sources, sourceDTO{Title: s.Title, URL: s.URL})
	}
	return dto
}

func unmarshalMetadata(dto *metadataDTO) *mind.ResultMetadata {
	if dto == nil {
		return nil
	}
	md := &mind.ResultMetadata{
		DurationMS:      dto.DurationMS,
		DurationAPIMS:   dto.DurationAPIMS,
		CostUSD:         dto.CostUSD,
		SessionID:       dto.SessionID,
		NumTurns:        dto.NumTurns,
		InputTokens:     dto.InputTokens,
		OutputTokens:    dto.OutputTokens,
		CacheReadTokens: dto.CacheReadTokens,
	}
	for _, s := range dto.Sources {
		md.Sources = append(md.Sources, mind.Source{Title: s.Title, URL: s.URL})
	}
	return md
}
