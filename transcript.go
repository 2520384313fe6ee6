package mind

import (
	"time"

	"github.com/google/uuid"
)

// Transcript is the local record of one session's chat turns. It is the
// front-end's own artifact; the backend keeps its own message history.
type Transcript struct {
	ID        string
	SessionID string
	Turns     []Turn
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Turn is one question and the completed stream output it produced.
type Turn struct {
	ID        string
	Question  string
	Trace     string
	Answer    string
	Metadata  *ResultMetadata
	Timestamp time.Time
}

// NewTranscript creates an empty transcript for a session.
func NewTranscript(sessionID string) *Transcript {
	now := time.Now()
	return &Transcript{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddTurn records a completed stream as a transcript turn and returns
// it. The snapshot's trace, answer, and metadata are carried over as-is.
func (t *Transcript) AddTurn(question string, state StreamState) Turn {
	turn := Turn{
		ID:        uuid.NewString(),
		Question:  question,
		Trace:     state.Stage1,
		Answer:    state.Stage2,
		Metadata:  state.Metadata,
		Timestamp: time.Now(),
	}
	t.Turns = append(t.Turns, turn)
	t.UpdatedAt = turn.Timestamp
	return turn
}
