package json_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/researchmind/mind"
	mindjson "github.com/researchmind/mind/json"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	transcript := mind.Transcript{
		ID:        "t1",
		SessionID: "s1",
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
		Turns: []mind.Turn{
			{
				ID:       "turn1",
				Question: "What is the capital of France?",
				Trace:    "[system_init] model ready\n",
				Answer:   "Paris.",
				Metadata: &mind.ResultMetadata{
					DurationMS:      1200,
					CostUSD:         0.004,
					SessionID:       "s1",
					NumTurns:        1,
					InputTokens:     42,
					OutputTokens:    7,
					CacheReadTokens: 10,
					Sources: []mind.Source{
						{Title: "Wikipedia", URL: "https://en.wikipedia.org/wiki/Paris"},
					},
				},
				Timestamp: now,
			},
			{
				ID:        "turn2",
				Question:  "And of Spain?",
				Answer:    "Madrid.",
				Timestamp: now.Add(time.Minute),
			},
		},
	}

	path := filepath.Join(t.TempDir(), "transcripts", "t1.json")
	require.NoError(t, mindjson.Save(path, transcript))

	loaded, err := mindjson.Load(path)
	require.NoError(t, err)
	require.Equal(t, transcript, loaded)
}

func TestSaveOverwritesExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "t.json")
	first := mind.NewTranscript("s1")
	require.NoError(t, mindjson.Save(path, *first))

	second := mind.NewTranscript("s2")
	require.NoError(t, mindjson.Save(path, *second))

	loaded, err := mindjson.Load(path)
	require.NoError(t, err)
	require.Equal(t, "s2", loaded.SessionID)

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestUnmarshalUnsupportedVersion(t *testing.T) {
	t.Parallel()

	_, err := mindjson.UnmarshalTranscript([]byte(`{"version": 2}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported envelope version: 2")
}

func TestUnmarshalInvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := mindjson.UnmarshalTranscript([]byte(`{broken`))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := mindjson.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
