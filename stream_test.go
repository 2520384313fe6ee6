package mind_test

import (
	"testing"

	"github.com/researchmind/mind"
	"github.com/stretchr/testify/assert"
)

func TestStreamState_DerivedAccessors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status      mind.StreamStatus
		isStreaming bool
		isComplete  bool
		hasError    bool
	}{
		{mind.StreamIdle, false, false, false},
		{mind.StreamConnecting, true, false, false},
		{mind.StreamStreaming, true, false, false},
		{mind.StreamCompleted, false, true, false},
		{mind.StreamError, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			s := mind.StreamState{Status: tt.status}
			assert.Equal(t, tt.isStreaming, s.IsStreaming())
			assert.Equal(t, tt.isComplete, s.IsComplete())
			assert.Equal(t, tt.hasError, s.HasError())
		})
	}
}

func TestStreamStatus_Terminal(t *testing.T) {
	t.Parallel()

	assert.False(t, mind.StreamIdle.Terminal())
	assert.False(t, mind.StreamConnecting.Terminal())
	assert.False(t, mind.StreamStreaming.Terminal())
	assert.True(t, mind.StreamCompleted.Terminal())
	assert.True(t, mind.StreamError.Terminal())
}
