package mind_test

import (
	"testing"

	"github.com/researchmind/mind"
	"github.com/stretchr/testify/assert"
)

func TestDefaultTheme(t *testing.T) {
	t.Parallel()

	theme := mind.DefaultTheme()

	assert.Equal(t, 4, theme.UserMsg)
	assert.Equal(t, 8, theme.Trace)
	assert.Equal(t, 1, theme.Error)
	assert.Equal(t, 2, theme.Success)
	assert.Equal(t, 8, theme.Muted)
	assert.Equal(t, 0, theme.CodeBg)
	assert.Equal(t, 5, theme.Accent)
	assert.Equal(t, 3, theme.Progress)
}
