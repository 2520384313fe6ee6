package bubbletea_test

import (
	"testing"

	"github.com/researchmind/mind"
	bt "github.com/researchmind/mind/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestUserBlock(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(mind.DefaultTheme())

	b := bt.NewUserBlock("what is dark matter?", styles)
	view := b.View(80)
	assert.Contains(t, view, "> ")
	assert.Contains(t, view, "what is dark matter?")
}

func TestErrorBlock(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(mind.DefaultTheme())

	b := bt.NewErrorBlock("Connection lost", styles)
	assert.Contains(t, b.View(80), "Error: Connection lost")
}
