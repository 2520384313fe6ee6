package bubbletea_test

import (
	"testing"

	"github.com/researchmind/mind"
	bt "github.com/researchmind/mind/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestTraceBlock(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(mind.DefaultTheme())

	t.Run("starts collapsed with step count", func(t *testing.T) {
		t.Parallel()
		b := bt.NewTraceBlock(styles)
		b.SetContent("[system_init] ready\n[system_hook] indexing\n")
		view := b.View(80)
		assert.Contains(t, view, "▶ Working (2 steps)")
		assert.NotContains(t, view, "system_init")
	})

	t.Run("toggle expands and collapses", func(t *testing.T) {
		t.Parallel()
		b := bt.NewTraceBlock(styles)
		b.SetContent("[system_init] ready\n")

		updated, _ := b.Update(bt.ToggleMsg{})
		view := updated.View(80)
		assert.Contains(t, view, "▼ Working (1 steps)")
		assert.Contains(t, view, "[system_init] ready")

		updated, _ = updated.Update(bt.ToggleMsg{})
		assert.NotContains(t, updated.View(80), "system_init")
	})

	t.Run("finish relabels the header", func(t *testing.T) {
		t.Parallel()
		b := bt.NewTraceBlock(styles)
		b.SetContent("[system_init] ready\n")
		b.Finish()
		assert.Contains(t, b.View(80), "Trace (1 steps)")
	})

	t.Run("blank lines are not counted as steps", func(t *testing.T) {
		t.Parallel()
		b := bt.NewTraceBlock(styles)
		b.SetContent("one\n\ntwo\n")
		assert.Equal(t, 2, b.Lines())
	})
}
