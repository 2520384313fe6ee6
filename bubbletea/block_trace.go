package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ MessageBlock = (*TraceBlock)(nil)

// TraceBlock renders the research trace with a collapsible toggle. It
// starts collapsed; the header shows how many trace lines have arrived
// so the view stays alive while the backend works.
type TraceBlock struct {
	content   string
	collapsed bool
	done      bool
	styles    Styles
}

// NewTraceBlock creates a TraceBlock that starts collapsed.
func NewTraceBlock(styles Styles) *TraceBlock {
	return &TraceBlock{collapsed: true, styles: styles}
}

// SetContent replaces the trace text with the latest snapshot.
func (b *TraceBlock) SetContent(text string) {
	b.content = text
}

// Finish marks the trace as no longer receiving updates.
func (b *TraceBlock) Finish() {
	b.done = true
}

// Lines returns the number of non-empty trace lines.
func (b *TraceBlock) Lines() int {
	n := 0
	for _, line := range strings.Split(b.content, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func (b *TraceBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *TraceBlock) View(width int) string {
	wrap := lipgloss.NewStyle().Width(width)

	indicator := "▶"
	if !b.collapsed {
		indicator = "▼"
	}
	label := "Working"
	if b.done {
		label = "Trace"
	}
	header := b.styles.Trace.Render(wrap.Render(fmt.Sprintf("%s %s (%d steps)", indicator, label, b.Lines())))
	if b.collapsed {
		return header
	}
	content := b.styles.Trace.Render(wrap.Render(strings.TrimRight(b.content, "\n")))
	return header + "\n" + content
}
