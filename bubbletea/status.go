package bubbletea

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/researchmind/mind"
	"github.com/rivo/uniseg"
)

// statusLine renders a single-width line with status text on the left
// and, after a completed turn, a metadata summary on the right.
func (m Model) statusLine() string {
	left := m.statusText()
	right := metadataSummary(m.state.Metadata)

	width := m.width
	if width <= 0 {
		return m.styleStatus(left)
	}

	gap := width - uniseg.StringWidth(left) - uniseg.StringWidth(right)
	if gap < 1 {
		// Keep the metadata visible; truncate the status text.
		maxLeft := width - uniseg.StringWidth(right) - 1
		if maxLeft < 0 {
			maxLeft = 0
		}
		left = runewidth.Truncate(left, maxLeft, "…")
		gap = width - uniseg.StringWidth(left) - uniseg.StringWidth(right)
		if gap < 1 {
			gap = 1
		}
	}
	if right == "" {
		return m.styleStatus(left)
	}
	return m.styleStatus(left) + strings.Repeat(" ", gap) + m.styles.Muted.Render(right)
}

func (m Model) statusText() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v", m.err)
	}
	switch {
	case m.streaming && m.state.Status == mind.StreamConnecting:
		return "Connecting..."
	case m.streaming:
		if p := m.state.Progress; p != nil {
			if p.Message != "" {
				return fmt.Sprintf("%s: %s", p.Stage, p.Message)
			}
			return p.Stage
		}
		return "Researching..."
	case m.state.HasError():
		return m.state.Err
	default:
		return "Enter to send, Esc to cancel, Ctrl+C to quit"
	}
}

func (m Model) styleStatus(text string) string {
	if m.err != nil || m.state.HasError() {
		return m.styles.Error.Render(text)
	}
	return m.styles.Muted.Render(text)
}

// metadataSummary formats result metadata as a compact right-aligned
// summary, e.g. "3.2s  $0.0041  120>46 tok  2 src".
func metadataSummary(md *mind.ResultMetadata) string {
	if md == nil {
		return ""
	}
	var parts []string
	if md.DurationMS > 0 {
		parts = append(parts, (time.Duration(md.DurationMS) * time.Millisecond).Round(100*time.Millisecond).String())
	}
	if md.CostUSD > 0 {
		parts = append(parts, fmt.Sprintf("$%.4f", md.CostUSD))
	}
	if md.InputTokens > 0 || md.OutputTokens > 0 {
		parts = append(parts, fmt.Sprintf("%d>%d tok", md.InputTokens, md.OutputTokens))
	}
	if n := len(md.Sources); n > 0 {
		parts = append(parts, fmt.Sprintf("%d src", n))
	}
	return strings.Join(parts, "  ")
}
