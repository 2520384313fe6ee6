package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/researchmind/mind"
	"github.com/researchmind/mind/goldmark"
)

var _ MessageBlock = (*AnswerBlock)(nil)

// AnswerBlock renders the streamed answer with markdown formatting.
// Each state snapshot replaces the whole text, so renders are cached
// per width and invalidated when the content changes.
type AnswerBlock struct {
	content string
	sources []mind.Source
	theme   mind.Theme
	styles  Styles

	renderedByWidth map[int]string
}

// NewAnswerBlock creates a block for the streamed answer.
func NewAnswerBlock(theme mind.Theme, styles Styles) *AnswerBlock {
	return &AnswerBlock{
		theme:           theme,
		styles:          styles,
		renderedByWidth: make(map[int]string),
	}
}

// SetContent replaces the answer text with the latest snapshot.
func (b *AnswerBlock) SetContent(text string) {
	if text == b.content {
		return
	}
	b.content = text
	clear(b.renderedByWidth)
}

// SetSources attaches the citation list shown under the answer.
func (b *AnswerBlock) SetSources(sources []mind.Source) {
	b.sources = sources
	clear(b.renderedByWidth)
}

func (b *AnswerBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AnswerBlock) View(width int) string {
	if width <= 0 || b.content == "" {
		return ""
	}
	if cached, ok := b.renderedByWidth[width]; ok {
		return cached
	}

	text := b.content
	if hasUnclosedFence(text) {
		// Close the fence only for rendering so a partially streamed
		// code block displays safely.
		text += "\n```"
	}
	rendered := goldmark.Render(text, width, b.theme)
	if cites := goldmark.RenderSources(b.sources, b.theme); cites != "" {
		rendered += "\n\n" + cites
	}
	b.renderedByWidth[width] = rendered
	return rendered
}

// hasUnclosedFence detects an unclosed fenced code block by counting
// "```" occurrences. Triple backticks inside inline code spans would
// confuse the count, but that never appears in practice.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
