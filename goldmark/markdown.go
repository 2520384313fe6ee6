// Package goldmark renders markdown answers to ANSI-styled terminal
// output using goldmark for parsing and lipgloss for styling.
package goldmark

import (
	"strings"

	"github.com/researchmind/mind"
)

// Render parses markdown source and returns ANSI-styled terminal output
// wrapped to width. Code blocks keep their original line breaks.
func Render(source string, width int, theme mind.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}

// RenderSources formats a citation list for display under an answer.
// Entries without a title fall back to the URL alone.
func RenderSources(sources []mind.Source, theme mind.Theme) string {
	if len(sources) == 0 {
		return ""
	}
	r := newRenderer(theme)
	var b strings.Builder
	b.WriteString(r.muted.Render("Sources:"))
	for _, s := range sources {
		b.WriteString("\n")
		switch {
		case s.Title != "" && s.URL != "":
			b.WriteString("  " + r.link.Render(s.Title) + " " + r.muted.Render("("+s.URL+")"))
		case s.URL != "":
			b.WriteString("  " + r.link.Render(s.URL))
		default:
			b.WriteString("  " + s.Title)
		}
	}
	return b.String()
}
