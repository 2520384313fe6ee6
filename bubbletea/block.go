package bubbletea

import tea "github.com/charmbracelet/bubbletea"

// MessageBlock is one renderable element of the conversation view.
// View takes the width so the root model controls layout and blocks
// stay testable in isolation.
type MessageBlock interface {
	Update(tea.Msg) (MessageBlock, tea.Cmd)
	View(width int) string
}

// ToggleMsg tells the focused collapsible block to flip its collapsed
// state.
type ToggleMsg struct{}
