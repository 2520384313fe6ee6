// Package bubbletea provides the Bubble Tea chat TUI for Research Mind.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/researchmind/mind"
)

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits. When the context is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StreamStateMsg carries a stream state snapshot to the model.
type StreamStateMsg struct {
	State mind.StreamState
}

// MessageAcceptedMsg signals that the backend accepted a prompt and
// returned a stream path to connect to.
type MessageAcceptedMsg struct {
	Receipt mind.MessageReceipt
}

// SendFailedMsg signals that submitting a prompt to the backend failed.
type SendFailedMsg struct {
	Err error
}

// TranscriptSavedMsg reports the outcome of an auto-save.
type TranscriptSavedMsg struct {
	Err error
}

// listenForState waits for the next state snapshot from the channel.
func listenForState(ch <-chan mind.StreamState) tea.Cmd {
	return func() tea.Msg {
		return StreamStateMsg{State: <-ch}
	}
}
