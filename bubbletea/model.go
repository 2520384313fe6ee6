package bubbletea

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/researchmind/mind"
	"github.com/researchmind/mind/json"
)

var _ tea.Model = Model{}

// StreamController drives the chat stream lifecycle. Satisfied by
// chat.Controller.
type StreamController interface {
	Connect(ctx context.Context, streamPath string)
	Reset()
}

// Config carries the collaborators a chat Model needs.
type Config struct {
	Chat           mind.ChatService
	Controller     StreamController
	Session        *mind.Session
	Transcript     *mind.Transcript
	TranscriptPath string
	Theme          mind.Theme
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// Input is the prompt input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript area. Exported for test access.
	Viewport viewport.Model

	chat           mind.ChatService
	controller     StreamController
	session        *mind.Session
	transcript     *mind.Transcript
	transcriptPath string
	theme          mind.Theme
	styles         Styles

	blocks     []MessageBlock
	blockFocus int // index of focused collapsible block (-1 = none)

	// Blocks for the in-flight turn. Created lazily when the first
	// trace or answer content arrives, then overwritten on each
	// state snapshot.
	trace  *TraceBlock
	answer *AnswerBlock

	question  string
	streaming bool
	state     mind.StreamState
	stateCh   chan mind.StreamState
	err       error
	width     int
	ready     bool
}

// New creates a chat Model. StateSink must be registered as the stream
// controller's change callback before the program runs.
func New(cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a research question..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:          ti,
		chat:           cfg.Chat,
		controller:     cfg.Controller,
		session:        cfg.Session,
		transcript:     cfg.Transcript,
		transcriptPath: cfg.TranscriptPath,
		theme:          cfg.Theme,
		styles:         NewStyles(cfg.Theme),
		blockFocus:     -1,
		stateCh:        make(chan mind.StreamState, 256),
	}
}

// StateSink returns the callback that feeds controller state snapshots
// into the model's message loop.
func (m Model) StateSink() func(mind.StreamState) {
	ch := m.stateCh
	return func(s mind.StreamState) {
		ch <- s
	}
}

// Streaming returns whether a chat turn is in flight.
func (m Model) Streaming() bool { return m.streaming }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listenForState(m.stateCh))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case MessageAcceptedMsg:
		return m, connectStream(m.controller, msg.Receipt.StreamPath)

	case SendFailedMsg:
		m.streaming = false
		m.err = msg.Err
		m.blocks = append(m.blocks, NewErrorBlock(msg.Err.Error(), m.styles))
		m.refreshViewport()
		cmd := m.Input.Focus()
		return m, cmd

	case StreamStateMsg:
		var cmds []tea.Cmd
		m, cmds = m.applyState(msg.State)
		cmds = append(cmds, listenForState(m.stateCh))
		return m, tea.Batch(cmds...)

	case TranscriptSavedMsg:
		if msg.Err != nil {
			m.err = fmt.Errorf("save transcript: %w", msg.Err)
		}
		return m, nil
	}

	// Pass remaining messages to sub-components. The viewport always
	// receives messages so scrolling works mid-stream.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.streaming {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputHeight := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - inputHeight - statusHeight - borderHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	m.width = msg.Width
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.refreshViewport()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
		m.Viewport.SetContent(m.renderContent())
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.streaming {
			return m.cancelStream()
		}
		return m, tea.Quit

	case tea.KeyEsc:
		if m.streaming {
			return m.cancelStream()
		}
		return m, nil

	case tea.KeyEnter:
		if m.streaming {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitPrompt(text)

	case tea.KeyTab:
		if !m.streaming && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.streaming {
			m = m.cycleFocusPrev()
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	// When idle, pass keys to both input (for typing) and viewport (for
	// scrolling). Character keys go to the input only, so 'j'/'k' type
	// instead of scrolling.
	if !m.streaming {
		var cmds []tea.Cmd
		var cmd tea.Cmd
		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitPrompt(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil
	m.question = text
	m.trace = nil
	m.answer = nil
	m.streaming = true

	m.blocks = append(m.blocks, NewUserBlock(text, m.styles))
	m.refreshViewport()
	m = m.updateBlockFocus()
	m.Input.Blur()

	return m, sendMessage(m.chat, m.session.ID, text)
}

func (m Model) cancelStream() (tea.Model, tea.Cmd) {
	m.controller.Reset()
	m.streaming = false
	if m.trace != nil {
		m.trace.Finish()
	}
	cmd := m.Input.Focus()
	m.refreshViewport()
	return m, cmd
}

// applyState folds a controller state snapshot into the view.
func (m Model) applyState(s mind.StreamState) (Model, []tea.Cmd) {
	m.state = s

	if s.Stage1 != "" {
		if m.trace == nil {
			m.trace = NewTraceBlock(m.styles)
			m.blocks = append(m.blocks, m.trace)
		}
		m.trace.SetContent(s.Stage1)
	}
	if s.Stage2 != "" {
		if m.answer == nil {
			m.answer = NewAnswerBlock(m.theme, m.styles)
			m.blocks = append(m.blocks, m.answer)
		}
		m.answer.SetContent(s.Stage2)
	}

	var cmds []tea.Cmd
	switch s.Status {
	case mind.StreamCompleted:
		m.streaming = false
		if m.trace != nil {
			m.trace.Finish()
		}
		if m.answer != nil && s.Metadata != nil {
			m.answer.SetSources(s.Metadata.Sources)
		}
		if m.transcript != nil && m.transcriptPath != "" {
			m.transcript.AddTurn(m.question, s)
			cmds = append(cmds, saveTranscript(m.transcriptPath, *m.transcript))
		}
		m = m.updateBlockFocus()
		cmds = append(cmds, m.Input.Focus())

	case mind.StreamError:
		m.streaming = false
		if m.trace != nil {
			m.trace.Finish()
		}
		m.blocks = append(m.blocks, NewErrorBlock(s.Err, m.styles))
		m = m.updateBlockFocus()
		cmds = append(cmds, m.Input.Focus())

	case mind.StreamIdle:
		// Reset mid-stream lands here; nothing to fold in.
		m.streaming = false
	}

	m.refreshViewport()
	return m, cmds
}

func (m *Model) refreshViewport() {
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// updateBlockFocus scans backwards for the last collapsible block. Only
// the focused block responds to Tab; Shift+Tab cycles to earlier ones.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if _, ok := m.blocks[i].(*TraceBlock); ok {
			m.blockFocus = i
			return m
		}
	}
	return m
}

func (m Model) cycleFocusPrev() Model {
	if len(m.blocks) == 0 {
		return m
	}
	start := m.blockFocus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		if _, ok := m.blocks[idx].(*TraceBlock); ok {
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

// sendMessage submits the prompt to the backend off the UI loop.
func sendMessage(chat mind.ChatService, sessionID, text string) tea.Cmd {
	return func() tea.Msg {
		receipt, err := chat.SendMessage(context.Background(), sessionID, text)
		if err != nil {
			return SendFailedMsg{Err: err}
		}
		return MessageAcceptedMsg{Receipt: receipt}
	}
}

// connectStream opens the stream off the UI loop. Connect errors are
// absorbed into controller state and arrive as StreamStateMsg.
func connectStream(controller StreamController, streamPath string) tea.Cmd {
	return func() tea.Msg {
		controller.Connect(context.Background(), streamPath)
		return nil
	}
}

func saveTranscript(path string, t mind.Transcript) tea.Cmd {
	return func() tea.Msg {
		return TranscriptSavedMsg{Err: json.Save(path, t)}
	}
}
