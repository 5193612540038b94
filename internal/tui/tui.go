// Package tui implements the terminal interface for a card room: a
// transcript pane fed by the peer's event stream, a sidebar with the
// current piles and players, and a command input with history recall.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/brandosha/socialdistanceroom/internal/client"
)

// entry is one rendered transcript line. Reveal entries remember which
// pile they showed so later changes can mark them outdated.
type entry struct {
	kind      client.EventKind
	text      string
	shownPile string
	stale     bool
}

type eventMsg struct {
	event client.Event
}

type eventsClosedMsg struct{}

// Model is the bubbletea model for a joined room.
type Model struct {
	peer   *client.Peer
	room   string
	logger *log.Logger

	viewport viewport.Model
	input    textinput.Model

	transcript []entry

	// Command history recall. historyPos is -1 while editing a fresh
	// line, otherwise an index into history counted from the oldest.
	history    []string
	historyCap int
	historyPos int
	draft      string

	focusedPane int // 0 = transcript, 1 = input
	width       int
	height      int
	initialized bool
	quitting    bool
}

// New creates a TUI bound to a running peer. historyCap bounds how many
// commands up-arrow can recall.
func New(peer *client.Peer, room string, historyCap int, logger *log.Logger) *Model {
	ti := textinput.New()
	ti.Placeholder = "Say something, or type a .command"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 80
	ti.Prompt = "> "
	ti.PromptStyle = PromptStyle

	vp := viewport.New(80, 20)

	if historyCap <= 0 {
		historyCap = 20
	}

	return &Model{
		peer:        peer,
		room:        room,
		logger:      logger.WithPrefix("tui"),
		viewport:    vp,
		input:       ti,
		historyCap:  historyCap,
		historyPos:  -1,
		focusedPane: 1,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

// waitForEvent blocks on the peer's transcript stream.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.peer.Events()
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: event}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.appendEvent(msg.event)
		return m, m.waitForEvent()

	case eventsClosedMsg:
		m.logger.Debug("event stream closed")
		m.quitting = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		if !m.initialized {
			m.initialized = true
			m.refreshViewport()
			m.viewport.GotoBottom()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		if m.focusedPane == 0 {
			m.focusedPane = 1
			m.input.Focus()
		} else {
			m.focusedPane = 0
			m.input.Blur()
		}
		return m, nil
	}

	if m.focusedPane == 0 {
		switch msg.String() {
		case "up", "k":
			m.viewport.ScrollUp(1)
		case "down", "j":
			m.viewport.ScrollDown(1)
		case "pgup", "b":
			m.viewport.HalfPageUp()
		case "pgdown", "f":
			m.viewport.HalfPageDown()
		case "home", "g":
			m.viewport.GotoTop()
		case "end", "G":
			m.viewport.GotoBottom()
		}
		return m, nil
	}

	switch msg.String() {
	case "enter":
		m.submit()
		return m, nil
	case "up":
		m.recallOlder()
		return m, nil
	case "down":
		m.recallNewer()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit() {
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.historyPos = -1
	m.draft = ""
	if line == "" {
		return
	}
	if strings.HasPrefix(line, ".") {
		m.remember(line)
	}
	m.peer.Input(line)
}

// remember keeps the most recent commands for up-arrow recall, dropping
// the oldest once the cap is hit.
func (m *Model) remember(line string) {
	if n := len(m.history); n > 0 && m.history[n-1] == line {
		return
	}
	m.history = append(m.history, line)
	if len(m.history) > m.historyCap {
		m.history = m.history[len(m.history)-m.historyCap:]
	}
}

func (m *Model) recallOlder() {
	if len(m.history) == 0 {
		return
	}
	if m.historyPos == -1 {
		m.draft = m.input.Value()
		m.historyPos = len(m.history) - 1
	} else if m.historyPos > 0 {
		m.historyPos--
	}
	m.input.SetValue(m.history[m.historyPos])
	m.input.CursorEnd()
}

func (m *Model) recallNewer() {
	if m.historyPos == -1 {
		return
	}
	if m.historyPos < len(m.history)-1 {
		m.historyPos++
		m.input.SetValue(m.history[m.historyPos])
	} else {
		m.historyPos = -1
		m.input.SetValue(m.draft)
	}
	m.input.CursorEnd()
}

// appendEvent adds a transcript entry and marks earlier reveals of any
// pile this event modified as outdated.
func (m *Model) appendEvent(event client.Event) {
	for _, key := range event.Modified {
		for i := range m.transcript {
			if m.transcript[i].shownPile == key {
				m.transcript[i].stale = true
			}
		}
	}

	m.transcript = append(m.transcript, entry{
		kind:      event.Kind,
		text:      event.Text,
		shownPile: event.ShownPile,
	})

	if m.initialized {
		atBottom := m.viewport.AtBottom()
		m.refreshViewport()
		if atBottom {
			m.viewport.GotoBottom()
		}
	}
}

func (m *Model) refreshViewport() {
	lines := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		lines = append(lines, m.renderEntry(e))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

func (m *Model) renderEntry(e entry) string {
	if e.stale {
		return StaleStyle.Render(e.text + " (outdated)")
	}
	switch e.kind {
	case client.EventChat:
		return ChatStyle.Render(e.text)
	case client.EventGame:
		return GameStyle.Render(e.text)
	case client.EventError:
		return ErrorStyle.Render(e.text)
	default:
		return SystemStyle.Render(e.text)
	}
}

func (m *Model) layout() {
	sidebarWidth := 28
	transcriptWidth := m.width - sidebarWidth - 6
	if transcriptWidth < 20 {
		transcriptWidth = 20
	}
	transcriptHeight := m.height - 7
	if transcriptHeight < 1 {
		transcriptHeight = 1
	}

	m.viewport.Width = transcriptWidth
	m.viewport.Height = transcriptHeight
	m.input.Width = m.width - 8
	if m.input.Width < 20 {
		m.input.Width = 20
	}
	m.refreshViewport()
}

func (m *Model) View() string {
	if m.quitting {
		return "Leaving the room...\n"
	}
	if !m.initialized {
		return "Loading..."
	}

	focused := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Padding(0, 1)
	dim := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Padding(0, 1)

	transcriptStyle := dim
	inputStyle := dim
	if m.focusedPane == 0 {
		transcriptStyle = focused
	} else {
		inputStyle = focused
	}

	header := HeaderStyle.Render(fmt.Sprintf("Room: %s  |  You: %s", m.room, m.peer.Name()))

	transcriptPane := transcriptStyle.
		Width(m.viewport.Width).
		Height(m.viewport.Height).
		Render(m.viewport.View())
	sidebarPane := dim.
		Width(24).
		Height(m.viewport.Height).
		Render(m.sidebar())

	top := lipgloss.JoinHorizontal(lipgloss.Top, transcriptPane, sidebarPane)
	inputPane := inputStyle.Width(m.width - 4).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, top, inputPane)
}

// sidebar lists the room's piles and players under the current game, or
// a hint when no game is running.
func (m *Model) sidebar() string {
	var b strings.Builder

	b.WriteString(SidebarTitleStyle.Render("Players"))
	b.WriteString("\n")
	for _, name := range m.peer.Roster() {
		b.WriteString(SidebarEntryStyle.Render("  " + name))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(SidebarTitleStyle.Render("Piles"))
	b.WriteString("\n")

	piles := m.peer.Piles()
	if len(piles) == 0 {
		b.WriteString(SystemStyle.Render("  no game yet"))
		return b.String()
	}
	for _, pile := range piles {
		b.WriteString(SidebarEntryStyle.Render(fmt.Sprintf("  %s: %d", pile.Label, pile.Count)))
		b.WriteString("\n")
		for _, card := range pile.Cards {
			b.WriteString(SystemStyle.Render("    " + card))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
