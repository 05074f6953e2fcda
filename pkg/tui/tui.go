// Package tui provides a terminal user interface for midilearn: a live
// monitor of incoming control-surface events and an interactive learn
// front-end. The model performs no I/O itself; events are injected
// through a channel owned by the caller.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/midilearn/pkg/learn"
	"github.com/james-see/midilearn/pkg/source"
)

// Acid-inspired color scheme (303/acid aesthetic)
var (
	// Primary colors - acid green and silver
	acidGreen  = lipgloss.Color("#39FF14")
	acidYellow = lipgloss.Color("#FFFF00")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(acidGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	eventStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	learnedStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(acidYellow).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(acidGreen).
			Padding(1, 2)
)

// maxLogLines is how many recent events the monitor keeps on screen.
const maxLogLines = 16

// State represents the current TUI state
type State int

const (
	StateMonitor State = iota
	StateLearning
	StateLearned
)

// Model represents the TUI model
type Model struct {
	state    State
	events   <-chan source.RawEvent
	log      []string
	session  *learn.Session
	timeout  time.Duration
	learned  source.Source
	lastNote string
	closed   bool
	width    int
	height   int
	spinner  spinner.Model
}

// eventMsg carries one injected control-surface event.
type eventMsg struct {
	ev source.RawEvent
}

// streamClosedMsg signals that the event channel was closed.
type streamClosedMsg struct{}

// New creates a new TUI model reading events from the given channel. The
// learn timeout bounds each learn attempt; zero means no deadline.
func New(events <-chan source.RawEvent, timeout time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(acidGreen)

	return Model{
		state:   StateMonitor,
		events:  events,
		timeout: timeout,
		spinner: s,
	}
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

// waitForEvent blocks on the injected channel outside the update loop.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{ev: ev}
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state == StateLearning && m.session != nil {
			if m.session.PollTimeout(time.Now()) == learn.StateTimedOut {
				m.state = StateMonitor
				m.lastNote = errorStyle.Render("learn timed out")
				m.session = nil
			}
		}
		return m, cmd

	case eventMsg:
		m.feed(msg.ev)
		return m, m.waitForEvent()

	case streamClosedMsg:
		m.closed = true
		m.lastNote = errorStyle.Render("event stream closed")
		return m, nil
	}

	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return *m, tea.Quit
	case "l":
		if m.state == StateMonitor || m.state == StateLearned {
			m.session = learn.Start(learn.FilterAll, m.timeout, time.Now())
			m.state = StateLearning
			m.lastNote = ""
		}
	case "esc":
		if m.state == StateLearning && m.session != nil {
			m.session.Cancel()
			m.session = nil
			m.state = StateMonitor
			m.lastNote = statusStyle.Render("learn cancelled")
		} else if m.state == StateLearned {
			m.state = StateMonitor
		}
	}
	return *m, nil
}

// feed routes one event into the log and, when learning, the session.
func (m *Model) feed(ev source.RawEvent) {
	m.log = append(m.log, ev.String())
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}

	if m.state != StateLearning || m.session == nil {
		return
	}
	switch m.session.Feed(ev) {
	case learn.StateLearned:
		m.learned, _ = m.session.Result()
		m.session = nil
		m.state = StateLearned
	case learn.StateTimedOut:
		m.session = nil
		m.state = StateMonitor
		m.lastNote = errorStyle.Render("learn timed out")
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateLearning:
		s.WriteString(m.viewLearning())
	case StateLearned:
		s.WriteString(m.viewLearned())
	default:
		s.WriteString(m.viewMonitor())
	}

	if m.lastNote != "" {
		s.WriteString("\n")
		s.WriteString(m.lastNote)
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("l: learn • esc: cancel • q: quit"))

	return s.String()
}

func (m Model) viewMonitor() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" EVENT MONITOR "))
	s.WriteString("\n\n")

	if len(m.log) == 0 {
		s.WriteString(eventStyle.Render("waiting for events..."))
		s.WriteString("\n")
	}
	for _, line := range m.log {
		s.WriteString(eventStyle.Render(line))
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewLearning() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" LEARNING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Touch a control on your surface...\n", m.spinner.View()))
	s.WriteString(statusStyle.Render("  listening for MIDI and OSC"))

	return boxStyle.Render(s.String())
}

func (m Model) viewLearned() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" LEARNED "))
	s.WriteString("\n\n")
	s.WriteString(learnedStyle.Render("✓ " + m.learned.String()))
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("l: learn another • esc: back to monitor"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   __  __ ___ ____ ___ _     _____    _    ____  _   _
  |  \/  |_ _|  _ \_ _| |   | ____|  / \  |  _ \| \ | |
  | |\/| || || | | | || |   |  _|   / _ \ | |_) |  \| |
  | |  | || || |_| | || |___| |___ / ___ \|  _ <| |\  |
  |_|  |_|___|____/___|_____|_____/_/   \_\_| \_\_| \_|
`
	return lipgloss.NewStyle().Foreground(acidGreen).Render(logo)
}

// Run starts the TUI application over the given event stream.
func Run(events <-chan source.RawEvent, timeout time.Duration) error {
	p := tea.NewProgram(New(events, timeout), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
