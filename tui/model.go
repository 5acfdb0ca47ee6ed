// Package tui is a terminal dashboard for the visualizer: it shows the
// reported epoch and error, a per-layer summary and the pattern list, and
// drives train/reset through the dispatcher.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"go_net_viz/ml"
	"go_net_viz/monitor"
)

// --- Messages ---

// StateMsg carries a new snapshot into the program.
type StateMsg struct {
	State   ml.NetworkState
	Version uint64
}

// PhaseMsg reports a training-gate transition.
type PhaseMsg struct {
	Phase monitor.Phase
}

type commandDoneMsg struct {
	op  string
	err error
}

// --- Key bindings ---

type keyMap struct {
	Train   key.Binding
	Reset   key.Binding
	Refresh key.Binding
	Add     key.Binding
	Delete  key.Binding
	Up      key.Binding
	Down    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Train:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "train")),
	Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Refresh: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fetch")),
	Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add pattern")),
	Delete:  key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove pattern")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Train, k.Reset, k.Add, k.Delete, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Train, k.Reset, k.Refresh},
		{k.Add, k.Delete, k.Up, k.Down, k.Quit},
	}
}

// --- Styles ---

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	selStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
)

// --- Model ---

type Model struct {
	disp     *monitor.Dispatcher
	patterns *ml.PatternSet
	epochs   int

	state    ml.NetworkState
	version  uint64
	training bool

	selected int
	adding   bool
	input    textinput.Model
	help     help.Model
	status   string
	failed   bool
}

func New(disp *monitor.Dispatcher, patterns *ml.PatternSet, epochs int) Model {
	ti := textinput.New()
	ti.Placeholder = "0 1 | 1"
	ti.Prompt = "features | expected: "
	return Model{
		disp:     disp,
		patterns: patterns,
		epochs:   epochs,
		input:    ti,
		help:     help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		m.state = msg.State
		m.version = msg.Version
		return m, nil

	case PhaseMsg:
		m.training = msg.Phase == monitor.InFlight
		return m, nil

	case commandDoneMsg:
		m.training = m.disp.InFlight()
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.op, msg.err)
			m.failed = true
		} else {
			m.status = msg.op + " done"
			m.failed = false
		}
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateInput(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Train):
			if m.training {
				m.status = "training in progress"
				return m, nil
			}
			m.training = true
			return m, m.train()

		case key.Matches(msg, keys.Reset):
			if m.training {
				m.status = "training in progress"
				return m, nil
			}
			m.training = true
			return m, m.reset()

		case key.Matches(msg, keys.Refresh):
			return m, m.refresh()

		case key.Matches(msg, keys.Add):
			m.adding = true
			m.input.SetValue("")
			return m, m.input.Focus()

		case key.Matches(msg, keys.Delete):
			if err := m.patterns.Remove(m.selected); err != nil {
				m.status = err.Error()
				m.failed = true
			} else if m.selected > 0 && m.selected >= m.patterns.Len() {
				m.selected--
			}

		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
			}

		case key.Matches(msg, keys.Down):
			if m.selected < m.patterns.Len()-1 {
				m.selected++
			}
		}
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		p, err := ParsePattern(m.input.Value())
		if err != nil {
			m.status = err.Error()
			m.failed = true
			return m, nil
		}
		m.selected = m.patterns.Add(p)
		m.adding = false
		m.input.Blur()
		m.status = "pattern added"
		m.failed = false
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// The dispatcher owns the gate; the local flag only hides the controls
// until the PhaseMsg for the transition back to Idle arrives.
func (m Model) train() tea.Cmd {
	disp, patterns, epochs := m.disp, m.patterns.List(), m.epochs
	return func() tea.Msg {
		_, err := disp.Train(context.Background(), patterns, epochs)
		return commandDoneMsg{op: "train", err: err}
	}
}

func (m Model) reset() tea.Cmd {
	disp := m.disp
	return func() tea.Msg {
		_, err := disp.Reset(context.Background())
		return commandDoneMsg{op: "reset", err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	disp := m.disp
	return func() tea.Msg {
		_, err := disp.State(context.Background())
		return commandDoneMsg{op: "fetch", err: err}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Neural Network Visualizer"))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("Epoch: %d  Error: %.4f", m.state.EpochOrZero(), m.state.ErrorOrZero())))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  (v%d)", m.version)))
	if m.training {
		b.WriteString("  " + busyStyle.Render("training..."))
	}
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Layers"))
	b.WriteString("\n")
	if len(m.state.Layers) == 0 {
		b.WriteString(dimStyle.Render("  no state yet"))
		b.WriteString("\n")
	}
	for i, s := range ml.Summarize(m.state) {
		line := fmt.Sprintf("  %d: %2d neurons  mean value %.2f", i, s.Neurons, s.MeanValue)
		if s.Connections > 0 {
			line += fmt.Sprintf("  weights [%.2f, %.2f] mean|w| %.2f", s.MinWeight, s.MaxWeight, s.MeanAbsWeight)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if bad := m.state.Malformed(); bad > 0 {
		b.WriteString(errStyle.Render(fmt.Sprintf("  %d connections skipped (weight count mismatch)", bad)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("Patterns (%d epochs per train)", m.epochs)))
	b.WriteString("\n")
	for i, p := range m.patterns.List() {
		line := fmt.Sprintf("%v -> %v", p.Features, p.MultipleExpectation)
		if i == m.selected {
			b.WriteString(selStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if m.adding {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.status != "" {
		if m.failed {
			b.WriteString(errStyle.Render(m.status))
		} else {
			b.WriteString(dimStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}

// ParsePattern reads "f1 f2 ... | e1 e2 ...". Commas may separate values.
func ParsePattern(s string) (ml.TrainingPattern, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 2 {
		return ml.TrainingPattern{}, errors.Errorf("pattern %q: expected \"features | expected\"", s)
	}
	features, err := parseFloats(parts[0])
	if err != nil {
		return ml.TrainingPattern{}, errors.Wrap(err, "features")
	}
	expected, err := parseFloats(parts[1])
	if err != nil {
		return ml.TrainingPattern{}, errors.Wrap(err, "expected")
	}
	if len(features) == 0 || len(expected) == 0 {
		return ml.TrainingPattern{}, errors.Errorf("pattern %q: features and expected must not be empty", s)
	}
	return ml.TrainingPattern{Features: features, MultipleExpectation: expected}, nil
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
