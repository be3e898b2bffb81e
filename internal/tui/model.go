// Package tui is the interactive widget channel: a bubbletea program
// with a command list, a generated parameter form, and a live output
// viewport. Background workers never touch the display directly; their
// mutations arrive as messages through the Surface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/facet/pkg/render/widgetchan"
	"github.com/aretw0/facet/pkg/run"
	"github.com/aretw0/facet/pkg/spec"
	"github.com/aretw0/facet/pkg/view"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

type focus int

const (
	focusList focus = iota
	focusForm
	focusConfirm
)

// commandItem adapts a command spec to the bubbles list delegate.
type commandItem struct {
	cmd *spec.Command
}

func (i commandItem) Title() string {
	if i.cmd.Group != "" {
		return i.cmd.Group + " / " + i.cmd.Name
	}
	return i.cmd.Name
}

func (i commandItem) Description() string { return i.cmd.Help }
func (i commandItem) FilterValue() string { return i.cmd.Name }

// field is one generated form input.
type field struct {
	param spec.Param
	input textinput.Model
}

// Model is the program state.
type Model struct {
	app    *spec.App
	coord  *run.Coordinator
	views  *view.Registry
	logger *slog.Logger

	commands list.Model
	output   viewport.Model
	fields   []field
	fieldIdx int

	selected *spec.Command
	focus    focus
	confirm  *confirmMsg
	status   string

	width  int
	height int
	ready  bool
}

// NewModel builds the program state for sp.
func NewModel(sp *spec.App, coord *run.Coordinator, logger *slog.Logger) Model {
	items := make([]list.Item, 0, len(sp.Commands))
	for _, cmd := range sp.Commands {
		items = append(items, commandItem{cmd: cmd})
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = sp.Title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	return Model{
		app:    sp,
		coord:  coord,
		views:  coord.Views(),
		logger: logger,

		commands: l,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.ready = true
		m.refreshOutput()
		return m, nil

	case applyMsg:
		msg.fn()
		m.refreshOutput()
		return m, nil

	case refreshMsg:
		m.refreshOutput()
		return m, nil

	case alertMsg:
		m.status = msg.text
		return m, nil

	case confirmMsg:
		m.confirm = &msg
		m.focus = focusConfirm
		return m, nil

	case invDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed", msg.name)
		} else {
			m.status = fmt.Sprintf("%s finished", msg.name)
		}
		m.refreshOutput()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.commands, cmd = m.commands.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.focus {
	case focusConfirm:
		switch msg.String() {
		case "y", "Y", "enter":
			done := m.confirm.done
			m.confirm = nil
			m.focus = focusList
			done(true)
		case "n", "N", "esc":
			done := m.confirm.done
			m.confirm = nil
			m.focus = focusList
			done(false)
		}
		return m, nil

	case focusForm:
		switch msg.String() {
		case "esc":
			m.focus = focusList
			m.blurFields()
			return m, nil
		case "tab", "down":
			m.focusField(m.fieldIdx + 1)
			return m, nil
		case "shift+tab", "up":
			m.focusField(m.fieldIdx - 1)
			return m, nil
		case "enter":
			if m.fieldIdx < len(m.fields)-1 {
				m.focusField(m.fieldIdx + 1)
				return m, nil
			}
			return m.startRun()
		}
		var cmd tea.Cmd
		m.fields[m.fieldIdx].input, cmd = m.fields[m.fieldIdx].input.Update(msg)
		return m, cmd

	default: // focusList
		if m.commands.FilterState() != list.Filtering {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "enter":
				return m.selectCurrent()
			case "r":
				if m.selected != nil {
					return m.startRun()
				}
			case "c":
				if m.selected != nil {
					m.clearSelected()
					return m, nil
				}
			case "esc":
				if m.selected != nil {
					m.selected = nil
					m.fields = nil
					m.status = ""
					return m, nil
				}
			case "tab":
				if len(m.fields) > 0 {
					m.focus = focusForm
					m.focusField(0)
					return m, nil
				}
			}
		}
		var cmd tea.Cmd
		m.commands, cmd = m.commands.Update(msg)
		return m, cmd
	}
}

// selectCurrent makes the highlighted command the visible one, builds
// its parameter form, and honors the auto-run hint.
func (m Model) selectCurrent() (tea.Model, tea.Cmd) {
	item, ok := m.commands.SelectedItem().(commandItem)
	if !ok {
		return m, nil
	}
	m.selected = item.cmd
	m.views.Select(item.cmd.Group, item.cmd.Name)
	m.buildForm(item.cmd)
	m.status = ""
	m.refreshOutput()

	if item.cmd.Display.AutoRun && !m.entry().Running() {
		return m.startRun()
	}
	if len(m.fields) > 0 {
		m.focus = focusForm
		m.focusField(0)
	}
	return m, nil
}

// startRun launches the selected command, after the confirmation step
// when the spec requires one.
func (m Model) startRun() (tea.Model, tea.Cmd) {
	cmd := m.selected
	if cmd == nil {
		return m, nil
	}
	if m.entry().Running() {
		m.status = "already running"
		return m, nil
	}

	raw := m.formValues()
	if label := cmd.Display.ConfirmLabel; label != "" && m.focus != focusConfirm {
		m.confirm = &confirmMsg{text: label}
		m.focus = focusConfirm
		coord := m.coord
		m.confirm.done = func(ok bool) {
			if !ok {
				return
			}
			go func() {
				inv := coord.Execute(context.Background(), cmd, raw)
				inv.Wait(context.Background())
			}()
		}
		return m, nil
	}

	m.focus = focusList
	m.blurFields()
	m.status = "running " + cmd.Name
	coord := m.coord
	return m, func() tea.Msg {
		inv := coord.Execute(context.Background(), cmd, raw)
		inv.Wait(context.Background())
		return invDoneMsg{group: cmd.Group, name: cmd.Name, err: inv.Err()}
	}
}

// clearSelected discards displayed output; auto-run commands repopulate
// immediately.
func (m *Model) clearSelected() {
	m.entry().Clear()
	m.refreshOutput()
	if m.selected.Display.AutoRun && !m.entry().Running() {
		cmd := m.selected
		coord := m.coord
		go func() {
			inv := coord.Execute(context.Background(), cmd, nil)
			inv.Wait(context.Background())
		}()
	}
}

func (m *Model) entry() *view.Entry {
	return m.views.GetOrCreate(m.selected.Group, m.selected.Name)
}

func (m *Model) buildForm(cmd *spec.Command) {
	m.fields = m.fields[:0]
	for _, p := range cmd.Params {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholderFor(p)
		if p.Default != nil {
			ti.SetValue(fmt.Sprint(p.Default))
		}
		m.fields = append(m.fields, field{param: p, input: ti})
	}
	m.fieldIdx = 0
}

func placeholderFor(p spec.Param) string {
	if len(p.Choices) > 0 {
		return strings.Join(p.Choices, " | ")
	}
	if p.Help != "" {
		return p.Help
	}
	return string(p.Type)
}

func (m *Model) formValues() map[string]any {
	if len(m.fields) == 0 {
		return nil
	}
	raw := make(map[string]any, len(m.fields))
	for _, f := range m.fields {
		if v := strings.TrimSpace(f.input.Value()); v != "" {
			raw[f.param.Name] = v
		}
	}
	return raw
}

func (m *Model) focusField(i int) {
	if len(m.fields) == 0 {
		return
	}
	if i < 0 {
		i = len(m.fields) - 1
	}
	if i >= len(m.fields) {
		i = 0
	}
	m.blurFields()
	m.fieldIdx = i
	m.fields[i].input.Focus()
}

func (m *Model) blurFields() {
	for i := range m.fields {
		m.fields[i].input.Blur()
	}
}

func (m *Model) layout() {
	listWidth := m.width / 3
	if listWidth < 24 {
		listWidth = 24
	}
	m.commands.SetSize(listWidth, m.height-2)

	outWidth := m.width - listWidth - 6
	outHeight := m.height - len(m.fields) - 7
	if outWidth < 20 {
		outWidth = 20
	}
	if outHeight < 3 {
		outHeight = 3
	}
	// Resize in place after the first sizing; recreating the viewport
	// would drop the scroll position.
	if !m.ready {
		m.output = viewport.New(outWidth, outHeight)
		return
	}
	m.output.Width = outWidth
	m.output.Height = outHeight
}

// refreshOutput re-renders the selected entry into the viewport.
func (m *Model) refreshOutput() {
	if m.selected == nil {
		m.output.SetContent(helpStyle.Render("select a command"))
		return
	}
	entry := m.entry()
	m.output.SetContent(RenderArtifacts(entry.Artifacts()))
	if m.selected.Display.AutoScroll && entry.Running() {
		m.output.GotoBottom()
	}
}

// RenderArtifacts flattens an entry's artifacts to viewport text.
func RenderArtifacts(arts []any) string {
	parts := make([]string, 0, len(arts))
	for _, a := range arts {
		switch v := a.(type) {
		case *widgetchan.Node:
			parts = append(parts, v.View())
		case *view.TextBlock:
			parts = append(parts, v.String())
		case view.TextChunk:
			parts = append(parts, string(v))
		case string:
			parts = append(parts, v)
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, "\n")
}

func (m Model) View() string {
	if !m.ready {
		return "loading"
	}

	right := m.rightPanel()
	var body string
	if m.selected != nil && m.selected.Display.Modal {
		// Modal commands take over the screen; the list comes back on esc.
		body = lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center,
			panelStyle.Render(right))
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.commands.View(), panelStyle.Render(right))
	}

	footer := helpStyle.Render("enter select · r run · c clear · tab form · q quit")
	if m.status != "" {
		footer = statusStyle.Render(m.status) + "  " + footer
	}
	return body + "\n" + footer
}

func (m Model) rightPanel() string {
	if m.confirm != nil {
		return titleStyle.Render(m.confirm.text) + "\n\n" + helpStyle.Render("y confirm · n cancel")
	}
	if m.selected == nil {
		return helpStyle.Render("select a command")
	}

	var sb strings.Builder
	if m.selected.Display.ShowHeader {
		sb.WriteString(titleStyle.Render(m.selected.Name))
		if m.selected.Help != "" {
			sb.WriteString("  " + helpStyle.Render(m.selected.Help))
		}
		sb.WriteByte('\n')
	}

	for i, f := range m.fields {
		marker := "  "
		if m.focus == focusForm && i == m.fieldIdx {
			marker = "> "
		}
		sb.WriteString(marker + labelStyle.Render(f.param.Name+": ") + f.input.View() + "\n")
	}

	runLabel := m.selected.Display.ButtonLabel
	if runLabel == "" {
		runLabel = "run"
	}
	if m.entry().Running() {
		sb.WriteString(helpStyle.Render("[" + runLabel + "… ]\n"))
	} else {
		sb.WriteString(labelStyle.Render("[" + runLabel + "]\n"))
	}

	sb.WriteString(m.output.View())
	return sb.String()
}
