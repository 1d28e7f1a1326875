// Package tui is the terminal shell. Its bubbletea Update loop is the UI
// goroutine that owns every view model.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dp-desktop/client/internal/logging"
	"github.com/dp-desktop/client/internal/nav"
	"github.com/dp-desktop/client/internal/session"
	"github.com/dp-desktop/client/internal/viewmodel"
)

var logger = logging.For("tui")

// maxListed bounds the result rows shown for the active view.
const maxListed = 8

// snapshotter is implemented by every view model.
type snapshotter interface {
	Snapshot() (status string, busy bool)
}

// Model is the root bubbletea model.
type Model struct {
	app  *session.App
	ctrl *nav.Controller
	ui   *Dispatcher

	input   textinput.Model
	spinner spinner.Model
	width   int

	notice    string
	noticeErr bool
	quitting  bool
}

// NewModel creates the shell over a session and its navigation controller.
// ui must be the dispatcher the session posts to.
func NewModel(app *session.App, ctrl *nav.Controller, ui *Dispatcher) Model {
	input := textinput.New()
	input.Placeholder = "type a command, or help"
	input.Prompt = "> "
	input.CharLimit = 512
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = statusStyle

	return Model{
		app:     app,
		ctrl:    ctrl,
		ui:      ui,
		input:   input,
		spinner: spin,
	}
}

// Init starts the cursor, the spinner and the dispatcher wait.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.ui.Wait())
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case wakeMsg:
		m.ui.RunPending()
		return m, m.ui.Wait()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			m.cycle(1)
			return m, nil
		case "shift+tab":
			m.cycle(-1)
			return m, nil
		case "enter":
			line := m.input.Value()
			m.input.Reset()
			if m.exec(line) {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) cycle(step int) {
	current := m.ctrl.Current.Get()
	n := len(viewmodel.ViewNames)
	for i, name := range viewmodel.ViewNames {
		if name == current {
			m.switchTo(viewmodel.ViewNames[(i+step+n)%n])
			return
		}
	}
}

func (m *Model) switchTo(name viewmodel.ViewName) {
	if err := m.ctrl.SwitchTo(name); err != nil {
		m.fail(err)
	}
}

func (m *Model) info(format string, args ...any) {
	m.notice = fmt.Sprintf(format, args...)
	m.noticeErr = false
}

func (m *Model) fail(err error) {
	logger.Debugf("[Shell] %v", err)
	m.notice = err.Error()
	m.noticeErr = true
}

// View renders the tabs, the active view and the command line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Data Platform Desktop"))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	panel := panelStyle
	if m.width > 4 {
		panel = panel.Width(m.width - 4)
	}
	b.WriteString(panel.Render(m.renderView()))
	b.WriteString("\n")

	if m.notice != "" {
		style := helpStyle
		if m.noticeErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab/shift+tab switch view • enter run command • ctrl+c quit"))
	return b.String()
}

func (m Model) renderTabs() string {
	current := m.ctrl.Current.Get()
	tabs := make([]string, len(viewmodel.ViewNames))
	for i, name := range viewmodel.ViewNames {
		if name == current {
			tabs[i] = activeTabStyle.Render(string(name))
		} else {
			tabs[i] = tabStyle.Render(string(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderView() string {
	name := m.ctrl.Current.Get()
	vm, err := m.ctrl.View(name)
	if err != nil {
		return errorStyle.Render(err.Error())
	}

	var lines []string
	if s, ok := vm.(snapshotter); ok {
		status, busy := s.Snapshot()
		line := statusStyle.Render(status)
		if busy {
			line = m.spinner.View() + " " + line
		}
		lines = append(lines, line)
	}
	lines = append(lines, describe(vm, m.app)...)
	return strings.Join(lines, "\n")
}

// describe renders the state of a view model below its status line.
func describe(vm any, app *session.App) []string {
	var out []string
	switch v := vm.(type) {
	case *viewmodel.Home:
		out = append(out, v.Hints.Get())
		if d := v.Details.Get(); d != "" {
			out = append(out, d)
		}
		if app != nil {
			out = append(out, "PVs: "+orNone(strings.Join(app.PvNames(), ", ")))
		}

	case *viewmodel.PvExplore:
		for i, r := range v.Results.Items() {
			if i == maxListed {
				out = append(out, fmt.Sprintf("… %d more", v.Results.Len()-maxListed))
				break
			}
			out = append(out, fmt.Sprintf("%s  %s  %s  %s", r.Info.PvName, r.Info.DataType, r.SamplePeriod, r.Provider))
		}

	case *viewmodel.ProviderExplore:
		for _, r := range first(v.Results.Items()) {
			out = append(out, fmt.Sprintf("%s  %s  %s", r.Provider.Name, r.Provider.ID, r.LastIngestion))
		}

	case *viewmodel.DatasetExplore:
		for _, r := range first(v.Results.Items()) {
			out = append(out, fmt.Sprintf("%s  %s  %s", r.DataSet.ID, r.DataSet.Name, r.Blocks))
		}

	case *viewmodel.AnnotationExplore:
		out = append(out, v.ResultCountMessage.Get())
		for _, r := range first(v.Results.Items()) {
			out = append(out, fmt.Sprintf("%s  %s  %s", r.Annotation.ID, r.Annotation.Name, r.DataSets))
		}

	case *viewmodel.DataExplore:
		if app != nil {
			out = append(out, "PVs: "+orNone(strings.Join(app.PvNames(), ", ")))
		}
		out = append(out, fmt.Sprintf("Window: %s -> %s",
			v.BeginTime.Get().Format("2006-01-02 15:04:05"), v.EndTime.Get().Format("2006-01-02 15:04:05")))
		if f := v.Result.Get(); f != nil {
			out = append(out, fmt.Sprintf("%d row(s): %s", len(f.Timestamps), strings.Join(f.ColumnNames(), ", ")))
		}

	case *viewmodel.DataEventExplore:
		for _, sub := range v.Subscriptions.Items() {
			marker := " "
			if v.Selected.Get() == sub {
				marker = "*"
			}
			out = append(out, fmt.Sprintf("%s %s [%s]", marker, sub.Descriptor.DisplayString(), sub.State.Get()))
		}
		for _, r := range first(v.Events.Items()) {
			out = append(out, fmt.Sprintf("  %s  %s", r.EventTime, r.Value))
		}

	case *viewmodel.DataGeneration:
		out = append(out, "Provider: "+orNone(v.Provider.Name.Get()))
		for _, d := range v.PvDetails.Items() {
			out = append(out, fmt.Sprintf("%s  %s  every %dms", d.Name, d.DataType, d.SamplePeriodMs))
		}

	case *viewmodel.DataImport:
		out = append(out, "Provider: "+orNone(v.Provider.Name.Get()))
		out = append(out, v.FrameSummaries()...)
	}
	return out
}

func first[T any](items []T) []T {
	if len(items) > maxListed {
		return items[:maxListed]
	}
	return items
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
