// Package tui is the terminal front end of the tracker.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ganot/taskboard/internal/syncview"
	"github.com/ganot/taskboard/internal/tracker"
)

// focus is the field or list receiving keys.
type focus int

const (
	focusLoginEmail focus = iota
	focusLoginPassword
	focusRegisterEmail
	focusRegisterPassword
	focusProjectInput
	focusProjectList
	focusTaskInput
	focusTaskList
)

var focusInputs = map[focus]tracker.Input{
	focusLoginEmail:       tracker.InputLoginEmail,
	focusLoginPassword:    tracker.InputLoginPassword,
	focusRegisterEmail:    tracker.InputRegisterEmail,
	focusRegisterPassword: tracker.InputRegisterPassword,
	focusProjectInput:     tracker.InputProject,
	focusTaskInput:        tracker.InputTask,
}

// Messages
type changedMsg struct{}

type gestureDoneMsg struct {
	action string
	err    error
}

// Model is the root Bubble Tea model
type Model struct {
	tracker *tracker.Tracker
	ctx     context.Context
	keys    KeyMap
	help    help.Model
	editor  *formEditor

	focus  focus
	inputs map[tracker.Input]textinput.Model

	projectCursor int
	taskCursor    int

	form   *editForm
	status string
}

// NewModel creates the root model over tr. Gestures run with ctx.
func NewModel(ctx context.Context, tr *tracker.Tracker) Model {
	inputs := map[tracker.Input]textinput.Model{
		tracker.InputLoginEmail:       newInput("Email", false),
		tracker.InputLoginPassword:    newInput("Password", true),
		tracker.InputRegisterEmail:    newInput("Email", false),
		tracker.InputRegisterPassword: newInput("Password", true),
		tracker.InputProject:          newInput("New project name", false),
		tracker.InputTask:             newInput("New task name", false),
	}

	m := Model{
		tracker: tr,
		ctx:     ctx,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		editor:  newFormEditor(),
		inputs:  inputs,
	}
	m.focus = m.foci()[0]
	m.focusInput()
	return m
}

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "❯ "
	ti.PromptStyle = InputPromptStyle
	ti.CharLimit = 200
	ti.Width = 32
	if secret {
		ti.EchoMode = textinput.EchoPassword
	}
	return ti
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.waitForChange(),
		m.editor.waitForPrompt(),
	)
}

// waitForChange turns the next tracker change signal into a changedMsg.
func (m Model) waitForChange() tea.Cmd {
	changes := m.tracker.Changes()
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-changes:
			return changedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case changedMsg:
		m.syncInputs()
		m.clampCursors()
		if !m.hasFocus(m.focus) {
			m.focus = m.foci()[0]
			m.focusInput()
		}
		return m, m.waitForChange()

	case editPromptMsg:
		// The next prompt is awaited only once this form closes, so queued
		// edits open one after another.
		m.form = newEditForm(msg.prompt)
		return m, m.form.form.Init()

	case gestureDoneMsg:
		m.status = ""
		if msg.err != nil && !errors.Is(msg.err, syncview.ErrCancelled) {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		}
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m.updateInput(msg)
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Escape) {
		return m, m.closeForm(true)
	}

	f, cmd := m.form.form.Update(msg)
	if f, ok := f.(*huh.Form); ok {
		m.form.form = f
	}
	switch m.form.form.State {
	case huh.StateCompleted:
		cmd = tea.Batch(cmd, m.closeForm(false))
	case huh.StateAborted:
		cmd = tea.Batch(cmd, m.closeForm(true))
	}
	return m, cmd
}

// closeForm answers the open form's gesture and starts waiting for the next
// edit request.
func (m *Model) closeForm(cancelled bool) tea.Cmd {
	m.form.finish(cancelled)
	m.form = nil
	return m.editor.waitForPrompt()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextPane):
		m.cycleFocus(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevPane):
		m.cycleFocus(-1)
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		if m.tracker.Session() == nil {
			return m, nil
		}
		return m, m.gesture("log out", m.tracker.SignOut)
	}

	if _, ok := focusInputs[m.focus]; ok {
		if key.Matches(msg, m.keys.Submit) {
			return m, m.submitInput()
		}
		return m.updateInput(msg)
	}
	cmd := m.listKey(msg)
	return m, cmd
}

// updateInput feeds msg to the focused text input and mirrors its value into
// the tracker.
func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	in, ok := focusInputs[m.focus]
	if !ok {
		return m, nil
	}
	ti, cmd := m.inputs[in].Update(msg)
	m.inputs[in] = ti
	if ti.Value() != m.tracker.Input(in) {
		m.tracker.SetInput(in, ti.Value())
	}
	return m, cmd
}

func (m Model) submitInput() tea.Cmd {
	tr := m.tracker
	switch m.focus {
	case focusLoginEmail, focusLoginPassword:
		return m.gesture("log in", tr.SignIn)
	case focusRegisterEmail, focusRegisterPassword:
		return m.gesture("register", tr.Register)
	case focusProjectInput:
		return m.gesture("add project", tr.AddProject)
	case focusTaskInput:
		return m.gesture("add task", tr.AddTask)
	}
	return nil
}

func (m *Model) listKey(msg tea.KeyMsg) tea.Cmd {
	screen := m.tracker.Screen()
	tr := m.tracker

	var (
		view   syncview.View
		cursor *int
	)
	switch {
	case m.focus == focusProjectList && screen.Projects != nil:
		view, cursor = screen.Projects.List, &m.projectCursor
	case m.focus == focusTaskList && screen.Tasks != nil:
		view, cursor = screen.Tasks.List, &m.taskCursor
	default:
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if *cursor > 0 {
			*cursor--
		}
		return nil
	case key.Matches(msg, m.keys.Down):
		if *cursor < view.Len()-1 {
			*cursor++
		}
		return nil
	}

	if *cursor >= view.Len() {
		return nil
	}
	id := view.Rows[*cursor].ID
	editor := m.editor

	switch {
	case key.Matches(msg, m.keys.Submit) && m.focus == focusProjectList:
		return m.gesture("select project", func(ctx context.Context) error {
			return tr.SelectProject(ctx, id)
		})
	case key.Matches(msg, m.keys.Edit) && m.focus == focusProjectList:
		return m.gesture("edit project", func(ctx context.Context) error {
			return tr.UpdateProject(ctx, id, editor)
		})
	case key.Matches(msg, m.keys.Edit):
		return m.gesture("edit task", func(ctx context.Context) error {
			return tr.UpdateTask(ctx, id, editor)
		})
	case key.Matches(msg, m.keys.Delete) && m.focus == focusProjectList:
		return m.gesture("delete project", func(ctx context.Context) error {
			return tr.DeleteProject(ctx, id)
		})
	case key.Matches(msg, m.keys.Delete):
		return m.gesture("delete task", func(ctx context.Context) error {
			return tr.DeleteTask(ctx, id)
		})
	}
	return nil
}

// gesture runs fn off the update loop. Updates wait on the edit form, so
// they must never run inline.
func (m Model) gesture(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return gestureDoneMsg{action: action, err: fn(ctx)}
	}
}

// foci lists the focus stops of the current screen in tab order.
func (m Model) foci() []focus {
	screen := m.tracker.Screen()
	if screen.Auth != nil {
		return []focus{focusLoginEmail, focusLoginPassword, focusRegisterEmail, focusRegisterPassword}
	}
	out := []focus{focusProjectInput, focusProjectList}
	if screen.Tasks != nil {
		out = append(out, focusTaskInput, focusTaskList)
	}
	return out
}

func (m Model) hasFocus(f focus) bool {
	for _, candidate := range m.foci() {
		if candidate == f {
			return true
		}
	}
	return false
}

func (m *Model) cycleFocus(step int) {
	stops := m.foci()
	idx := 0
	for i, f := range stops {
		if f == m.focus {
			idx = i
			break
		}
	}
	idx = (idx + step + len(stops)) % len(stops)
	m.focus = stops[idx]
	m.focusInput()
}

// focusInput gives the cursor to the focused text input, if any.
func (m *Model) focusInput() {
	target, hasInput := focusInputs[m.focus]
	for in, ti := range m.inputs {
		if hasInput && in == target {
			ti.Focus()
		} else {
			ti.Blur()
		}
		m.inputs[in] = ti
	}
}

// syncInputs picks up values the tracker changed, such as an input cleared
// after a successful create.
func (m *Model) syncInputs() {
	for in, ti := range m.inputs {
		if v := m.tracker.Input(in); v != ti.Value() {
			ti.SetValue(v)
			m.inputs[in] = ti
		}
	}
}

func (m *Model) clampCursors() {
	screen := m.tracker.Screen()
	m.projectCursor = clamp(m.projectCursor, screen.Projects != nil, func() int { return screen.Projects.List.Len() })
	m.taskCursor = clamp(m.taskCursor, screen.Tasks != nil, func() int { return screen.Tasks.List.Len() })
}

func clamp(cursor int, present bool, length func() int) int {
	if !present {
		return 0
	}
	n := length()
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// View renders the model
func (m Model) View() string {
	screen := m.tracker.Screen()

	var b strings.Builder
	b.WriteString(m.renderHeader(screen))
	b.WriteString("\n")

	switch {
	case m.form != nil:
		b.WriteString(FocusedPanelStyle.Render(m.form.form.View()))
	case screen.Auth != nil:
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderAuthPanel("Log in", focusLoginEmail, focusLoginPassword),
			m.renderAuthPanel("Register", focusRegisterEmail, focusRegisterPassword),
		))
	default:
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderProjects(screen.Projects),
			m.renderTasks(screen.Tasks),
		))
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(ErrorStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(HelpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return b.String()
}

func (m Model) renderHeader(screen tracker.Screen) string {
	header := HeaderStyle.Render("Taskboard")
	if screen.User != "" {
		header += "  " + UserStyle.Render(screen.User)
	}
	return header
}

func (m Model) panelStyle(foci ...focus) lipgloss.Style {
	for _, f := range foci {
		if f == m.focus {
			return FocusedPanelStyle
		}
	}
	return PanelStyle
}

func (m Model) renderAuthPanel(title string, email, password focus) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		PanelTitleStyle.Render(title),
		m.inputs[focusInputs[email]].View(),
		m.inputs[focusInputs[password]].View(),
	)
	return m.panelStyle(email, password).Render(body)
}

func (m Model) renderProjects(panel *tracker.ProjectsPanel) string {
	rows := renderRows(panel.List, m.projectCursor, m.focus == focusProjectList, panel.Selected, "No projects yet")
	body := lipgloss.JoinVertical(lipgloss.Left,
		PanelTitleStyle.Render("Projects"),
		m.inputs[tracker.InputProject].View(),
		rows,
	)
	return m.panelStyle(focusProjectInput, focusProjectList).Render(body)
}

func (m Model) renderTasks(panel *tracker.TasksPanel) string {
	if panel == nil {
		return PanelStyle.Render(EmptyStyle.Render("Select a project to see its tasks"))
	}
	rows := renderRows(panel.List, m.taskCursor, m.focus == focusTaskList, "", "No tasks yet")
	body := lipgloss.JoinVertical(lipgloss.Left,
		PanelTitleStyle.Render(panel.Header),
		m.inputs[tracker.InputTask].View(),
		rows,
	)
	return m.panelStyle(focusTaskInput, focusTaskList).Render(body)
}

func renderRows(view syncview.View, cursor int, focused bool, selected, empty string) string {
	if view.Len() == 0 {
		if !view.Live {
			return EmptyStyle.Render("Loading…")
		}
		return EmptyStyle.Render(empty)
	}

	lines := make([]string, 0, view.Len())
	for i, row := range view.Rows {
		marker := "  "
		style := RowStyle
		if row.ID == selected {
			style = SelectedRowStyle
		}
		if focused && i == cursor {
			marker = "› "
			style = CursorRowStyle
		}
		lines = append(lines, style.Render(marker+row.Label))
	}
	return strings.Join(lines, "\n")
}
