package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ganot/taskboard/internal/app"
	"github.com/ganot/taskboard/internal/backend"
	"github.com/ganot/taskboard/internal/config"
	"github.com/ganot/taskboard/internal/syncview"
	"github.com/ganot/taskboard/internal/tracker"
)

func newModel(t *testing.T) (Model, *tracker.Tracker) {
	t.Helper()
	a, err := app.Open(":memory:", config.AuthConfig{BcryptCost: bcrypt.MinCost}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	b := backend.NewLocal(a.Accounts, a.Workspace, nil, nil)
	tr := tracker.New(context.Background(), b, nil)
	t.Cleanup(tr.Close)
	return NewModel(context.Background(), tr), tr
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

// runGesture executes a gesture command and feeds its result back.
func runGesture(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	done, ok := cmd().(gestureDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	next, _ := m.Update(done)
	return next.(Model)
}

func refresh(m Model) Model {
	next, _ := m.Update(changedMsg{})
	return next.(Model)
}

func TestModel_RegisterAndAddProject(t *testing.T) {
	m, tr := newModel(t)
	require.Contains(t, m.View(), "Log in")
	require.Contains(t, m.View(), "Register")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusRegisterEmail, m.focus)

	m = typeText(t, m, "ada@example.com")
	require.Equal(t, "ada@example.com", tr.Input(tracker.InputRegisterEmail))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "secret1")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runGesture(t, m, cmd)
	require.NotNil(t, tr.Session())

	m = refresh(m)
	require.Equal(t, focusProjectInput, m.focus)
	require.Contains(t, m.View(), "ada@example.com")
	require.Empty(t, m.inputs[tracker.InputRegisterPassword].Value())

	m = typeText(t, m, "Launch")
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runGesture(t, m, cmd)

	require.Eventually(t, func() bool {
		return len(tr.Projects().Items()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	m = refresh(m)
	require.Contains(t, m.View(), "Launch")
	require.Empty(t, m.inputs[tracker.InputProject].Value())
}

func TestModel_FailedGestureShowsStatus(t *testing.T) {
	m, _ := newModel(t)

	m = typeText(t, m, "nobody@example.com")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(Model)
	require.Contains(t, m.View(), "log in failed")
}

func TestFormEditor_SubmitAndCancel(t *testing.T) {
	m, _ := newModel(t)
	req := syncview.EditRequest{
		Title: "Edit task",
		Fields: []syncview.EditField{
			{Name: "name", Label: "Task name", Value: "Write", Required: true},
			{Name: "status", Label: "Status", Value: "To Do", Options: []string{"To Do", "Completed"}},
		},
	}

	type result struct {
		values map[string]string
		err    error
	}
	editor := m.editor
	edit := func() chan result {
		out := make(chan result, 1)
		go func() {
			values, err := editor.Edit(context.Background(), req)
			out <- result{values, err}
		}()
		return out
	}

	// Submitting returns the bound values.
	pending := edit()
	msg := m.editor.waitForPrompt()()
	next, _ := m.Update(msg)
	m = next.(Model)
	require.NotNil(t, m.form)
	require.Contains(t, m.View(), "Task name")

	*m.form.values["name"] = "Rewrite"
	m.form.finish(false)
	m.form = nil
	got := <-pending
	require.NoError(t, got.err)
	require.Equal(t, map[string]string{"name": "Rewrite", "status": "To Do"}, got.values)

	// Escape dismisses the form.
	pending = edit()
	next, _ = m.Update(m.editor.waitForPrompt()())
	m = next.(Model)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Nil(t, m.form)
	got = <-pending
	require.ErrorIs(t, got.err, syncview.ErrCancelled)
}

func TestFormEditor_ContextCancelled(t *testing.T) {
	e := newFormEditor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Edit(ctx, syncview.EditRequest{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestFormEditor_QueuedEditsOpenInTurn(t *testing.T) {
	m, _ := newModel(t)
	req := syncview.EditRequest{
		Title:  "Edit project",
		Fields: []syncview.EditField{{Name: "name", Label: "Project name", Value: "Alpha", Required: true}},
	}

	editor := m.editor
	errs := make(chan error, 2)
	for range 2 {
		go func() {
			_, err := editor.Edit(context.Background(), req)
			errs <- err
		}()
	}

	next, _ := m.Update(m.editor.waitForPrompt()())
	m = next.(Model)
	require.NotNil(t, m.form)

	// Closing the first form hands over to the queued one.
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Nil(t, m.form)
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	m = next.(Model)
	require.NotNil(t, m.form)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Nil(t, m.form)

	for range 2 {
		select {
		case err := <-errs:
			require.ErrorIs(t, err, syncview.ErrCancelled)
		case <-time.After(2 * time.Second):
			t.Fatal("edit never answered")
		}
	}
}
