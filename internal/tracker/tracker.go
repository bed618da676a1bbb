// Package tracker is the application controller: it owns the session
// reference, the project selection, the text inputs and the two synced
// lists, and turns user gestures into list operations.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ganot/taskboard/internal/backend"
	"github.com/ganot/taskboard/internal/domain/account"
	"github.com/ganot/taskboard/internal/domain/project"
	"github.com/ganot/taskboard/internal/domain/task"
	"github.com/ganot/taskboard/internal/syncview"
)

// ErrNoSelection is returned by task gestures while no project is selected.
var ErrNoSelection = errors.New("no project selected")

// Selection is the active project.
type Selection struct {
	ProjectID string
	Name      string
}

// Tracker wires gestures to the backend and the list views.
//
// Locks: gestures hold gesture while they rebind lists, mu guards the
// fields below it. Neither is held while a list view calls back.
type Tracker struct {
	backend  backend.Backend
	logger   *slog.Logger
	ctx      context.Context
	projects *syncview.ListView[project.Project]
	tasks    *syncview.ListView[task.Task]
	changes  chan struct{}
	unwatch  func()

	gesture sync.Mutex

	mu        sync.Mutex
	session   *account.Session
	selection *Selection
	inputs    map[Input]string
}

// New creates a tracker bound to b. Subscriptions live until ctx is done
// or Close is called.
func New(ctx context.Context, b backend.Backend, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Tracker{
		backend:  b,
		logger:   logger,
		ctx:      ctx,
		projects: syncview.New(b, ProjectSchema, logger),
		tasks:    syncview.New(b, TaskSchema, logger),
		changes:  make(chan struct{}, 1),
		inputs:   make(map[Input]string),
	}
	t.projects.OnRender(func(syncview.View) { t.signal() })
	t.tasks.OnRender(func(syncview.View) { t.signal() })
	t.unwatch = b.OnSessionChange(t.onSession)
	return t
}

// Changes receives a value whenever the screen may have changed. Signals
// coalesce; read Screen after each.
func (t *Tracker) Changes() <-chan struct{} {
	return t.changes
}

// Close stops observing the session and cancels both subscriptions.
func (t *Tracker) Close() {
	t.unwatch()
	t.tasks.Stop()
	t.projects.Stop()
}

// Session returns the current session, or nil when signed out.
func (t *Tracker) Session() *account.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Selection returns the selected project, if any.
func (t *Tracker) Selection() (Selection, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.selection == nil {
		return Selection{}, false
	}
	return *t.selection, true
}

// Projects exposes the projects list.
func (t *Tracker) Projects() *syncview.ListView[project.Project] { return t.projects }

// Tasks exposes the tasks list.
func (t *Tracker) Tasks() *syncview.ListView[task.Task] { return t.tasks }

// SetInput replaces the text of an input.
func (t *Tracker) SetInput(in Input, value string) {
	t.mu.Lock()
	t.inputs[in] = value
	t.mu.Unlock()
	t.signal()
}

// Input returns the text of an input.
func (t *Tracker) Input(in Input) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputs[in]
}

func (t *Tracker) clearInput(in Input) {
	t.SetInput(in, "")
}

// Register creates an account from the register inputs and signs in.
func (t *Tracker) Register(ctx context.Context) error {
	email, password := t.Input(InputRegisterEmail), t.Input(InputRegisterPassword)
	if _, err := t.backend.SignUp(ctx, email, password); err != nil {
		t.logger.Error("registration failed", "error", err)
		return err
	}
	t.clearInput(InputRegisterPassword)
	return nil
}

// SignIn signs in with the login inputs.
func (t *Tracker) SignIn(ctx context.Context) error {
	email, password := t.Input(InputLoginEmail), t.Input(InputLoginPassword)
	if _, err := t.backend.SignIn(ctx, email, password); err != nil {
		t.logger.Error("login failed", "error", err)
		return err
	}
	t.clearInput(InputLoginPassword)
	return nil
}

// SignOut ends the session. Both lists stop and the selection clears.
func (t *Tracker) SignOut(ctx context.Context) error {
	if err := t.backend.SignOut(ctx); err != nil {
		t.logger.Error("logout failed", "error", err)
		return err
	}
	return nil
}

// AddProject creates a project named by the project input.
func (t *Tracker) AddProject(ctx context.Context) error {
	sess := t.Session()
	if sess == nil {
		return backend.ErrNotSignedIn
	}
	fields := project.NewFields(t.Input(InputProject), sess.UserID)
	return ignoreBlank(t.projects.Create(ctx, fields, func() { t.clearInput(InputProject) }))
}

// SelectProject binds the tasks list to a listed project.
func (t *Tracker) SelectProject(ctx context.Context, id string) error {
	p, ok := t.projects.Item(id)
	if !ok {
		t.logger.Warn("select of unlisted project", "project_id", id)
		return syncview.ErrUnknownItem
	}

	t.gesture.Lock()
	defer t.gesture.Unlock()

	if t.Session() == nil {
		return backend.ErrNotSignedIn
	}
	// The task subscription outlives this gesture. A failed start has already
	// dropped the previous one, so nothing stays selected.
	err := t.tasks.Start(t.ctx, task.InProject(p.ID))
	t.mu.Lock()
	if err != nil {
		t.selection = nil
	} else {
		t.selection = &Selection{ProjectID: p.ID, Name: p.Name}
	}
	t.mu.Unlock()
	t.signal()
	return err
}

// UpdateProject edits a project through editor.
func (t *Tracker) UpdateProject(ctx context.Context, id string, editor syncview.Editor) error {
	return t.projects.Update(ctx, id, editor)
}

// DeleteProject removes a project. The tasks list stays bound even when the
// deleted project is the selected one.
func (t *Tracker) DeleteProject(ctx context.Context, id string) error {
	return t.projects.Delete(ctx, id)
}

// AddTask creates a task in the selected project named by the task input.
func (t *Tracker) AddTask(ctx context.Context) error {
	sel, ok := t.Selection()
	if !ok {
		return ErrNoSelection
	}
	fields := task.NewFields(t.Input(InputTask), sel.ProjectID)
	return ignoreBlank(t.tasks.Create(ctx, fields, func() { t.clearInput(InputTask) }))
}

// UpdateTask edits a task's name and status through editor.
func (t *Tracker) UpdateTask(ctx context.Context, id string, editor syncview.Editor) error {
	return t.tasks.Update(ctx, id, editor)
}

// DeleteTask removes a task.
func (t *Tracker) DeleteTask(ctx context.Context, id string) error {
	return t.tasks.Delete(ctx, id)
}

// Screen describes the current state to draw.
func (t *Tracker) Screen() Screen {
	t.mu.Lock()
	sess := t.session
	var sel *Selection
	if t.selection != nil {
		s := *t.selection
		sel = &s
	}
	inputs := make(map[Input]string, len(t.inputs))
	for k, v := range t.inputs {
		inputs[k] = v
	}
	t.mu.Unlock()

	if sess == nil {
		return Screen{Auth: &AuthPanel{
			LoginEmail:       inputs[InputLoginEmail],
			LoginPassword:    inputs[InputLoginPassword],
			RegisterEmail:    inputs[InputRegisterEmail],
			RegisterPassword: inputs[InputRegisterPassword],
		}}
	}

	screen := Screen{
		User: sess.Email,
		Projects: &ProjectsPanel{
			Input: inputs[InputProject],
			List:  t.projects.View(),
		},
	}
	if sel != nil {
		name := sel.Name
		if p, ok := t.projects.Item(sel.ProjectID); ok {
			name = p.Name
		}
		screen.Projects.Selected = sel.ProjectID
		screen.Tasks = &TasksPanel{
			ProjectID: sel.ProjectID,
			Header:    "Tasks for " + name,
			Input:     inputs[InputTask],
			List:      t.tasks.View(),
		}
	}
	return screen
}

func (t *Tracker) onSession(sess *account.Session) {
	t.gesture.Lock()
	defer t.gesture.Unlock()

	t.mu.Lock()
	prev := t.session
	t.session = sess
	sameUser := prev != nil && sess != nil && prev.UserID == sess.UserID
	if !sameUser {
		t.selection = nil
	}
	t.mu.Unlock()

	switch {
	case sess == nil:
		t.logger.Info("signed out")
		t.tasks.Stop()
		t.projects.Stop()
	case !sameUser:
		t.logger.Info("signed in", "user_id", sess.UserID)
		t.tasks.Stop()
		if err := t.projects.Start(t.ctx, project.OwnedBy(sess.UserID)); err != nil {
			t.logger.Error("failed to load projects", "error", err)
		}
	}
	t.signal()
}

func (t *Tracker) signal() {
	select {
	case t.changes <- struct{}{}:
	default:
	}
}

func ignoreBlank(err error) error {
	if errors.Is(err, syncview.ErrBlankField) {
		return nil
	}
	return err
}
