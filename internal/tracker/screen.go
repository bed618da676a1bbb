package tracker

import "github.com/ganot/taskboard/internal/syncview"

// Input names a text field of the screen.
type Input int

const (
	InputLoginEmail Input = iota
	InputLoginPassword
	InputRegisterEmail
	InputRegisterPassword
	InputProject
	InputTask
)

// Screen describes what to draw. Exactly one of Auth and Projects is set;
// Tasks is set only while signed in with a project selected.
type Screen struct {
	User     string
	Auth     *AuthPanel
	Projects *ProjectsPanel
	Tasks    *TasksPanel
}

// AuthPanel holds the login and register inputs.
type AuthPanel struct {
	LoginEmail       string
	LoginPassword    string
	RegisterEmail    string
	RegisterPassword string
}

// ProjectsPanel lists the user's projects.
type ProjectsPanel struct {
	Input    string
	List     syncview.View
	Selected string
}

// TasksPanel lists the tasks of the selected project.
type TasksPanel struct {
	ProjectID string
	Header    string
	Input     string
	List      syncview.View
}
