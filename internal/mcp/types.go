package mcp

import (
	"github.com/ganot/taskboard/internal/domain/activity"
	"github.com/ganot/taskboard/internal/domain/project"
	"github.com/ganot/taskboard/internal/domain/task"
)

type CreateProjectParams struct {
	Name string `json:"name"`
}

type RenameProjectParams struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DeleteParams struct {
	ID string `json:"id"`
}

type ListTasksParams struct {
	ProjectID string `json:"project_id"`
}

type CreateTaskParams struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Status    string `json:"status,omitempty"`
}

type UpdateTaskParams struct {
	ID     string  `json:"id"`
	Name   *string `json:"name,omitempty"`
	Status *string `json:"status,omitempty"`
}

type GetRecentActivityParams struct {
	ProjectID string                 `json:"project_id,omitempty"`
	Limit     int                    `json:"limit,omitempty"`
	Offset    int                    `json:"offset,omitempty"`
	Type      *activity.ActivityType `json:"type,omitempty"`
}

type ProjectListResponse struct {
	Projects []project.Project `json:"projects"`
}

type TaskListResponse struct {
	ProjectID string      `json:"project_id"`
	Tasks     []task.Task `json:"tasks"`
}

type DeleteResponse struct {
	Deleted string `json:"deleted"`
}

type ActivityResponse struct {
	Activity []activity.ActivityEntry `json:"activity"`
}
