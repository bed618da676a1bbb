package tracker

import (
	"github.com/ganot/taskboard/internal/domain/project"
	"github.com/ganot/taskboard/internal/domain/task"
	"github.com/ganot/taskboard/internal/syncview"
)

// ProjectSchema renders projects as selectable, editable rows.
var ProjectSchema = syncview.Schema[project.Project]{
	Collection: project.Collection,
	Decode:     project.FromDocument,
	ID:         func(p project.Project) string { return p.ID },
	Label:      func(p project.Project) string { return p.Name },
	Actions:    []syncview.Action{syncview.ActionSelect, syncview.ActionUpdate, syncview.ActionDelete},
	Required:   []string{project.FieldName},
	EditForm: func(p project.Project) syncview.EditRequest {
		return syncview.EditRequest{
			Title: "Rename project",
			Fields: []syncview.EditField{
				{Name: project.FieldName, Label: "Project name", Value: p.Name, Required: true},
			},
		}
	},
}

// TaskSchema renders tasks as "name [status]" rows.
var TaskSchema = syncview.Schema[task.Task]{
	Collection: task.Collection,
	Decode:     task.FromDocument,
	ID:         func(t task.Task) string { return t.ID },
	Label:      task.Task.Label,
	Actions:    []syncview.Action{syncview.ActionUpdate, syncview.ActionDelete},
	Required:   []string{task.FieldName},
	EditForm: func(t task.Task) syncview.EditRequest {
		return syncview.EditRequest{
			Title: "Edit task",
			Fields: []syncview.EditField{
				{Name: task.FieldName, Label: "Task name", Value: t.Name, Required: true},
				{Name: task.FieldStatus, Label: "Status", Value: string(t.Status), Options: task.StatusNames()},
			},
		}
	},
	Normalize: func(field, value string) (string, error) {
		if field != task.FieldStatus {
			return value, nil
		}
		st, err := task.ParseStatus(value)
		return string(st), err
	},
}
