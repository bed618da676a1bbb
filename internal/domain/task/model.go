package task

import (
	"fmt"
	"time"

	"github.com/ganot/taskboard/internal/docstore"
)

// Collection is the document collection holding tasks.
const Collection = "tasks"

// Field names of a task document.
const (
	FieldName      = "name"
	FieldStatus    = "status"
	FieldProjectID = "projectId"
)

// Status is the progress state of a task
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusToDo, StatusInProgress, StatusCompleted}

// Task is a unit of work inside a project
type Task struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	ProjectID string    `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Label renders the task the way list rows show it.
func (t Task) Label() string {
	return fmt.Sprintf("%s [%s]", t.Name, t.Status)
}

// FromDocument decodes a task document.
func FromDocument(doc docstore.Document) Task {
	return Task{
		ID:        doc.ID,
		Name:      doc.Fields.String(FieldName),
		Status:    Status(doc.Fields.String(FieldStatus)),
		ProjectID: doc.Fields.String(FieldProjectID),
		CreatedAt: doc.CreatedAt,
	}
}

// NewFields returns the fields of a new task in the default status.
func NewFields(name, projectID string) docstore.Fields {
	return docstore.Fields{
		FieldName:      name,
		FieldStatus:    string(StatusToDo),
		FieldProjectID: projectID,
	}
}

// InProject returns the live query for a project's tasks, newest first.
func InProject(projectID string) docstore.Query {
	return docstore.Query{
		Collection: Collection,
		Where:      []docstore.Condition{docstore.Where(FieldProjectID, projectID)},
		OrderBy:    docstore.NewestFirst(),
	}
}
