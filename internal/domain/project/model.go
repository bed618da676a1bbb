package project

import (
	"time"

	"github.com/ganot/taskboard/internal/docstore"
)

// Collection is the document collection holding projects.
const Collection = "projects"

// Field names of a project document.
const (
	FieldName  = "name"
	FieldOwner = "owner"
)

// Project is a named container of tasks owned by one user
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// FromDocument decodes a project document.
func FromDocument(doc docstore.Document) Project {
	return Project{
		ID:        doc.ID,
		Name:      doc.Fields.String(FieldName),
		Owner:     doc.Fields.String(FieldOwner),
		CreatedAt: doc.CreatedAt,
	}
}

// NewFields returns the fields of a new project.
func NewFields(name, owner string) docstore.Fields {
	return docstore.Fields{FieldName: name, FieldOwner: owner}
}

// OwnedBy returns the live query for a user's projects, newest first.
func OwnedBy(userID string) docstore.Query {
	return docstore.Query{
		Collection: Collection,
		Where:      []docstore.Condition{docstore.Where(FieldOwner, userID)},
		OrderBy:    docstore.NewestFirst(),
	}
}
