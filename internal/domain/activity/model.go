package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeDocumentCreated ActivityType = "document_created"
	TypeDocumentUpdated ActivityType = "document_updated"
	TypeDocumentDeleted ActivityType = "document_deleted"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	UserID       string       `json:"user_id"`
	ProjectID    string       `json:"project_id,omitempty"`
	Collection   string       `json:"collection"`
	DocumentID   string       `json:"document_id"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
