package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/domain/activity"
	"github.com/ganot/taskboard/internal/domain/project"
	"github.com/ganot/taskboard/internal/domain/task"
)

// Service applies ownership rules and schemas to document reads and writes
// made on behalf of a signed-in user.
type Service struct {
	docs     Documents
	activity ActivityLogger
	logger   *slog.Logger
}

// NewService creates a new workspace service. activity may be nil.
func NewService(docs Documents, activity ActivityLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{docs: docs, activity: activity, logger: logger}
}

// Create stores a new project or task owned by userID.
func (s *Service) Create(ctx context.Context, userID, collection string, fields docstore.Fields) (*docstore.Document, error) {
	fields = fields.Clone()

	var projectID string
	switch collection {
	case project.Collection:
		owner, ok := fields[project.FieldOwner]
		if !ok {
			fields[project.FieldOwner] = userID
		} else if o, _ := owner.(string); o != userID {
			return nil, fmt.Errorf("%w: project owner must be the signed-in user", ErrPermissionDenied)
		}
	case task.Collection:
		if _, ok := fields[task.FieldStatus]; !ok {
			fields[task.FieldStatus] = string(task.StatusToDo)
		}
		pid, _ := fields[task.FieldProjectID].(string)
		if err := s.authorizeProject(ctx, userID, pid); err != nil {
			return nil, err
		}
		projectID = pid
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}

	if err := validateFields(collection, fields); err != nil {
		return nil, err
	}

	doc, err := s.docs.Create(ctx, collection, fields)
	if err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}
	if projectID == "" {
		projectID = doc.ID
	}

	s.record(ctx, userID, activity.TypeDocumentCreated, projectID, doc, fields)
	return doc, nil
}

// Get returns a document the user may read.
func (s *Service) Get(ctx context.Context, userID, collection, id string) (*docstore.Document, error) {
	doc, err := s.docs.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeDocument(ctx, userID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update merges fields into a document the user owns. owner and projectId
// cannot change.
func (s *Service) Update(ctx context.Context, userID, collection, id string, fields docstore.Fields) (*docstore.Document, error) {
	existing, err := s.docs.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	projectID, err := s.authorizeDocument(ctx, userID, existing)
	if err != nil {
		return nil, err
	}

	immutable := project.FieldOwner
	if collection == task.Collection {
		immutable = task.FieldProjectID
	}
	if v, ok := fields[immutable]; ok {
		if str, _ := v.(string); str != existing.Fields.String(immutable) {
			return nil, fmt.Errorf("%w: %s cannot change", ErrPermissionDenied, immutable)
		}
	}

	merged := existing.Fields.Clone()
	for k, v := range fields {
		merged[k] = v
	}
	if err := validateFields(collection, merged); err != nil {
		return nil, err
	}

	doc, err := s.docs.Update(ctx, collection, id, fields)
	if err != nil {
		return nil, fmt.Errorf("updating document: %w", err)
	}

	s.record(ctx, userID, activity.TypeDocumentUpdated, projectID, doc, fields)
	return doc, nil
}

// Delete removes a document the user owns. Deleting a project leaves its
// tasks in place.
func (s *Service) Delete(ctx context.Context, userID, collection, id string) error {
	existing, err := s.docs.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	projectID, err := s.authorizeDocument(ctx, userID, existing)
	if err != nil {
		return err
	}

	if err := s.docs.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	s.record(ctx, userID, activity.TypeDocumentDeleted, projectID, existing, nil)
	return nil
}

// List runs a query once, provided its filter limits it to the user's data.
func (s *Service) List(ctx context.Context, userID string, q docstore.Query) ([]docstore.Document, error) {
	if err := s.authorizeQuery(ctx, userID, q); err != nil {
		return nil, err
	}
	return s.docs.Run(ctx, q)
}

// Subscribe opens a live query, provided its filter limits it to the user's data.
func (s *Service) Subscribe(ctx context.Context, userID string, q docstore.Query, onSnapshot func(docstore.Snapshot), onError func(error)) (*docstore.Subscription, error) {
	if err := s.authorizeQuery(ctx, userID, q); err != nil {
		return nil, err
	}
	return s.docs.Subscribe(ctx, q, onSnapshot, onError)
}

// authorizeQuery requires the query to filter on the user's ownership:
// owner for projects, an owned projectId for tasks.
func (s *Service) authorizeQuery(ctx context.Context, userID string, q docstore.Query) error {
	if err := q.Validate(); err != nil {
		return err
	}

	switch q.Collection {
	case project.Collection:
		owner, _ := q.Equals(project.FieldOwner)
		if o, _ := owner.(string); o != userID || userID == "" {
			return fmt.Errorf("%w: project queries must filter on owner", ErrPermissionDenied)
		}
		return nil
	case task.Collection:
		pid, ok := q.Equals(task.FieldProjectID)
		if !ok {
			return fmt.Errorf("%w: task queries must filter on projectId", ErrPermissionDenied)
		}
		projectID, _ := pid.(string)
		return s.authorizeProject(ctx, userID, projectID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCollection, q.Collection)
	}
}

// authorizeDocument checks ownership of an existing document and returns the
// project it belongs to.
func (s *Service) authorizeDocument(ctx context.Context, userID string, doc *docstore.Document) (string, error) {
	switch doc.Collection {
	case project.Collection:
		if doc.Fields.String(project.FieldOwner) != userID {
			return "", ErrPermissionDenied
		}
		return doc.ID, nil
	case task.Collection:
		pid := doc.Fields.String(task.FieldProjectID)
		if err := s.authorizeProject(ctx, userID, pid); err != nil {
			return "", err
		}
		return pid, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, doc.Collection)
	}
}

func (s *Service) authorizeProject(ctx context.Context, userID, projectID string) error {
	if projectID == "" {
		return fmt.Errorf("%w: projectId is required", ErrPermissionDenied)
	}
	doc, err := s.docs.Get(ctx, project.Collection, projectID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, project.ErrProjectNotFound)
		}
		return fmt.Errorf("getting project: %w", err)
	}
	if doc.Fields.String(project.FieldOwner) != userID {
		return ErrPermissionDenied
	}
	return nil
}

func (s *Service) record(ctx context.Context, userID string, typ activity.ActivityType, projectID string, doc *docstore.Document, changed docstore.Fields) {
	if s.activity == nil {
		return
	}

	entry := &activity.ActivityEntry{
		ProjectID:    projectID,
		Collection:   doc.Collection,
		DocumentID:   doc.ID,
		ActivityType: typ,
		Summary:      summarize(typ, doc),
	}
	if len(changed) > 0 {
		if details, err := json.Marshal(changed); err == nil {
			entry.Details = string(details)
		}
	}

	if err := s.activity.LogActivity(ctx, userID, entry); err != nil {
		s.logger.Warn("failed to log activity", "document_id", doc.ID, "error", err)
	}
}

func summarize(typ activity.ActivityType, doc *docstore.Document) string {
	kind := "project"
	if doc.Collection == task.Collection {
		kind = "task"
	}
	verb := map[activity.ActivityType]string{
		activity.TypeDocumentCreated: "Created",
		activity.TypeDocumentUpdated: "Updated",
		activity.TypeDocumentDeleted: "Deleted",
	}[typ]
	return fmt.Sprintf("%s %s %q", verb, kind, doc.Fields.String("name"))
}
