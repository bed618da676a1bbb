package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/domain/activity"
	"github.com/ganot/taskboard/internal/domain/project"
	"github.com/ganot/taskboard/internal/domain/task"
	"github.com/ganot/taskboard/internal/domain/workspace"
)

// WorkspaceService defines document operations needed by MCP.
type WorkspaceService interface {
	Create(ctx context.Context, userID, collection string, fields docstore.Fields) (*docstore.Document, error)
	Update(ctx context.Context, userID, collection, id string, fields docstore.Fields) (*docstore.Document, error)
	Delete(ctx context.Context, userID, collection, id string) error
	List(ctx context.Context, userID string, q docstore.Query) ([]docstore.Document, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, userID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Handler dispatches MCP tool calls.
type Handler struct {
	workspace WorkspaceService
	activity  ActivityService
}

// NewHandler creates a new MCP handler.
func NewHandler(ws WorkspaceService, activitySvc ActivityService) *Handler {
	return &Handler{
		workspace: ws,
		activity:  activitySvc,
	}
}

// Handle dispatches a tool call to domain services on behalf of userID.
func (h *Handler) Handle(ctx context.Context, userID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "list_projects":
		docs, err := h.workspace.List(ctx, userID, project.OwnedBy(userID))
		if err != nil {
			return nil, err
		}
		projects := make([]project.Project, 0, len(docs))
		for _, doc := range docs {
			projects = append(projects, project.FromDocument(doc))
		}
		return ProjectListResponse{Projects: projects}, nil

	case "create_project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		doc, err := h.workspace.Create(ctx, userID, project.Collection, project.NewFields(req.Name, userID))
		if err != nil {
			return nil, err
		}
		return project.FromDocument(*doc), nil

	case "rename_project":
		var req RenameProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		doc, err := h.workspace.Update(ctx, userID, project.Collection, req.ID, docstore.Fields{project.FieldName: req.Name})
		if err != nil {
			return nil, err
		}
		return project.FromDocument(*doc), nil

	case "delete_project":
		var req DeleteParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.workspace.Delete(ctx, userID, project.Collection, req.ID); err != nil {
			return nil, err
		}
		return DeleteResponse{Deleted: req.ID}, nil

	case "list_tasks":
		var req ListTasksParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		docs, err := h.workspace.List(ctx, userID, task.InProject(req.ProjectID))
		if err != nil {
			return nil, err
		}
		tasks := make([]task.Task, 0, len(docs))
		for _, doc := range docs {
			tasks = append(tasks, task.FromDocument(doc))
		}
		return TaskListResponse{ProjectID: req.ProjectID, Tasks: tasks}, nil

	case "create_task":
		var req CreateTaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		fields := task.NewFields(req.Name, req.ProjectID)
		if req.Status != "" {
			status, err := task.ParseStatus(req.Status)
			if err != nil {
				return nil, err
			}
			fields[task.FieldStatus] = string(status)
		}
		doc, err := h.workspace.Create(ctx, userID, task.Collection, fields)
		if err != nil {
			return nil, err
		}
		return task.FromDocument(*doc), nil

	case "update_task":
		var req UpdateTaskParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		fields := docstore.Fields{}
		if req.Name != nil {
			fields[task.FieldName] = *req.Name
		}
		if req.Status != nil {
			status, err := task.ParseStatus(*req.Status)
			if err != nil {
				return nil, err
			}
			fields[task.FieldStatus] = string(status)
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: name or status is required", workspace.ErrInvalidFields)
		}
		doc, err := h.workspace.Update(ctx, userID, task.Collection, req.ID, fields)
		if err != nil {
			return nil, err
		}
		return task.FromDocument(*doc), nil

	case "delete_task":
		var req DeleteParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.workspace.Delete(ctx, userID, task.Collection, req.ID); err != nil {
			return nil, err
		}
		return DeleteResponse{Deleted: req.ID}, nil

	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		entries, err := h.activity.GetRecentActivity(ctx, userID, activity.ListActivityOptions{
			ProjectID:    req.ProjectID,
			ActivityType: req.Type,
			Limit:        req.Limit,
			Offset:       req.Offset,
		})
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []activity.ActivityEntry{}
		}
		return ActivityResponse{Activity: entries}, nil

	default:
		return nil, fmt.Errorf("unknown tool %q", method)
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
