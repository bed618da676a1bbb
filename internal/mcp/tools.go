package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/taskboard/internal/domain/task"
)

// ToolDefinition describes one MCP tool.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Projects
		{
			Name:        "list_projects",
			Description: "List the current user's projects, newest first",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "create_project",
			Description: "Create a new project owned by the current user",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"description": "Project display name",
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "rename_project",
			Description: "Rename a project",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Project ID",
					},
					"name": map[string]any{
						"type":        "string",
						"description": "New project name",
					},
				},
				"required": []string{"id", "name"},
			},
		},
		{
			Name:        "delete_project",
			Description: "Delete a project. Its tasks are kept",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Project ID",
					},
				},
				"required": []string{"id"},
			},
		},

		// Tasks
		{
			Name:        "list_tasks",
			Description: "List the tasks of a project, newest first",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"project_id": map[string]any{
						"type":        "string",
						"description": "Project ID",
					},
				},
				"required": []string{"project_id"},
			},
		},
		{
			Name:        "create_task",
			Description: "Create a task in a project",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"project_id": map[string]any{
						"type":        "string",
						"description": "Project ID",
					},
					"name": map[string]any{
						"type":        "string",
						"description": "Task name",
					},
					"status": map[string]any{
						"type":        "string",
						"description": "Initial status (defaults to To Do)",
						"enum":        task.StatusNames(),
					},
				},
				"required": []string{"project_id", "name"},
			},
		},
		{
			Name:        "update_task",
			Description: "Rename a task or change its status",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Task ID",
					},
					"name": map[string]any{
						"type":        "string",
						"description": "New task name",
					},
					"status": map[string]any{
						"type":        "string",
						"description": "New status",
						"enum":        task.StatusNames(),
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "delete_task",
			Description: "Delete a task",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Task ID",
					},
				},
				"required": []string{"id"},
			},
		},

		// History
		{
			Name:        "get_recent_activity",
			Description: "Get recent changes made by the current user, optionally for one project",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"project_id": map[string]any{
						"type":        "string",
						"description": "Project ID to filter by",
					},
					"type": map[string]any{
						"type":        "string",
						"description": "Activity type to filter by",
						"enum":        []string{"document_created", "document_updated", "document_deleted"},
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of activity entries",
					},
					"offset": map[string]any{
						"type":        "integer",
						"description": "Offset for pagination",
					},
				},
			},
		},
	}
}

// registerTools adds every catalog tool to server, dispatching to handler.
func registerTools(server *sdkmcp.Server, handler *Handler, logger *slog.Logger) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := handler.Handle(ctx, getUserID(ctx), name, args)
			if err != nil {
				apiErr := MapError(err)
				logger.Debug("tool call failed", "tool", name, "code", apiErr.Code, "error", err)
				return errorResult(apiErr), nil
			}
			return jsonResult(result)
		})
	}
}

func jsonResult(v any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

func errorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	data, err := json.Marshal(apiErr)
	if err != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
