package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `taskboard tracks Projects and the Tasks inside them.

- Project: a named list owned by one user. Only its owner can see or change it.
- Task: a named item in exactly one project, with a status of "To Do", "In Progress" or "Completed".

Typical workflow:
1) list_projects to orient; create_project if nothing fits.
2) list_tasks(project_id) to see a project's work.
3) create_task / update_task / delete_task to change it.
4) get_recent_activity to review what changed.

Changes made here appear immediately in every open taskboard client.

Docs:
- taskboard://docs/index
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "taskboard://docs/index",
		Name:        "docs_index",
		Title:       "taskboard docs index",
		Description: "Data model, tool list and error codes.",
		Content: `# taskboard: Agent Docs

## Data model

- **Project** ` + "`{id, name, owner, created_at}`" + `. Names must not be blank. The owner never changes.
- **Task** ` + "`{id, name, status, project_id, created_at}`" + `. The project never changes.
  Status is one of ` + "`To Do`" + `, ` + "`In Progress`" + `, ` + "`Completed`" + ` (case-insensitive on input).

Lists are ordered newest first.

## Tools

- ` + "`list_projects`" + `, ` + "`create_project`" + `, ` + "`rename_project`" + `, ` + "`delete_project`" + `
- ` + "`list_tasks`" + `, ` + "`create_task`" + `, ` + "`update_task`" + `, ` + "`delete_task`" + `
- ` + "`get_recent_activity`" + `

Deleting a project does not delete its tasks.

## Errors

Failed tool calls return ` + "`isError: true`" + ` with ` + "`{code, message, recovery_hint}`" + `:

- ` + "`PERMISSION_DENIED`" + `: the project or task belongs to someone else.
- ` + "`NOT_FOUND`" + `: no document with that id.
- ` + "`INVALID_FIELDS`" + `: a blank name or a missing required field.
- ` + "`INVALID_STATUS`" + `: unknown task status.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
