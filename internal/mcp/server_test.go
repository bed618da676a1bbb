package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ganot/taskboard/internal/app"
	"github.com/ganot/taskboard/internal/config"
	"github.com/ganot/taskboard/internal/domain/project"
	"github.com/ganot/taskboard/internal/domain/task"
	"github.com/ganot/taskboard/internal/mcp"
)

type stdioEnv struct {
	app     *app.App
	userID  string
	session *sdkmcp.ClientSession
}

func newStdioEnv(t *testing.T) *stdioEnv {
	t.Helper()
	ctx := context.Background()

	a, err := app.Open(":memory:", config.AuthConfig{BcryptCost: bcrypt.MinCost}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	sess, err := a.Accounts.SignUp(ctx, "agent@example.com", "secret1")
	require.NoError(t, err)

	server := mcp.NewServer(mcp.Config{
		Services:      mcp.Services{Workspace: a.Workspace, Activity: a.Activity},
		TransportMode: "stdio",
		DefaultUserID: sess.UserID,
	})

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientSession.Close() })

	return &stdioEnv{app: a, userID: sess.UserID, session: clientSession}
}

func (e *stdioEnv) callTool(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := e.session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	return res
}

func decodeText(t *testing.T, res *sdkmcp.CallToolResult, out any) {
	t.Helper()
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(text.Text), out))
}

func TestServer_ListsToolsAndDocs(t *testing.T) {
	env := newStdioEnv(t)
	ctx := context.Background()

	tools, err := env.session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		require.NotNil(t, tool.InputSchema, "tool %s should have inputSchema", tool.Name)
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"list_projects", "create_project", "rename_project", "delete_project",
		"list_tasks", "create_task", "update_task", "delete_task",
		"get_recent_activity",
	}, names)

	doc, err := env.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "taskboard://docs/index"})
	require.NoError(t, err)
	require.Len(t, doc.Contents, 1)
	require.Contains(t, doc.Contents[0].Text, "list_tasks")
}

func TestServer_ProjectAndTaskWorkflow(t *testing.T) {
	env := newStdioEnv(t)

	var created project.Project
	res := env.callTool(t, "create_project", map[string]any{"name": "Launch"})
	require.False(t, res.IsError)
	decodeText(t, res, &created)
	require.Equal(t, env.userID, created.Owner)

	var tk task.Task
	res = env.callTool(t, "create_task", map[string]any{"project_id": created.ID, "name": "Write copy"})
	require.False(t, res.IsError)
	decodeText(t, res, &tk)
	require.Equal(t, task.StatusToDo, tk.Status)

	res = env.callTool(t, "update_task", map[string]any{"id": tk.ID, "status": "In Progress"})
	require.False(t, res.IsError)

	var tasks mcp.TaskListResponse
	decodeText(t, env.callTool(t, "list_tasks", map[string]any{"project_id": created.ID}), &tasks)
	require.Len(t, tasks.Tasks, 1)
	require.Equal(t, task.StatusInProgress, tasks.Tasks[0].Status)

	var activity mcp.ActivityResponse
	decodeText(t, env.callTool(t, "get_recent_activity", map[string]any{"project_id": created.ID}), &activity)
	require.Len(t, activity.Activity, 3)

	res = env.callTool(t, "delete_project", map[string]any{"id": created.ID})
	require.False(t, res.IsError)

	var projects mcp.ProjectListResponse
	decodeText(t, env.callTool(t, "list_projects", nil), &projects)
	require.Empty(t, projects.Projects)
}

func TestServer_ToolErrors(t *testing.T) {
	env := newStdioEnv(t)
	ctx := context.Background()

	res := env.callTool(t, "create_project", map[string]any{"name": "   "})
	require.True(t, res.IsError)
	var apiErr mcp.APIError
	decodeText(t, res, &apiErr)
	require.Equal(t, "INVALID_FIELDS", apiErr.Code)

	// A project owned by someone else.
	other, err := env.app.Accounts.SignUp(ctx, "other@example.com", "secret1")
	require.NoError(t, err)
	doc, err := env.app.Workspace.Create(ctx, other.UserID, project.Collection, project.NewFields("Private", other.UserID))
	require.NoError(t, err)

	res = env.callTool(t, "list_tasks", map[string]any{"project_id": doc.ID})
	require.True(t, res.IsError)
	decodeText(t, res, &apiErr)
	require.Equal(t, "PERMISSION_DENIED", apiErr.Code)
	require.NotEmpty(t, apiErr.RecoveryHint)
}
