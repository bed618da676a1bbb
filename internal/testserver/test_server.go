package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ganot/taskboard/internal/app"
	"github.com/ganot/taskboard/internal/config"
	"github.com/ganot/taskboard/internal/domain/account"
	"github.com/ganot/taskboard/internal/mcp"
	"github.com/ganot/taskboard/internal/sqlite"
	"github.com/ganot/taskboard/internal/transport"
)

// TestServer is a full HTTP server (rpc, websocket feed, MCP) over a private
// in-memory database.
type TestServer struct {
	Server *httptest.Server
	App    *app.App
}

func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	a := app.New(db, config.AuthConfig{BcryptCost: bcrypt.MinCost}, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      mcp.Services{Workspace: a.Workspace, Activity: a.Activity},
		Resolver:      a.Accounts,
		TransportMode: "http",
	})

	server := httptest.NewServer(transport.NewServer(transport.Config{
		Services: transport.Services{
			Accounts:  a.Accounts,
			Workspace: a.Workspace,
			Activity:  a.Activity,
		},
		MCP: mcp.NewHTTPHandler(mcpServer),
	}))

	ts := &TestServer{
		Server: server,
		App:    a,
	}

	t.Cleanup(func() {
		server.Close()
		_ = a.Close()
	})

	return ts
}

// URL returns the base URL of the server.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// SignUp registers a user directly against the services and returns its
// session, whose Token is a valid bearer token for the server.
func (ts *TestServer) SignUp(t *testing.T, email string) *account.Session {
	t.Helper()
	sess, err := ts.App.Accounts.SignUp(context.Background(), email, "secret1")
	require.NoError(t, err)
	return sess
}
