// Package remote implements backend.Backend against a taskboard server:
// JSON-RPC over HTTP for auth and writes, and one websocket per session for
// live queries.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ganot/taskboard/internal/backend"
	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/domain/account"
	"github.com/ganot/taskboard/internal/transport"
)

// Client is a Backend that talks to a taskboard server.
type Client struct {
	rpc    *rpcClient
	wsURL  string
	tokens backend.TokenStore
	state  *backend.SessionState
	logger *slog.Logger

	mu   sync.Mutex
	feed *feed
}

var _ backend.Backend = (*Client)(nil)

// Options configures a Client.
type Options struct {
	// HTTPClient defaults to a client with a 15 second timeout.
	HTTPClient *http.Client
	// Tokens persists the session token; defaults to memory only.
	Tokens backend.TokenStore
	Logger *slog.Logger
}

// New creates a client for the server at baseURL (for example
// http://localhost:8080).
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	var wsScheme string
	switch u.Scheme {
	case "http":
		wsScheme = "ws"
	case "https":
		wsScheme = "wss"
	default:
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = &backend.MemoryTokenStore{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ws := *u
	ws.Scheme = wsScheme
	ws.Path += "/ws"

	return &Client{
		rpc:    &rpcClient{url: u.String() + "/rpc", http: httpClient},
		wsURL:  ws.String(),
		tokens: tokens,
		state:  backend.NewSessionState(),
		logger: logger,
	}, nil
}

// Restore resumes the persisted session if the server still accepts its
// token. A rejected token is discarded and leaves the client signed out.
func (c *Client) Restore(ctx context.Context) (bool, error) {
	token, err := c.tokens.Load()
	if err != nil {
		return false, &backend.AuthError{Op: "restore session", Err: err}
	}
	if token == "" {
		return false, nil
	}

	var sess account.Session
	if err := c.rpc.call(ctx, token, transport.MethodSession, nil, &sess); err != nil {
		if errors.Is(err, transport.ErrUnauthorized) {
			c.logger.Info("discarding stale session token")
			if cerr := c.tokens.Clear(); cerr != nil {
				c.logger.Warn("failed to clear token", "error", cerr)
			}
			return false, nil
		}
		return false, &backend.AuthError{Op: "restore session", Err: err}
	}

	sess.Token = token
	c.state.Set(&sess)
	return true, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*account.Session, error) {
	return c.authenticate(ctx, "sign up", transport.MethodSignUp, email, password)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*account.Session, error) {
	return c.authenticate(ctx, "sign in", transport.MethodSignIn, email, password)
}

func (c *Client) authenticate(ctx context.Context, op, method, email, password string) (*account.Session, error) {
	var sess account.Session
	params := transport.CredentialsParams{Email: email, Password: password}
	if err := c.rpc.call(ctx, "", method, params, &sess); err != nil {
		return nil, &backend.AuthError{Op: op, Err: err}
	}

	// A previous user's live queries must not outlive their session. The same
	// user signing in again keeps the feed, and with it every live list.
	if cur := c.state.Current(); cur == nil || cur.UserID != sess.UserID {
		c.closeFeed()
	}
	if err := c.tokens.Save(sess.Token); err != nil {
		c.logger.Warn("failed to persist session token", "error", err)
	}
	c.state.Set(&sess)
	return &sess, nil
}

// SignOut ends the session locally first, so the client is signed out even
// when the server cannot be told.
func (c *Client) SignOut(ctx context.Context) error {
	sess := c.state.Current()
	if sess == nil {
		return nil
	}
	c.closeFeed()
	if err := c.tokens.Clear(); err != nil {
		c.logger.Warn("failed to clear token", "error", err)
	}
	c.state.Set(nil)

	if err := c.rpc.call(ctx, sess.Token, transport.MethodSignOut, nil, nil); err != nil {
		return &backend.AuthError{Op: "sign out", Err: err}
	}
	return nil
}

func (c *Client) OnSessionChange(fn func(*account.Session)) func() {
	return c.state.Observe(fn)
}

// Session returns the current session, or nil when signed out.
func (c *Client) Session() *account.Session {
	return c.state.Current()
}

func (c *Client) Create(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	token, err := c.token()
	if err != nil {
		return "", &backend.WriteError{Op: "create", Collection: collection, Err: err}
	}
	var doc docstore.Document
	params := transport.DocumentParams{Collection: collection, Fields: fields}
	if err := c.rpc.call(ctx, token, transport.MethodCreateDocument, params, &doc); err != nil {
		return "", &backend.WriteError{Op: "create", Collection: collection, Err: err}
	}
	return doc.ID, nil
}

func (c *Client) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	token, err := c.token()
	if err == nil {
		params := transport.DocumentParams{Collection: collection, ID: id, Fields: fields}
		err = c.rpc.call(ctx, token, transport.MethodUpdateDocument, params, nil)
	}
	if err != nil {
		return &backend.WriteError{Op: "update", Collection: collection, ID: id, Err: err}
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	token, err := c.token()
	if err == nil {
		params := transport.DocumentParams{Collection: collection, ID: id}
		err = c.rpc.call(ctx, token, transport.MethodDeleteDocument, params, nil)
	}
	if err != nil {
		return &backend.WriteError{Op: "delete", Collection: collection, ID: id, Err: err}
	}
	return nil
}

// Subscribe opens a live query on the session's feed, dialing it on first
// use. It returns once the server has accepted or rejected the query.
func (c *Client) Subscribe(ctx context.Context, q docstore.Query, onSnapshot func(docstore.Snapshot), onError func(error)) (backend.Subscription, error) {
	f, err := c.connect(ctx)
	if err != nil {
		return nil, &backend.SubscriptionError{Collection: q.Collection, Err: err}
	}
	sub, err := f.subscribe(ctx, q, onSnapshot, onError)
	if err != nil {
		return nil, &backend.SubscriptionError{Collection: q.Collection, Err: err}
	}
	return sub, nil
}

// Close drops the live query connection. The session is kept.
func (c *Client) Close() error {
	c.closeFeed()
	return nil
}

func (c *Client) connect(ctx context.Context) (*feed, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.feed != nil {
		return c.feed, nil
	}

	f, err := dialFeed(ctx, c.wsURL, token, c.logger, c.forget)
	if err != nil {
		return nil, err
	}
	c.feed = f
	return f, nil
}

// forget drops f once its connection has ended so the next Subscribe dials
// a fresh one.
func (c *Client) forget(f *feed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.feed == f {
		c.feed = nil
	}
}

func (c *Client) closeFeed() {
	c.mu.Lock()
	f := c.feed
	c.feed = nil
	c.mu.Unlock()
	if f != nil {
		f.close()
	}
}

func (c *Client) token() (string, error) {
	sess := c.state.Current()
	if sess == nil {
		return "", backend.ErrNotSignedIn
	}
	return sess.Token, nil
}
