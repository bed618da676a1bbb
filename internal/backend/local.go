package backend

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/domain/account"
	"github.com/ganot/taskboard/internal/domain/workspace"
)

// Local is an in-process Backend over the account and workspace services.
type Local struct {
	accounts  *account.Service
	workspace *workspace.Service
	tokens    TokenStore
	state     *SessionState
	logger    *slog.Logger
}

var _ Backend = (*Local)(nil)

// NewLocal creates an in-process backend. tokens may be nil.
func NewLocal(accounts *account.Service, ws *workspace.Service, tokens TokenStore, logger *slog.Logger) *Local {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Local{
		accounts:  accounts,
		workspace: ws,
		tokens:    tokens,
		state:     NewSessionState(),
		logger:    logger,
	}
}

// Restore resumes the persisted session if its token still resolves. A stale
// token is discarded and leaves the backend signed out.
func (l *Local) Restore(ctx context.Context) (bool, error) {
	token, err := l.tokens.Load()
	if err != nil {
		return false, &AuthError{Op: "restore session", Err: err}
	}
	if token == "" {
		return false, nil
	}

	sess, err := l.accounts.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, account.ErrSessionNotFound) || errors.Is(err, account.ErrSessionExpired) {
			l.logger.Info("discarding stale session token", "reason", err)
			if cerr := l.tokens.Clear(); cerr != nil {
				l.logger.Warn("failed to clear token", "error", cerr)
			}
			return false, nil
		}
		return false, &AuthError{Op: "restore session", Err: err}
	}

	l.state.Set(sess)
	return true, nil
}

func (l *Local) SignUp(ctx context.Context, email, password string) (*account.Session, error) {
	sess, err := l.accounts.SignUp(ctx, email, password)
	if err != nil {
		return nil, &AuthError{Op: "sign up", Err: err}
	}
	l.begin(sess)
	return sess, nil
}

func (l *Local) SignIn(ctx context.Context, email, password string) (*account.Session, error) {
	sess, err := l.accounts.SignIn(ctx, email, password)
	if err != nil {
		return nil, &AuthError{Op: "sign in", Err: err}
	}
	l.begin(sess)
	return sess, nil
}

func (l *Local) SignOut(ctx context.Context) error {
	sess := l.state.Current()
	if sess == nil {
		return nil
	}
	if err := l.tokens.Clear(); err != nil {
		l.logger.Warn("failed to clear token", "error", err)
	}
	l.state.Set(nil)

	if err := l.accounts.SignOut(ctx, sess.Token); err != nil {
		return &AuthError{Op: "sign out", Err: err}
	}
	return nil
}

func (l *Local) OnSessionChange(fn func(*account.Session)) func() {
	return l.state.Observe(fn)
}

func (l *Local) Create(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	userID, err := l.userID()
	if err != nil {
		return "", &WriteError{Op: "create", Collection: collection, Err: err}
	}
	doc, err := l.workspace.Create(ctx, userID, collection, fields)
	if err != nil {
		return "", &WriteError{Op: "create", Collection: collection, Err: err}
	}
	return doc.ID, nil
}

func (l *Local) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	userID, err := l.userID()
	if err == nil {
		_, err = l.workspace.Update(ctx, userID, collection, id, fields)
	}
	if err != nil {
		return &WriteError{Op: "update", Collection: collection, ID: id, Err: err}
	}
	return nil
}

func (l *Local) Delete(ctx context.Context, collection, id string) error {
	userID, err := l.userID()
	if err == nil {
		err = l.workspace.Delete(ctx, userID, collection, id)
	}
	if err != nil {
		return &WriteError{Op: "delete", Collection: collection, ID: id, Err: err}
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context, q docstore.Query, onSnapshot func(docstore.Snapshot), onError func(error)) (Subscription, error) {
	userID, err := l.userID()
	if err != nil {
		return nil, &SubscriptionError{Collection: q.Collection, Err: err}
	}

	var wrapped func(error)
	if onError != nil {
		wrapped = func(err error) {
			onError(&SubscriptionError{Collection: q.Collection, Err: err})
		}
	}
	sub, err := l.workspace.Subscribe(ctx, userID, q, onSnapshot, wrapped)
	if err != nil {
		return nil, &SubscriptionError{Collection: q.Collection, Err: err}
	}
	return sub, nil
}

// Session returns the current session, or nil when signed out.
func (l *Local) Session() *account.Session {
	return l.state.Current()
}

func (l *Local) begin(sess *account.Session) {
	if err := l.tokens.Save(sess.Token); err != nil {
		l.logger.Warn("failed to persist session token", "error", err)
	}
	l.state.Set(sess)
}

func (l *Local) userID() (string, error) {
	sess := l.state.Current()
	if sess == nil {
		return "", ErrNotSignedIn
	}
	return sess.UserID, nil
}
