package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/domain/account"
	"github.com/ganot/taskboard/internal/domain/activity"
)

// RPC method names served on POST /rpc.
const (
	MethodSignUp         = "auth.signUp"
	MethodSignIn         = "auth.signIn"
	MethodSignOut        = "auth.signOut"
	MethodSession        = "auth.session"
	MethodCreateDocument = "documents.create"
	MethodUpdateDocument = "documents.update"
	MethodDeleteDocument = "documents.delete"
	MethodListDocuments  = "documents.list"
	MethodRecentActivity = "activity.recent"
)

// Accounts defines the account operations exposed over the API.
type Accounts interface {
	SessionResolver
	SignUp(ctx context.Context, email, password string) (*account.Session, error)
	SignIn(ctx context.Context, email, password string) (*account.Session, error)
	SignOut(ctx context.Context, token string) error
}

// Workspace defines the document operations exposed over the API.
type Workspace interface {
	Create(ctx context.Context, userID, collection string, fields docstore.Fields) (*docstore.Document, error)
	Update(ctx context.Context, userID, collection, id string, fields docstore.Fields) (*docstore.Document, error)
	Delete(ctx context.Context, userID, collection, id string) error
	List(ctx context.Context, userID string, q docstore.Query) ([]docstore.Document, error)
	Subscribe(ctx context.Context, userID string, q docstore.Query, onSnapshot func(docstore.Snapshot), onError func(error)) (*docstore.Subscription, error)
}

// Activity defines the activity operations exposed over the API.
type Activity interface {
	GetRecentActivity(ctx context.Context, userID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains the domain services behind the API.
type Services struct {
	Accounts  Accounts
	Workspace Workspace
	Activity  Activity
}

// CredentialsParams is the payload of auth.signUp and auth.signIn.
type CredentialsParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DocumentParams is the payload of documents.create, documents.update and
// documents.delete.
type DocumentParams struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id,omitempty"`
	Fields     docstore.Fields `json:"fields,omitempty"`
}

// ListParams is the payload of documents.list.
type ListParams struct {
	Query docstore.Query `json:"query"`
}

// ListResult is the result of documents.list.
type ListResult struct {
	Documents []docstore.Document `json:"documents"`
}

// ActivityParams is the payload of activity.recent.
type ActivityParams struct {
	ProjectID string `json:"project_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// ActivityResult is the result of activity.recent.
type ActivityResult struct {
	Activity []activity.ActivityEntry `json:"activity"`
}

// OKResult acknowledges calls that return nothing else.
type OKResult struct {
	OK bool `json:"ok"`
}

type rpcHandler struct {
	services Services
}

// errInvalidParams marks a payload that could not be decoded.
type errInvalidParams struct{ err error }

func (e errInvalidParams) Error() string { return fmt.Sprintf("invalid params: %v", e.err) }

func (h *rpcHandler) handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	if !methods[method] {
		return nil, errMethodNotFound
	}

	switch method {
	case MethodSignUp, MethodSignIn:
		var p CredentialsParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if method == MethodSignUp {
			return h.services.Accounts.SignUp(ctx, p.Email, p.Password)
		}
		return h.services.Accounts.SignIn(ctx, p.Email, p.Password)

	case MethodSignOut:
		sess, ok := SessionFromContext(ctx)
		if !ok {
			return OKResult{OK: true}, nil
		}
		if err := h.services.Accounts.SignOut(ctx, sess.Token); err != nil {
			return nil, err
		}
		return OKResult{OK: true}, nil

	case MethodSession:
		sess, ok := SessionFromContext(ctx)
		if !ok {
			return nil, ErrUnauthorized
		}
		return sess, nil
	}

	sess, ok := SessionFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	switch method {
	case MethodCreateDocument:
		var p DocumentParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return h.services.Workspace.Create(ctx, sess.UserID, p.Collection, p.Fields)

	case MethodUpdateDocument:
		var p DocumentParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return h.services.Workspace.Update(ctx, sess.UserID, p.Collection, p.ID, p.Fields)

	case MethodDeleteDocument:
		var p DocumentParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if err := h.services.Workspace.Delete(ctx, sess.UserID, p.Collection, p.ID); err != nil {
			return nil, err
		}
		return OKResult{OK: true}, nil

	case MethodListDocuments:
		var p ListParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		docs, err := h.services.Workspace.List(ctx, sess.UserID, p.Query)
		if err != nil {
			return nil, err
		}
		if docs == nil {
			docs = []docstore.Document{}
		}
		return ListResult{Documents: docs}, nil

	case MethodRecentActivity:
		var p ActivityParams
		if len(params) > 0 {
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
		}
		entries, err := h.services.Activity.GetRecentActivity(ctx, sess.UserID, activity.ListActivityOptions{
			ProjectID: p.ProjectID,
			Limit:     p.Limit,
			Offset:    p.Offset,
		})
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []activity.ActivityEntry{}
		}
		return ActivityResult{Activity: entries}, nil
	}

	return nil, errMethodNotFound
}

var errMethodNotFound = errors.New("method not found")

var methods = map[string]bool{
	MethodSignUp:         true,
	MethodSignIn:         true,
	MethodSignOut:        true,
	MethodSession:        true,
	MethodCreateDocument: true,
	MethodUpdateDocument: true,
	MethodDeleteDocument: true,
	MethodListDocuments:  true,
	MethodRecentActivity: true,
}

func decodeParams(params json.RawMessage, dst any) error {
	if len(params) == 0 {
		return errInvalidParams{err: fmt.Errorf("missing params")}
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return errInvalidParams{err: err}
	}
	return nil
}
