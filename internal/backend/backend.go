// Package backend defines the collaborator the client side talks to: auth,
// document writes and live query subscriptions. Local runs it in-process,
// the remote package runs it over the network.
package backend

import (
	"context"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/domain/account"
)

// Subscription is a cancellable stream of snapshots.
type Subscription interface {
	// Cancel stops future deliveries. Safe to call more than once.
	Cancel()
}

// Backend is the auth and document collaborator.
type Backend interface {
	SignUp(ctx context.Context, email, password string) (*account.Session, error)
	SignIn(ctx context.Context, email, password string) (*account.Session, error)
	SignOut(ctx context.Context) error
	// OnSessionChange calls fn immediately with the current session (nil
	// when signed out) and again on every sign-in and sign-out.
	OnSessionChange(fn func(*account.Session)) (cancel func())

	Create(ctx context.Context, collection string, fields docstore.Fields) (string, error)
	Update(ctx context.Context, collection, id string, fields docstore.Fields) error
	Delete(ctx context.Context, collection, id string) error
	Subscribe(ctx context.Context, q docstore.Query, onSnapshot func(docstore.Snapshot), onError func(error)) (Subscription, error)
}
