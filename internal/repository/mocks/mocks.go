package mocks

import (
	"context"
	"time"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/domain/account"
	"github.com/ganot/taskboard/internal/domain/activity"
	"github.com/stretchr/testify/mock"
)

// AccountRepository is a mock for account.Repository.
type AccountRepository struct {
	mock.Mock
}

func (m *AccountRepository) CreateUser(ctx context.Context, user *account.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *AccountRepository) GetUser(ctx context.Context, id string) (*account.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*account.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AccountRepository) GetUserByEmail(ctx context.Context, email string) (*account.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*account.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AccountRepository) CreateSession(ctx context.Context, tokenHash string, sess *account.Session) error {
	args := m.Called(ctx, tokenHash, sess)
	return args.Error(0)
}

func (m *AccountRepository) GetSession(ctx context.Context, tokenHash string) (*account.Session, error) {
	args := m.Called(ctx, tokenHash)
	if sess, ok := args.Get(0).(*account.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AccountRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *AccountRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, userID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, userID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, userID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, userID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// DocumentStore is a mock for workspace.Documents.
type DocumentStore struct {
	mock.Mock
}

func (m *DocumentStore) Create(ctx context.Context, collection string, fields docstore.Fields) (*docstore.Document, error) {
	args := m.Called(ctx, collection, fields)
	if doc, ok := args.Get(0).(*docstore.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentStore) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	args := m.Called(ctx, collection, id)
	if doc, ok := args.Get(0).(*docstore.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentStore) Update(ctx context.Context, collection, id string, fields docstore.Fields) (*docstore.Document, error) {
	args := m.Called(ctx, collection, id, fields)
	if doc, ok := args.Get(0).(*docstore.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

func (m *DocumentStore) Run(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	args := m.Called(ctx, q)
	if docs, ok := args.Get(0).([]docstore.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentStore) Subscribe(ctx context.Context, q docstore.Query, onSnapshot func(docstore.Snapshot), onError func(error)) (*docstore.Subscription, error) {
	args := m.Called(ctx, q, onSnapshot, onError)
	if sub, ok := args.Get(0).(*docstore.Subscription); ok {
		return sub, args.Error(1)
	}
	return nil, args.Error(1)
}
