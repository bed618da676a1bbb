package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/taskboard/internal/domain/account"
	"github.com/ganot/taskboard/internal/repository"
	"github.com/ganot/taskboard/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fastHash = account.Options{BcryptCost: bcrypt.MinCost}

func TestAccountService_SignUp(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AccountRepository{}

	repo.On("CreateUser", ctx, mock.MatchedBy(func(u *account.User) bool {
		return u.Email == "ada@example.com" && u.PasswordHash != "secret1" && u.ID != ""
	})).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("*account.Session")).Return(nil)

	svc := account.NewService(repo, fastHash, nil)
	sess, err := svc.SignUp(ctx, "  Ada@Example.com ", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.Equal(t, "ada@example.com", sess.Email)
	require.True(t, sess.ExpiresAt.After(sess.CreatedAt))

	// Only the token hash reaches storage.
	repo.AssertCalled(t, "CreateSession", ctx, account.HashToken(sess.Token), mock.Anything)
}

func TestAccountService_SignUpValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AccountRepository{}
	svc := account.NewService(repo, fastHash, nil)

	_, err := svc.SignUp(ctx, "not-an-email", "secret1")
	require.ErrorIs(t, err, account.ErrInvalidEmail)

	_, err = svc.SignUp(ctx, "@example.com", "secret1")
	require.ErrorIs(t, err, account.ErrInvalidEmail)

	_, err = svc.SignUp(ctx, "ada@example.com", "12345")
	require.ErrorIs(t, err, account.ErrWeakPassword)

	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestAccountService_SignUpDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AccountRepository{}
	repo.On("CreateUser", ctx, mock.Anything).Return(repository.ErrDuplicate)

	svc := account.NewService(repo, fastHash, nil)
	_, err := svc.SignUp(ctx, "ada@example.com", "secret1")
	require.ErrorIs(t, err, account.ErrEmailTaken)
}

func TestAccountService_SignIn(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mocks.AccountRepository{}
	repo.On("GetUserByEmail", ctx, "ada@example.com").
		Return(&account.User{ID: "u1", Email: "ada@example.com", PasswordHash: string(hash)}, nil)
	repo.On("GetUserByEmail", ctx, "bob@example.com").Return(nil, repository.ErrNotFound)
	repo.On("CreateSession", ctx, mock.Anything, mock.Anything).Return(nil)

	svc := account.NewService(repo, fastHash, nil)

	sess, err := svc.SignIn(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "u1", sess.UserID)

	_, err = svc.SignIn(ctx, "ada@example.com", "wrong")
	require.ErrorIs(t, err, account.ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "bob@example.com", "secret1")
	require.ErrorIs(t, err, account.ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "garbage", "secret1")
	require.ErrorIs(t, err, account.ErrInvalidCredentials)
}

func TestAccountService_Resolve(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AccountRepository{}

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)
	repo.On("GetSession", ctx, account.HashToken("live")).
		Return(&account.Session{UserID: "u1", Email: "a@example.com", ExpiresAt: future}, nil)
	repo.On("GetSession", ctx, account.HashToken("old")).
		Return(&account.Session{UserID: "u1", ExpiresAt: past}, nil)
	repo.On("GetSession", ctx, account.HashToken("nope")).Return(nil, repository.ErrNotFound)

	svc := account.NewService(repo, fastHash, nil)

	sess, err := svc.Resolve(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, "live", sess.Token)
	require.Equal(t, "u1", sess.UserID)

	_, err = svc.Resolve(ctx, "old")
	require.ErrorIs(t, err, account.ErrSessionExpired)

	_, err = svc.Resolve(ctx, "nope")
	require.ErrorIs(t, err, account.ErrSessionNotFound)

	_, err = svc.Resolve(ctx, "")
	require.ErrorIs(t, err, account.ErrSessionNotFound)
}

func TestAccountService_SignOut(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AccountRepository{}
	repo.On("DeleteSession", ctx, account.HashToken("live")).Return(nil)
	repo.On("DeleteSession", ctx, account.HashToken("gone")).Return(repository.ErrNotFound)

	svc := account.NewService(repo, fastHash, nil)
	require.NoError(t, svc.SignOut(ctx, "live"))
	require.NoError(t, svc.SignOut(ctx, "gone"))
	require.NoError(t, svc.SignOut(ctx, ""))
	repo.AssertNumberOfCalls(t, "DeleteSession", 2)
}

func TestAccountService_UserByEmail(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AccountRepository{}
	repo.On("GetUserByEmail", ctx, "ada@example.com").Return(&account.User{ID: "u1", Email: "ada@example.com"}, nil)
	repo.On("GetUserByEmail", ctx, "bob@example.com").Return(nil, repository.ErrNotFound)

	svc := account.NewService(repo, fastHash, nil)
	user, err := svc.UserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)

	_, err = svc.UserByEmail(ctx, "bob@example.com")
	require.ErrorIs(t, err, account.ErrUserNotFound)

	_, err = svc.UserByEmail(ctx, "not-an-email")
	require.ErrorIs(t, err, account.ErrInvalidEmail)
}
