package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fileshare/internal/repository"
	"fileshare/internal/repository/sqlite"
)

func newUserService(t *testing.T) (UserService, repository.UserRepository) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := sqlite.NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return NewUserService(repo), repo
}

func TestRegisterHashesPassword(t *testing.T) {
	ctx := context.Background()
	svc, repo := newUserService(t)

	user, err := svc.Register(ctx, "alice", "alice@example.com", "pw1")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash, "hash never leaves the service")

	stored, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw1")))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, repo := newUserService(t)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{"same username different email", "alice", "alice2@example.com"},
		{"same email different username", "alice2", "alice@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.email, "pw2")
			assert.ErrorIs(t, err, ErrUserAlreadyExists)
		})
	}

	// first row untouched, no second row created
	stored, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", stored.Email)
	_, err = repo.GetByUsername(ctx, "alice2")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestRegisterValidatesInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@example.com", "pw"},
		{"empty email", "alice", "", "pw"},
		{"email without at sign", "alice", "not-an-email", "pw"},
		{"empty password", "alice", "a@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.email, tt.password)
			assert.Error(t, err)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	// unknown user and wrong password yield the same error
	_, wrongPw := svc.Authenticate(ctx, "alice", "nope")
	_, unknown := svc.Authenticate(ctx, "mallory", "pw1")
	assert.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, wrongPw, unknown)
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	created, err := svc.Register(ctx, "alice", "alice@example.com", "pw1")
	require.NoError(t, err)

	user, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.GetByID(ctx, created.ID+100)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
