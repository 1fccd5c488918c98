package repositories

import (
	"context"
	"testing"

	"chatline/domain"
	"chatline/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create_Then_Lookup(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	user := domain.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}

	req.NoError(repo.CreateUser(ctx, user))

	// Lookup by id
	byID, err := repo.GetUserByID(ctx, user.UserID())
	req.NoError(err)
	req.Equal(user.Username, byID.Username)

	// Lookup by email goes through the secondary index
	byEmail, err := repo.GetUserByEmail(ctx, "alice@example.com")
	req.NoError(err)
	req.Equal(user.ID, byEmail.ID)
}

func TestUserRepository_Rejects_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	first := domain.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	second := domain.User{ID: uuid.New(), Username: "imposter", Email: "alice@example.com"}

	req.NoError(repo.CreateUser(ctx, first))

	err := repo.CreateUser(ctx, second)

	req.ErrorIs(err, errors.ErrEmailTaken)
}

func TestUserRepository_Unknown_Lookups(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	_, err := repo.GetUserByID(ctx, domain.UserID(uuid.NewString()))
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = repo.GetUserByEmail(ctx, "ghost@example.com")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestUserRepository_ListUsers(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	req.NoError(repo.CreateUser(ctx, domain.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}))
	req.NoError(repo.CreateUser(ctx, domain.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"}))

	users, err := repo.ListUsers(ctx)

	req.NoError(err)
	req.Len(users, 2)
}
