package repositories

import (
	"testing"

	"unified-chat/domain"
	"unified-chat/errors"

	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))

	// When a user is created
	created, err := repository.CreateUser(domain.User{
		Username: "Alice", FullName: "Alice Martin", Email: "alice@uni.edu", PasswordHash: "hash",
		Major: "CS", School: "Engineering", YearOfGraduation: "2026",
	})
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.False(created.CreatedAt.IsZero())

	// Then it can be found by id and by username, case-insensitively
	byID, err := repository.GetUserByID(created.ID)
	req.NoError(err)
	req.Equal(created.Email, byID.Email)
	req.Equal("Engineering", byID.School)

	byName, err := repository.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal(created.ID, byName.ID)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))

	_, err := repository.CreateUser(domain.User{Username: "bob"})
	req.NoError(err)
	_, err = repository.CreateUser(domain.User{Username: "BOB"})
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_NotFound(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))

	_, err := repository.GetUserByUsername("ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)
	_, err = repository.GetUserByID("ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)
	req.ErrorIs(repository.UpdateUser(domain.User{ID: "ghost", Username: "ghost"}), errors.ErrUserNotFound)
}

func TestUserRepository_UpdateAndList(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))
	carol, err := repository.CreateUser(domain.User{Username: "carol"})
	req.NoError(err)
	_, err = repository.CreateUser(domain.User{Username: "alice"})
	req.NoError(err)

	carol.FullName = "Carol Dupont"
	carol.Online = true
	req.NoError(repository.UpdateUser(carol))

	users, err := repository.ListUsers()
	req.NoError(err)
	req.Len(users, 2)
	req.Equal("alice", users[0].Username)
	req.Equal("Carol Dupont", users[1].FullName)
	req.True(users[1].Online)
}
