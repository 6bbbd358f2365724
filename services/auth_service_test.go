package services

import (
	"log/slog"
	"testing"
	"time"

	"unified-chat/auth"
	"unified-chat/domain"
	"unified-chat/errors"
	"unified-chat/mocks"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newAuthService(t *testing.T) (*AuthService, *mocks.MockIUserRepository) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewAuthService(mockRepo, auth.NewTokenIssuer("test-secret", 24*time.Hour), log), mockRepo
}

func TestAuthService_Register(t *testing.T) {
	valid := auth.RegisterRequest{Username: "alice", Password: "ComplexPass123!", FullName: "Alice Martin"}

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		svc, mockRepo := newAuthService(t)

		// Expect CreateUser to be called with a hashed password, never the plain one
		mockRepo.EXPECT().
			CreateUser(gomock.Any()).
			DoAndReturn(func(u domain.User) (domain.User, error) {
				req.NotEqual(valid.Password, u.PasswordHash)
				req.True(u.Online)
				u.ID = "user-1"
				return u, nil
			}).
			Times(1)

		user, token, err := svc.Register(valid)

		req.NoError(err)
		req.Equal(domain.UserID("user-1"), user.ID)
		req.NotEmpty(token)

		userID, err := svc.Authenticate(token)
		req.NoError(err)
		req.Equal(domain.UserID("user-1"), userID)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)
		svc, mockRepo := newAuthService(t)
		mockRepo.EXPECT().CreateUser(gomock.Any()).Times(0)

		r := valid
		r.Password = "simplepassword"
		_, token, err := svc.Register(r)

		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when input is malformed", func(t *testing.T) {
		svc, mockRepo := newAuthService(t)
		mockRepo.EXPECT().CreateUser(gomock.Any()).Times(0)

		r := valid
		r.Email = "not-an-email"
		_, _, err := svc.Register(r)

		require.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		svc, mockRepo := newAuthService(t)
		mockRepo.EXPECT().
			CreateUser(gomock.Any()).
			Return(domain.User{}, errors.ErrUserAlreadyExists).
			Times(1)

		_, _, err := svc.Register(valid)

		require.ErrorIs(t, err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	password := "Secret123456!"
	hashedPassword, err := auth.HashPassword(password)
	require.NoError(t, err)
	stored := domain.User{ID: "user-1", Username: "alice", PasswordHash: hashedPassword}

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		svc, mockRepo := newAuthService(t)

		mockRepo.EXPECT().GetUserByUsername("alice").Return(stored, nil).Times(1)
		mockRepo.EXPECT().UpdateUser(gomock.Any()).DoAndReturn(func(u domain.User) error {
			req.True(u.Online)
			return nil
		}).Times(1)

		user, token, err := svc.Login("alice", password)

		req.NoError(err)
		req.True(user.Online)
		userID, err := svc.Authenticate(token)
		req.NoError(err)
		req.Equal(stored.ID, userID)
	})

	t.Run("should return invalid credentials when password matches nothing", func(t *testing.T) {
		svc, mockRepo := newAuthService(t)
		mockRepo.EXPECT().GetUserByUsername("alice").Return(stored, nil).Times(1)

		_, _, err := svc.Login("alice", "WrongPassword123!")

		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})

	t.Run("should return invalid credentials when user is not found", func(t *testing.T) {
		svc, mockRepo := newAuthService(t)
		mockRepo.EXPECT().GetUserByUsername("ghost").Return(domain.User{}, errors.ErrUserNotFound).Times(1)

		_, _, err := svc.Login("ghost", "anyPassword")

		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})
}

func TestAuthService_Logout(t *testing.T) {
	req := require.New(t)
	svc, mockRepo := newAuthService(t)

	mockRepo.EXPECT().GetUserByID(domain.UserID("user-1")).Return(domain.User{ID: "user-1", Online: true}, nil)
	mockRepo.EXPECT().UpdateUser(domain.User{ID: "user-1", Online: false}).Return(nil)

	req.NoError(svc.Logout("user-1"))
}

func TestAuthService_UpdateProfile(t *testing.T) {
	req := require.New(t)
	svc, mockRepo := newAuthService(t)
	profile := auth.ProfileRequest{FullName: "Alice Martin", Email: "alice@uni.edu", Major: "CS", School: "Eng", YearOfGraduation: "2026"}

	mockRepo.EXPECT().GetUserByID(domain.UserID("user-1")).Return(domain.User{ID: "user-1", Username: "alice"}, nil)
	mockRepo.EXPECT().UpdateUser(gomock.Any()).Return(nil)

	user, err := svc.UpdateProfile("user-1", profile)
	req.NoError(err)
	req.Equal("alice", user.Username)
	req.Equal("Alice Martin", user.FullName)
	req.Equal("2026", user.YearOfGraduation)

	_, err = svc.UpdateProfile("user-1", auth.ProfileRequest{YearOfGraduation: "soon"})
	req.ErrorIs(err, errors.ErrInvalidInput)
}

func TestAuthService_DisplayName(t *testing.T) {
	svc, mockRepo := newAuthService(t)

	mockRepo.EXPECT().GetUserByID(domain.UserID("full")).Return(domain.User{Username: "al", FullName: "Alice Martin"}, nil)
	mockRepo.EXPECT().GetUserByID(domain.UserID("short")).Return(domain.User{Username: "bob"}, nil)
	mockRepo.EXPECT().GetUserByID(domain.UserID("ghost")).Return(domain.User{}, errors.ErrUserNotFound)

	require.Equal(t, "Alice Martin", svc.DisplayName("full"))
	require.Equal(t, "bob", svc.DisplayName("short"))
	require.Equal(t, UnknownUser, svc.DisplayName("ghost"))
}

func TestAuthService_Authenticate_RejectsGarbage(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Authenticate("garbage")
	require.ErrorIs(t, err, errors.ErrInvalidToken)
}
