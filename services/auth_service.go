package services

import (
	stderrors "errors"
	"fmt"
	"log/slog"

	"unified-chat/auth"
	"unified-chat/domain"
	"unified-chat/errors"
	"unified-chat/repositories"
)

const UnknownUser = "Unknown user"

type IAuthService interface {
	Register(req auth.RegisterRequest) (domain.User, Token, error)
	Login(username, password string) (domain.User, Token, error)
	Logout(userID domain.UserID) error
	Authenticate(token Token) (domain.UserID, error)
	UpdateProfile(userID domain.UserID, req auth.ProfileRequest) (domain.User, error)
	DisplayName(userID domain.UserID) string
	FindByUsername(username string) (domain.User, error)
	ListUsers() ([]domain.User, error)
}

// AuthService is the identity collaborator: the chat core only ever sees user ids.
type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         auth.TokenIssuer
	log            *slog.Logger
}

type Token string

func (t Token) String() string {
	return string(t)
}

func NewAuthService(repo repositories.IUserRepository, tokens auth.TokenIssuer, log *slog.Logger) *AuthService {
	return &AuthService{userRepository: repo, tokens: tokens, log: log}
}

// Register validates the request, hashes the password and opens a session.
func (s *AuthService) Register(req auth.RegisterRequest) (domain.User, Token, error) {
	// Validation happens before any expensive cryptographic operation
	if err := auth.ValidateRegister(req); err != nil {
		if stderrors.Is(err, errors.ErrInvalidPassword) {
			return domain.User{}, "", err
		}
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(domain.User{
		Username:         req.Username,
		FullName:         req.FullName,
		Email:            req.Email,
		PasswordHash:     hashedPassword,
		StudentID:        req.StudentID,
		YearOfGraduation: req.YearOfGraduation,
		Major:            req.Major,
		School:           req.School,
		Online:           true,
	})
	if err != nil {
		return domain.User{}, "", err // ErrUserAlreadyExists if the username is taken
	}

	token, err := s.tokens.Generate(string(user.ID), user.Username)
	if err != nil {
		return domain.User{}, "", err
	}
	s.log.Info("User registered", "user", user.ID)
	return user, Token(token), nil
}

// Login never tells whether the username or the password was wrong.
func (s *AuthService) Login(username, password string) (domain.User, Token, error) {
	user, err := s.userRepository.GetUserByUsername(username)
	if err != nil {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(string(user.ID), user.Username)
	if err != nil {
		return domain.User{}, "", err
	}

	user.Online = true
	if err = s.userRepository.UpdateUser(user); err != nil {
		s.log.Error("Failed to flag user online", "user", user.ID, "error", err)
	}
	return user, Token(token), nil
}

func (s *AuthService) Logout(userID domain.UserID) error {
	user, err := s.userRepository.GetUserByID(userID)
	if err != nil {
		return err
	}
	user.Online = false
	return s.userRepository.UpdateUser(user)
}

func (s *AuthService) Authenticate(token Token) (domain.UserID, error) {
	claims, err := s.tokens.Validate(token.String())
	if err != nil {
		return "", err
	}
	return domain.UserID(claims.UserID), nil
}

func (s *AuthService) UpdateProfile(userID domain.UserID, req auth.ProfileRequest) (domain.User, error) {
	if err := auth.ValidateProfile(req); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}
	user, err := s.userRepository.GetUserByID(userID)
	if err != nil {
		return domain.User{}, err
	}
	user.FullName = req.FullName
	user.Email = req.Email
	user.YearOfGraduation = req.YearOfGraduation
	user.Major = req.Major
	user.School = req.School
	if err = s.userRepository.UpdateUser(user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// DisplayName prefers the full name, then the username, then UnknownUser.
func (s *AuthService) DisplayName(userID domain.UserID) string {
	user, err := s.userRepository.GetUserByID(userID)
	if err != nil {
		return UnknownUser
	}
	return user.DisplayName()
}

func (s *AuthService) FindByUsername(username string) (domain.User, error) {
	return s.userRepository.GetUserByUsername(username)
}

func (s *AuthService) ListUsers() ([]domain.User, error) {
	return s.userRepository.ListUsers()
}
