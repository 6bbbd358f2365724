package auth

import (
	"strings"
	"testing"
	"time"

	"unified-chat/errors"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MyPassw0rdIsSafe!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	// Wrong password
	match, err = ComparePassword("WrongPassword", hash)
	req.NoError(err)
	req.False(match)
}

func TestComparePassword_InvalidHash(t *testing.T) {
	tests := []string{
		"",
		"plain-text",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
	}
	for _, encoded := range tests {
		_, err := ComparePassword("whatever", encoded)
		require.ErrorIs(t, err, errors.ErrInvalidHash, encoded)
	}
}

func TestRegistrationValidation(t *testing.T) {
	valid := RegisterRequest{Username: "alice", Password: "ComplexPass123!", Email: "alice@uni.edu", YearOfGraduation: "2026"}
	tests := []struct {
		name    string
		mutate  func(r *RegisterRequest)
		wantErr bool
	}{
		{"Valid request", func(r *RegisterRequest) {}, false},
		{"Optional fields left empty", func(r *RegisterRequest) { r.Email = ""; r.YearOfGraduation = "" }, false},
		{"Invalid email", func(r *RegisterRequest) { r.Email = "notanemail" }, true},
		{"Username too short", func(r *RegisterRequest) { r.Username = "al" }, true},
		{"Username with spaces", func(r *RegisterRequest) { r.Username = "al ice" }, true},
		{"Bad graduation year", func(r *RegisterRequest) { r.YearOfGraduation = "26" }, true},
		{"Password too short", func(r *RegisterRequest) { r.Password = "Short1!" }, true},
		{"Missing digit", func(r *RegisterRequest) { r.Password = "NoDigitPass!" }, true},
		{"Missing special char", func(r *RegisterRequest) { r.Password = "NoSpecialChar123" }, true},
		{"Missing uppercase", func(r *RegisterRequest) { r.Password = "nouppercase123!" }, true},
		{"Password too long", func(r *RegisterRequest) { r.Password = strings.Repeat("a", 73) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := ValidateRegister(r)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateProfile(t *testing.T) {
	require.NoError(t, ValidateProfile(ProfileRequest{FullName: "Alice", Email: "a@b.co"}))
	require.Error(t, ValidateProfile(ProfileRequest{Email: "nope"}))
}

func TestTokenIssuer(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Generate("user-1", "alice")
	req.NoError(err)

	claims, err := issuer.Validate(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("alice", claims.Username)

	// Another secret rejects it
	_, err = NewTokenIssuer("other-secret", time.Hour).Validate(token)
	req.ErrorIs(err, errors.ErrInvalidToken)

	// Expired tokens are rejected
	expired, err := NewTokenIssuer("test-secret", -time.Minute).Generate("user-1", "alice")
	req.NoError(err)
	_, err = issuer.Validate(expired)
	req.ErrorIs(err, errors.ErrInvalidToken)

	_, err = issuer.Validate("not-a-token")
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
