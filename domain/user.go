package domain

import (
	"strings"
	"time"
)

// UserID is the opaque identifier the core uses to reference a user.
// Users themselves are owned by the identity collaborator.
type UserID string

func (u UserID) String() string { return string(u) }

// User is the identity record handed to the presentation layer.
// The core only ever looks at ID; the rest is profile data.
type User struct {
	ID               UserID
	Username         string
	FullName         string
	Email            string
	PasswordHash     string
	StudentID        string
	YearOfGraduation string
	Major            string
	School           string
	Online           bool
	CreatedAt        time.Time
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.FullName) != "" {
		return u.FullName
	}
	return u.Username
}
