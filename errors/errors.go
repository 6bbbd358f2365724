package errors

import "errors"

// Data and programming errors. Expected policy failures (full group, unauthorized
// sender, inactive channel...) are never reported through these, they stay booleans.
var (
	ErrMissingField         = errors.New("required field is missing")
	ErrInvalidCapacity      = errors.New("max participants must be at least 1")
	ErrSameParticipant      = errors.New("direct message needs two distinct participants")
	ErrUnknownChannelType   = errors.New("unknown channel type")
	ErrUnknownMessageType   = errors.New("unknown message type")
	ErrInvalidRecord        = errors.New("malformed persisted record")
	ErrInvariantViolated    = errors.New("persisted channel violates its invariants")
	ErrChannelAlreadyExists = errors.New("channel already registered")

	ErrInvalidInput       = errors.New("invalid input")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("password does not meet complexity requirements")
	ErrInvalidHash        = errors.New("invalid hash format")
	ErrTokenGeneration    = errors.New("failed to generate token")
	ErrInvalidToken       = errors.New("invalid token")

	ErrEmptyWords    = errors.New("no words have been found")
	ErrSinkTimeout   = errors.New("sink did not consume event in time")
	ErrUnknownFormat = errors.New("unknown export format")
)
