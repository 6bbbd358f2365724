package auth

import (
	"unicode"

	"unified-chat/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Username         string `validate:"required,alphanum,min=3,max=32"`
	Password         string `validate:"required,min=12,max=72"`
	FullName         string `validate:"max=100"`
	Email            string `validate:"omitempty,email"`
	StudentID        string `validate:"max=32"`
	YearOfGraduation string `validate:"omitempty,numeric,len=4"`
	Major            string `validate:"max=100"`
	School           string `validate:"max=100"`
}

// ProfileRequest carries the editable profile fields. The username never changes.
type ProfileRequest struct {
	FullName         string `validate:"max=100"`
	Email            string `validate:"omitempty,email"`
	YearOfGraduation string `validate:"omitempty,numeric,len=4"`
	Major            string `validate:"max=100"`
	School           string `validate:"max=100"`
}

func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

func ValidateProfile(req ProfileRequest) error {
	return validate.Struct(req)
}

func isPasswordComplex(s string) bool {
	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
