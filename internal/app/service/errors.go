package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/talentbase-backend/internal/app/repository"
)

var (
	ErrAlreadyRegistered     = errors.New("email is already registered")
	ErrInvalidOrExpiredCode  = errors.New("invalid or expired verification code")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrNotFound              = errors.New("email not found")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrInvalidRole           = errors.New("invalid role")
	ErrRateLimited           = errors.New("too many attempts")

	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrConflict           = errors.New("conflicting write")
)

// storageError keeps the underlying error in the chain so callers can still inspect it.
func storageError(op string, err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
