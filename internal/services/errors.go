package services

import (
	"net/http"

	apperrors "github.com/charlesng35/tarotgarden/pkg/errors"
)

var (
	// ErrUserIDRequired is returned when an operation needs an authenticated user.
	ErrUserIDRequired = apperrors.New("USER_ID_REQUIRED", "User id is required", http.StatusUnauthorized)
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrInvalidSubscription is returned for malformed entitlement updates.
	ErrInvalidSubscription = apperrors.New("SUBSCRIPTION_INVALID", "Invalid subscription payload", http.StatusBadRequest)
)
