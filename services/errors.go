package services

import "errors"

// Shared errors mapped to HTTP responses by the handler layer.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrUserEmailConflict = errors.New("email address is already in use")

	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrHostActionOnly     = errors.New("only the tournament host can perform this action")

	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrSignupNotFound     = errors.New("signup not found")
	ErrRoomNotFound       = errors.New("match room not found")

	ErrRegistrationNotOpen = errors.New("tournament registration is not open")
	ErrSignupConflict      = errors.New("user is already signed up for this tournament")
	ErrTournamentNotLive   = errors.New("tournament is not currently playing")
	ErrInvalidStatusChange = errors.New("invalid tournament status transition")
)
