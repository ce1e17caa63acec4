// Package services defines the business logic for the club directory and the
// chat recommendation pipeline. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrMissingFields is returned when a chat request omits the message or
	// the university name.
	ErrMissingFields = errors.New("message and university name are required")

	// ErrMessageTooLong is returned when the chat message exceeds the
	// configured rune cap.
	ErrMessageTooLong = errors.New("message too long")

	// ErrUniversityNotFound indicates the requested university does not exist.
	ErrUniversityNotFound = errors.New("university not found")

	// ErrClubNotFound indicates that the requested club does not exist or is
	// not accessible to the current user.
	ErrClubNotFound = errors.New("club not found")

	// ErrDuplicateClub is returned when a club with the same name already
	// exists at the university.
	ErrDuplicateClub = errors.New("club name already taken")

	// ErrInvalidClub is returned when club attributes fail validation
	// (empty name, non-positive member count, too many images).
	ErrInvalidClub = errors.New("invalid club attributes")

	// ErrDuplicateUser is returned when registration collides with an
	// existing account name or email.
	ErrDuplicateUser = errors.New("account already exists")

	// ErrInvalidCredentials is returned on login with an unknown name or a
	// wrong password. Deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRegistration is returned when registration input fails
	// validation (empty name/email/password, unknown university).
	ErrInvalidRegistration = errors.New("invalid registration")
)
