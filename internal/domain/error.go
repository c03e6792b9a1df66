package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrDraftNotFound      = errors.New("registration draft not found")
	ErrSessionNotFound    = errors.New("portal session not found")
	ErrUnknownField       = errors.New("unknown field for this member type")
	ErrSubmitInFlight     = errors.New("a submission is already in progress")
	ErrAlreadySubmitted   = errors.New("draft already submitted")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
