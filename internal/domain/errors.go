package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuthTimeout          = errors.New("authentication timeout")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistration         = errors.New("registration failed")
	ErrNotAuthenticated     = errors.New("user not authenticated")
	ErrFetch                = errors.New("fetch failed")
	ErrPersistence          = errors.New("persistence failed")

	// ErrSuperseded marks a sign-in whose result was overtaken by a newer
	// login, register or logout call.
	ErrSuperseded = errors.New("superseded by a newer session change")

	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email already in use")

	// ErrNetwork wraps transport failures where no response was received.
	ErrNetwork = errors.New("network connection failed")
)

// ScoringServiceError is returned when the scoring endpoint answers with a
// non-2xx status.
type ScoringServiceError struct {
	Status  int
	Message string
	Details string
}

func (e *ScoringServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("diagnostic service error: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("diagnostic service error: %d", e.Status)
}

func (e *ScoringServiceError) StatusCode() int { return e.Status }

// ResponseMessage and ResponseDetails expose the decoded error body.
func (e *ScoringServiceError) ResponseMessage() string { return e.Message }
func (e *ScoringServiceError) ResponseDetails() string { return e.Details }
