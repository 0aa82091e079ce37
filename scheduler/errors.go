package scheduler

import (
	"errors"
	"fmt"
)

// ErrLockTimeout is returned when the booking locks could not be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for booking lock")

// ErrTherapyInUse is returned when a change would break sessions that
// reference the therapy.
var ErrTherapyInUse = errors.New("therapy is in use")

// ValidationError reports a malformed or unknown input. Nothing was persisted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Reason)
}

// Party names who a conflicting booking belongs to.
type Party string

const (
	PartyPractitioner Party = "practitioner"
	PartyPatient      Party = "patient"
)

// ConflictError reports a valid request that would double-book a practitioner
// or a patient. Nothing was persisted.
type ConflictError struct {
	Party      Party
	SessionIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s unavailable", e.Party)
}

// NotFoundError reports an absent session or other referenced entity.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}
