// Package repository defines the storage boundary used by the scheduler and the
// notification dispatcher, with a gorm implementation and an in-memory one.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ariebrainware/ayursutra-api/model"
)

// ErrNotFound is wrapped by every repository when a record does not exist.
var ErrNotFound = errors.New("record not found")

// OverlapQuery selects sessions of one party whose interval intersects [Start, End].
// Exactly one of PatientID and PractitionerID is set.
type OverlapQuery struct {
	PatientID      string
	PractitionerID string
	Start          time.Time
	End            time.Time
}

// SessionFilter narrows session listings. Empty fields match everything.
type SessionFilter struct {
	PatientID      string
	PractitionerID string
}

type SessionRepository interface {
	Overlapping(ctx context.Context, q OverlapQuery) ([]model.Session, error)
	Create(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	List(ctx context.Context, f SessionFilter) ([]model.Session, error)
	Delete(ctx context.Context, id string) error
	CountByTherapy(ctx context.Context, therapyID string) (int64, error)
	// LockTherapy reads a therapy and, inside Atomically, holds it against
	// concurrent edits until the scope ends. Bookings and therapy edits lock
	// the same row, so a booking never lands on a deleted or resized therapy.
	LockTherapy(ctx context.Context, id string) (*model.Therapy, error)
	SaveTherapy(ctx context.Context, t *model.Therapy) error
	DeleteTherapy(ctx context.Context, id string) error
	// Atomically runs fn against a repository whose reads and writes commit
	// together, or not at all when fn returns an error.
	Atomically(ctx context.Context, fn func(repo SessionRepository) error) error
}

type TherapyRepository interface {
	Get(ctx context.Context, id string) (*model.Therapy, error)
}

// NotificationFilter narrows notification listings. Empty fields match everything.
type NotificationFilter struct {
	PatientID string
	SessionID string
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	CreateMany(ctx context.Context, ns []model.Notification) error
	List(ctx context.Context, f NotificationFilter) ([]model.Notification, error)
}
