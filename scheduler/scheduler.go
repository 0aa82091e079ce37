// Package scheduler books therapy sessions without double-booking a
// practitioner or a patient.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariebrainware/ayursutra-api/metrics"
	"github.com/ariebrainware/ayursutra-api/model"
	"github.com/ariebrainware/ayursutra-api/repository"
	"go.uber.org/zap"
)

// Publisher receives every successful booking. Publish must not block; delivery
// failures are the publisher's concern and never undo the booking.
type Publisher interface {
	Publish(session model.Session, therapy model.Therapy)
}

type Scheduler struct {
	sessions  repository.SessionRepository
	therapies repository.TherapyRepository
	locker    Locker
	lockWait  time.Duration
	publisher Publisher
	metrics   *metrics.BookingMetrics
	logger    *zap.Logger
}

type Option func(*Scheduler)

// WithLocker replaces the default in-process locker.
func WithLocker(l Locker) Option {
	return func(s *Scheduler) { s.locker = l }
}

// WithLockWait bounds how long a booking waits for its locks. Zero waits for
// as long as the request context allows.
func WithLockWait(d time.Duration) Option {
	return func(s *Scheduler) { s.lockWait = d }
}

func WithPublisher(p Publisher) Option {
	return func(s *Scheduler) { s.publisher = p }
}

func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

func New(sessions repository.SessionRepository, therapies repository.TherapyRepository, opts ...Option) *Scheduler {
	if sessions == nil || therapies == nil {
		panic("scheduler: session and therapy repositories required")
	}
	s := &Scheduler{
		sessions:  sessions,
		therapies: therapies,
		locker:    NewMemoryLocker(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleSession books therapyID for the patient with the practitioner starting
// at start. It returns a *ValidationError for unknown therapies or empty
// intervals and a *ConflictError when either party already has a session
// intersecting the closed interval [start, start+duration].
func (s *Scheduler) ScheduleSession(ctx context.Context, patientID, practitionerID, therapyID string, start time.Time) (*model.Session, error) {
	began := time.Now()
	session, err := s.scheduleSession(ctx, patientID, practitionerID, therapyID, start)
	s.metrics.ObserveBooking(bookingOutcome(err), time.Since(began).Seconds())
	return session, err
}

func (s *Scheduler) scheduleSession(ctx context.Context, patientID, practitionerID, therapyID string, start time.Time) (*model.Session, error) {
	patientID = strings.TrimSpace(patientID)
	practitionerID = strings.TrimSpace(practitionerID)
	switch {
	case patientID == "":
		return nil, &ValidationError{Reason: "patientId is required"}
	case practitionerID == "":
		return nil, &ValidationError{Reason: "practitionerId is required"}
	case strings.TrimSpace(therapyID) == "":
		return nil, &ValidationError{Reason: "therapyId is required"}
	}

	therapy, err := s.therapies.Get(ctx, therapyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &ValidationError{Reason: "unknown therapy"}
	}
	if err != nil {
		return nil, fmt.Errorf("lookup therapy: %w", err)
	}

	session, err := model.NewSession(patientID, practitionerID, *therapy, start)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	unlock, err := s.lock(ctx, practitionerID, patientID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.sessions.Atomically(ctx, func(repo repository.SessionRepository) error {
		// The therapy may have been deleted or resized since it was read above.
		locked, err := repo.LockTherapy(ctx, therapyID)
		if errors.Is(err, repository.ErrNotFound) {
			return &ValidationError{Reason: "unknown therapy"}
		}
		if err != nil {
			return err
		}
		if locked.DurationMinutes != therapy.DurationMinutes {
			if session, err = model.NewSession(patientID, practitionerID, *locked, start); err != nil {
				return &ValidationError{Reason: err.Error()}
			}
		}
		therapy = locked

		if err := checkAvailable(ctx, repo, PartyPractitioner, repository.OverlapQuery{
			PractitionerID: practitionerID,
			Start:          session.StartTime,
			End:            session.EndTime,
		}); err != nil {
			return err
		}
		if err := checkAvailable(ctx, repo, PartyPatient, repository.OverlapQuery{
			PatientID: patientID,
			Start:     session.StartTime,
			End:       session.EndTime,
		}); err != nil {
			return err
		}
		return repo.Create(ctx, &session)
	})
	if err != nil {
		if IsValidation(err) {
			return nil, err
		}
		if IsConflict(err) {
			s.logger.Info("booking rejected",
				zap.String("reason", err.Error()),
				zap.String("patient_id", patientID),
				zap.String("practitioner_id", practitionerID),
				zap.Time("start_time", session.StartTime))
			return nil, err
		}
		return nil, fmt.Errorf("book session: %w", err)
	}

	s.logger.Info("session booked",
		zap.String("session_id", session.ID),
		zap.String("patient_id", patientID),
		zap.String("practitioner_id", practitionerID),
		zap.String("therapy_id", therapy.ID),
		zap.Time("start_time", session.StartTime),
		zap.Time("end_time", session.EndTime))

	if s.publisher != nil {
		s.publisher.Publish(session, *therapy)
	}
	return &session, nil
}

func checkAvailable(ctx context.Context, repo repository.SessionRepository, party Party, q repository.OverlapQuery) error {
	conflicts, err := repo.Overlapping(ctx, q)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		ids = append(ids, c.ID)
	}
	return &ConflictError{Party: party, SessionIDs: ids}
}

func (s *Scheduler) lock(ctx context.Context, practitionerID, patientID string) (func(), error) {
	lockCtx := ctx
	if s.lockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.lockWait)
		defer cancel()
	}

	unlock, err := s.locker.Lock(lockCtx, "practitioner:"+practitionerID, "patient:"+patientID)
	if err != nil {
		// Only our own wait bound counts as a lock timeout; caller cancellation passes through.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("acquire booking lock: %w", err)
	}
	return unlock, nil
}

// ListSessions returns sessions ordered by start time, optionally narrowed to
// one patient and/or practitioner.
func (s *Scheduler) ListSessions(ctx context.Context, filter repository.SessionFilter) ([]model.Session, error) {
	return s.sessions.List(ctx, filter)
}

func (s *Scheduler) GetSession(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "session", ID: id}
	}
	return session, err
}

// CancelSession deletes the session. Other sessions are unaffected.
func (s *Scheduler) CancelSession(ctx context.Context, id string) error {
	err := s.sessions.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "session", ID: id}
	}
	if err != nil {
		return err
	}
	s.metrics.ObserveCancellation()
	s.logger.Info("session cancelled", zap.String("session_id", id))
	return nil
}

// UpdateTherapy applies apply to the stored therapy and saves it. A duration
// change on a therapy that sessions reference fails with ErrTherapyInUse,
// since their end times derive from it. Bookings of the same therapy wait for
// the update to commit.
func (s *Scheduler) UpdateTherapy(ctx context.Context, id string, apply func(t *model.Therapy)) (*model.Therapy, error) {
	var updated *model.Therapy
	err := s.sessions.Atomically(ctx, func(repo repository.SessionRepository) error {
		therapy, err := repo.LockTherapy(ctx, id)
		if err != nil {
			return err
		}
		duration := therapy.DurationMinutes
		apply(therapy)
		therapy.ID = id
		if therapy.DurationMinutes != duration {
			if err := ensureUnused(ctx, repo, id); err != nil {
				return err
			}
		}
		if err := repo.SaveTherapy(ctx, therapy); err != nil {
			return err
		}
		updated = therapy
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "therapy", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTherapy removes a therapy no session references.
func (s *Scheduler) DeleteTherapy(ctx context.Context, id string) error {
	err := s.sessions.Atomically(ctx, func(repo repository.SessionRepository) error {
		if _, err := repo.LockTherapy(ctx, id); err != nil {
			return err
		}
		if err := ensureUnused(ctx, repo, id); err != nil {
			return err
		}
		return repo.DeleteTherapy(ctx, id)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "therapy", ID: id}
	}
	return err
}

func ensureUnused(ctx context.Context, repo repository.SessionRepository, therapyID string) error {
	n, err := repo.CountByTherapy(ctx, therapyID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrTherapyInUse
	}
	return nil
}

func bookingOutcome(err error) string {
	var conflict *ConflictError
	switch {
	case err == nil:
		return metrics.OutcomeBooked
	case errors.As(err, &conflict) && conflict.Party == PartyPractitioner:
		return metrics.OutcomePractitionerConflict
	case errors.As(err, &conflict):
		return metrics.OutcomePatientConflict
	case IsValidation(err):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
