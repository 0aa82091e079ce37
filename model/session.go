package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidTimeRange is returned when a session would not end strictly after it starts.
var ErrInvalidTimeRange = errors.New("invalid time range")

// Session represents one booked therapy for one patient with one practitioner
// @Description Session (booking) information
type Session struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	PatientID      string    `json:"patientId" gorm:"column:patient_id;size:64;not null;index:idx_sessions_patient_window,priority:1"`
	PractitionerID string    `json:"practitionerId" gorm:"column:practitioner_id;size:64;not null;index:idx_sessions_practitioner_window,priority:1"`
	TherapyID      string    `json:"therapyId" gorm:"column:therapy_id;size:36;not null;index"`
	StartTime      time.Time `json:"startTime" gorm:"column:start_time;not null;index:idx_sessions_patient_window,priority:2;index:idx_sessions_practitioner_window,priority:2"`
	EndTime        time.Time `json:"endTime" gorm:"column:end_time;not null;index:idx_sessions_patient_window,priority:3;index:idx_sessions_practitioner_window,priority:3"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewSession builds a session for the therapy starting at start. The end time is
// derived from the therapy duration and must come strictly after start.
func NewSession(patientID, practitionerID string, therapy Therapy, start time.Time) (Session, error) {
	start = start.UTC()
	end := start.Add(therapy.Duration())
	if !start.Before(end) {
		return Session{}, ErrInvalidTimeRange
	}
	return Session{
		ID:             uuid.NewString(),
		PatientID:      patientID,
		PractitionerID: practitionerID,
		TherapyID:      therapy.ID,
		StartTime:      start,
		EndTime:        end,
	}, nil
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Overlaps reports whether the session's stored interval intersects [start, end].
// Both intervals are closed: a session ending exactly when the other begins overlaps it.
func (s Session) Overlaps(start, end time.Time) bool {
	return IntervalsOverlap(s.StartTime, s.EndTime, start, end)
}

// IntervalsOverlap is the closed-interval test a <= d && b >= c for [a,b] and [c,d].
func IntervalsOverlap(a, b, c, d time.Time) bool {
	return !a.After(d) && !b.Before(c)
}
