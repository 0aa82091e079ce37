package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ariebrainware/ayursutra-api/repository"
	"github.com/ariebrainware/ayursutra-api/scheduler"
	"github.com/ariebrainware/ayursutra-api/util"
	"github.com/gin-gonic/gin"
)

type scheduleSessionRequest struct {
	PatientID      string `json:"patientId" binding:"required" example:"6f1c2a9e-1111-4c1e-9d61-2a1b3c4d5e6f"`
	PractitionerID string `json:"practitionerId" binding:"required" example:"7a2d3b0f-2222-4c1e-9d61-2a1b3c4d5e6f"`
	TherapyID      string `json:"therapyId" binding:"required" example:"8b3e4c1a-3333-4c1e-9d61-2a1b3c4d5e6f"`
	StartTime      string `json:"startTime" binding:"required" example:"2024-01-01T09:00:00Z"`
}

var conflictMessages = map[scheduler.Party]string{
	scheduler.PartyPractitioner: "Practitioner has a conflict",
	scheduler.PartyPatient:      "Patient has a conflict",
}

// ScheduleSession books a session after checking both parties for overlaps.
func ScheduleSession(c *gin.Context) {
	var req scheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "startTime must be an RFC 3339 timestamp",
			Err: fmt.Errorf("invalid startTime"),
		})
		return
	}

	s, ok := requireScheduler(c)
	if !ok {
		return
	}

	session, err := s.ScheduleSession(c.Request.Context(), req.PatientID, req.PractitionerID, req.TherapyID, start)
	if err != nil {
		respondSchedulerError(c, err, "Failed to schedule session")
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventSessionBooked,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "Session booked",
		Details: map[string]interface{}{
			"sessionId":      session.ID,
			"patientId":      session.PatientID,
			"practitionerId": session.PractitionerID,
		},
	})
	c.JSON(http.StatusCreated, session)
}

func respondSchedulerError(c *gin.Context, err error, msg string) {
	var (
		validation *scheduler.ValidationError
		conflict   *scheduler.ConflictError
		missing    *scheduler.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid booking request",
			Err: errors.New(validation.Reason),
		})
	case errors.As(err, &conflict):
		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventBookingConflict,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   conflict.Error(),
			Details:   map[string]interface{}{"conflictingSessionIds": conflict.SessionIDs},
		})
		util.CallConflict(c, util.APIErrorParams{
			Msg: conflict.Error(),
			Err: errors.New(conflictMessages[conflict.Party]),
		})
	case errors.As(err, &missing):
		notFound(c, missing.Resource)
	case errors.Is(err, scheduler.ErrLockTimeout):
		util.CallServiceUnavailable(c, util.APIErrorParams{
			Msg: "Scheduling is busy, please retry",
			Err: err,
		})
	default:
		util.CallServerError(c, util.APIErrorParams{Msg: msg, Err: err})
	}
}

// ListSessions returns sessions by start time, optionally filtered by
// patientId and practitionerId query parameters.
func ListSessions(c *gin.Context) {
	s, ok := requireScheduler(c)
	if !ok {
		return
	}
	sessions, err := s.ListSessions(c.Request.Context(), repository.SessionFilter{
		PatientID:      c.Query("patientId"),
		PractitionerID: c.Query("practitionerId"),
	})
	if err != nil {
		respondSchedulerError(c, err, "Failed to retrieve sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func GetSession(c *gin.Context) {
	s, ok := requireScheduler(c)
	if !ok {
		return
	}
	session, err := s.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSchedulerError(c, err, "Failed to retrieve session")
		return
	}
	c.JSON(http.StatusOK, session)
}

// CancelSession deletes the session and frees its interval for both parties.
func CancelSession(c *gin.Context) {
	s, ok := requireScheduler(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := s.CancelSession(c.Request.Context(), id); err != nil {
		respondSchedulerError(c, err, "Failed to cancel session")
		return
	}
	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventSessionCancelled,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "Session cancelled",
		Details:   map[string]interface{}{"sessionId": id},
	})
	c.Status(http.StatusNoContent)
}
