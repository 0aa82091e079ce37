package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/ayursutra-api/model"
	"github.com/ariebrainware/ayursutra-api/repository"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeSessionReminder = "session:reminder"

type ReminderPayload struct {
	SessionID   string    `json:"sessionId"`
	PatientID   string    `json:"patientId"`
	TherapyName string    `json:"therapyName"`
	StartTime   time.Time `json:"startTime"`
}

// NewReminderTask builds the asynq task that fires at fireAt. The task id is
// derived from the session so a session is never reminded twice.
func NewReminderTask(payload ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSessionReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID("reminder:" + payload.SessionID),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}

// Enqueuer is the part of *asynq.Client the reminder scheduler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type ReminderScheduler struct {
	client Enqueuer
	lead   time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewReminderScheduler(client Enqueuer, lead time.Duration, logger *zap.Logger) *ReminderScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderScheduler{client: client, lead: lead, logger: logger, now: time.Now}
}

// Schedule enqueues a reminder for lead before the session starts. It reports
// false without error when that instant has already passed.
func (r *ReminderScheduler) Schedule(ctx context.Context, session model.Session, therapy model.Therapy) (bool, error) {
	fireAt := session.StartTime.Add(-r.lead)
	if !fireAt.After(r.now()) {
		r.logger.Debug("reminder skipped, fire time already passed",
			zap.String("session_id", session.ID),
			zap.Time("fire_at", fireAt))
		return false, nil
	}

	task, opts, err := NewReminderTask(ReminderPayload{
		SessionID:   session.ID,
		PatientID:   session.PatientID,
		TherapyName: therapy.Name,
		StartTime:   session.StartTime,
	}, fireAt)
	if err != nil {
		return false, fmt.Errorf("build reminder task: %w", err)
	}

	info, err := r.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("enqueue reminder: %w", err)
	}
	r.logger.Info("reminder scheduled",
		zap.String("session_id", session.ID),
		zap.String("task_id", info.ID),
		zap.Time("fire_at", fireAt))
	return true, nil
}

// NewReminderHandler sends the REMINDER notification for a due task. Reminders
// for sessions cancelled in the meantime are discarded.
func NewReminderHandler(svc *Service, sessions repository.SessionRepository, logger *zap.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, task *asynq.Task) error {
		var p ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			return fmt.Errorf("decode reminder payload: %v: %w", err, asynq.SkipRetry)
		}

		if _, err := sessions.Get(ctx, p.SessionID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				logger.Info("reminder discarded, session cancelled", zap.String("session_id", p.SessionID))
				return nil
			}
			return fmt.Errorf("lookup session: %w", err)
		}

		sessionID := p.SessionID
		_, err := svc.Send(ctx, SendParams{
			PatientID: p.PatientID,
			SessionID: &sessionID,
			Channel:   model.ChannelInApp,
			Type:      model.NotificationReminder,
			Content:   reminderContent(p),
		})
		return err
	}
}

// NewReminderMux routes reminder tasks for an asynq server.
func NewReminderMux(svc *Service, sessions repository.SessionRepository, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSessionReminder, NewReminderHandler(svc, sessions, logger))
	return mux
}

func reminderContent(p ReminderPayload) string {
	name := p.TherapyName
	if name == "" {
		name = "therapy"
	}
	return fmt.Sprintf("Reminder: your %s session starts at %s", name, p.StartTime.UTC().Format(time.RFC3339))
}
