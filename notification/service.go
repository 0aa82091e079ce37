// Package notification stores patient notifications: the PRE/POST pair created
// for every booking, explicit sends, and asynq-scheduled session reminders.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariebrainware/ayursutra-api/model"
	"github.com/ariebrainware/ayursutra-api/repository"
	"go.uber.org/zap"
)

const (
	DefaultPreContent  = "Pre-procedure precautions"
	DefaultPostContent = "Post-procedure care"
)

// ErrInvalidNotification is wrapped by Send when the parameters are unusable.
var ErrInvalidNotification = errors.New("invalid notification")

type SendParams struct {
	PatientID string
	SessionID *string
	Channel   model.NotificationChannel
	Type      model.NotificationType
	Content   string
}

type Service struct {
	repo   repository.NotificationRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo repository.NotificationRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Send stores a notification. IN_APP notifications are delivered by being
// stored, so they are SENT immediately; other channels stay PENDING until a
// provider picks them up.
func (s *Service) Send(ctx context.Context, p SendParams) (*model.Notification, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	n := model.Notification{
		PatientID: strings.TrimSpace(p.PatientID),
		SessionID: p.SessionID,
		Channel:   p.Channel,
		Type:      p.Type,
		Content:   p.Content,
		Status:    model.StatusPending,
	}
	if n.Channel == model.ChannelInApp {
		sentAt := s.now().UTC()
		n.Status = model.StatusSent
		n.SentAt = &sentAt
	}

	if err := s.repo.Create(ctx, &n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}
	s.logger.Info("notification stored",
		zap.String("notification_id", n.ID),
		zap.String("patient_id", n.PatientID),
		zap.String("channel", string(n.Channel)),
		zap.String("type", string(n.Type)),
		zap.String("status", string(n.Status)))
	return &n, nil
}

// List returns notifications newest first.
func (s *Service) List(ctx context.Context, f repository.NotificationFilter) ([]model.Notification, error) {
	return s.repo.List(ctx, f)
}

func validate(p SendParams) error {
	switch {
	case strings.TrimSpace(p.PatientID) == "":
		return fmt.Errorf("%w: patientId is required", ErrInvalidNotification)
	case strings.TrimSpace(p.Content) == "":
		return fmt.Errorf("%w: content is required", ErrInvalidNotification)
	}
	switch p.Channel {
	case model.ChannelInApp, model.ChannelEmail, model.ChannelSMS:
	default:
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidNotification, p.Channel)
	}
	switch p.Type {
	case model.NotificationPre, model.NotificationPost, model.NotificationReminder:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidNotification, p.Type)
	}
	return nil
}

// BookingNotifications builds the PENDING in-app PRE and POST notifications for
// a freshly booked session.
func BookingNotifications(session model.Session, therapy model.Therapy) []model.Notification {
	sessionID := session.ID
	pre, post := DefaultPreContent, DefaultPostContent
	if therapy.PrecautionsPre != nil && strings.TrimSpace(*therapy.PrecautionsPre) != "" {
		pre = *therapy.PrecautionsPre
	}
	if therapy.PrecautionsPost != nil && strings.TrimSpace(*therapy.PrecautionsPost) != "" {
		post = *therapy.PrecautionsPost
	}
	return []model.Notification{
		{
			PatientID: session.PatientID,
			SessionID: &sessionID,
			Channel:   model.ChannelInApp,
			Type:      model.NotificationPre,
			Content:   pre,
			Status:    model.StatusPending,
		},
		{
			PatientID: session.PatientID,
			SessionID: &sessionID,
			Channel:   model.ChannelInApp,
			Type:      model.NotificationPost,
			Content:   post,
			Status:    model.StatusPending,
		},
	}
}
