package endpoint

import (
	"errors"
	"net/http"

	"github.com/ariebrainware/ayursutra-api/model"
	"github.com/ariebrainware/ayursutra-api/notification"
	"github.com/ariebrainware/ayursutra-api/repository"
	"github.com/ariebrainware/ayursutra-api/util"
	"github.com/gin-gonic/gin"
)

type sendNotificationRequest struct {
	PatientID string                    `json:"patientId" binding:"required"`
	SessionID *string                   `json:"sessionId"`
	Channel   model.NotificationChannel `json:"channel" binding:"required,oneof=IN_APP EMAIL SMS"`
	Type      model.NotificationType    `json:"type" binding:"required,oneof=PRE POST REMINDER"`
	Content   string                    `json:"content" binding:"required"`
}

// ListNotifications returns notifications newest first, optionally filtered by
// patientId and sessionId query parameters.
func ListNotifications(c *gin.Context) {
	svc, ok := requireNotifications(c)
	if !ok {
		return
	}
	notifications, err := svc.List(c.Request.Context(), repository.NotificationFilter{
		PatientID: c.Query("patientId"),
		SessionID: c.Query("sessionId"),
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve notifications", Err: err})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// SendNotification stores a notification. IN_APP ones are marked sent at once.
func SendNotification(c *gin.Context) {
	var req sendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	svc, ok := requireNotifications(c)
	if !ok {
		return
	}

	n, err := svc.Send(c.Request.Context(), notification.SendParams{
		PatientID: req.PatientID,
		SessionID: req.SessionID,
		Channel:   req.Channel,
		Type:      req.Type,
		Content:   req.Content,
	})
	if errors.Is(err, notification.ErrInvalidNotification) {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid notification", Err: err})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to send notification", Err: err})
		return
	}
	c.JSON(http.StatusCreated, n)
}
