package model

import "time"

type NotificationChannel string

const (
	ChannelInApp NotificationChannel = "IN_APP"
	ChannelEmail NotificationChannel = "EMAIL"
	ChannelSMS   NotificationChannel = "SMS"
)

type NotificationType string

const (
	NotificationPre      NotificationType = "PRE"
	NotificationPost     NotificationType = "POST"
	NotificationReminder NotificationType = "REMINDER"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "PENDING"
	StatusSent    NotificationStatus = "SENT"
)

// Notification is a message queued for a patient, usually about a session
// @Description Notification information
type Notification struct {
	Base
	PatientID string              `json:"patientId" gorm:"column:patient_id;size:64;not null;index"`
	SessionID *string             `json:"sessionId" gorm:"column:session_id;size:36;index"`
	Channel   NotificationChannel `json:"channel" gorm:"column:channel;size:16;not null"`
	Type      NotificationType    `json:"type" gorm:"column:type;size:16;not null"`
	Content   string              `json:"content" gorm:"column:content;type:text;not null"`
	Status    NotificationStatus  `json:"status" gorm:"column:status;size:16;not null;default:PENDING"`
	SentAt    *time.Time          `json:"sentAt" gorm:"column:sent_at"`
}
