package util

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/ariebrainware/ayursutra-api/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEventType represents the kinds of events written to the audit trail
type AuditEventType string

const (
	EventEndpointCall      AuditEventType = "ENDPOINT_CALL"
	EventRateLimitExceeded AuditEventType = "RATE_LIMIT_EXCEEDED"
	EventSessionBooked     AuditEventType = "SESSION_BOOKED"
	EventSessionCancelled  AuditEventType = "SESSION_CANCELLED"
	EventBookingConflict   AuditEventType = "BOOKING_CONFLICT"
)

// AuditEvent represents an event to be logged
type AuditEvent struct {
	EventType AuditEventType
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

var auditDB *gorm.DB

// SetAuditLoggerDB sets a gorm DB instance used by the audit logger.
// Call this during application startup after DB initialization; nil disables persistence.
func SetAuditLoggerDB(db *gorm.DB) {
	auditDB = db
}

const maxLogValueRunes = 200

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	// Truncate very long values to prevent log flooding
	if utf8.RuneCountInString(value) > maxLogValueRunes {
		value = string([]rune(value)[:maxLogValueRunes]) + "..."
	}
	return value
}

// LogAuditEvent logs an audit event and persists it when a DB is set.
// Persistence is best-effort and never fails the caller.
func LogAuditEvent(event AuditEvent) {
	fields := []zap.Field{
		zap.String("event", sanitizeLogValue(string(event.EventType))),
		zap.String("ip", sanitizeLogValue(event.IP)),
		zap.String("user_agent", sanitizeLogValue(event.UserAgent)),
	}
	if len(event.Details) > 0 {
		// Details are persisted, only their count reaches the log line.
		fields = append(fields, zap.Int("details_count", len(event.Details)))
	}
	log := GetLogger().Named("audit")
	log.Info(sanitizeLogValue(event.Message), fields...)

	if auditDB == nil {
		return
	}
	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}
	entry := model.AuditLog{
		EventType: string(event.EventType),
		IP:        sanitizeLogValue(event.IP),
		UserAgent: sanitizeLogValue(event.UserAgent),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}
	if err := auditDB.Create(&entry).Error; err != nil {
		log.Warn("failed to persist audit event", zap.Error(err))
	}
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(ip, endpoint string) {
	LogAuditEvent(AuditEvent{
		EventType: EventRateLimitExceeded,
		IP:        ip,
		Message:   "Rate limit exceeded for endpoint: " + endpoint,
		Details:   map[string]interface{}{"endpoint": endpoint},
	})
}
