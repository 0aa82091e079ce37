package model

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Patient{},
		&Practitioner{},
		&Therapy{},
		&Session{},
		&Notification{},
		&AuditLog{},
	}
}
