package model

import "time"

// Therapy represents a treatment offering with a fixed duration
// @Description Therapy information
type Therapy struct {
	Base
	Name            string  `json:"name" gorm:"column:name;size:191;not null" example:"Abhyanga"`
	Description     *string `json:"description" gorm:"column:description;type:text" example:"Full body oil massage"`
	DurationMinutes int     `json:"durationMinutes" gorm:"column:duration_minutes;not null" example:"60"`
	PrecautionsPre  *string `json:"precautionsPre" gorm:"column:precautions_pre;type:text" example:"Light meal 2 hours before"`
	PrecautionsPost *string `json:"precautionsPost" gorm:"column:precautions_post;type:text" example:"Warm water bath after 1 hour"`
}

// Duration returns the therapy length as a time.Duration.
func (t Therapy) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}
