package model

import "time"

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Patient represents a patient of the clinic
// @Description Patient information
type Patient struct {
	Base
	FullName    string     `json:"fullName" gorm:"column:full_name;size:191;not null" example:"Priya Sharma"`
	DateOfBirth *time.Time `json:"dateOfBirth" gorm:"column:date_of_birth" example:"1990-04-12T00:00:00Z"`
	Gender      *Gender    `json:"gender" gorm:"column:gender;size:16" example:"FEMALE"`
	Phone       *string    `json:"phone" gorm:"column:phone;size:32" example:"+91-9876543210"`
	Email       *string    `json:"email" gorm:"column:email;size:191" example:"priya@example.com"`
	Notes       *string    `json:"notes" gorm:"column:notes;type:text" example:"Vata dominant"`
}
