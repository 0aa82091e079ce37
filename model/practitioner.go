package model

// Practitioner represents a therapist or doctor who performs sessions
// @Description Practitioner information
type Practitioner struct {
	Base
	FullName  string  `json:"fullName" gorm:"column:full_name;size:191;not null" example:"Dr. Rajesh Kumar"`
	Specialty *string `json:"specialty" gorm:"column:specialty;size:191" example:"Panchakarma"`
	Phone     *string `json:"phone" gorm:"column:phone;size:32" example:"+91-9876543211"`
	Email     *string `json:"email" gorm:"column:email;size:191" example:"dr.rajesh@example.com"`
}
