package endpoint

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ariebrainware/ayursutra-api/model"
	"github.com/ariebrainware/ayursutra-api/util"
	"github.com/gin-gonic/gin"
)

type createPatientRequest struct {
	FullName    string        `json:"fullName" binding:"required" example:"Priya Sharma"`
	DateOfBirth *time.Time    `json:"dateOfBirth" example:"1990-04-12T00:00:00Z"`
	Gender      *model.Gender `json:"gender" binding:"omitempty,oneof=MALE FEMALE OTHER" example:"FEMALE"`
	Phone       *string       `json:"phone" example:"+91-9876543210"`
	Email       *string       `json:"email" binding:"omitempty,email" example:"priya@example.com"`
	Notes       *string       `json:"notes" example:"Vata dominant"`
}

type updatePatientRequest struct {
	FullName    *string       `json:"fullName"`
	DateOfBirth *time.Time    `json:"dateOfBirth"`
	Gender      *model.Gender `json:"gender" binding:"omitempty,oneof=MALE FEMALE OTHER"`
	Phone       *string       `json:"phone"`
	Email       *string       `json:"email" binding:"omitempty,email"`
	Notes       *string       `json:"notes"`
}

// ListPatients returns every patient, newest first.
func ListPatients(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}
	patients := []model.Patient{}
	if err := db.WithContext(c.Request.Context()).Order("created_at DESC").Find(&patients).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve patients", Err: err})
		return
	}
	c.JSON(http.StatusOK, patients)
}

func GetPatient(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}
	var patient model.Patient
	if !findByID(c, db, &patient, "patient") {
		return
	}
	c.JSON(http.StatusOK, patient)
}

func CreatePatient(c *gin.Context) {
	var req createPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	// Normalize full_name so whitespace variations do not produce distinct names
	req.FullName = util.NormalizeName(req.FullName)
	if req.FullName == "" {
		bindError(c, fmt.Errorf("fullName is required"))
		return
	}
	db, ok := requireDB(c)
	if !ok {
		return
	}

	patient := model.Patient{
		FullName:    req.FullName,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Phone:       req.Phone,
		Email:       req.Email,
		Notes:       req.Notes,
	}
	if err := db.WithContext(c.Request.Context()).Create(&patient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create patient", Err: err})
		return
	}
	c.JSON(http.StatusCreated, patient)
}

func UpdatePatient(c *gin.Context) {
	var req updatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !nonEmpty(req.FullName) {
		bindError(c, fmt.Errorf("fullName must not be empty"))
		return
	}
	db, ok := requireDB(c)
	if !ok {
		return
	}

	var patient model.Patient
	if !findByID(c, db, &patient, "patient") {
		return
	}
	if req.FullName != nil {
		patient.FullName = util.NormalizeName(*req.FullName)
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		patient.Gender = req.Gender
	}
	if req.Phone != nil {
		patient.Phone = req.Phone
	}
	if req.Email != nil {
		patient.Email = req.Email
	}
	if req.Notes != nil {
		patient.Notes = req.Notes
	}

	if err := db.WithContext(c.Request.Context()).Save(&patient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update patient", Err: err})
		return
	}
	c.JSON(http.StatusOK, patient)
}

func DeletePatient(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}
	if !deleteByID(c, db, &model.Patient{}, "patient") {
		return
	}
	c.Status(http.StatusNoContent)
}
