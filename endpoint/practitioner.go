package endpoint

import (
	"fmt"
	"net/http"

	"github.com/ariebrainware/ayursutra-api/model"
	"github.com/ariebrainware/ayursutra-api/util"
	"github.com/gin-gonic/gin"
)

type createPractitionerRequest struct {
	FullName  string  `json:"fullName" binding:"required" example:"Dr. Rajesh Kumar"`
	Specialty *string `json:"specialty" example:"Panchakarma"`
	Phone     *string `json:"phone" example:"+91-9876543211"`
	Email     *string `json:"email" binding:"omitempty,email" example:"dr.rajesh@example.com"`
}

type updatePractitionerRequest struct {
	FullName  *string `json:"fullName"`
	Specialty *string `json:"specialty"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email" binding:"omitempty,email"`
}

func ListPractitioners(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}
	practitioners := []model.Practitioner{}
	if err := db.WithContext(c.Request.Context()).Order("created_at DESC").Find(&practitioners).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve practitioners", Err: err})
		return
	}
	c.JSON(http.StatusOK, practitioners)
}

func GetPractitioner(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}
	var practitioner model.Practitioner
	if !findByID(c, db, &practitioner, "practitioner") {
		return
	}
	c.JSON(http.StatusOK, practitioner)
}

func CreatePractitioner(c *gin.Context) {
	var req createPractitionerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	req.FullName = util.NormalizeName(req.FullName)
	if req.FullName == "" {
		bindError(c, fmt.Errorf("fullName is required"))
		return
	}
	db, ok := requireDB(c)
	if !ok {
		return
	}

	practitioner := model.Practitioner{
		FullName:  req.FullName,
		Specialty: req.Specialty,
		Phone:     req.Phone,
		Email:     req.Email,
	}
	if err := db.WithContext(c.Request.Context()).Create(&practitioner).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create practitioner", Err: err})
		return
	}
	c.JSON(http.StatusCreated, practitioner)
}

func UpdatePractitioner(c *gin.Context) {
	var req updatePractitionerRequest
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

	var practitioner model.Practitioner
	if !findByID(c, db, &practitioner, "practitioner") {
		return
	}
	if req.FullName != nil {
		practitioner.FullName = util.NormalizeName(*req.FullName)
	}
	if req.Specialty != nil {
		practitioner.Specialty = req.Specialty
	}
	if req.Phone != nil {
		practitioner.Phone = req.Phone
	}
	if req.Email != nil {
		practitioner.Email = req.Email
	}

	if err := db.WithContext(c.Request.Context()).Save(&practitioner).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update practitioner", Err: err})
		return
	}
	c.JSON(http.StatusOK, practitioner)
}

func DeletePractitioner(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}
	if !deleteByID(c, db, &model.Practitioner{}, "practitioner") {
		return
	}
	c.Status(http.StatusNoContent)
}
