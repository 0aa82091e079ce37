package endpoint

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ariebrainware/ayursutra-api/model"
	"github.com/ariebrainware/ayursutra-api/scheduler"
	"github.com/ariebrainware/ayursutra-api/util"
	"github.com/gin-gonic/gin"
)

type createTherapyRequest struct {
	Name            string  `json:"name" binding:"required" example:"Abhyanga"`
	Description     *string `json:"description" example:"Full body oil massage"`
	DurationMinutes int     `json:"durationMinutes" binding:"required,gt=0" example:"60"`
	PrecautionsPre  *string `json:"precautionsPre" example:"Light meal 2 hours before"`
	PrecautionsPost *string `json:"precautionsPost" example:"Warm water bath after 1 hour"`
}

type updateTherapyRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	DurationMinutes *int    `json:"durationMinutes"`
	PrecautionsPre  *string `json:"precautionsPre"`
	PrecautionsPost *string `json:"precautionsPost"`
}

// ListTherapies returns every therapy, newest first.
func ListTherapies(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}
	therapies := []model.Therapy{}
	if err := db.WithContext(c.Request.Context()).Order("created_at DESC").Find(&therapies).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve therapies", Err: err})
		return
	}
	c.JSON(http.StatusOK, therapies)
}

func GetTherapy(c *gin.Context) {
	db, ok := requireDB(c)
	if !ok {
		return
	}
	var therapy model.Therapy
	if !findByID(c, db, &therapy, "therapy") {
		return
	}
	c.JSON(http.StatusOK, therapy)
}

func CreateTherapy(c *gin.Context) {
	var req createTherapyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if util.NormalizeName(req.Name) == "" {
		bindError(c, fmt.Errorf("name is required"))
		return
	}
	db, ok := requireDB(c)
	if !ok {
		return
	}

	therapy := model.Therapy{
		Name:            util.NormalizeName(req.Name),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PrecautionsPre:  req.PrecautionsPre,
		PrecautionsPost: req.PrecautionsPost,
	}
	if err := db.WithContext(c.Request.Context()).Create(&therapy).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create therapy", Err: err})
		return
	}
	c.JSON(http.StatusCreated, therapy)
}

// UpdateTherapy applies the given fields. The duration of a therapy that
// sessions already reference cannot change, since their end times derive from it.
func UpdateTherapy(c *gin.Context) {
	var req updateTherapyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !nonEmpty(req.Name) {
		bindError(c, fmt.Errorf("name must not be empty"))
		return
	}
	if req.DurationMinutes != nil && *req.DurationMinutes <= 0 {
		bindError(c, fmt.Errorf("durationMinutes must be positive"))
		return
	}
	s, ok := requireScheduler(c)
	if !ok {
		return
	}

	therapy, err := s.UpdateTherapy(c.Request.Context(), c.Param("id"), func(t *model.Therapy) {
		if req.DurationMinutes != nil {
			t.DurationMinutes = *req.DurationMinutes
		}
		if req.Name != nil {
			t.Name = util.NormalizeName(*req.Name)
		}
		if req.Description != nil {
			t.Description = req.Description
		}
		if req.PrecautionsPre != nil {
			t.PrecautionsPre = req.PrecautionsPre
		}
		if req.PrecautionsPost != nil {
			t.PrecautionsPost = req.PrecautionsPost
		}
	})
	if err != nil {
		respondTherapyError(c, err, "Therapy duration cannot change while sessions reference it", "Failed to update therapy")
		return
	}
	c.JSON(http.StatusOK, therapy)
}

// DeleteTherapy removes a therapy no session references.
func DeleteTherapy(c *gin.Context) {
	s, ok := requireScheduler(c)
	if !ok {
		return
	}
	if err := s.DeleteTherapy(c.Request.Context(), c.Param("id")); err != nil {
		respondTherapyError(c, err, "Therapy cannot be deleted while sessions reference it", "Failed to delete therapy")
		return
	}
	c.Status(http.StatusNoContent)
}

func respondTherapyError(c *gin.Context, err error, inUseMsg, failMsg string) {
	switch {
	case scheduler.IsNotFound(err):
		notFound(c, "therapy")
	case errors.Is(err, scheduler.ErrTherapyInUse):
		util.CallConflict(c, util.APIErrorParams{
			Msg: inUseMsg,
			Err: fmt.Errorf("Therapy is in use"),
		})
	default:
		util.CallServerError(c, util.APIErrorParams{Msg: failMsg, Err: err})
	}
}
