package endpoint

import (
	"errors"
	"fmt"

	"github.com/ariebrainware/ayursutra-api/middleware"
	"github.com/ariebrainware/ayursutra-api/notification"
	"github.com/ariebrainware/ayursutra-api/scheduler"
	"github.com/ariebrainware/ayursutra-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errNotFound = errors.New("Not found")

func requireDB(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return nil, false
	}
	return db, true
}

func requireScheduler(c *gin.Context) (*scheduler.Scheduler, bool) {
	s := middleware.GetScheduler(c)
	if s == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Scheduler not available",
			Err: fmt.Errorf("scheduler is nil"),
		})
		return nil, false
	}
	return s, true
}

func requireNotifications(c *gin.Context) (*notification.Service, bool) {
	svc := middleware.GetNotifications(c)
	if svc == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Notification service not available",
			Err: fmt.Errorf("notification service is nil"),
		})
		return nil, false
	}
	return svc, true
}

func notFound(c *gin.Context, resource string) {
	util.CallErrorNotFound(c, util.APIErrorParams{
		Msg: resource + " not found",
		Err: errNotFound,
	})
}

// findByID loads the record into dest, writing the 404 or 500 response itself
// when it cannot.
func findByID(c *gin.Context, db *gorm.DB, dest interface{}, resource string) bool {
	err := db.WithContext(c.Request.Context()).First(dest, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		notFound(c, resource)
		return false
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve " + resource,
			Err: err,
		})
		return false
	}
	return true
}

// deleteByID hard deletes the record with the path id.
func deleteByID(c *gin.Context, db *gorm.DB, model interface{}, resource string) bool {
	result := db.WithContext(c.Request.Context()).Where("id = ?", c.Param("id")).Delete(model)
	if result.Error != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete " + resource,
			Err: result.Error,
		})
		return false
	}
	if result.RowsAffected == 0 {
		notFound(c, resource)
		return false
	}
	return true
}

func bindError(c *gin.Context, err error) {
	util.CallUserError(c, util.APIErrorParams{
		Msg: "Invalid request body",
		Err: err,
	})
}

// nonEmpty reports whether an optional string, when given, has content.
func nonEmpty(s *string) bool {
	return s == nil || util.NormalizeName(*s) != ""
}
