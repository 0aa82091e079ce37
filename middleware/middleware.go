package middleware

import (
	"net/http"

	"github.com/ariebrainware/ayursutra-api/notification"
	"github.com/ariebrainware/ayursutra-api/scheduler"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	dbKey            = "db"
	schedulerKey     = "scheduler"
	notificationsKey = "notifications"
)

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Content-Type", "application/json")

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// DatabaseMiddleware makes db available to handlers through GetDB.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(dbKey, db)
		c.Next()
	}
}

// GetDB returns the request's database handle, or nil when none was injected.
func GetDB(c *gin.Context) *gorm.DB {
	v, ok := c.Get(dbKey)
	if !ok {
		return nil
	}
	db, _ := v.(*gorm.DB)
	return db
}

// SchedulerMiddleware makes the booking scheduler available through GetScheduler.
func SchedulerMiddleware(s *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(schedulerKey, s)
		c.Next()
	}
}

func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	v, ok := c.Get(schedulerKey)
	if !ok {
		return nil
	}
	s, _ := v.(*scheduler.Scheduler)
	return s
}

// NotificationMiddleware makes the notification service available through GetNotifications.
func NotificationMiddleware(svc *notification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(notificationsKey, svc)
		c.Next()
	}
}

func GetNotifications(c *gin.Context) *notification.Service {
	v, ok := c.Get(notificationsKey)
	if !ok {
		return nil
	}
	svc, _ := v.(*notification.Service)
	return svc
}
