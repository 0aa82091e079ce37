package endpoint

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API on r. scheduleLimit guards the booking
// endpoint and may be nil.
func RegisterRoutes(r gin.IRouter, scheduleLimit gin.HandlerFunc) {
	r.GET("/health", Health)

	api := r.Group("/api")

	sessions := api.Group("/sessions")
	if scheduleLimit != nil {
		sessions.POST("/schedule", scheduleLimit, ScheduleSession)
	} else {
		sessions.POST("/schedule", ScheduleSession)
	}
	sessions.GET("", ListSessions)
	sessions.GET("/:id", GetSession)
	sessions.DELETE("/:id", CancelSession)

	therapies := api.Group("/therapies")
	therapies.GET("", ListTherapies)
	therapies.GET("/:id", GetTherapy)
	therapies.POST("", CreateTherapy)
	therapies.PUT("/:id", UpdateTherapy)
	therapies.DELETE("/:id", DeleteTherapy)

	patients := api.Group("/patients")
	patients.GET("", ListPatients)
	patients.GET("/:id", GetPatient)
	patients.POST("", CreatePatient)
	patients.PUT("/:id", UpdatePatient)
	patients.DELETE("/:id", DeletePatient)

	practitioners := api.Group("/practitioners")
	practitioners.GET("", ListPractitioners)
	practitioners.GET("/:id", GetPractitioner)
	practitioners.POST("", CreatePractitioner)
	practitioners.PUT("/:id", UpdatePractitioner)
	practitioners.DELETE("/:id", DeletePractitioner)

	notifications := api.Group("/notifications")
	notifications.GET("", ListNotifications)
	notifications.POST("", SendNotification)
}
