package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles every endpoint group registered on the API router.
type Handlers struct {
	Terms         *TermHandler
	Sessions      *SessionHandler
	Attendance    *AttendanceHandler
	Notifications *NotificationHandler
	Conflicts     *ConflictHandler
	Students      *StudentHandler
	Teachers      *TeacherHandler
	Classes       *ClassHandler
	Payments      *PaymentHandler
	Settings      *SettingsHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes mounts all endpoint groups under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers) {
	api := r.Group(prefix)

	terms := api.Group("/terms")
	terms.GET("", h.Terms.List)
	terms.POST("/resolve", h.Terms.Resolve)
	terms.GET("/:id", h.Terms.Get)
	terms.DELETE("/:id", h.Terms.Delete)
	terms.GET("/:id/renewal-eligibility", h.Notifications.RenewalEligibility)
	terms.POST("/:id/renewal-sent", h.Notifications.MarkRenewalSent)
	terms.GET("/:id/closure-banner", h.Notifications.ClosureBanner)
	terms.POST("/:id/closure-shown", h.Notifications.MarkClosureShown)

	sessions := api.Group("/sessions")
	sessions.GET("", h.Sessions.List)
	sessions.POST("", h.Sessions.Create)
	sessions.GET("/:id", h.Sessions.Get)
	sessions.PUT("/:id", h.Sessions.Update)
	sessions.DELETE("/:id", h.Sessions.Delete)

	attendance := api.Group("/attendance")
	attendance.GET("", h.Attendance.List)
	attendance.POST("", h.Attendance.Record)
	attendance.DELETE("", h.Attendance.Delete)

	conflicts := api.Group("/conflicts")
	conflicts.GET("/slot-taken", h.Conflicts.SlotTaken)
	conflicts.GET("/student", h.Conflicts.StudentConflict)
	conflicts.GET("/teacher", h.Conflicts.TeacherConflict)

	students := api.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Deactivate)

	teachers := api.Group("/teachers")
	teachers.GET("", h.Teachers.List)
	teachers.POST("", h.Teachers.Create)
	teachers.GET("/:id", h.Teachers.Get)
	teachers.PUT("/:id", h.Teachers.Update)
	teachers.DELETE("/:id", h.Teachers.Deactivate)

	classes := api.Group("/classes")
	classes.GET("", h.Classes.List)
	classes.POST("", h.Classes.Create)
	classes.GET("/:id", h.Classes.Get)
	classes.PUT("/:id", h.Classes.Update)
	classes.DELETE("/:id", h.Classes.Delete)

	payments := api.Group("/payments")
	payments.GET("", h.Payments.List)
	payments.POST("", h.Payments.Create)
	payments.DELETE("/:id", h.Payments.Delete)

	settings := api.Group("/settings")
	settings.GET("", h.Settings.List)
	settings.PUT("", h.Settings.Set)

	pricing := api.Group("/pricing-profiles")
	pricing.GET("", h.Settings.ListPricingProfiles)
	pricing.POST("", h.Settings.CreatePricingProfile)

	r.GET("/metrics", h.Metrics.Prometheus)
}
