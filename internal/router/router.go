package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/krono/backend/api/handler"
)

type Handlers struct {
	Auth      *apiHandler.AuthHandler
	Profile   *apiHandler.ProfileHandler
	Tracking  *apiHandler.TrackingHandler
	Task      *apiHandler.TaskHandler
	TaskType  *apiHandler.TaskTypeHandler
	Analytics *apiHandler.AnalyticsHandler
	Export    *apiHandler.ExportHandler
	Health    *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)
	r.POST("/api/v1/auth/logout", handlers.Auth.Logout)

	// Profile
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile", authMiddleware(handlers.Profile.UpdateProfile))

	// Tracking state machine. These must be registered before /tasks/{id}
	// so the literal segments win over the wildcard.
	r.GET("/api/v1/tasks/current", authMiddleware(handlers.Tracking.Current))
	r.POST("/api/v1/tasks/start", authMiddleware(handlers.Tracking.Start))
	r.POST("/api/v1/tasks/stop", authMiddleware(handlers.Tracking.Stop))
	r.POST("/api/v1/tasks/interrupt", authMiddleware(handlers.Tracking.Interrupt))
	r.POST("/api/v1/tasks/heartbeat", authMiddleware(handlers.Tracking.Heartbeat))

	// Task history and manual entries
	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	// Task type catalog
	r.GET("/api/v1/task-types", authMiddleware(handlers.TaskType.List))
	r.POST("/api/v1/task-types", authMiddleware(handlers.TaskType.Create))
	r.POST("/api/v1/task-types/reorder", authMiddleware(handlers.TaskType.Reorder))
	r.POST("/api/v1/task-types/provision", authMiddleware(handlers.TaskType.Provision))
	r.PUT("/api/v1/task-types/{id}", authMiddleware(handlers.TaskType.Update))
	r.POST("/api/v1/task-types/{id}/archive", authMiddleware(handlers.TaskType.Archive))
	r.POST("/api/v1/task-types/{id}/unarchive", authMiddleware(handlers.TaskType.Unarchive))
	r.POST("/api/v1/task-types/{id}/toggle-pin", authMiddleware(handlers.TaskType.TogglePin))

	// Analytics
	r.GET("/api/v1/analytics/today", authMiddleware(handlers.Analytics.Today))
	r.GET("/api/v1/analytics/daily", authMiddleware(handlers.Analytics.Daily))
	r.GET("/api/v1/analytics/weekly", authMiddleware(handlers.Analytics.Weekly))
	r.GET("/api/v1/analytics/range", authMiddleware(handlers.Analytics.Range))

	// Exports
	r.GET("/api/v1/exports/csv", authMiddleware(handlers.Export.Download))
	r.POST("/api/v1/exports/email", authMiddleware(handlers.Export.Email))
	r.GET("/api/v1/exports/schedules", authMiddleware(handlers.Export.ListSchedules))
	r.POST("/api/v1/exports/schedules", authMiddleware(handlers.Export.CreateSchedule))
	r.PUT("/api/v1/exports/schedules/{id}", authMiddleware(handlers.Export.UpdateSchedule))
	r.DELETE("/api/v1/exports/schedules/{id}", authMiddleware(handlers.Export.DeleteSchedule))

	return r
}
