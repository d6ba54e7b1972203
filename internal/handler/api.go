package handler

import (
	"github.com/controla/internal/app"
	"github.com/controla/internal/service"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	auth      *service.AuthService
	habits    *service.HabitService
	reminders *service.ReminderService
	stats     *service.StatsService
}

// NewAPI constructs a handler set over the application's services.
func NewAPI(application *app.App) *API {
	return &API{
		auth:      application.Auth,
		habits:    application.Habits,
		reminders: application.Reminders,
		stats:     application.Stats,
	}
}
