package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/controla/internal/model"
	"github.com/controla/internal/service"
	"github.com/controla/internal/tracker"
	"github.com/gin-gonic/gin"
)

type reminderPayload struct {
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
}

func (a *API) ListReminders(c *gin.Context) {
	reminders, err := a.reminders.List(c.Request.Context(), currentSession(c))
	if err != nil {
		handleReminderError(c, err)
		return
	}
	if reminders == nil {
		reminders = []model.Reminder{}
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

// CreateReminder 创建提醒；未给出日期时使用今天
func (a *API) CreateReminder(c *gin.Context) {
	var payload reminderPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	due := strings.TrimSpace(payload.DueDate)
	if due == "" {
		due = tracker.FormatDate(a.habits.Today())
	}

	reminder, err := a.reminders.Create(c.Request.Context(), currentSession(c), payload.Title, due)
	if err != nil {
		handleReminderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reminder": reminder})
}

func (a *API) DeleteReminder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid reminder id")
		return
	}

	if err := a.reminders.Delete(c.Request.Context(), currentSession(c), id); err != nil {
		handleReminderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func handleReminderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyTitle):
		respondError(c, http.StatusBadRequest, service.ErrEmptyTitle.Error())
	case errors.Is(err, service.ErrInvalidDate):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		if !respondCommonError(c, err) {
			respondInternal(c, err, "reminder operation failed")
		}
	}
}
