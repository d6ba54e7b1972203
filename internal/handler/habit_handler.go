package handler

import (
	"errors"
	"net/http"

	"github.com/controla/internal/model"
	"github.com/controla/internal/service"
	"github.com/controla/internal/store"
	"github.com/controla/internal/tracker"
	"github.com/gin-gonic/gin"
)

type habitPayload struct {
	Name string `json:"name"`
}

// ListHabits 返回习惯列表 JSON
func (a *API) ListHabits(c *gin.Context) {
	habits, err := a.habits.List(c.Request.Context(), currentSession(c))
	if err != nil {
		handleHabitError(c, err)
		return
	}
	if habits == nil {
		habits = []model.Habit{}
	}

	c.JSON(http.StatusOK, gin.H{"habits": habits})
}

// CreateHabit 创建习惯
func (a *API) CreateHabit(c *gin.Context) {
	var payload habitPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	habit, err := a.habits.Create(c.Request.Context(), currentSession(c), payload.Name)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"habit": habit})
}

// CompleteHabit 今日打卡；同一天重复打卡返回 applied=false
func (a *API) CompleteHabit(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid habit id")
		return
	}

	outcome, habit, err := a.habits.Complete(c.Request.Context(), currentSession(c), id)
	if err != nil {
		handleHabitError(c, err)
		return
	}
	if outcome == tracker.NotFound {
		respondError(c, http.StatusNotFound, "habit not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applied": outcome == tracker.Applied,
		"habit":   habit,
	})
}

// DeleteHabit 删除习惯
func (a *API) DeleteHabit(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid habit id")
		return
	}

	if err := a.habits.Delete(c.Request.Context(), currentSession(c), id); err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func handleHabitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyName):
		respondError(c, http.StatusBadRequest, service.ErrEmptyName.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, "habit not found")
	case errors.Is(err, tracker.ErrConflict):
		respondError(c, http.StatusConflict, "habit was updated concurrently, try again")
	default:
		if !respondCommonError(c, err) {
			respondInternal(c, err, "habit operation failed")
		}
	}
}
