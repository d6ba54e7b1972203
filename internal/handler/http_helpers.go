package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/controla/internal/logger"
	"github.com/controla/internal/service"
	"github.com/controla/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, key string) (int64, error) {
	raw := c.Param(key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

// respondCommonError handles the errors every resource shares and reports whether it wrote
// a response. Backend failures carry the backend's own message.
func respondCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrNotSignedIn):
		respondError(c, http.StatusUnauthorized, "login required")
	case errors.Is(err, store.ErrUnavailable):
		logger.Logger.Error("backend failure",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		respondError(c, http.StatusBadGateway, err.Error())
	default:
		return false
	}
	return true
}

func respondInternal(c *gin.Context, err error, message string) {
	logger.Logger.Error(message,
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err),
	)
	respondError(c, http.StatusInternalServerError, message)
}
