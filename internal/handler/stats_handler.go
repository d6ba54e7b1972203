package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStats 返回当前用户的汇总统计
func (a *API) GetStats(c *gin.Context) {
	stats, err := a.stats.Get(c.Request.Context(), currentSession(c))
	if err != nil {
		if !respondCommonError(c, err) {
			respondInternal(c, err, "failed to compute stats")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
