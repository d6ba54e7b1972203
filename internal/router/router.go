package router

import (
	"net/http"

	"github.com/controla/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "controla_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger())

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/signup", api.Signup)
			authGroup.POST("/login", api.Login)
			authGroup.POST("/logout", api.Logout)
		}

		// 需要登录的路由
		protected := apiGroup.Group("")
		protected.Use(api.AuthRequired())
		{
			protected.GET("/me", api.Me)

			protected.GET("/habits", api.ListHabits)
			protected.POST("/habits", api.CreateHabit)
			protected.POST("/habits/:id/complete", api.CompleteHabit)
			protected.DELETE("/habits/:id", api.DeleteHabit)

			protected.GET("/reminders", api.ListReminders)
			protected.POST("/reminders", api.CreateReminder)
			protected.DELETE("/reminders/:id", api.DeleteReminder)

			protected.GET("/stats", api.GetStats)
		}
	}

	return r
}
