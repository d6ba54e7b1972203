package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/controla/internal/logger"
	"github.com/controla/internal/model"
	"github.com/controla/internal/service"
	"github.com/controla/internal/store"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionContextKey = "__session"
	userIDKey         = "user_id"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup 注册新用户
func (a *API) Signup(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	message, err := a.auth.SignUp(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// Login 校验凭据并写入会话
func (a *API) Login(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	sess, err := a.auth.SignIn(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	if err := saveSession(c, sess); err != nil {
		respondInternal(c, err, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userPayload(sess)})
}

// Logout 清除会话；后端登出失败只记录日志
func (a *API) Logout(c *gin.Context) {
	if sess, ok := loadSession(c); ok {
		if err := a.auth.SignOut(c.Request.Context(), sess); err != nil {
			logger.Logger.Warn("backend sign out failed", zap.String("user_id", sess.UserID), zap.Error(err))
		}
	}

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondInternal(c, err, "failed to clear session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me 返回当前登录用户
func (a *API) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": userPayload(currentSession(c))})
}

// AuthRequired rejects requests without a live session. Expired sessions holding a
// refresh token are renewed and written back to the cookie.
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadSession(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "login required")
			c.Abort()
			return
		}

		if sess.Expired(time.Now()) {
			refreshed, err := a.auth.Refresh(c.Request.Context(), sess)
			if err == nil && refreshed.Expired(time.Now()) {
				err = store.ErrSessionExpired
			}
			if err != nil {
				if errors.Is(err, store.ErrUnavailable) {
					respondCommonError(c, err)
					c.Abort()
					return
				}
				logger.Logger.Info("session expired", zap.String("user_id", sess.UserID), zap.Error(err))
				clearSession(c)
				respondError(c, http.StatusUnauthorized, "session expired, please log in again")
				c.Abort()
				return
			}
			if err := saveSession(c, refreshed); err != nil {
				respondInternal(c, err, "failed to save session")
				c.Abort()
				return
			}
			sess = refreshed
		}

		c.Set(sessionContextKey, sess)
		c.Set(userIDKey, sess.UserID)
		c.Next()
	}
}

// clearSession 清空 cookie 会话，保存失败只记录日志
func clearSession(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logger.Logger.Warn("failed to clear session", zap.Error(err))
	}
}

func saveSession(c *gin.Context, sess model.Session) error {
	session := sessions.Default(c)
	session.Set("user_id", sess.UserID)
	session.Set("email", sess.Email)
	session.Set("access_token", sess.AccessToken)
	session.Set("refresh_token", sess.RefreshToken)
	var expiresAt int64
	if !sess.ExpiresAt.IsZero() {
		expiresAt = sess.ExpiresAt.Unix()
	}
	session.Set("expires_at", expiresAt)
	return session.Save()
}

func loadSession(c *gin.Context) (model.Session, bool) {
	session := sessions.Default(c)
	userID, _ := session.Get("user_id").(string)
	if userID == "" {
		return model.Session{}, false
	}

	sess := model.Session{UserID: userID}
	sess.Email, _ = session.Get("email").(string)
	sess.AccessToken, _ = session.Get("access_token").(string)
	sess.RefreshToken, _ = session.Get("refresh_token").(string)
	if expiresAt, _ := session.Get("expires_at").(int64); expiresAt > 0 {
		sess.ExpiresAt = time.Unix(expiresAt, 0)
	}
	return sess, true
}

func currentSession(c *gin.Context) model.Session {
	if value, ok := c.Get(sessionContextKey); ok {
		if sess, ok := value.(model.Session); ok {
			return sess
		}
	}
	return model.Session{}
}

func userPayload(sess model.Session) gin.H {
	return gin.H{"id": sess.UserID, "email": sess.Email}
}

func handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrEmptyPassword):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, store.ErrInvalidCredentials.Error())
	case errors.Is(err, store.ErrEmailTaken):
		respondError(c, http.StatusConflict, store.ErrEmailTaken.Error())
	default:
		if !respondCommonError(c, err) {
			respondInternal(c, err, "authentication failed")
		}
	}
}
