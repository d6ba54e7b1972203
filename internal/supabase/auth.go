package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/controla/internal/model"
	"github.com/controla/internal/store"
	"github.com/golang-jwt/jwt/v5"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	User         authUser `json:"user"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) error {
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentials{Email: email, Password: password},
	}, nil)
	if err == nil {
		return nil
	}

	var status *statusError
	if errors.As(err, &status) && isAlreadyRegistered(status) {
		return store.ErrEmailTaken
	}
	return unavailable("sign up", err)
}

// SignIn 用邮箱密码换取会话
// 只有 GoTrue 明确判定凭据错误时返回 ErrInvalidCredentials，其余错误原样透出
func (c *Client) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	var token tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
	}, &token)
	if err != nil {
		var status *statusError
		if errors.As(err, &status) && isInvalidCredentials(status) {
			return model.Session{}, store.ErrInvalidCredentials
		}
		return model.Session{}, unavailable("sign in", err)
	}

	return sessionFromToken("sign in", token, model.Session{Email: email})
}

// Refresh 使用 refresh token 换取新的 access token
func (c *Client) Refresh(ctx context.Context, sess model.Session) (model.Session, error) {
	if strings.TrimSpace(sess.RefreshToken) == "" {
		return model.Session{}, store.ErrSessionExpired
	}

	var token tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   refreshRequest{RefreshToken: sess.RefreshToken},
	}, &token)
	if err != nil {
		var status *statusError
		if errors.As(err, &status) && (status.Status == http.StatusBadRequest || status.Status == http.StatusUnauthorized) {
			return model.Session{}, fmt.Errorf("%w: %s", store.ErrSessionExpired, status.Text)
		}
		return model.Session{}, unavailable("refresh session", err)
	}

	return sessionFromToken("refresh session", token, sess)
}

// SignOut 在服务端吊销会话的 refresh token
func (c *Client) SignOut(ctx context.Context, sess model.Session) error {
	if sess.AccessToken == "" {
		return nil
	}
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  sess.AccessToken,
	}, nil); err != nil {
		return unavailable("sign out", err)
	}
	return nil
}

// TokenExpiry 读取 access token 的 exp 声明，不校验签名
// 返回零值表示 token 没有过期时间
func TokenExpiry(accessToken string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// sessionFromToken 把 token 响应转换为会话，缺失的用户字段取自 fallback
func sessionFromToken(op string, token tokenResponse, fallback model.Session) (model.Session, error) {
	userID := strings.TrimSpace(token.User.ID)
	if userID == "" {
		userID = fallback.UserID
	}
	if userID == "" {
		return model.Session{}, fmt.Errorf("%s: response carried no user id", op)
	}

	email := token.User.Email
	if email == "" {
		email = fallback.Email
	}

	return model.Session{
		UserID:       userID,
		Email:        email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    sessionExpiry(token, time.Now()),
	}, nil
}

func sessionExpiry(token tokenResponse, now time.Time) time.Time {
	if token.ExpiresAt > 0 {
		return time.Unix(token.ExpiresAt, 0)
	}
	if exp, err := TokenExpiry(token.AccessToken); err == nil && !exp.IsZero() {
		return exp
	}
	if token.ExpiresIn > 0 {
		return now.Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

// isInvalidCredentials 识别账号或密码错误
// 旧版 GoTrue 的 invalid_grant 也用于邮箱未确认，需要结合提示文本判断
func isInvalidCredentials(err *statusError) bool {
	switch err.Code {
	case "invalid_credentials":
		return true
	case "invalid_grant":
		return strings.Contains(strings.ToLower(err.Text), "invalid login credentials")
	}
	return false
}

func isAlreadyRegistered(err *statusError) bool {
	if err.Code == "user_already_exists" || err.Code == "email_exists" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Text), "already registered")
}
