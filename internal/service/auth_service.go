package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/controla/internal/logger"
	"github.com/controla/internal/model"
	"github.com/controla/internal/store"
	"go.uber.org/zap"
)

var (
	ErrInvalidEmail  = errors.New("a valid email is required")
	ErrEmptyPassword = errors.New("password cannot be empty")
)

// SignUpMessage 注册成功后展示的提示
const SignUpMessage = "Account created. Check your email if confirmation is required."

// AuthService 校验凭据后交给后端处理
type AuthService struct {
	auth store.Authenticator
}

func NewAuthService(auth store.Authenticator) *AuthService {
	return &AuthService{auth: auth}
}

func (s *AuthService) SignUp(ctx context.Context, email, password string) (string, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return "", err
	}
	if err := s.auth.SignUp(ctx, email, password); err != nil {
		return "", fmt.Errorf("sign up: %w", err)
	}
	logger.Logger.Info("user signed up", zap.String("email", email))
	return SignUpMessage, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return model.Session{}, err
	}
	sess, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return model.Session{}, fmt.Errorf("sign in: %w", err)
	}
	logger.Logger.Info("user signed in", zap.String("user_id", sess.UserID))
	return sess, nil
}

// Refresh 用 refresh token 为过期会话续期
// 没有 refresh token 的会话直接返回 store.ErrSessionExpired
func (s *AuthService) Refresh(ctx context.Context, sess model.Session) (model.Session, error) {
	if !sess.Valid() {
		return model.Session{}, ErrNotSignedIn
	}
	if sess.RefreshToken == "" {
		return model.Session{}, store.ErrSessionExpired
	}
	refreshed, err := s.auth.Refresh(ctx, sess)
	if err != nil {
		return model.Session{}, fmt.Errorf("refresh session: %w", err)
	}
	logger.Logger.Info("session refreshed", zap.String("user_id", refreshed.UserID))
	return refreshed, nil
}

func (s *AuthService) SignOut(ctx context.Context, sess model.Session) error {
	if !sess.Valid() {
		return nil
	}
	if err := s.auth.SignOut(ctx, sess); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	logger.Logger.Info("user signed out", zap.String("user_id", sess.UserID))
	return nil
}

func validateCredentials(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	if password == "" {
		return "", ErrEmptyPassword
	}
	return email, nil
}
