package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/controla/internal/model"
	"github.com/controla/internal/store"
	"github.com/controla/internal/supabase"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "controla"
	keyringUser    = "session"
)

var (
	// ErrNotLoggedIn 在没有保存会话时返回
	ErrNotLoggedIn = errors.New("not logged in, run `controla login` first")
	// ErrSessionExpired 在会话过期且无法续期时返回
	ErrSessionExpired = errors.New("session expired, run `controla login` again")
)

// RefreshFunc 为过期会话续期
type RefreshFunc func(ctx context.Context, sess model.Session) (model.Session, error)

// SessionStore 把登录会话保存在系统钥匙串中
type SessionStore struct {
	now     func() time.Time
	refresh RefreshFunc
}

// NewSessionStore 构造 SessionStore，refresh 为 nil 时过期会话直接失效
func NewSessionStore(refresh RefreshFunc) *SessionStore {
	return &SessionStore{now: time.Now, refresh: refresh}
}

// Save 以 JSON 保存 sess
func (s *SessionStore) Save(sess model.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := keyring.Set(keyringService, keyringUser, string(raw)); err != nil {
		return fmt.Errorf("failed to store session in keyring: %w", err)
	}
	return nil
}

// Load 返回已保存的会话
// 携带 access token 的会话按 token 的 exp 判断是否过期，过期时尝试续期并写回钥匙串
func (s *SessionStore) Load(ctx context.Context) (model.Session, error) {
	raw, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return model.Session{}, ErrNotLoggedIn
		}
		return model.Session{}, fmt.Errorf("read session from keyring: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || !sess.Valid() {
		return model.Session{}, ErrNotLoggedIn
	}

	if sess.AccessToken != "" {
		if exp, err := supabase.TokenExpiry(sess.AccessToken); err == nil && !exp.IsZero() {
			sess.ExpiresAt = exp
		}
	}
	if sess.Expired(s.now()) {
		return s.renew(ctx, sess)
	}
	return sess, nil
}

func (s *SessionStore) renew(ctx context.Context, sess model.Session) (model.Session, error) {
	if s.refresh == nil || sess.RefreshToken == "" {
		return model.Session{}, ErrSessionExpired
	}

	refreshed, err := s.refresh(ctx, sess)
	if err != nil {
		if errors.Is(err, store.ErrSessionExpired) {
			return model.Session{}, ErrSessionExpired
		}
		return model.Session{}, err
	}
	if refreshed.Expired(s.now()) {
		return model.Session{}, ErrSessionExpired
	}

	if err := s.Save(refreshed); err != nil {
		return model.Session{}, err
	}
	return refreshed, nil
}

// Delete 删除已保存的会话，会话不存在不视为错误
func (s *SessionStore) Delete() error {
	if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete session from keyring: %w", err)
	}
	return nil
}
