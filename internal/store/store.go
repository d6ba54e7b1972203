// Package store 定义记录后端需要提供的能力
// 所有调用都只作用于传入会话所属的用户
package store

import (
	"context"
	"errors"

	"github.com/controla/internal/model"
)

var (
	// ErrNotFound 在记录不存在或不属于当前用户时返回
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable 包装后端自身的失败
	ErrUnavailable = errors.New("backend unavailable")
	// ErrInvalidCredentials 在邮箱不存在或密码错误时由 SignIn 返回
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken 在邮箱已注册时由 SignUp 返回
	ErrEmailTaken = errors.New("email already registered")
	// ErrSessionExpired 在会话无法续期时由 Refresh 返回
	ErrSessionExpired = errors.New("session expired")
)

// HabitStore 持久化习惯
type HabitStore interface {
	ListHabits(ctx context.Context, sess model.Session) ([]model.Habit, error)
	GetHabit(ctx context.Context, sess model.Session, id int64) (model.Habit, error)
	CreateHabit(ctx context.Context, sess model.Session, name string) (model.Habit, error)
	DeleteHabit(ctx context.Context, sess model.Session, id int64) error
	// PutCompletion 以 last_done_date 做比较并交换
	PutCompletion(ctx context.Context, sess model.Session, id int64, prevLastDone string, next model.Habit) (bool, error)
}

// ReminderStore 持久化提醒
type ReminderStore interface {
	ListReminders(ctx context.Context, sess model.Session) ([]model.Reminder, error)
	CreateReminder(ctx context.Context, sess model.Session, title, dueDate string) (model.Reminder, error)
	DeleteReminder(ctx context.Context, sess model.Session, id int64) error
}

// Authenticator 负责注册、登录、续期与登出
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password string) (model.Session, error)
	// Refresh 用会话中的 refresh token 换取新会话
	Refresh(ctx context.Context, sess model.Session) (model.Session, error)
	SignOut(ctx context.Context, sess model.Session) error
}

// Backend 是完整的记录后端
type Backend interface {
	Authenticator
	HabitStore
	ReminderStore
	Close() error
}
