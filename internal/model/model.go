// Package model 定义各后端与接口共用的记录类型
package model

import "time"

// Habit 是一个被追踪的习惯
// LastDoneDate 为 YYYY-MM-DD 日期，从未完成时为空
type Habit struct {
	ID           int64  `json:"id"`
	UserID       string `json:"user_id,omitempty"`
	Name         string `json:"name"`
	Streak       int    `json:"streak"`
	TotalDone    int    `json:"total_done"`
	LastDoneDate string `json:"last_done_date,omitempty"`
}

// Reminder 是创建后不可修改的带日期提醒
type Reminder struct {
	ID      int64  `json:"id"`
	UserID  string `json:"user_id,omitempty"`
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
}

// Stats 汇总用户的记录
type Stats struct {
	TotalHabits    int `json:"total_habits"`
	TotalDone      int `json:"total_done"`
	BestStreak     int `json:"best_streak"`
	TotalReminders int `json:"total_reminders"`
}

// Session 标识单次调用的登录用户
// 本地后端不填写 token 字段
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Valid 判断会话是否包含用户
func (s Session) Valid() bool {
	return s.UserID != ""
}

// Expired 判断会话是否带有且已超过过期时间
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
