package db

import "time"

// Habit 存储单个习惯的完成计数
// LastDoneDate 为 ISO 日期字符串，NULL 表示从未完成
// 记录直接删除，不使用 DeletedAt
type Habit struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	UserID       string `gorm:"index;not null;size:36"`
	Name         string `gorm:"not null"`
	Streak       int    `gorm:"not null;default:0"`
	TotalDone    int    `gorm:"not null;default:0"`
	LastDoneDate *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
