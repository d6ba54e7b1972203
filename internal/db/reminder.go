package db

import "time"

// Reminder 是带日期的提醒，DueDate 为 ISO 日期字符串，可直接按字典序排序
type Reminder struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"index:idx_reminders_user_due,priority:1;not null;size:36"`
	Title     string `gorm:"not null"`
	DueDate   string `gorm:"index:idx_reminders_user_due,priority:2;not null;size:10"`
	CreatedAt time.Time
}
