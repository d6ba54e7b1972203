package db

import "time"

// User 是本地注册的账号
// ID 使用 uuid 字符串，与托管后端的用户 id 形式一致
type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}
