// Package sqlstore 是基于 gorm 的后端，支持 sqlite 与 postgres
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/controla/internal/db"
	"github.com/controla/internal/model"
	"github.com/controla/internal/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Store 在 gorm 连接上实现 store.Backend
type Store struct {
	db *gorm.DB
}

var _ store.Backend = (*Store)(nil)

// New 包装已迁移的连接
// 开启 TranslateError，唯一约束冲突统一为 gorm.ErrDuplicatedKey
func New(gdb *gorm.DB) *Store {
	gdb.Config.TranslateError = true
	return &Store{db: gdb}
}

// Close 关闭底层连接池
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SignUp 创建本地用户，邮箱唯一性由 users.email 的唯一索引保证
func (s *Store) SignUp(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := db.User{ID: uuid.NewString(), Email: email, PasswordHash: string(hashed)}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return store.ErrEmailTaken
		}
		return unavailable("create user", err)
	}
	return nil
}

func (s *Store) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	var user db.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Session{}, store.ErrInvalidCredentials
		}
		return model.Session{}, unavailable("find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.Session{}, store.ErrInvalidCredentials
	}

	return model.Session{UserID: user.ID, Email: user.Email}, nil
}

// Refresh 本地会话不过期，也不携带 refresh token
func (s *Store) Refresh(context.Context, model.Session) (model.Session, error) {
	return model.Session{}, store.ErrSessionExpired
}

// SignOut 本地无需吊销
func (s *Store) SignOut(context.Context, model.Session) error {
	return nil
}

func (s *Store) ListHabits(ctx context.Context, sess model.Session) ([]model.Habit, error) {
	var rows []db.Habit
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", sess.UserID).
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, unavailable("list habits", err)
	}

	habits := make([]model.Habit, 0, len(rows))
	for _, row := range rows {
		habits = append(habits, habitFromRow(row))
	}
	return habits, nil
}

func (s *Store) GetHabit(ctx context.Context, sess model.Session, id int64) (model.Habit, error) {
	var row db.Habit
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, sess.UserID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Habit{}, store.ErrNotFound
		}
		return model.Habit{}, unavailable("get habit", err)
	}
	return habitFromRow(row), nil
}

func (s *Store) CreateHabit(ctx context.Context, sess model.Session, name string) (model.Habit, error) {
	row := db.Habit{UserID: sess.UserID, Name: name}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Habit{}, unavailable("create habit", err)
	}
	return habitFromRow(row), nil
}

func (s *Store) DeleteHabit(ctx context.Context, sess model.Session, id int64) error {
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, sess.UserID).
		Delete(&db.Habit{}).Error; err != nil {
		return unavailable("delete habit", err)
	}
	return nil
}

// PutCompletion 用一条以旧 last_done_date 为条件的 UPDATE 写入计数
// 并发完成时只有一个能生效
func (s *Store) PutCompletion(ctx context.Context, sess model.Session, id int64, prevLastDone string, next model.Habit) (bool, error) {
	query := s.db.WithContext(ctx).
		Model(&db.Habit{}).
		Where("id = ? AND user_id = ?", id, sess.UserID)
	if prevLastDone == "" {
		query = query.Where("(last_done_date IS NULL OR last_done_date = '')")
	} else {
		query = query.Where("last_done_date = ?", prevLastDone)
	}

	result := query.Updates(map[string]any{
		"streak":         next.Streak,
		"total_done":     next.TotalDone,
		"last_done_date": next.LastDoneDate,
	})
	if result.Error != nil {
		return false, unavailable("save completion", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *Store) ListReminders(ctx context.Context, sess model.Session) ([]model.Reminder, error) {
	var rows []db.Reminder
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", sess.UserID).
		Order("due_date ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, unavailable("list reminders", err)
	}

	reminders := make([]model.Reminder, 0, len(rows))
	for _, row := range rows {
		reminders = append(reminders, reminderFromRow(row))
	}
	return reminders, nil
}

func (s *Store) CreateReminder(ctx context.Context, sess model.Session, title, dueDate string) (model.Reminder, error) {
	row := db.Reminder{UserID: sess.UserID, Title: title, DueDate: dueDate}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Reminder{}, unavailable("create reminder", err)
	}
	return reminderFromRow(row), nil
}

func (s *Store) DeleteReminder(ctx context.Context, sess model.Session, id int64) error {
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, sess.UserID).
		Delete(&db.Reminder{}).Error; err != nil {
		return unavailable("delete reminder", err)
	}
	return nil
}

func habitFromRow(row db.Habit) model.Habit {
	h := model.Habit{
		ID:        row.ID,
		UserID:    row.UserID,
		Name:      row.Name,
		Streak:    row.Streak,
		TotalDone: row.TotalDone,
	}
	if row.LastDoneDate != nil {
		h.LastDoneDate = *row.LastDoneDate
	}
	return h
}

func reminderFromRow(row db.Reminder) model.Reminder {
	return model.Reminder{
		ID:      row.ID,
		UserID:  row.UserID,
		Title:   row.Title,
		DueDate: row.DueDate,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, store.ErrUnavailable, err)
}
