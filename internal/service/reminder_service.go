package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/controla/internal/model"
	"github.com/controla/internal/store"
	"github.com/controla/internal/tracker"
)

var (
	ErrEmptyTitle  = errors.New("reminder title cannot be empty")
	ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")
)

// ReminderService 管理提醒
type ReminderService struct {
	reminders store.ReminderStore
	stats     statsForgetter
}

func NewReminderService(reminders store.ReminderStore, stats statsForgetter) *ReminderService {
	return &ReminderService{reminders: reminders, stats: stats}
}

// List 按日期、id 升序返回提醒
func (s *ReminderService) List(ctx context.Context, sess model.Session) ([]model.Reminder, error) {
	if !sess.Valid() {
		return nil, ErrNotSignedIn
	}
	reminders, err := s.reminders.ListReminders(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// Create 保存提醒，dueDate 必须是 ISO 日期
func (s *ReminderService) Create(ctx context.Context, sess model.Session, title, dueDate string) (model.Reminder, error) {
	if !sess.Valid() {
		return model.Reminder{}, ErrNotSignedIn
	}

	clean := cleanText(title)
	if clean == "" {
		return model.Reminder{}, ErrEmptyTitle
	}

	due, err := tracker.NormalizeDate(strings.TrimSpace(dueDate))
	if err != nil {
		return model.Reminder{}, fmt.Errorf("%w: %q", ErrInvalidDate, dueDate)
	}

	reminder, err := s.reminders.CreateReminder(ctx, sess, clean, due)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	s.forget(ctx, sess)
	return reminder, nil
}

func (s *ReminderService) Delete(ctx context.Context, sess model.Session, id int64) error {
	if !sess.Valid() {
		return ErrNotSignedIn
	}
	if err := s.reminders.DeleteReminder(ctx, sess, id); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	s.forget(ctx, sess)
	return nil
}

func (s *ReminderService) forget(ctx context.Context, sess model.Session) {
	if s.stats != nil {
		s.stats.Forget(ctx, sess)
	}
}
