package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/controla/internal/logger"
	"github.com/controla/internal/model"
	"github.com/controla/internal/store"
	"github.com/controla/internal/tracker"
	"go.uber.org/zap"
)

var (
	// ErrEmptyName 在清洗后的习惯名称为空时返回
	ErrEmptyName = errors.New("habit name cannot be empty")
	// ErrNotSignedIn 在调用未携带用户时返回
	ErrNotSignedIn = errors.New("not signed in")
)

// statsForgetter 在数据变更后清除统计缓存
type statsForgetter interface {
	Forget(ctx context.Context, sess model.Session)
}

// HabitService 负责会话用户习惯的查询、创建、完成与删除
type HabitService struct {
	habits  store.HabitStore
	tracker *tracker.Tracker
	stats   statsForgetter
	loc     *time.Location
	now     func() time.Time
}

// NewHabitService 构造 HabitService，“今天”按 loc 时区计算
func NewHabitService(habits store.HabitStore, stats statsForgetter, loc *time.Location) *HabitService {
	if loc == nil {
		loc = time.Local
	}
	return &HabitService{
		habits:  habits,
		tracker: tracker.New(habits),
		stats:   stats,
		loc:     loc,
		now:     time.Now,
	}
}

// SetClock 替换时间源
func (s *HabitService) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Today 返回服务当前的日历日期
func (s *HabitService) Today() time.Time {
	return tracker.Today(s.now(), s.loc)
}

// List 返回用户的习惯，最新创建的在前
func (s *HabitService) List(ctx context.Context, sess model.Session) ([]model.Habit, error) {
	if !sess.Valid() {
		return nil, ErrNotSignedIn
	}
	habits, err := s.habits.ListHabits(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// Create 新建计数为零的习惯
func (s *HabitService) Create(ctx context.Context, sess model.Session, name string) (model.Habit, error) {
	if !sess.Valid() {
		return model.Habit{}, ErrNotSignedIn
	}

	clean := cleanText(name)
	if clean == "" {
		return model.Habit{}, ErrEmptyName
	}

	habit, err := s.habits.CreateHabit(ctx, sess, clean)
	if err != nil {
		return model.Habit{}, fmt.Errorf("create habit: %w", err)
	}
	s.forget(ctx, sess)

	logger.Logger.Info("habit created",
		zap.String("user_id", sess.UserID),
		zap.Int64("habit_id", habit.ID),
	)
	return habit, nil
}

// Complete 将习惯标记为今天已完成
// 不属于该用户的习惯返回 tracker.NotFound
func (s *HabitService) Complete(ctx context.Context, sess model.Session, id int64) (tracker.Outcome, model.Habit, error) {
	if !sess.Valid() {
		return 0, model.Habit{}, ErrNotSignedIn
	}

	outcome, habit, err := s.tracker.Complete(ctx, sess, id, s.Today())
	if err != nil {
		return 0, model.Habit{}, fmt.Errorf("complete habit: %w", err)
	}
	if outcome == tracker.Applied {
		s.forget(ctx, sess)
	}

	logger.Logger.Info("habit completion",
		zap.String("user_id", sess.UserID),
		zap.Int64("habit_id", id),
		zap.Stringer("outcome", outcome),
		zap.Int("streak", habit.Streak),
	)
	return outcome, habit, nil
}

// Delete 永久删除习惯，id 不存在不视为错误
func (s *HabitService) Delete(ctx context.Context, sess model.Session, id int64) error {
	if !sess.Valid() {
		return ErrNotSignedIn
	}
	if err := s.habits.DeleteHabit(ctx, sess, id); err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	s.forget(ctx, sess)
	return nil
}

func (s *HabitService) forget(ctx context.Context, sess model.Session) {
	if s.stats != nil {
		s.stats.Forget(ctx, sess)
	}
}
