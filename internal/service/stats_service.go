package service

import (
	"context"
	"fmt"

	"github.com/controla/internal/logger"
	"github.com/controla/internal/model"
	"github.com/controla/internal/store"
	"go.uber.org/zap"
)

// StatsCache 是可选的按用户统计缓存
// 每次失效推进用户的代数，读写都带上读取前取得的代数
type StatsCache interface {
	Generation(ctx context.Context, userID string) (int64, error)
	Get(ctx context.Context, userID string, gen int64) (model.Stats, bool, error)
	Set(ctx context.Context, userID string, gen int64, stats model.Stats) error
	Invalidate(ctx context.Context, userID string) error
}

// StatsService 汇总用户的习惯与提醒
type StatsService struct {
	habits    store.HabitStore
	reminders store.ReminderStore
	cache     StatsCache
}

// NewStatsService 构造 StatsService，cache 可以为 nil
func NewStatsService(habits store.HabitStore, reminders store.ReminderStore, cache StatsCache) *StatsService {
	return &StatsService{habits: habits, reminders: reminders, cache: cache}
}

// Get 返回用户统计；缓存错误只记录日志
func (s *StatsService) Get(ctx context.Context, sess model.Session) (model.Stats, error) {
	if !sess.Valid() {
		return model.Stats{}, ErrNotSignedIn
	}

	gen, cacheable := s.generation(ctx, sess.UserID)
	if cacheable {
		cached, ok, err := s.cache.Get(ctx, sess.UserID, gen)
		if err != nil {
			logger.Logger.Warn("stats cache read failed", zap.String("user_id", sess.UserID), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	habits, err := s.habits.ListHabits(ctx, sess)
	if err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}
	reminders, err := s.reminders.ListReminders(ctx, sess)
	if err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}

	stats := Summarize(habits, reminders)

	if cacheable {
		if err := s.cache.Set(ctx, sess.UserID, gen, stats); err != nil {
			logger.Logger.Warn("stats cache write failed", zap.String("user_id", sess.UserID), zap.Error(err))
		}
	}
	return stats, nil
}

// generation 在读取记录之前取得缓存代数；取不到时本次不走缓存
func (s *StatsService) generation(ctx context.Context, userID string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx, userID)
	if err != nil {
		logger.Logger.Warn("stats cache generation read failed", zap.String("user_id", userID), zap.Error(err))
		return 0, false
	}
	return gen, true
}

// Forget 使用户的统计缓存失效
func (s *StatsService) Forget(ctx context.Context, sess model.Session) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, sess.UserID); err != nil {
		logger.Logger.Warn("stats cache invalidation failed", zap.String("user_id", sess.UserID), zap.Error(err))
	}
}

// Summarize 根据完整的记录列表计算统计
func Summarize(habits []model.Habit, reminders []model.Reminder) model.Stats {
	stats := model.Stats{
		TotalHabits:    len(habits),
		TotalReminders: len(reminders),
	}
	for _, h := range habits {
		stats.TotalDone += h.TotalDone
		stats.BestStreak = max(stats.BestStreak, h.Streak)
	}
	return stats
}
