// Package tracker 负责记录习惯完成
//
// 同一日历日最多记一次完成。紧接上次完成的下一天完成会延续连续天数，
// 其他日期重新从 1 开始。累计次数每次加一。
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/controla/internal/logger"
	"github.com/controla/internal/model"
	"github.com/controla/internal/store"
	"go.uber.org/zap"
)

// maxAttempts 限制 Tracker.Complete 中读取与比较交换的重试次数
const maxAttempts = 3

// ErrConflict 在每次比较交换都被并发写入抢先时返回
var ErrConflict = errors.New("habit changed concurrently, try again")

// Outcome 描述一次完成请求的结果
type Outcome int

const (
	NotFound Outcome = iota + 1
	AlreadyDone
	Applied
)

func (o Outcome) String() string {
	switch o {
	case NotFound:
		return "not_found"
	case AlreadyDone:
		return "already_done"
	case Applied:
		return "applied"
	default:
		return "unknown"
	}
}

// RecordStore 是 tracker 依赖的持久化接口
type RecordStore interface {
	// GetHabit 在习惯不属于 sess 时返回 store.ErrNotFound
	GetHabit(ctx context.Context, sess model.Session, id int64) (model.Habit, error)
	// PutCompletion 仅在存储的 last_done_date 仍等于 prevLastDone 时写入 next 的计数
	// 返回是否写入了记录
	PutCompletion(ctx context.Context, sess model.Session, id int64, prevLastDone string, next model.Habit) (bool, error)
}

// Complete 在 today 对 h 记一次完成
// 当天已完成时原样返回 h 和 false
func Complete(h model.Habit, today time.Time) (model.Habit, bool) {
	day := normalizeToDate(today)
	todayISO := FormatDate(day)
	if h.LastDoneDate == todayISO {
		return h, false
	}

	next := h
	next.Streak = 1
	if h.LastDoneDate != "" {
		if last, err := ParseDate(h.LastDoneDate); err == nil && FormatDate(last) == FormatDate(day.AddDate(0, 0, -1)) {
			next.Streak = h.Streak + 1
		}
	}
	next.TotalDone = h.TotalDone + 1
	next.LastDoneDate = todayISO

	return next, true
}

// Tracker 基于 RecordStore 执行完成操作
type Tracker struct {
	store RecordStore
}

// New 构造 Tracker
func New(records RecordStore) *Tracker {
	return &Tracker{store: records}
}

// Complete 为会话用户把习惯 id 标记为 today 已完成
// 习惯不存在时返回 NotFound，不返回错误
func (t *Tracker) Complete(ctx context.Context, sess model.Session, id int64, today time.Time) (Outcome, model.Habit, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		current, err := t.store.GetHabit(ctx, sess, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return NotFound, model.Habit{}, nil
			}
			return 0, model.Habit{}, fmt.Errorf("load habit: %w", err)
		}

		next, applied := Complete(current, today)
		if !applied {
			return AlreadyDone, current, nil
		}
		warnIfBackdated(current, today)

		written, err := t.store.PutCompletion(ctx, sess, id, current.LastDoneDate, next)
		if err != nil {
			return 0, model.Habit{}, fmt.Errorf("save completion: %w", err)
		}
		if written {
			return Applied, next, nil
		}

		logger.Logger.Debug("habit completion lost compare-and-swap",
			zap.Int64("habit_id", id),
			zap.Int("attempt", attempt),
		)
	}

	return 0, model.Habit{}, ErrConflict
}

// 完成日期早于已记录日期时连续天数会被重置，这里只记录日志，不拒绝
func warnIfBackdated(h model.Habit, today time.Time) {
	last, err := ParseDate(h.LastDoneDate)
	if err != nil {
		return
	}
	if FormatDate(last) > FormatDate(normalizeToDate(today)) {
		logger.Logger.Warn("habit completed before its last completion date, streak reset",
			zap.Int64("habit_id", h.ID),
			zap.String("last_done_date", h.LastDoneDate),
			zap.String("today", FormatDate(today)),
		)
	}
}
