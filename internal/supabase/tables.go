package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/controla/internal/model"
	"github.com/controla/internal/store"
)

const (
	habitsPath     = "/rest/v1/habits"
	remindersPath  = "/rest/v1/reminders"
	habitColumns   = "id,name,streak,total_done,last_done_date"
	reminderColumn = "id,title,due_date"

	preferRepresentation = "return=representation"
)

func eq(value string) string {
	return "eq." + value
}

func ownedBy(sess model.Session, id int64) url.Values {
	return url.Values{
		"id":      {eq(strconv.FormatInt(id, 10))},
		"user_id": {eq(sess.UserID)},
	}
}

func (c *Client) ListHabits(ctx context.Context, sess model.Session) ([]model.Habit, error) {
	var habits []model.Habit
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   habitsPath,
		token:  sess.AccessToken,
		query: url.Values{
			"select":  {habitColumns},
			"user_id": {eq(sess.UserID)},
			"order":   {"id.desc"},
		},
	}, &habits); err != nil {
		return nil, unavailable("list habits", err)
	}
	if habits == nil {
		habits = []model.Habit{}
	}
	return habits, nil
}

func (c *Client) GetHabit(ctx context.Context, sess model.Session, id int64) (model.Habit, error) {
	query := ownedBy(sess, id)
	query.Set("select", habitColumns)
	query.Set("limit", "1")

	var rows []model.Habit
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   habitsPath,
		token:  sess.AccessToken,
		query:  query,
	}, &rows); err != nil {
		return model.Habit{}, unavailable("get habit", err)
	}
	if len(rows) == 0 {
		return model.Habit{}, store.ErrNotFound
	}
	return rows[0], nil
}

func (c *Client) CreateHabit(ctx context.Context, sess model.Session, name string) (model.Habit, error) {
	var rows []model.Habit
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   habitsPath,
		token:  sess.AccessToken,
		query:  url.Values{"select": {habitColumns}},
		prefer: preferRepresentation,
		body:   map[string]any{"user_id": sess.UserID, "name": name},
	}, &rows); err != nil {
		return model.Habit{}, unavailable("create habit", err)
	}
	if len(rows) == 0 {
		return model.Habit{}, unavailable("create habit", errors.New("no row returned"))
	}
	return rows[0], nil
}

func (c *Client) DeleteHabit(ctx context.Context, sess model.Session, id int64) error {
	if err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   habitsPath,
		token:  sess.AccessToken,
		query:  ownedBy(sess, id),
	}, nil); err != nil {
		return unavailable("delete habit", err)
	}
	return nil
}

// PutCompletion 以读取到的 last_done_date 作为 PATCH 条件并返回更新后的行
// 结果为空说明已被其他写入抢先
func (c *Client) PutCompletion(ctx context.Context, sess model.Session, id int64, prevLastDone string, next model.Habit) (bool, error) {
	query := ownedBy(sess, id)
	if prevLastDone == "" {
		query.Set("last_done_date", "is.null")
	} else {
		query.Set("last_done_date", eq(prevLastDone))
	}
	query.Set("select", "id")

	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   habitsPath,
		token:  sess.AccessToken,
		query:  query,
		prefer: preferRepresentation,
		body: map[string]any{
			"streak":         next.Streak,
			"total_done":     next.TotalDone,
			"last_done_date": next.LastDoneDate,
		},
	}, &rows); err != nil {
		return false, unavailable("save completion", err)
	}
	return len(rows) > 0, nil
}

func (c *Client) ListReminders(ctx context.Context, sess model.Session) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   remindersPath,
		token:  sess.AccessToken,
		query: url.Values{
			"select":  {reminderColumn},
			"user_id": {eq(sess.UserID)},
			"order":   {"due_date.asc,id.asc"},
		},
	}, &reminders); err != nil {
		return nil, unavailable("list reminders", err)
	}
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	return reminders, nil
}

func (c *Client) CreateReminder(ctx context.Context, sess model.Session, title, dueDate string) (model.Reminder, error) {
	var rows []model.Reminder
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   remindersPath,
		token:  sess.AccessToken,
		query:  url.Values{"select": {reminderColumn}},
		prefer: preferRepresentation,
		body:   map[string]any{"user_id": sess.UserID, "title": title, "due_date": dueDate},
	}, &rows); err != nil {
		return model.Reminder{}, unavailable("create reminder", err)
	}
	if len(rows) == 0 {
		return model.Reminder{}, unavailable("create reminder", errors.New("no row returned"))
	}
	return rows[0], nil
}

func (c *Client) DeleteReminder(ctx context.Context, sess model.Session, id int64) error {
	if err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   remindersPath,
		token:  sess.AccessToken,
		query:  ownedBy(sess, id),
	}, nil); err != nil {
		return unavailable("delete reminder", err)
	}
	return nil
}
