package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/controla/internal/app"
	"github.com/controla/internal/db"
	"github.com/controla/internal/model"
	"github.com/controla/internal/store"
	"github.com/controla/internal/store/sqlstore"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupHandlerTestBackend(t *testing.T) *sqlstore.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	backend := sqlstore.New(gdb)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func newTestEngine(t *testing.T, backend store.Backend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := NewAPI(app.NewWithBackend(backend, nil, time.UTC))

	r := gin.New()
	r.Use(RequestLogger())
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))

	r.POST("/api/auth/signup", api.Signup)
	r.POST("/api/auth/login", api.Login)
	r.POST("/api/auth/logout", api.Logout)

	protected := r.Group("/api")
	protected.Use(api.AuthRequired())
	protected.GET("/me", api.Me)
	protected.GET("/habits", api.ListHabits)
	protected.POST("/habits", api.CreateHabit)
	protected.POST("/habits/:id/complete", api.CompleteHabit)
	protected.DELETE("/habits/:id", api.DeleteHabit)
	protected.GET("/reminders", api.ListReminders)
	protected.POST("/reminders", api.CreateReminder)
	protected.DELETE("/reminders/:id", api.DeleteReminder)
	protected.GET("/stats", api.GetStats)
	return r
}

type testClient struct {
	t       *testing.T
	engine  *gin.Engine
	cookies []*http.Cookie
}

func (tc *testClient) do(method, path string, body any) *httptest.ResponseRecorder {
	tc.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			tc.t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	tc.engine.ServeHTTP(rr, req)

	if cookies := rr.Result().Cookies(); len(cookies) > 0 {
		tc.cookies = cookies
	}
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func signedInClient(t *testing.T, engine *gin.Engine) *testClient {
	t.Helper()
	client := &testClient{t: t, engine: engine}

	credentials := gin.H{"email": "ana@example.com", "password": "secreto"}
	if rr := client.do(http.MethodPost, "/api/auth/signup", credentials); rr.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr := client.do(http.MethodPost, "/api/auth/login", credentials); rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	return client
}

func TestAuthFlow(t *testing.T) {
	engine := newTestEngine(t, setupHandlerTestBackend(t))
	client := &testClient{t: t, engine: engine}

	credentials := gin.H{"email": "ana@example.com", "password": "secreto"}
	rr := client.do(http.MethodPost, "/api/auth/signup", credentials)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}

	if rr := client.do(http.MethodPost, "/api/auth/signup", credentials); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", rr.Code)
	}
	if rr := client.do(http.MethodPost, "/api/auth/signup", gin.H{"email": "nope", "password": "x"}); rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid email: expected 400, got %d", rr.Code)
	}
	if rr := client.do(http.MethodPost, "/api/auth/login", gin.H{"email": "ana@example.com", "password": "bad"}); rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", rr.Code)
	}

	rr = client.do(http.MethodPost, "/api/auth/login", credentials)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rr.Code)
	}
	var login struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeBody(t, rr, &login)
	if login.User.ID == "" || login.User.Email != "ana@example.com" {
		t.Fatalf("unexpected login payload %+v", login)
	}

	rr = client.do(http.MethodGet, "/api/me", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rr.Code)
	}

	if rr := client.do(http.MethodPost, "/api/auth/logout", nil); rr.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rr.Code)
	}
	if rr := client.do(http.MethodGet, "/api/me", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: expected 401, got %d", rr.Code)
	}
}

func TestHabitEndpoints(t *testing.T) {
	client := signedInClient(t, newTestEngine(t, setupHandlerTestBackend(t)))

	if rr := client.do(http.MethodPost, "/api/habits", gin.H{"name": "   "}); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty name: expected 400, got %d", rr.Code)
	}

	rr := client.do(http.MethodPost, "/api/habits", gin.H{"name": "Leer"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Habit model.Habit `json:"habit"`
	}
	decodeBody(t, rr, &created)

	var completion struct {
		Applied bool        `json:"applied"`
		Habit   model.Habit `json:"habit"`
	}
	path := fmt.Sprintf("/api/habits/%d/complete", created.Habit.ID)

	rr = client.do(http.MethodPost, path, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	decodeBody(t, rr, &completion)
	if !completion.Applied || completion.Habit.Streak != 1 || completion.Habit.TotalDone != 1 {
		t.Fatalf("unexpected first completion %+v", completion)
	}

	rr = client.do(http.MethodPost, path, nil)
	decodeBody(t, rr, &completion)
	if completion.Applied || completion.Habit.TotalDone != 1 {
		t.Fatalf("second completion should be a no-op, got %+v", completion)
	}

	if rr := client.do(http.MethodPost, "/api/habits/9999/complete", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("missing habit: expected 404, got %d", rr.Code)
	}
	if rr := client.do(http.MethodPost, "/api/habits/abc/complete", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", rr.Code)
	}

	rr = client.do(http.MethodGet, "/api/habits", nil)
	var list struct {
		Habits []model.Habit `json:"habits"`
	}
	decodeBody(t, rr, &list)
	if len(list.Habits) != 1 || list.Habits[0].LastDoneDate == "" {
		t.Fatalf("unexpected habit list %+v", list.Habits)
	}

	if rr := client.do(http.MethodDelete, fmt.Sprintf("/api/habits/%d", created.Habit.ID), nil); rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rr.Code)
	}
	rr = client.do(http.MethodGet, "/api/habits", nil)
	decodeBody(t, rr, &list)
	if len(list.Habits) != 0 {
		t.Fatalf("expected empty list after delete, got %+v", list.Habits)
	}
}

func TestReminderEndpointsAndStats(t *testing.T) {
	client := signedInClient(t, newTestEngine(t, setupHandlerTestBackend(t)))

	if rr := client.do(http.MethodPost, "/api/reminders", gin.H{"title": "Dentista", "due_date": "10/03/2024"}); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad date: expected 400, got %d", rr.Code)
	}
	if rr := client.do(http.MethodPost, "/api/reminders", gin.H{"title": "", "due_date": "2024-03-10"}); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty title: expected 400, got %d", rr.Code)
	}

	rr := client.do(http.MethodPost, "/api/reminders", gin.H{"title": "Dentista", "due_date": "2024-03-10"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = client.do(http.MethodPost, "/api/reminders", gin.H{"title": "Hoy"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create without date: expected 201, got %d", rr.Code)
	}
	var created struct {
		Reminder model.Reminder `json:"reminder"`
	}
	decodeBody(t, rr, &created)
	if created.Reminder.DueDate != time.Now().UTC().Format("2006-01-02") {
		t.Fatalf("expected today's date, got %q", created.Reminder.DueDate)
	}

	rr = client.do(http.MethodGet, "/api/reminders", nil)
	var list struct {
		Reminders []model.Reminder `json:"reminders"`
	}
	decodeBody(t, rr, &list)
	if len(list.Reminders) != 2 || list.Reminders[0].Title != "Dentista" {
		t.Fatalf("unexpected reminders %+v", list.Reminders)
	}

	client.do(http.MethodPost, "/api/habits", gin.H{"name": "Correr"})

	rr = client.do(http.MethodGet, "/api/stats", nil)
	var stats struct {
		Stats model.Stats `json:"stats"`
	}
	decodeBody(t, rr, &stats)
	if stats.Stats != (model.Stats{TotalHabits: 1, TotalReminders: 2}) {
		t.Fatalf("unexpected stats %+v", stats.Stats)
	}

	path := fmt.Sprintf("/api/reminders/%d", created.Reminder.ID)
	if rr := client.do(http.MethodDelete, path, nil); rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rr.Code)
	}
}

// unavailableBackend fails every record call the way a rejecting backend does.
type unavailableBackend struct {
	*sqlstore.Store
}

func (unavailableBackend) ListHabits(context.Context, model.Session) ([]model.Habit, error) {
	return nil, fmt.Errorf("list habits: %w: permission denied for table habits", store.ErrUnavailable)
}

func TestBackendFailureSurfacesMessage(t *testing.T) {
	backend := unavailableBackend{Store: setupHandlerTestBackend(t)}
	client := signedInClient(t, newTestEngine(t, backend))

	rr := client.do(http.MethodGet, "/api/habits", nil)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, rr, &body)
	if !bytes.Contains([]byte(body.Error), []byte("permission denied for table habits")) {
		t.Fatalf("expected backend message in error, got %q", body.Error)
	}
}

// refreshingBackend renews sessions the way a hosted backend does.
type refreshingBackend struct {
	*sqlstore.Store
	calls int
	err   error
}

func (b *refreshingBackend) Refresh(_ context.Context, sess model.Session) (model.Session, error) {
	b.calls++
	if b.err != nil {
		return model.Session{}, b.err
	}
	sess.AccessToken = "access-2"
	sess.RefreshToken = "refresh-2"
	sess.ExpiresAt = time.Now().Add(time.Hour)
	return sess, nil
}

func newExpiredSessionEngine(t *testing.T, backend store.Backend, refreshToken string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	api := NewAPI(app.NewWithBackend(backend, nil, time.UTC))

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.GET("/login", func(c *gin.Context) {
		sess := model.Session{UserID: "u1", AccessToken: "access-1", RefreshToken: refreshToken, ExpiresAt: time.Now().Add(-time.Minute)}
		if err := saveSession(c, sess); err != nil {
			t.Errorf("saveSession: %v", err)
		}
		c.Status(http.StatusOK)
	})
	r.GET("/me", api.AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"access_token": currentSession(c).AccessToken})
	})
	return r
}

func TestExpiredSessionIsRejected(t *testing.T) {
	client := &testClient{t: t, engine: newExpiredSessionEngine(t, setupHandlerTestBackend(t), "")}
	client.do(http.MethodGet, "/login", nil)

	if rr := client.do(http.MethodGet, "/me", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired session, got %d", rr.Code)
	}
	if rr := client.do(http.MethodGet, "/me", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected cleared session to stay rejected, got %d", rr.Code)
	}
}

func TestExpiredSessionIsRefreshed(t *testing.T) {
	backend := &refreshingBackend{Store: setupHandlerTestBackend(t)}
	client := &testClient{t: t, engine: newExpiredSessionEngine(t, backend, "refresh-1")}
	client.do(http.MethodGet, "/login", nil)

	rr := client.do(http.MethodGet, "/me", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected refreshed session to pass, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, rr, &body)
	if body.AccessToken != "access-2" {
		t.Fatalf("expected the refreshed token in context, got %q", body.AccessToken)
	}

	if rr := client.do(http.MethodGet, "/me", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected stored refreshed session to pass, got %d", rr.Code)
	}
	if backend.calls != 1 {
		t.Fatalf("expected one refresh, got %d", backend.calls)
	}
}

func TestRejectedRefreshClearsSession(t *testing.T) {
	backend := &refreshingBackend{Store: setupHandlerTestBackend(t), err: store.ErrSessionExpired}
	client := &testClient{t: t, engine: newExpiredSessionEngine(t, backend, "refresh-1")}
	client.do(http.MethodGet, "/login", nil)

	if rr := client.do(http.MethodGet, "/me", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when refresh is rejected, got %d", rr.Code)
	}

	backend.err = fmt.Errorf("%w: upstream timeout", store.ErrUnavailable)
	client.do(http.MethodGet, "/login", nil)
	if rr := client.do(http.MethodGet, "/me", nil); rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when the backend cannot refresh, got %d", rr.Code)
	}
}
