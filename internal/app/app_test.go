package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/controla/internal/config"
	"github.com/controla/internal/model"
	"github.com/controla/internal/store/sqlstore"
	"github.com/controla/internal/supabase"
	"github.com/controla/internal/tracker"
)

func TestOpenBackendSelectsImplementation(t *testing.T) {
	sqliteBackend, err := OpenBackend(config.AppConfig{
		StoreBackend: config.BackendSQLite,
		DatabasePath: filepath.Join(t.TempDir(), "data", "controla.db"),
	})
	if err != nil {
		t.Fatalf("OpenBackend sqlite: %v", err)
	}
	defer sqliteBackend.Close()
	if _, ok := sqliteBackend.(*sqlstore.Store); !ok {
		t.Fatalf("expected *sqlstore.Store, got %T", sqliteBackend)
	}

	supabaseBackend, err := OpenBackend(config.AppConfig{
		StoreBackend:    config.BackendSupabase,
		SupabaseURL:     "https://demo.supabase.co",
		SupabaseAnonKey: "anon",
	})
	if err != nil {
		t.Fatalf("OpenBackend supabase: %v", err)
	}
	if _, ok := supabaseBackend.(*supabase.Client); !ok {
		t.Fatalf("expected *supabase.Client, got %T", supabaseBackend)
	}

	if _, err := OpenBackend(config.AppConfig{StoreBackend: config.BackendSupabase}); !errors.Is(err, config.ErrMissingSupabase) {
		t.Fatalf("expected ErrMissingSupabase, got %v", err)
	}
	if _, err := OpenBackend(config.AppConfig{StoreBackend: "mongo"}); !errors.Is(err, config.ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestNewWiresServices(t *testing.T) {
	a, err := New(context.Background(), config.AppConfig{
		StoreBackend: config.BackendSQLite,
		DatabasePath: filepath.Join(t.TempDir(), "controla.db"),
		Timezone:     "UTC",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	if _, err := a.Auth.SignUp(ctx, "ana@example.com", "secreto"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	sess, err := a.Auth.SignIn(ctx, "ana@example.com", "secreto")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	habit, err := a.Habits.Create(ctx, sess, "Leer")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	outcome, _, err := a.Habits.Complete(ctx, sess, habit.ID)
	if err != nil || outcome != tracker.Applied {
		t.Fatalf("Complete: %v %v", outcome, err)
	}

	stats, err := a.Stats.Get(ctx, sess)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats != (model.Stats{TotalHabits: 1, TotalDone: 1, BestStreak: 1}) {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
