package persist

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/doppelganger/rewind/internal/config"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "progress.db"),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(db.Close)
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestRecordCompletionKeepsMinimum(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepo(openTestDB(t))
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, ok, err := repo.BestSteps(ctx, "lab"); err != nil || ok {
		t.Fatalf("expected no best yet, got ok=%v err=%v", ok, err)
	}
	steps := []struct {
		steps   int
		newBest bool
		best    int
	}{
		{500, true, 500},
		{620, false, 500},
		{410, true, 410},
	}
	for i, s := range steps {
		c, err := repo.RecordCompletion(ctx, "lab", s.steps, 1, at.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("record %d: %v", s.steps, err)
		}
		if c.NewBest != s.newBest || c.Best != s.best || c.RunID == "" {
			t.Fatalf("run %d: expected best=%d new=%v, got %+v", i, s.best, s.newBest, c)
		}
	}
	best, ok, err := repo.BestSteps(ctx, "lab")
	if err != nil || !ok || best != 410 {
		t.Fatalf("expected best 410, got %d ok=%v err=%v", best, ok, err)
	}
	runs, err := repo.Runs(ctx, "lab")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 3 || runs[0].Steps != 500 || !runs[2].CompletedAt.Equal(at.Add(2*time.Minute)) {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestUnlock(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepo(openTestDB(t))
	for _, lv := range []string{"lab2", "lab2", "attic"} {
		if err := repo.Unlock(ctx, lv); err != nil {
			t.Fatalf("unlock %s: %v", lv, err)
		}
	}
	if _, err := repo.RecordCompletion(ctx, "lab", 300, 0, time.Now()); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := repo.Unlocked(ctx)
	if err != nil {
		t.Fatalf("unlocked: %v", err)
	}
	want := []string{"attic", "lab", "lab2"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if _, ok, _ := repo.BestSteps(ctx, "lab2"); ok {
		t.Fatalf("expected unlock alone not to record a best")
	}
}

func TestRecordCompletionRejectsZeroSteps(t *testing.T) {
	repo := NewProgressRepo(openTestDB(t))
	if _, err := repo.RecordCompletion(context.Background(), "lab", 0, 0, time.Now()); err == nil {
		t.Fatalf("expected error for zero steps")
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("unexpected rebind %q", got)
	}
	lite := &DB{driver: DriverSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("expected sqlite query untouched, got %q", got)
	}
}
