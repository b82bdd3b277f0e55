package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunRow represents a row from the runs table.
type RunRow struct {
	ID          string
	Level       string
	Steps       int
	TimeTravels int
	CompletedAt time.Time
}

// Completion is the outcome of recording a finished level.
type Completion struct {
	RunID   string
	Best    int
	NewBest bool
}

// ProgressRepo persists cross-session progress: best step counts, unlocked
// levels and a log of completed runs. It is not part of the simulation.
type ProgressRepo struct {
	db *DB
}

func NewProgressRepo(db *DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// BestSteps returns the fewest steps level was completed in. ok is false
// when it was never completed.
func (r *ProgressRepo) BestSteps(ctx context.Context, level string) (best int, ok bool, err error) {
	err = r.db.SQL.QueryRowContext(ctx,
		r.db.rebind(`SELECT best_steps FROM level_progress WHERE level = ?`), level,
	).Scan(&best)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query best steps: %w", err)
	}
	return best, best > 0, nil
}

// RecordCompletion appends a run and keeps the minimum step count for level.
// A completed level is also marked unlocked.
func (r *ProgressRepo) RecordCompletion(ctx context.Context, level string, steps, travels int, at time.Time) (Completion, error) {
	if steps <= 0 {
		return Completion{}, fmt.Errorf("record completion: steps must be positive, got %d", steps)
	}
	prev, had, err := r.BestSteps(ctx, level)
	if err != nil {
		return Completion{}, err
	}

	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return Completion{}, fmt.Errorf("progress begin: %w", err)
	}
	defer tx.Rollback()

	id := ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
	if _, err := tx.ExecContext(ctx, r.db.rebind(
		`INSERT INTO runs (id, level, steps, time_travels, completed_at) VALUES (?, ?, ?, ?, ?)`),
		id, level, steps, travels, at.UnixMilli(),
	); err != nil {
		return Completion{}, fmt.Errorf("insert run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.db.rebind(
		`INSERT INTO level_progress (level, best_steps, unlocked, updated_at) VALUES (?, ?, TRUE, ?)
		 ON CONFLICT (level) DO UPDATE SET
		   best_steps = CASE
		     WHEN level_progress.best_steps = 0 OR excluded.best_steps < level_progress.best_steps
		     THEN excluded.best_steps ELSE level_progress.best_steps END,
		   unlocked = TRUE,
		   updated_at = excluded.updated_at`),
		level, steps, at.UnixMilli(),
	); err != nil {
		return Completion{}, fmt.Errorf("upsert progress: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Completion{}, fmt.Errorf("progress commit: %w", err)
	}

	c := Completion{RunID: id, Best: steps, NewBest: !had || steps < prev}
	if !c.NewBest {
		c.Best = prev
	}
	return c, nil
}

// Unlock marks level playable. Unlocking twice is harmless.
func (r *ProgressRepo) Unlock(ctx context.Context, level string) error {
	_, err := r.db.SQL.ExecContext(ctx, r.db.rebind(
		`INSERT INTO level_progress (level, unlocked, updated_at) VALUES (?, TRUE, ?)
		 ON CONFLICT (level) DO UPDATE SET unlocked = TRUE`),
		level, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("unlock %s: %w", level, err)
	}
	return nil
}

// Unlocked returns every unlocked level name, sorted.
func (r *ProgressRepo) Unlocked(ctx context.Context) ([]string, error) {
	rows, err := r.db.SQL.QueryContext(ctx,
		`SELECT level FROM level_progress WHERE unlocked = TRUE ORDER BY level`)
	if err != nil {
		return nil, fmt.Errorf("query unlocked: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Runs returns the completed runs of level, oldest first.
func (r *ProgressRepo) Runs(ctx context.Context, level string) ([]RunRow, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(
		`SELECT id, level, steps, time_travels, completed_at
		 FROM runs WHERE level = ? ORDER BY completed_at, id`), level)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var row RunRow
		var ms int64
		if err := rows.Scan(&row.ID, &row.Level, &row.Steps, &row.TimeTravels, &ms); err != nil {
			return nil, err
		}
		row.CompletedAt = time.UnixMilli(ms).UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}
