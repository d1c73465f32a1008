package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/helix/epe-server/internal/storage"
)

// SQLiteStorage: файловое хранилище для однопользовательских установок.
// plan_day_macros is a plain view here, so RefreshPlanViews has nothing to do.
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.Storage = (*SQLiteStorage)(nil)

func New(ctx context.Context, dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; modernc serializes anyway and this avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db, now: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema(ctx context.Context) error {
	schema := `
    PRAGMA foreign_keys = ON;

    CREATE TABLE IF NOT EXISTS recipes (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        kcal INTEGER NOT NULL,
        protein_g REAL NOT NULL,
        carbs_g REAL NOT NULL,
        fat_g REAL NOT NULL,
        diet_type TEXT NOT NULL,
        allergens TEXT NOT NULL DEFAULT '[]',
        ingredients TEXT NOT NULL DEFAULT '[]',
        tags TEXT NOT NULL DEFAULT '{}',
        updated_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS exercises (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        description TEXT,
        tags TEXT NOT NULL DEFAULT '{}',
        updated_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS plans (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        start_date TEXT NOT NULL,
        kcal_target INTEGER NOT NULL,
        protein_g INTEGER NOT NULL,
        fat_g INTEGER NOT NULL,
        carbs_g INTEGER NOT NULL,
        readiness INTEGER NOT NULL,
        explanations TEXT NOT NULL DEFAULT '[]',
        input TEXT NOT NULL DEFAULT '{}',
        created_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS plan_days (
        id TEXT PRIMARY KEY,
        plan_id TEXT NOT NULL,
        day_index INTEGER NOT NULL,
        date TEXT NOT NULL,
        status TEXT NOT NULL CHECK (status IN ('training', 'recovery')),
        readiness INTEGER NOT NULL,
        adjustments_made TEXT NOT NULL DEFAULT '[]',
        UNIQUE (plan_id, day_index),
        FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS meals (
        id TEXT PRIMARY KEY,
        plan_day_id TEXT NOT NULL,
        position INTEGER NOT NULL,
        name TEXT NOT NULL,
        meal_type TEXT NOT NULL,
        kcal INTEGER NOT NULL,
        protein_g REAL NOT NULL,
        carbs_g REAL NOT NULL,
        fat_g REAL NOT NULL,
        recipe_id TEXT,
        FOREIGN KEY (plan_day_id) REFERENCES plan_days(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS workouts (
        id TEXT PRIMARY KEY,
        plan_day_id TEXT NOT NULL,
        position INTEGER NOT NULL,
        name TEXT NOT NULL,
        focus TEXT NOT NULL,
        intensity TEXT NOT NULL,
        blocks TEXT NOT NULL DEFAULT '[]',
        FOREIGN KEY (plan_day_id) REFERENCES plan_days(id) ON DELETE CASCADE
    );

    CREATE VIEW IF NOT EXISTS plan_day_macros AS
    SELECT d.plan_id, d.id AS plan_day_id, d.day_index, d.date,
           COALESCE(SUM(m.kcal), 0) AS kcal,
           COALESCE(SUM(m.protein_g), 0.0) AS protein_g,
           COALESCE(SUM(m.carbs_g), 0.0) AS carbs_g,
           COALESCE(SUM(m.fat_g), 0.0) AS fat_g
    FROM plan_days d
    LEFT JOIN meals m ON m.plan_day_id = d.id
    GROUP BY d.plan_id, d.id, d.day_index, d.date;

    CREATE INDEX IF NOT EXISTS idx_plans_user_created ON plans(user_id, created_at);
    CREATE INDEX IF NOT EXISTS idx_plan_days_plan ON plan_days(plan_id, day_index);
    CREATE INDEX IF NOT EXISTS idx_meals_plan_day ON meals(plan_day_id, position);
    CREATE INDEX IF NOT EXISTS idx_workouts_plan_day ON workouts(plan_day_id, position);
    `

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func encodeStrings(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	raw, err := json.Marshal(v)
	return string(raw), err
}

func decodeStrings(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func textOr(raw []byte, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	return string(raw)
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
