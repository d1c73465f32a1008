package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helix/epe-server/internal/storage"
)

func (p *PostgresStorage) CreatePlan(ctx context.Context, plan *storage.PlanRecord) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	startDate, err := parseDate(plan.StartDate)
	if err != nil {
		return err
	}
	explanations, err := marshalStrings(plan.Explanations)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	planQuery := `
		INSERT INTO plans (id, user_id, start_date, kcal_target, protein_g, fat_g, carbs_g, readiness, explanations, input)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	input := plan.Input
	if len(input) == 0 {
		input = []byte("{}")
	}
	err = tx.QueryRow(ctx, planQuery,
		plan.ID, plan.UserID, startDate, plan.KcalTarget, plan.ProteinG, plan.FatG, plan.CarbsG,
		plan.Readiness, explanations, []byte(input),
	).Scan(&plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	dayQuery := `
		INSERT INTO plan_days (id, plan_id, day_index, date, status, readiness, adjustments_made)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	mealQuery := `
		INSERT INTO meals (id, plan_day_id, position, name, meal_type, kcal, protein_g, carbs_g, fat_g, recipe_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
	`
	workoutQuery := `
		INSERT INTO workouts (id, plan_day_id, position, name, focus, intensity, blocks)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for i := range plan.Days {
		day := &plan.Days[i]
		if day.ID == uuid.Nil {
			day.ID = uuid.New()
		}
		date, err := parseDate(day.Date)
		if err != nil {
			return err
		}
		adjustments, err := marshalStrings(day.Adjustments)
		if err != nil {
			return err
		}
		batch.Queue(dayQuery, day.ID, plan.ID, day.DayIndex, date, day.Status, day.Readiness, adjustments)

		for pos := range day.Meals {
			m := &day.Meals[pos]
			if m.ID == uuid.Nil {
				m.ID = uuid.New()
			}
			batch.Queue(mealQuery, m.ID, day.ID, pos, m.Name, m.MealType, m.Kcal, m.ProteinG, m.CarbsG, m.FatG, m.RecipeID)
		}
		for pos := range day.Workouts {
			w := &day.Workouts[pos]
			if w.ID == uuid.Nil {
				w.ID = uuid.New()
			}
			batch.Queue(workoutQuery, w.ID, day.ID, pos, w.Name, w.Focus, w.Intensity, jsonOrEmpty(w.Blocks))
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert plan days: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit plan: %w", err)
	}
	return nil
}

func (p *PostgresStorage) GetPlan(ctx context.Context, id uuid.UUID) (*storage.PlanRecord, error) {
	planQuery := `
		SELECT id, user_id, to_char(start_date, 'YYYY-MM-DD'), kcal_target, protein_g, fat_g, carbs_g,
		       readiness, explanations, input, created_at
		FROM plans
		WHERE id = $1
	`

	var (
		plan         storage.PlanRecord
		explanations []byte
	)
	err := p.pool.QueryRow(ctx, planQuery, id).Scan(
		&plan.ID, &plan.UserID, &plan.StartDate, &plan.KcalTarget, &plan.ProteinG, &plan.FatG, &plan.CarbsG,
		&plan.Readiness, &explanations, &plan.Input, &plan.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan.Explanations, err = unmarshalStrings(explanations); err != nil {
		return nil, fmt.Errorf("plan %s explanations: %w", id, err)
	}

	if plan.Days, err = p.loadDays(ctx, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (p *PostgresStorage) loadDays(ctx context.Context, planID uuid.UUID) ([]storage.PlanDayRecord, error) {
	dayQuery := `
		SELECT id, day_index, to_char(date, 'YYYY-MM-DD'), status, readiness, adjustments_made
		FROM plan_days
		WHERE plan_id = $1
		ORDER BY day_index
	`
	rows, err := p.pool.Query(ctx, dayQuery, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan days: %w", err)
	}
	defer rows.Close()

	days := []storage.PlanDayRecord{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var (
			d           storage.PlanDayRecord
			adjustments []byte
		)
		if err := rows.Scan(&d.ID, &d.DayIndex, &d.Date, &d.Status, &d.Readiness, &adjustments); err != nil {
			return nil, fmt.Errorf("failed to scan plan day: %w", err)
		}
		if d.Adjustments, err = unmarshalStrings(adjustments); err != nil {
			return nil, fmt.Errorf("plan day %s adjustments: %w", d.ID, err)
		}
		d.Meals = []storage.MealRecord{}
		d.Workouts = []storage.WorkoutRecord{}
		index[d.ID] = len(days)
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mealQuery := `
		SELECT m.id, m.plan_day_id, m.name, m.meal_type, m.kcal, m.protein_g, m.carbs_g, m.fat_g, COALESCE(m.recipe_id, '')
		FROM meals m
		JOIN plan_days d ON d.id = m.plan_day_id
		WHERE d.plan_id = $1
		ORDER BY d.day_index, m.position
	`
	mealRows, err := p.pool.Query(ctx, mealQuery, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get meals: %w", err)
	}
	defer mealRows.Close()
	for mealRows.Next() {
		var (
			m     storage.MealRecord
			dayID uuid.UUID
		)
		if err := mealRows.Scan(&m.ID, &dayID, &m.Name, &m.MealType, &m.Kcal, &m.ProteinG, &m.CarbsG, &m.FatG, &m.RecipeID); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		if i, ok := index[dayID]; ok {
			days[i].Meals = append(days[i].Meals, m)
		}
	}
	if err := mealRows.Err(); err != nil {
		return nil, err
	}

	workoutQuery := `
		SELECT w.id, w.plan_day_id, w.name, w.focus, w.intensity, w.blocks
		FROM workouts w
		JOIN plan_days d ON d.id = w.plan_day_id
		WHERE d.plan_id = $1
		ORDER BY d.day_index, w.position
	`
	workoutRows, err := p.pool.Query(ctx, workoutQuery, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workouts: %w", err)
	}
	defer workoutRows.Close()
	for workoutRows.Next() {
		var (
			w     storage.WorkoutRecord
			dayID uuid.UUID
		)
		if err := workoutRows.Scan(&w.ID, &dayID, &w.Name, &w.Focus, &w.Intensity, &w.Blocks); err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		if i, ok := index[dayID]; ok {
			days[i].Workouts = append(days[i].Workouts, w)
		}
	}
	return days, workoutRows.Err()
}

func (p *PostgresStorage) ListPlans(ctx context.Context, userID string, limit int) ([]storage.PlanSummary, error) {
	query := `
		SELECT id, user_id, to_char(start_date, 'YYYY-MM-DD'), kcal_target, created_at
		FROM plans
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	if limit <= 0 {
		limit = 50
	}

	rows, err := p.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	out := []storage.PlanSummary{}
	for rows.Next() {
		var s storage.PlanSummary
		if err := rows.Scan(&s.ID, &s.UserID, &s.StartDate, &s.KcalTarget, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *PostgresStorage) RefreshPlanViews(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `SELECT refresh_plan_views()`); err != nil {
		return fmt.Errorf("failed to refresh plan views: %w", err)
	}
	return nil
}

func (p *PostgresStorage) PlanDayMacros(ctx context.Context, planID uuid.UUID) ([]storage.DayMacrosRow, error) {
	query := `
		SELECT plan_id, day_index, to_char(date, 'YYYY-MM-DD'), kcal, protein_g, carbs_g, fat_g
		FROM plan_day_macros
		WHERE plan_id = $1
		ORDER BY day_index
	`

	rows, err := p.pool.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan day macros: %w", err)
	}
	defer rows.Close()

	out := []storage.DayMacrosRow{}
	for rows.Next() {
		var r storage.DayMacrosRow
		if err := rows.Scan(&r.PlanID, &r.DayIndex, &r.Date, &r.Kcal, &r.ProteinG, &r.CarbsG, &r.FatG); err != nil {
			return nil, fmt.Errorf("failed to scan plan day macros: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
