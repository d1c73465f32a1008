package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/helix/epe-server/internal/storage"
)

func (s *SQLiteStorage) CreatePlan(ctx context.Context, plan *storage.PlanRecord) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	explanations, err := encodeStrings(plan.Explanations)
	if err != nil {
		return err
	}
	plan.CreatedAt = s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO plans (id, user_id, start_date, kcal_target, protein_g, fat_g, carbs_g, readiness, explanations, input, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, plan.ID.String(), plan.UserID, plan.StartDate, plan.KcalTarget, plan.ProteinG, plan.FatG, plan.CarbsG,
		plan.Readiness, explanations, textOr(plan.Input, "{}"), formatTime(plan.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	for i := range plan.Days {
		day := &plan.Days[i]
		if day.ID == uuid.Nil {
			day.ID = uuid.New()
		}
		adjustments, err := encodeStrings(day.Adjustments)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO plan_days (id, plan_id, day_index, date, status, readiness, adjustments_made)
            VALUES (?, ?, ?, ?, ?, ?, ?)
        `, day.ID.String(), plan.ID.String(), day.DayIndex, day.Date, day.Status, day.Readiness, adjustments); err != nil {
			return fmt.Errorf("failed to insert plan day %d: %w", day.DayIndex, err)
		}

		for pos := range day.Meals {
			m := &day.Meals[pos]
			if m.ID == uuid.Nil {
				m.ID = uuid.New()
			}
			var recipeID any
			if m.RecipeID != "" {
				recipeID = m.RecipeID
			}
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO meals (id, plan_day_id, position, name, meal_type, kcal, protein_g, carbs_g, fat_g, recipe_id)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            `, m.ID.String(), day.ID.String(), pos, m.Name, m.MealType, m.Kcal, m.ProteinG, m.CarbsG, m.FatG, recipeID); err != nil {
				return fmt.Errorf("failed to insert meal: %w", err)
			}
		}

		for pos := range day.Workouts {
			w := &day.Workouts[pos]
			if w.ID == uuid.Nil {
				w.ID = uuid.New()
			}
			if _, err := tx.ExecContext(ctx, `
                INSERT INTO workouts (id, plan_day_id, position, name, focus, intensity, blocks)
                VALUES (?, ?, ?, ?, ?, ?, ?)
            `, w.ID.String(), day.ID.String(), pos, w.Name, w.Focus, w.Intensity, textOr(w.Blocks, "[]")); err != nil {
				return fmt.Errorf("failed to insert workout: %w", err)
			}
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) GetPlan(ctx context.Context, id uuid.UUID) (*storage.PlanRecord, error) {
	var (
		plan                                 storage.PlanRecord
		planID, explanations, input, created string
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT id, user_id, start_date, kcal_target, protein_g, fat_g, carbs_g, readiness, explanations, input, created_at
        FROM plans
        WHERE id = ?
    `, id.String()).Scan(&planID, &plan.UserID, &plan.StartDate, &plan.KcalTarget, &plan.ProteinG, &plan.FatG,
		&plan.CarbsG, &plan.Readiness, &explanations, &input, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	if plan.ID, err = uuid.Parse(planID); err != nil {
		return nil, err
	}
	if plan.Explanations, err = decodeStrings(explanations); err != nil {
		return nil, fmt.Errorf("plan %s explanations: %w", id, err)
	}
	if plan.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("plan %s created_at: %w", id, err)
	}
	plan.Input = []byte(input)

	if plan.Days, err = s.loadDays(ctx, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *SQLiteStorage) loadDays(ctx context.Context, planID uuid.UUID) ([]storage.PlanDayRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, day_index, date, status, readiness, adjustments_made
        FROM plan_days
        WHERE plan_id = ?
        ORDER BY day_index
    `, planID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query plan days: %w", err)
	}
	defer rows.Close()

	days := []storage.PlanDayRecord{}
	index := map[string]int{}
	for rows.Next() {
		var (
			d                  storage.PlanDayRecord
			dayID, adjustments string
		)
		if err := rows.Scan(&dayID, &d.DayIndex, &d.Date, &d.Status, &d.Readiness, &adjustments); err != nil {
			return nil, fmt.Errorf("failed to scan plan day: %w", err)
		}
		if d.ID, err = uuid.Parse(dayID); err != nil {
			return nil, err
		}
		if d.Adjustments, err = decodeStrings(adjustments); err != nil {
			return nil, fmt.Errorf("plan day %s adjustments: %w", dayID, err)
		}
		d.Meals = []storage.MealRecord{}
		d.Workouts = []storage.WorkoutRecord{}
		index[dayID] = len(days)
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadMeals(ctx, planID, days, index); err != nil {
		return nil, err
	}
	if err := s.loadWorkouts(ctx, planID, days, index); err != nil {
		return nil, err
	}
	return days, nil
}

func (s *SQLiteStorage) loadMeals(ctx context.Context, planID uuid.UUID, days []storage.PlanDayRecord, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
        SELECT m.id, m.plan_day_id, m.name, m.meal_type, m.kcal, m.protein_g, m.carbs_g, m.fat_g, COALESCE(m.recipe_id, '')
        FROM meals m
        JOIN plan_days d ON d.id = m.plan_day_id
        WHERE d.plan_id = ?
        ORDER BY d.day_index, m.position
    `, planID.String())
	if err != nil {
		return fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m             storage.MealRecord
			mealID, dayID string
		)
		if err := rows.Scan(&mealID, &dayID, &m.Name, &m.MealType, &m.Kcal, &m.ProteinG, &m.CarbsG, &m.FatG, &m.RecipeID); err != nil {
			return fmt.Errorf("failed to scan meal: %w", err)
		}
		if m.ID, err = uuid.Parse(mealID); err != nil {
			return err
		}
		if i, ok := index[dayID]; ok {
			days[i].Meals = append(days[i].Meals, m)
		}
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadWorkouts(ctx context.Context, planID uuid.UUID, days []storage.PlanDayRecord, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
        SELECT w.id, w.plan_day_id, w.name, w.focus, w.intensity, w.blocks
        FROM workouts w
        JOIN plan_days d ON d.id = w.plan_day_id
        WHERE d.plan_id = ?
        ORDER BY d.day_index, w.position
    `, planID.String())
	if err != nil {
		return fmt.Errorf("failed to query workouts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			w                        storage.WorkoutRecord
			workoutID, dayID, blocks string
		)
		if err := rows.Scan(&workoutID, &dayID, &w.Name, &w.Focus, &w.Intensity, &blocks); err != nil {
			return fmt.Errorf("failed to scan workout: %w", err)
		}
		if w.ID, err = uuid.Parse(workoutID); err != nil {
			return err
		}
		w.Blocks = []byte(blocks)
		if i, ok := index[dayID]; ok {
			days[i].Workouts = append(days[i].Workouts, w)
		}
	}
	return rows.Err()
}

func (s *SQLiteStorage) ListPlans(ctx context.Context, userID string, limit int) ([]storage.PlanSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, start_date, kcal_target, created_at
        FROM plans
        WHERE user_id = ?
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	out := []storage.PlanSummary{}
	for rows.Next() {
		var (
			p           storage.PlanSummary
			id, created string
		)
		if err := rows.Scan(&id, &p.UserID, &p.StartDate, &p.KcalTarget, &created); err != nil {
			return nil, fmt.Errorf("failed to scan plan summary: %w", err)
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) RefreshPlanViews(ctx context.Context) error {
	return nil
}

func (s *SQLiteStorage) PlanDayMacros(ctx context.Context, planID uuid.UUID) ([]storage.DayMacrosRow, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT day_index, date, kcal, protein_g, carbs_g, fat_g
        FROM plan_day_macros
        WHERE plan_id = ?
        ORDER BY day_index
    `, planID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query plan day macros: %w", err)
	}
	defer rows.Close()

	out := []storage.DayMacrosRow{}
	for rows.Next() {
		r := storage.DayMacrosRow{PlanID: planID}
		if err := rows.Scan(&r.DayIndex, &r.Date, &r.Kcal, &r.ProteinG, &r.CarbsG, &r.FatG); err != nil {
			return nil, fmt.Errorf("failed to scan plan day macros: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
