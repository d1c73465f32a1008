package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/helix/epe-server/internal/storage"
)

func (s *SQLiteStorage) ListRecipes(ctx context.Context) ([]storage.RecipeRow, error) {
	query := `
        SELECT id, name, kcal, protein_g, carbs_g, fat_g, diet_type, allergens, ingredients, tags, updated_at
        FROM recipes
        ORDER BY id
    `
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	out := []storage.RecipeRow{}
	for rows.Next() {
		var (
			r                                       storage.RecipeRow
			allergens, ingredients, tags, updatedAt string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Kcal, &r.ProteinG, &r.CarbsG, &r.FatG, &r.DietType,
			&allergens, &ingredients, &tags, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("recipe %s updated_at: %w", r.ID, err)
		}
		if r.Allergens, err = decodeStrings(allergens); err != nil {
			return nil, fmt.Errorf("recipe %s allergens: %w", r.ID, err)
		}
		r.Ingredients = json.RawMessage(ingredients)
		r.Tags = json.RawMessage(tags)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) ListExercises(ctx context.Context) ([]storage.ExerciseRow, error) {
	query := `
        SELECT id, name, description, tags, updated_at
        FROM exercises
        ORDER BY id
    `
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}
	defer rows.Close()

	out := []storage.ExerciseRow{}
	for rows.Next() {
		var (
			e               storage.ExerciseRow
			desc            sql.NullString
			tags, updatedAt string
		)
		if err := rows.Scan(&e.ID, &e.Name, &desc, &tags, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("exercise %s updated_at: %w", e.ID, err)
		}
		if desc.Valid {
			e.Description = &desc.String
		}
		e.Tags = json.RawMessage(tags)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) UpsertRecipes(ctx context.Context, rows []storage.RecipeRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO recipes (id, name, kcal, protein_g, carbs_g, fat_g, diet_type, allergens, ingredients, tags, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            kcal = excluded.kcal,
            protein_g = excluded.protein_g,
            carbs_g = excluded.carbs_g,
            fat_g = excluded.fat_g,
            diet_type = excluded.diet_type,
            allergens = excluded.allergens,
            ingredients = excluded.ingredients,
            tags = excluded.tags,
            updated_at = excluded.updated_at
    `
	now := formatTime(s.now())
	for _, r := range rows {
		allergens, err := encodeStrings(r.Allergens)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, r.ID, r.Name, r.Kcal, r.ProteinG, r.CarbsG, r.FatG, r.DietType,
			allergens, textOr(r.Ingredients, "[]"), textOr(r.Tags, "{}"), now); err != nil {
			return fmt.Errorf("failed to upsert recipe %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) UpsertExercises(ctx context.Context, rows []storage.ExerciseRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO exercises (id, name, description, tags, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            description = excluded.description,
            tags = excluded.tags,
            updated_at = excluded.updated_at
    `
	now := formatTime(s.now())
	for _, e := range rows {
		if _, err := tx.ExecContext(ctx, query, e.ID, e.Name, e.Description, textOr(e.Tags, "{}"), now); err != nil {
			return fmt.Errorf("failed to upsert exercise %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}
