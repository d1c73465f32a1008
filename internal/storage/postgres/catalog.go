package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/helix/epe-server/internal/storage"
)

func (p *PostgresStorage) ListRecipes(ctx context.Context) ([]storage.RecipeRow, error) {
	query := `
		SELECT id, name, kcal, protein_g, carbs_g, fat_g, diet_type, allergens, ingredients, tags, updated_at
		FROM recipes
		ORDER BY id
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	out := []storage.RecipeRow{}
	for rows.Next() {
		var (
			r         storage.RecipeRow
			allergens []byte
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Kcal, &r.ProteinG, &r.CarbsG, &r.FatG,
			&r.DietType, &allergens, &r.Ingredients, &r.Tags, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		if r.Allergens, err = unmarshalStrings(allergens); err != nil {
			return nil, fmt.Errorf("recipe %s allergens: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStorage) ListExercises(ctx context.Context) ([]storage.ExerciseRow, error) {
	query := `
		SELECT id, name, description, tags, updated_at
		FROM exercises
		ORDER BY id
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	defer rows.Close()

	out := []storage.ExerciseRow{}
	for rows.Next() {
		var e storage.ExerciseRow
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Tags, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *PostgresStorage) UpsertRecipes(ctx context.Context, rows []storage.RecipeRow) error {
	query := `
		INSERT INTO recipes (id, name, kcal, protein_g, carbs_g, fat_g, diet_type, allergens, ingredients, tags, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			kcal = EXCLUDED.kcal,
			protein_g = EXCLUDED.protein_g,
			carbs_g = EXCLUDED.carbs_g,
			fat_g = EXCLUDED.fat_g,
			diet_type = EXCLUDED.diet_type,
			allergens = EXCLUDED.allergens,
			ingredients = EXCLUDED.ingredients,
			tags = EXCLUDED.tags,
			updated_at = now()
	`

	batch := &pgx.Batch{}
	for _, r := range rows {
		allergens, err := marshalStrings(r.Allergens)
		if err != nil {
			return err
		}
		batch.Queue(query, r.ID, r.Name, r.Kcal, r.ProteinG, r.CarbsG, r.FatG, r.DietType,
			allergens, jsonOrEmpty(r.Ingredients), jsonObjectOrEmpty(r.Tags))
	}

	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert recipes: %w", err)
	}
	return nil
}

func (p *PostgresStorage) UpsertExercises(ctx context.Context, rows []storage.ExerciseRow) error {
	query := `
		INSERT INTO exercises (id, name, description, tags, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			tags = EXCLUDED.tags,
			updated_at = now()
	`

	batch := &pgx.Batch{}
	for _, e := range rows {
		batch.Queue(query, e.ID, e.Name, e.Description, jsonObjectOrEmpty(e.Tags))
	}

	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert exercises: %w", err)
	}
	return nil
}

func jsonObjectOrEmpty(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}
