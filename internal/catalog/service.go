package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/helix/epe-server/internal/epe"
	"github.com/helix/epe-server/internal/logger"
	"github.com/helix/epe-server/internal/storage"
)

const snapshotKey = "catalog:snapshot:v1"

// Service serves point-in-time catalog snapshots to the planner.
type Service struct {
	store storage.CatalogStorage
	cache Cache // nil disables caching
	ttl   time.Duration
	log   *logger.Logger
}

func NewService(store storage.CatalogStorage, cache Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{
		store: store,
		cache: cache,
		ttl:   ttl,
		log:   log.With("component", "catalog"),
	}
}

// Snapshot returns both catalogs. Cache failures are logged and fall through
// to storage; storage failures are returned.
func (s *Service) Snapshot(ctx context.Context) (epe.Catalog, error) {
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, snapshotKey)
		switch {
		case err != nil:
			s.log.Warn("catalog cache read failed", "error", err)
		case ok:
			var cat epe.Catalog
			if err := json.Unmarshal(raw, &cat); err == nil {
				return cat, nil
			}
			s.log.Warn("catalog cache entry corrupt, reloading")
		}
	}

	cat, err := s.load(ctx)
	if err != nil {
		return epe.Catalog{}, err
	}

	if s.cache != nil {
		if raw, err := marshalJSON(cat); err == nil {
			if err := s.cache.Set(ctx, snapshotKey, raw, s.ttl); err != nil {
				s.log.Warn("catalog cache write failed", "error", err)
			}
		}
	}
	return cat, nil
}

func (s *Service) load(ctx context.Context) (epe.Catalog, error) {
	recipeRows, err := s.store.ListRecipes(ctx)
	if err != nil {
		return epe.Catalog{}, fmt.Errorf("list recipes: %w", err)
	}
	exerciseRows, err := s.store.ListExercises(ctx)
	if err != nil {
		return epe.Catalog{}, fmt.Errorf("list exercises: %w", err)
	}

	cat := epe.Catalog{
		Recipes:   make([]epe.Recipe, 0, len(recipeRows)),
		Exercises: make([]epe.Exercise, 0, len(exerciseRows)),
	}
	for _, row := range recipeRows {
		r, err := recipeFromRow(row)
		if err != nil {
			return epe.Catalog{}, err
		}
		cat.Recipes = append(cat.Recipes, r)
	}
	for _, row := range exerciseRows {
		ex, err := exerciseFromRow(row)
		if err != nil {
			return epe.Catalog{}, err
		}
		cat.Exercises = append(cat.Exercises, ex)
	}
	return cat, nil
}

// Seed upserts a catalog file and drops the cached snapshot.
func (s *Service) Seed(ctx context.Context, f *File) (recipes int, exercises int, err error) {
	recipeRows, exerciseRows, err := f.Rows()
	if err != nil {
		return 0, 0, err
	}
	if err := s.store.UpsertRecipes(ctx, recipeRows); err != nil {
		return 0, 0, fmt.Errorf("upsert recipes: %w", err)
	}
	if err := s.store.UpsertExercises(ctx, exerciseRows); err != nil {
		return 0, 0, fmt.Errorf("upsert exercises: %w", err)
	}
	s.Invalidate(ctx)

	s.log.Info("catalog seeded", "recipes", len(recipeRows), "exercises", len(exerciseRows))
	return len(recipeRows), len(exerciseRows), nil
}

// Invalidate drops the cached snapshot, if any.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, snapshotKey); err != nil {
		s.log.Warn("catalog cache invalidation failed", "error", err)
	}
}

func recipeFromRow(row storage.RecipeRow) (epe.Recipe, error) {
	r := epe.Recipe{
		ID:          row.ID,
		Name:        row.Name,
		Kcal:        row.Kcal,
		ProteinG:    row.ProteinG,
		CarbsG:      row.CarbsG,
		FatG:        row.FatG,
		DietType:    row.DietType,
		Allergens:   row.Allergens,
		Ingredients: row.Ingredients,
	}
	if r.Allergens == nil {
		r.Allergens = []string{}
	}
	if len(row.Tags) > 0 {
		if err := json.Unmarshal(row.Tags, &r.Tags); err != nil {
			return epe.Recipe{}, fmt.Errorf("recipe %s tags: %w", row.ID, err)
		}
	}
	return r, nil
}

func exerciseFromRow(row storage.ExerciseRow) (epe.Exercise, error) {
	ex := epe.Exercise{ID: row.ID, Name: row.Name, Description: row.Description}
	if len(row.Tags) > 0 {
		if err := json.Unmarshal(row.Tags, &ex.Tags); err != nil {
			return epe.Exercise{}, fmt.Errorf("exercise %s tags: %w", row.ID, err)
		}
	}
	return ex, nil
}
