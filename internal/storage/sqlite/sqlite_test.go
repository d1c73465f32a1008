package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/helix/epe-server/internal/storage"
)

func openTemp(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "epe.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCatalogRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	desc := "Hold a straight line"
	if err := s.UpsertRecipes(ctx, []storage.RecipeRow{
		{ID: "r2", Name: "Lentil Stew", Kcal: 460, ProteinG: 24, CarbsG: 60, FatG: 10, DietType: "vegan",
			Ingredients: []byte(`["lentils","carrot"]`), Tags: []byte(`{"meal_type":"dinner"}`)},
		{ID: "r1", Name: "Tofu Bowl", Kcal: 520, DietType: "vegan", Allergens: []string{"soy"}},
	}); err != nil {
		t.Fatalf("UpsertRecipes: %v", err)
	}
	if err := s.UpsertRecipes(ctx, []storage.RecipeRow{{ID: "r1", Name: "Tofu Power Bowl", Kcal: 530, DietType: "vegan"}}); err != nil {
		t.Fatalf("UpsertRecipes update: %v", err)
	}
	if err := s.UpsertExercises(ctx, []storage.ExerciseRow{
		{ID: "ex-1", Name: "Plank", Description: &desc, Tags: []byte(`{"equipment":["bodyweight"]}`)},
		{ID: "ex-2", Name: "Goblet Squat"},
	}); err != nil {
		t.Fatalf("UpsertExercises: %v", err)
	}

	recipes, err := s.ListRecipes(ctx)
	if err != nil {
		t.Fatalf("ListRecipes: %v", err)
	}
	if len(recipes) != 2 || recipes[0].ID != "r1" || recipes[0].Name != "Tofu Power Bowl" || recipes[0].Kcal != 530 {
		t.Fatalf("unexpected recipes: %+v", recipes)
	}
	if len(recipes[0].Allergens) != 0 {
		t.Fatalf("expected allergens replaced on upsert, got %v", recipes[0].Allergens)
	}
	if string(recipes[1].Ingredients) != `["lentils","carrot"]` || recipes[1].UpdatedAt.IsZero() {
		t.Fatalf("unexpected recipe payload: %+v", recipes[1])
	}

	exercises, err := s.ListExercises(ctx)
	if err != nil {
		t.Fatalf("ListExercises: %v", err)
	}
	if len(exercises) != 2 || exercises[0].Description == nil || *exercises[0].Description != desc {
		t.Fatalf("unexpected exercises: %+v", exercises)
	}
	if exercises[1].Description != nil || string(exercises[1].Tags) != "{}" {
		t.Fatalf("expected empty defaults, got %+v", exercises[1])
	}
}

func TestPlanRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	plan := &storage.PlanRecord{
		UserID:       "u1",
		StartDate:    "2026-03-15",
		KcalTarget:   2373,
		ProteinG:     189,
		FatG:         69,
		CarbsG:       249,
		Readiness:    52,
		Explanations: []string{"first", "second"},
		Input:        []byte(`{"user_id":"u1"}`),
		Days: []storage.PlanDayRecord{
			{
				DayIndex: 0, Date: "2026-03-15", Status: storage.DayStatusTraining, Readiness: 52,
				Adjustments: []string{"condensed"},
				Meals: []storage.MealRecord{
					{Name: "Quinoa Breakfast", MealType: "breakfast", Kcal: 410, ProteinG: 24, CarbsG: 52, FatG: 11, RecipeID: "recipe-4"},
					{Name: "Snack", MealType: "snack", Kcal: 100, ProteinG: 1.5},
				},
				Workouts: []storage.WorkoutRecord{
					{Name: "fat loss Session", Focus: "fat_loss", Intensity: "moderate", Blocks: []byte(`[{"title":"Primary Strength"}]`)},
				},
			},
			{DayIndex: 1, Date: "2026-03-16", Status: storage.DayStatusRecovery, Readiness: 52},
		},
	}
	if err := s.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if plan.ID == uuid.Nil || plan.Days[0].ID == uuid.Nil || plan.Days[0].Meals[0].ID == uuid.Nil {
		t.Fatal("expected ids assigned on create")
	}

	got, err := s.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.UserID != "u1" || got.StartDate != "2026-03-15" || got.KcalTarget != 2373 || len(got.Explanations) != 2 {
		t.Fatalf("unexpected header: %+v", got)
	}
	if len(got.Days) != 2 || got.Days[0].Status != storage.DayStatusTraining || got.Days[0].Adjustments[0] != "condensed" {
		t.Fatalf("unexpected days: %+v", got.Days)
	}
	if len(got.Days[0].Meals) != 2 || got.Days[0].Meals[0].RecipeID != "recipe-4" || got.Days[0].Meals[1].RecipeID != "" {
		t.Fatalf("unexpected meals: %+v", got.Days[0].Meals)
	}
	if string(got.Days[0].Workouts[0].Blocks) != `[{"title":"Primary Strength"}]` {
		t.Fatalf("unexpected workout blocks: %s", got.Days[0].Workouts[0].Blocks)
	}
	if len(got.Days[1].Meals) != 0 || got.Days[1].Meals == nil {
		t.Fatalf("expected empty non-nil meals on recovery day, got %v", got.Days[1].Meals)
	}

	if err := s.RefreshPlanViews(ctx); err != nil {
		t.Fatalf("RefreshPlanViews: %v", err)
	}
	macros, err := s.PlanDayMacros(ctx, plan.ID)
	if err != nil {
		t.Fatalf("PlanDayMacros: %v", err)
	}
	if len(macros) != 2 || macros[0].Kcal != 510 || macros[0].ProteinG != 25.5 || macros[1].Kcal != 0 {
		t.Fatalf("unexpected day macros: %+v", macros)
	}

	if _, err := s.GetPlan(ctx, uuid.New()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPlans(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	var ids []uuid.UUID
	for i := range 3 {
		p := &storage.PlanRecord{UserID: "u1", StartDate: fmt.Sprintf("2026-03-%02d", i+1), KcalTarget: 2000 + i}
		if err := s.CreatePlan(ctx, p); err != nil {
			t.Fatalf("CreatePlan: %v", err)
		}
		ids = append(ids, p.ID)
	}
	_ = s.CreatePlan(ctx, &storage.PlanRecord{UserID: "u2", StartDate: "2026-03-01"})

	got, err := s.ListPlans(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(got) != 2 || got[0].ID != ids[2] || got[1].ID != ids[1] {
		t.Fatalf("expected newest first, got %+v", got)
	}
	if got[0].KcalTarget != 2002 || got[0].StartDate != "2026-03-03" {
		t.Fatalf("unexpected summary: %+v", got[0])
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "epe.db")

	s, err := New(ctx, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = s.UpsertRecipes(ctx, []storage.RecipeRow{{ID: "r1", Name: "Oats", DietType: "vegan"}})
	s.Close()

	s, err = New(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	recipes, _ := s.ListRecipes(ctx)
	if len(recipes) != 1 {
		t.Fatalf("expected recipe to persist, got %d", len(recipes))
	}
}
