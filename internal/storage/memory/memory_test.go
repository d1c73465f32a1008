package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/helix/epe-server/internal/storage"
)

func samplePlan(userID string) *storage.PlanRecord {
	return &storage.PlanRecord{
		UserID:       userID,
		StartDate:    "2026-03-15",
		KcalTarget:   2400,
		Explanations: []string{"note"},
		Days: []storage.PlanDayRecord{
			{
				ID: uuid.New(), DayIndex: 0, Date: "2026-03-15", Status: storage.DayStatusTraining,
				Meals: []storage.MealRecord{
					{ID: uuid.New(), Name: "Oats", Kcal: 400, ProteinG: 20, CarbsG: 60, FatG: 8},
					{ID: uuid.New(), Name: "Bowl", Kcal: 500, ProteinG: 30, CarbsG: 50, FatG: 15},
				},
				Workouts: []storage.WorkoutRecord{{ID: uuid.New(), Name: "fat loss Session", Blocks: []byte(`[]`)}},
			},
			{ID: uuid.New(), DayIndex: 1, Date: "2026-03-16", Status: storage.DayStatusRecovery},
		},
	}
}

func TestCreateAndGetPlan(t *testing.T) {
	ctx := context.Background()
	s := New()

	plan := samplePlan("u1")
	if err := s.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if plan.ID == uuid.Nil || plan.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at to be assigned, got %+v", plan)
	}

	got, err := s.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if len(got.Days) != 2 || len(got.Days[0].Meals) != 2 {
		t.Fatalf("unexpected plan shape: %+v", got)
	}

	// returned copies must not alias stored state
	got.Days[0].Meals[0].Name = "changed"
	again, _ := s.GetPlan(ctx, plan.ID)
	if again.Days[0].Meals[0].Name != "Oats" {
		t.Fatal("stored plan was mutated through a returned copy")
	}

	if _, err := s.GetPlan(ctx, uuid.New()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPlansNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	var ids []uuid.UUID
	for range 3 {
		p := samplePlan("u1")
		_ = s.CreatePlan(ctx, p)
		ids = append(ids, p.ID)
	}
	_ = s.CreatePlan(ctx, samplePlan("u2"))

	got, err := s.ListPlans(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(got) != 2 || got[0].ID != ids[2] || got[1].ID != ids[1] {
		t.Fatalf("expected newest two plans first, got %+v", got)
	}
}

func TestRefreshPlanViews(t *testing.T) {
	ctx := context.Background()
	s := New()
	plan := samplePlan("u1")
	_ = s.CreatePlan(ctx, plan)

	rows, _ := s.PlanDayMacros(ctx, plan.ID)
	if len(rows) != 0 {
		t.Fatalf("expected empty view before refresh, got %+v", rows)
	}

	if err := s.RefreshPlanViews(ctx); err != nil {
		t.Fatalf("RefreshPlanViews: %v", err)
	}
	rows, _ = s.PlanDayMacros(ctx, plan.ID)
	if len(rows) != 2 {
		t.Fatalf("expected 2 day rows, got %d", len(rows))
	}
	if rows[0].Kcal != 900 || rows[0].ProteinG != 50 || rows[1].Kcal != 0 {
		t.Fatalf("unexpected aggregates: %+v", rows)
	}
}

func TestUpsertCatalog(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.UpsertRecipes(ctx, []storage.RecipeRow{{ID: "r2", Name: "B"}, {ID: "r1", Name: "A"}})
	_ = s.UpsertRecipes(ctx, []storage.RecipeRow{{ID: "r1", Name: "A2"}})
	_ = s.UpsertExercises(ctx, []storage.ExerciseRow{{ID: "e1", Name: "Squat"}})

	recipes, _ := s.ListRecipes(ctx)
	if len(recipes) != 2 || recipes[0].ID != "r1" || recipes[0].Name != "A2" {
		t.Fatalf("unexpected recipes: %+v", recipes)
	}
	exercises, _ := s.ListExercises(ctx)
	if len(exercises) != 1 || exercises[0].UpdatedAt.IsZero() {
		t.Fatalf("unexpected exercises: %+v", exercises)
	}
}
