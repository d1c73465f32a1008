package epe

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
	"testing"
	"time"
)

func TestGenerate_FatLossScenario(t *testing.T) {
	in := fatLossInput()
	plan := New(WithClock(fixedClock)).Generate(in, testCatalog())

	if len(plan.Week) != 7 {
		t.Fatalf("expected 7 days, got %d", len(plan.Week))
	}
	if len(plan.Explanations) < 4 {
		t.Errorf("expected at least 4 explanations, got %d", len(plan.Explanations))
	}
	if minProtein := int(math.Round(2.1 * in.WeightKg)); plan.Macros.ProteinG < minProtein {
		t.Errorf("expected protein >= %d g, got %d", minProtein, plan.Macros.ProteinG)
	}
	if plan.KcalTarget != plan.Macros.KcalTarget {
		t.Errorf("kcal target %d differs from macros %d", plan.KcalTarget, plan.Macros.KcalTarget)
	}

	train := 0
	for _, day := range plan.Week {
		if day.Readiness != 52 {
			t.Errorf("%s: expected readiness 52, got %d", day.Date, day.Readiness)
		}
		if day.Focus == FocusTrain {
			train++
			if day.Workouts[0].Intensity != "moderate" {
				t.Errorf("%s: expected moderate intensity, got %s", day.Date, day.Workouts[0].Intensity)
			}
		}
		for _, meal := range day.Meals {
			if meal.Name == "" || meal.RecipeID == "" {
				t.Errorf("%s: meal missing name or recipe id: %+v", day.Date, meal)
			}
		}
	}
	if train != 4 {
		t.Errorf("expected 4 training days, got %d", train)
	}
}

func TestGenerate_MuscleGainScenario(t *testing.T) {
	in := muscleGainInput()
	cat := testCatalog()
	planner := New(WithClock(fixedClock))
	plan := planner.Generate(in, cat)

	ctx := planner.Context(in)
	if plan.KcalTarget <= ctx.TDEE {
		t.Errorf("expected surplus over TDEE %d, got %d", ctx.TDEE, plan.KcalTarget)
	}

	train := 0
	for _, day := range plan.Week {
		if day.Focus != FocusTrain {
			continue
		}
		train++
		for _, w := range day.Workouts {
			if w.Intensity != "progressive" {
				t.Errorf("%s: expected progressive intensity, got %s", day.Date, w.Intensity)
			}
		}
	}
	if train != 5 {
		t.Errorf("expected 5 training days, got %d", train)
	}
}

func TestGenerate_EquipmentAndDietCompliance(t *testing.T) {
	cat := testCatalog()
	byExercise := map[string]Exercise{}
	for _, ex := range cat.Exercises {
		byExercise[ex.ID] = ex
	}
	byRecipe := map[string]Recipe{}
	for _, r := range cat.Recipes {
		byRecipe[r.ID] = r
	}

	for _, in := range []Input{fatLossInput(), muscleGainInput()} {
		plan := New(WithClock(fixedClock)).Generate(in, cat)
		for _, day := range plan.Week {
			for _, meal := range day.Meals {
				if !MatchesDiet(byRecipe[meal.RecipeID], in.DietType) {
					t.Errorf("%s: recipe %s violates diet %s", in.UserID, meal.RecipeID, in.DietType)
				}
			}
			for _, w := range day.Workouts {
				for _, block := range w.Blocks {
					for _, ex := range block.Exercises {
						if !UsableWith(byExercise[ex.ExerciseID], in.Equipment) {
							t.Errorf("%s: exercise %s needs unavailable equipment", in.UserID, ex.ExerciseID)
						}
					}
				}
			}
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cat := testCatalog()
	first, err := json.Marshal(New(WithClock(fixedClock)).Generate(fatLossInput(), cat))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(New(WithClock(fixedClock)).Generate(fatLossInput(), cat))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("expected identical plans for identical input, catalog and date")
	}
}

func TestGenerate_DoesNotMutateInput(t *testing.T) {
	in := fatLossInput()
	before, _ := json.Marshal(in)
	New(WithClock(fixedClock)).Generate(in, testCatalog())
	after, _ := json.Marshal(in)
	if !bytes.Equal(before, after) {
		t.Error("input changed during generation")
	}
}

func TestGenerate_DatesStartToday(t *testing.T) {
	plan := New(WithClock(fixedClock)).Generate(muscleGainInput(), testCatalog())
	for i, day := range plan.Week {
		want := fixedNow.AddDate(0, 0, i).Format("2006-01-02")
		if day.Date != want {
			t.Errorf("day %d: expected %s, got %s", i, want, day.Date)
		}
	}
}

func TestGenerate_WithLocation(t *testing.T) {
	// 23:30 UTC on the 15th is already the 16th in UTC+3.
	late := func() time.Time { return time.Date(2026, time.March, 15, 23, 30, 0, 0, time.UTC) }
	loc := time.FixedZone("UTC+3", 3*60*60)

	plan := New(WithClock(late), WithLocation(loc)).Generate(muscleGainInput(), testCatalog())
	if plan.Week[0].Date != "2026-03-16" {
		t.Errorf("expected first date 2026-03-16, got %s", plan.Week[0].Date)
	}
}

func TestGenerate_ThinCatalog(t *testing.T) {
	cat := testCatalog()
	cat.Recipes = cat.Recipes[:2]

	in := muscleGainInput()
	in.Equipment = []string{"kettlebell"}

	plan := New(WithClock(fixedClock)).Generate(in, cat)
	wantNotes := []string{
		"Limited recipe matches; rotating available meals while respecting dietary filters.",
		"Exercise pool constrained by equipment; reusing movements to maintain consistency.",
	}
	for _, note := range wantNotes {
		if !slices.Contains(plan.Explanations, note) {
			t.Errorf("expected explanation %q, got %q", note, plan.Explanations)
		}
	}

	for _, day := range plan.Week {
		if len(day.Meals) != mealsPerDay {
			t.Errorf("%s: expected meals to rotate over 2 recipes, got %d", day.Date, len(day.Meals))
		}
		if len(day.Workouts) != 0 {
			t.Errorf("%s: expected no workouts without usable exercises, got %d", day.Date, len(day.Workouts))
		}
	}
}
