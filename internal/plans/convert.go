package plans

import (
	"encoding/json"
	"fmt"

	"github.com/helix/epe-server/internal/epe"
	"github.com/helix/epe-server/internal/storage"
)

// toRecord flattens a generated plan into storage rows.
func toRecord(in epe.Input, raw json.RawMessage, plan epe.WeekPlan) (*storage.PlanRecord, error) {
	rec := &storage.PlanRecord{
		UserID:       in.UserID,
		KcalTarget:   plan.KcalTarget,
		ProteinG:     plan.Macros.ProteinG,
		FatG:         plan.Macros.FatG,
		CarbsG:       plan.Macros.CarbsG,
		Explanations: plan.Explanations,
		Input:        raw,
		Days:         make([]storage.PlanDayRecord, 0, len(plan.Week)),
	}
	if len(plan.Week) > 0 {
		rec.StartDate = plan.Week[0].Date
		rec.Readiness = plan.Week[0].Readiness
	}

	for i, day := range plan.Week {
		d := storage.PlanDayRecord{
			DayIndex:    i,
			Date:        day.Date,
			Status:      storage.DayStatusRecovery,
			Readiness:   day.Readiness,
			Adjustments: day.Adjustments,
			Meals:       make([]storage.MealRecord, 0, len(day.Meals)),
			Workouts:    make([]storage.WorkoutRecord, 0, len(day.Workouts)),
		}
		if day.Focus == epe.FocusTrain {
			d.Status = storage.DayStatusTraining
		}
		for _, m := range day.Meals {
			d.Meals = append(d.Meals, storage.MealRecord{
				Name:     m.Name,
				MealType: m.MealType,
				Kcal:     m.Kcal,
				ProteinG: m.ProteinG,
				CarbsG:   m.CarbsG,
				FatG:     m.FatG,
				RecipeID: m.RecipeID,
			})
		}
		for _, w := range day.Workouts {
			blocks, err := json.Marshal(w.Blocks)
			if err != nil {
				return nil, fmt.Errorf("marshal workout blocks: %w", err)
			}
			d.Workouts = append(d.Workouts, storage.WorkoutRecord{
				Name:      w.Name,
				Focus:     w.Focus,
				Intensity: w.Intensity,
				Blocks:    blocks,
			})
		}
		rec.Days = append(rec.Days, d)
	}
	return rec, nil
}

// fromRecord reassembles the API shape from storage rows.
func fromRecord(rec *storage.PlanRecord) (*PlanResponse, error) {
	resp := &PlanResponse{
		PlanID:     rec.ID,
		UserID:     rec.UserID,
		StartDate:  rec.StartDate,
		KcalTarget: rec.KcalTarget,
		Macros: epe.Macros{
			ProteinG:   rec.ProteinG,
			FatG:       rec.FatG,
			CarbsG:     rec.CarbsG,
			KcalTarget: rec.KcalTarget,
		},
		Week:         make([]epe.DayPlan, 0, len(rec.Days)),
		Explanations: nonNil(rec.Explanations),
		CreatedAt:    rec.CreatedAt,
	}

	for _, d := range rec.Days {
		day := epe.DayPlan{
			Date:        d.Date,
			Readiness:   d.Readiness,
			Focus:       epe.FocusRecover,
			Adjustments: nonNil(d.Adjustments),
			Meals:       make([]epe.Meal, 0, len(d.Meals)),
			Workouts:    make([]epe.Workout, 0, len(d.Workouts)),
		}
		if d.Status == storage.DayStatusTraining {
			day.Focus = epe.FocusTrain
		}
		for _, m := range d.Meals {
			day.Meals = append(day.Meals, epe.Meal{
				Name:     m.Name,
				MealType: m.MealType,
				Kcal:     m.Kcal,
				ProteinG: m.ProteinG,
				CarbsG:   m.CarbsG,
				FatG:     m.FatG,
				RecipeID: m.RecipeID,
			})
		}
		for _, w := range d.Workouts {
			wo := epe.Workout{Name: w.Name, Focus: w.Focus, Intensity: w.Intensity, Blocks: []epe.WorkoutBlock{}}
			if len(w.Blocks) > 0 {
				if err := json.Unmarshal(w.Blocks, &wo.Blocks); err != nil {
					return nil, fmt.Errorf("workout %s blocks: %w", w.ID, err)
				}
			}
			day.Workouts = append(day.Workouts, wo)
		}
		resp.Week = append(resp.Week, day)
	}
	return resp, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
