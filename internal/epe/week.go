package epe

import (
	"strings"
	"time"
)

const (
	daysInWeek       = 7
	mealsPerDay      = 4
	exercisesPerDay  = 5
	primaryExercises = 3
	shortSessionMin  = 45
	maxTrainingDays  = 6
)

var mealTypes = [mealsPerDay]string{"breakfast", "lunch", "snack", "dinner"}

// pick returns count items from pool starting at offset, wrapping around the
// end. An empty pool yields nil.
func pick[T any](pool []T, count, offset int) []T {
	if len(pool) == 0 {
		return nil
	}
	chosen := make([]T, count)
	for i := range count {
		chosen[i] = pool[(offset+i)%len(pool)]
	}
	return chosen
}

// TrainingDays clamps the requested weekly training days to [1, 6].
func TrainingDays(requested int) int {
	return min(maxTrainingDays, max(1, requested))
}

type weekBuilder struct {
	in        Input
	readiness int
	recipes   []Recipe
	exercises []Exercise
	start     time.Time
}

func (b weekBuilder) build() []DayPlan {
	trainDays := TrainingDays(b.in.TrainingDaysPerWeek)
	week := make([]DayPlan, 0, daysInWeek)
	for i := range daysInWeek {
		week = append(week, b.day(i, i < trainDays))
	}
	return week
}

func (b weekBuilder) day(i int, training bool) DayPlan {
	date := time.Date(b.start.Year(), b.start.Month(), b.start.Day()+i, 0, 0, 0, 0, b.start.Location())
	day := DayPlan{
		Date:        date.Format("2006-01-02"),
		Readiness:   b.readiness,
		Focus:       FocusRecover,
		Adjustments: []string{},
		Workouts:    []Workout{},
		Meals:       b.meals(i),
	}

	if !training {
		day.Adjustments = append(day.Adjustments, "Active recovery emphasis: mobility, walking, and hydration.")
		return day
	}

	day.Focus = FocusTrain
	if b.in.SessionLengthMin < shortSessionMin {
		day.Adjustments = append(day.Adjustments, "Session condensed with higher density to fit <45 minute window.")
	}
	if b.in.TrainingAge == TrainingAgeNew {
		day.Adjustments = append(day.Adjustments, "Form-focused cues and moderate RPE (6-7) for new lifter progression.")
	}
	if workout := b.workout(i); len(workout.Blocks) > 0 {
		day.Workouts = append(day.Workouts, workout)
	}
	return day
}

func (b weekBuilder) meals(i int) []Meal {
	chosen := pick(b.recipes, mealsPerDay, i)
	meals := make([]Meal, len(chosen))
	for idx, r := range chosen {
		meals[idx] = Meal{
			Name:     r.Name,
			MealType: mealTypes[idx],
			Kcal:     r.Kcal,
			ProteinG: r.ProteinG,
			CarbsG:   r.CarbsG,
			FatG:     r.FatG,
			RecipeID: r.ID,
		}
	}
	return meals
}

func (b weekBuilder) workout(i int) Workout {
	chosen := pick(b.exercises, exercisesPerDay, i)
	newLifter := b.in.TrainingAge == TrainingAgeNew
	endurance := b.in.PrimaryGoal == GoalEndurance

	primary := WorkoutBlock{Title: "Primary Strength", Exercises: []BlockExercise{}}
	accessory := WorkoutBlock{Title: "Accessory / Conditioning", Exercises: []BlockExercise{}}

	for idx, ex := range chosen {
		if idx < primaryExercises {
			set := BlockExercise{
				ExerciseID: ex.ID,
				Name:       ex.Name,
				Sets:       4,
				Reps:       "6-10",
				Tempo:      "2010",
				RestSec:    90,
			}
			if newLifter {
				set.Sets = 3
				set.Tempo = "3010"
			}
			if endurance {
				set.Reps = "12-15"
			}
			if b.in.SessionLengthMin < shortSessionMin {
				set.RestSec = 60
			}
			primary.Exercises = append(primary.Exercises, set)
			continue
		}

		set := BlockExercise{
			ExerciseID: ex.ID,
			Name:       ex.Name,
			Sets:       3,
			Reps:       "10-12",
			Tempo:      "2010",
			RestSec:    45,
		}
		if endurance {
			set.Reps = "15-20"
		}
		accessory.Exercises = append(accessory.Exercises, set)
	}

	blocks := make([]WorkoutBlock, 0, 2)
	for _, block := range []WorkoutBlock{primary, accessory} {
		if len(block.Exercises) > 0 {
			blocks = append(blocks, block)
		}
	}

	return Workout{
		Name:      strings.Replace(string(b.in.PrimaryGoal), "_", " ", 1) + " Session",
		Focus:     string(b.in.PrimaryGoal),
		Intensity: Intensity(b.readiness),
		Blocks:    blocks,
	}
}
