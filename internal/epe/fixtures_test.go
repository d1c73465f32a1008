package epe

import (
	"encoding/json"
	"time"
)

func ptr[T any](v T) *T { return &v }

var fixedNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testCatalog() Catalog {
	return Catalog{
		Recipes: []Recipe{
			{ID: "recipe-1", Name: "Tofu Power Bowl", Kcal: 520, ProteinG: 32, CarbsG: 58, FatG: 18, DietType: "vegan",
				Tags: RecipeTags{MealType: "lunch", Diet: []string{"vegan"}, MacroFocus: "balanced"}},
			{ID: "recipe-2", Name: "Chickpea Salad", Kcal: 430, ProteinG: 22, CarbsG: 55, FatG: 12, DietType: "vegetarian",
				Tags: RecipeTags{MealType: "dinner", Diet: []string{"vegetarian"}, MacroFocus: "balanced"}},
			{ID: "recipe-3", Name: "Berry Smoothie", Kcal: 300, ProteinG: 26, CarbsG: 35, FatG: 5, DietType: "vegetarian",
				Tags: RecipeTags{MealType: "snack", MacroFocus: "high_protein"}},
			{ID: "recipe-4", Name: "Quinoa Breakfast", Kcal: 410, ProteinG: 24, CarbsG: 52, FatG: 11, DietType: "vegan",
				Tags: RecipeTags{MealType: "breakfast", MacroFocus: "balanced"}},
			{ID: "recipe-5", Name: "Lentil Stew", Kcal: 460, ProteinG: 24, CarbsG: 60, FatG: 10, DietType: "vegan",
				Tags: RecipeTags{MealType: "dinner", MacroFocus: "carb_forward"}},
		},
		Exercises: []Exercise{
			{ID: "ex-1", Name: "Goblet Squat", Tags: ExerciseTags{Equipment: []string{"dumbbells"}, Pattern: []string{"squat"}, Complexity: "beginner"}},
			{ID: "ex-2", Name: "Dumbbell RDL", Tags: ExerciseTags{Equipment: []string{"dumbbells"}, Pattern: []string{"hinge"}, Complexity: "beginner"}},
			{ID: "ex-3", Name: "Band Row", Tags: ExerciseTags{Equipment: []string{"bands"}, Pattern: []string{"pull"}, Complexity: "beginner"}},
			{ID: "ex-4", Name: "Tempo Push-Up", Tags: ExerciseTags{Equipment: []string{"bodyweight"}, Pattern: []string{"push"}, Complexity: "beginner"}},
			{ID: "ex-5", Name: "Plank", Tags: ExerciseTags{Equipment: []string{"bodyweight"}, Pattern: []string{"core"}, Complexity: "beginner"}},
			{ID: "ex-6", Name: "Barbell Back Squat", Tags: ExerciseTags{Equipment: []string{"barbell", "rack"}, Pattern: []string{"squat"}, Complexity: "intermediate"}},
			{ID: "ex-7", Name: "Bench Press", Tags: ExerciseTags{Equipment: []string{"barbell", "bench"}, Pattern: []string{"push"}, Complexity: "intermediate"}},
			{ID: "ex-8", Name: "Lat Pulldown", Tags: ExerciseTags{Equipment: []string{"cable", "gym"}, Pattern: []string{"pull"}, Complexity: "beginner"}},
		},
	}
}

func fatLossInput() Input {
	return Input{
		UserID:              "user-fatloss",
		Sex:                 SexMale,
		DOB:                 "1990-05-04",
		HeightCm:            180,
		WeightKg:            86,
		BodyFatPc:           ptr(17.0),
		TrainingAge:         TrainingAgeNew,
		ActivityLevel:       ActivityModerate,
		Equipment:           []string{"dumbbells", "bands", "bodyweight"},
		PrimaryGoal:         GoalFatLoss,
		GoalDurationWeeks:   12,
		WeeklyChangeRate:    ptr(-0.4),
		DietType:            DietVegetarian,
		Allergies:           []string{},
		RestrictedFoods:     []string{},
		PreferredFoods:      []string{},
		TrainingDaysPerWeek: 4,
		SessionLengthMin:    40,
		RecentMetrics: &RecentMetrics{
			Steps:      ptr(4200),
			HRVRMSSD:   ptr(38.0),
			SleepScore: ptr(68.0),
		},
		StressBaseline:     ptr(3),
		MotivationBaseline: ptr(2),
	}
}

func muscleGainInput() Input {
	return Input{
		UserID:              "user-muscle",
		Sex:                 SexMale,
		DOB:                 "1985-03-10",
		HeightCm:            183,
		WeightKg:            88,
		BodyFatPc:           ptr(15.0),
		TrainingAge:         TrainingAgeThreePlus,
		ActivityLevel:       ActivityHigh,
		Equipment:           []string{"barbell", "bench", "rack", "cable", "gym", "dumbbells"},
		PrimaryGoal:         GoalMuscleGain,
		GoalDurationWeeks:   16,
		DietType:            DietOmnivore,
		Allergies:           []string{},
		RestrictedFoods:     []string{},
		PreferredFoods:      []string{},
		TrainingDaysPerWeek: 5,
		SessionLengthMin:    70,
		RecentMetrics: &RecentMetrics{
			Steps:      ptr(9000),
			HRVRMSSD:   ptr(75.0),
			SleepScore: ptr(82.0),
		},
		StressBaseline:     ptr(2),
		MotivationBaseline: ptr(4),
	}
}

func ingredients(items ...string) json.RawMessage {
	raw, _ := json.Marshal(items)
	return raw
}
