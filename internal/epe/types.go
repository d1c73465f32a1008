package epe

import "encoding/json"

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

type Goal string

const (
	GoalFatLoss     Goal = "fat_loss"
	GoalMuscleGain  Goal = "muscle_gain"
	GoalRecomp      Goal = "recomp"
	GoalEndurance   Goal = "endurance"
	GoalMaintenance Goal = "maintenance"
)

type TrainingAge string

const (
	TrainingAgeNew       TrainingAge = "new"
	TrainingAgeOneToTwo  TrainingAge = "1-2y"
	TrainingAgeThreePlus TrainingAge = "3y+"
)

type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityHigh      ActivityLevel = "high"
	ActivityAthlete   ActivityLevel = "athlete"
)

type DietType string

const (
	DietOmnivore    DietType = "omnivore"
	DietPescatarian DietType = "pescatarian"
	DietVegetarian  DietType = "vegetarian"
	DietVegan       DietType = "vegan"
	DietPaleo       DietType = "paleo"
	DietKeto        DietType = "keto"
	DietLowFODMAP   DietType = "lowFODMAP"
)

// Focus of a single day in the week.
const (
	FocusTrain   = "train"
	FocusRecover = "recover"
)

// RecentMetrics holds the latest wearable signals. Zero values are treated as
// missing readings.
type RecentMetrics struct {
	HRVRMSSD   *float64 `json:"hrv_rmssd,omitempty"`
	RHR        *float64 `json:"rhr,omitempty"`
	SleepScore *float64 `json:"sleep_score,omitempty"`
	Steps      *int     `json:"steps,omitempty"`
}

// Input is a planning request. It is supplied whole per call and never
// mutated by the planner.
type Input struct {
	UserID    string   `json:"user_id"`
	Sex       Sex      `json:"sex"`
	DOB       string   `json:"dob"`
	HeightCm  float64  `json:"height_cm"`
	WeightKg  float64  `json:"weight_kg"`
	BodyFatPc *float64 `json:"body_fat_pct,omitempty"`

	TrainingAge   TrainingAge   `json:"training_age"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	Equipment     []string      `json:"equipment"`

	PrimaryGoal       Goal     `json:"primary_goal"`
	TargetWeightKg    *float64 `json:"target_weight_kg,omitempty"`
	WeeklyChangeRate  *float64 `json:"weekly_change_rate,omitempty"`
	GoalDurationWeeks int      `json:"goal_duration_weeks"`

	DietType        DietType `json:"diet_type"`
	Allergies       []string `json:"allergies"`
	RestrictedFoods []string `json:"restricted_foods"`
	PreferredFoods  []string `json:"preferred_foods"`

	WakeTime            string `json:"wake_time,omitempty"`
	SleepTime           string `json:"sleep_time,omitempty"`
	StressBaseline      *int   `json:"stress_baseline,omitempty"`
	MotivationBaseline  *int   `json:"motivation_baseline,omitempty"`
	TrainingDaysPerWeek int    `json:"training_days_per_week"`
	SessionLengthMin    int    `json:"session_length_min"`

	RecentMetrics *RecentMetrics `json:"recent_metrics,omitempty"`
}

type RecipeTags struct {
	MealType   string   `json:"meal_type,omitempty" yaml:"meal_type,omitempty"`
	Diet       []string `json:"diet,omitempty" yaml:"diet,omitempty"`
	MacroFocus string   `json:"macro_focus,omitempty" yaml:"macro_focus,omitempty"`
}

// Recipe is a read-only catalog entry.
type Recipe struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Kcal        int             `json:"kcal"`
	ProteinG    float64         `json:"protein_g"`
	CarbsG      float64         `json:"carbs_g"`
	FatG        float64         `json:"fat_g"`
	DietType    string          `json:"diet_type"`
	Allergens   []string        `json:"allergens"`
	Ingredients json.RawMessage `json:"ingredients,omitempty"`
	Tags        RecipeTags      `json:"tags"`
}

type ExerciseTags struct {
	Equipment  []string `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	Pattern    []string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Focus      []string `json:"focus,omitempty" yaml:"focus,omitempty"`
	Complexity string   `json:"complexity,omitempty" yaml:"complexity,omitempty"`
}

// Exercise is a read-only catalog entry.
type Exercise struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Tags        ExerciseTags `json:"tags"`
}

// Catalog is a point-in-time snapshot of both catalogs.
type Catalog struct {
	Recipes   []Recipe   `json:"recipes"`
	Exercises []Exercise `json:"exercises"`
}

type Macros struct {
	ProteinG   int `json:"protein_g"`
	FatG       int `json:"fat_g"`
	CarbsG     int `json:"carbs_g"`
	KcalTarget int `json:"kcal_target"`
}

// DerivedContext lives for the duration of one planning call.
type DerivedContext struct {
	Age            int
	BMR            float64
	ActivityFactor float64
	TDEE           int
	KcalTarget     int
	Macros         Macros
	Explanations   []string
}

type BlockExercise struct {
	ExerciseID string `json:"exercise_id"`
	Name       string `json:"name"`
	Sets       int    `json:"sets"`
	Reps       string `json:"reps"`
	Tempo      string `json:"tempo,omitempty"`
	RestSec    int    `json:"rest_sec,omitempty"`
}

type WorkoutBlock struct {
	Title     string          `json:"title"`
	Notes     string          `json:"notes,omitempty"`
	Exercises []BlockExercise `json:"exercises"`
}

type Workout struct {
	Name      string         `json:"name"`
	Focus     string         `json:"focus,omitempty"`
	Intensity string         `json:"intensity,omitempty"`
	Blocks    []WorkoutBlock `json:"blocks"`
}

type Meal struct {
	Name     string  `json:"name"`
	MealType string  `json:"meal_type"`
	Kcal     int     `json:"kcal"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	RecipeID string  `json:"recipe_id"`
}

type DayPlan struct {
	Date        string    `json:"date"`
	Readiness   int       `json:"readiness"`
	Focus       string    `json:"focus"`
	Adjustments []string  `json:"adjustments"`
	Workouts    []Workout `json:"workouts"`
	Meals       []Meal    `json:"meals"`
}

// WeekPlan is the planner output handed back to the caller for persistence.
type WeekPlan struct {
	Week         []DayPlan `json:"week"`
	Explanations []string  `json:"explanations"`
	Macros       Macros    `json:"macros"`
	KcalTarget   int       `json:"kcal_target"`
}
