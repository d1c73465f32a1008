package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound возвращается, когда запрошенная запись отсутствует.
var ErrNotFound = errors.New("not found")

// Day status values persisted in plan_days.status.
const (
	DayStatusTraining = "training"
	DayStatusRecovery = "recovery"
)

// RecipeRow: строка каталога рецептов
type RecipeRow struct {
	ID          string
	Name        string
	Kcal        int
	ProteinG    float64
	CarbsG      float64
	FatG        float64
	DietType    string
	Allergens   []string
	Ingredients json.RawMessage // opaque ingredient list
	Tags        json.RawMessage // {"meal_type","diet":[],"macro_focus"}
	UpdatedAt   time.Time
}

// ExerciseRow: строка каталога упражнений
type ExerciseRow struct {
	ID          string
	Name        string
	Description *string
	Tags        json.RawMessage // {"equipment":[],"pattern":[],"focus":[],"complexity"}
	UpdatedAt   time.Time
}

// CatalogStorage: каталоги рецептов и упражнений, только чтение для планировщика
type CatalogStorage interface {
	// ListRecipes возвращает все рецепты в порядке id
	ListRecipes(ctx context.Context) ([]RecipeRow, error)

	// ListExercises возвращает все упражнения в порядке id
	ListExercises(ctx context.Context) ([]ExerciseRow, error)

	// UpsertRecipes вставляет или обновляет рецепты по id
	UpsertRecipes(ctx context.Context, rows []RecipeRow) error

	// UpsertExercises вставляет или обновляет упражнения по id
	UpsertExercises(ctx context.Context, rows []ExerciseRow) error
}

// PlanRecord is a generated week plan with everything needed to reassemble it.
type PlanRecord struct {
	ID           uuid.UUID
	UserID       string
	StartDate    string // YYYY-MM-DD, first day of the week
	KcalTarget   int
	ProteinG     int
	FatG         int
	CarbsG       int
	Readiness    int
	Explanations []string
	Input        json.RawMessage // request as received
	CreatedAt    time.Time
	Days         []PlanDayRecord
}

type PlanDayRecord struct {
	ID          uuid.UUID
	DayIndex    int
	Date        string // YYYY-MM-DD
	Status      string // training | recovery
	Readiness   int
	Adjustments []string
	Meals       []MealRecord
	Workouts    []WorkoutRecord
}

type MealRecord struct {
	ID       uuid.UUID
	Name     string
	MealType string
	Kcal     int
	ProteinG float64
	CarbsG   float64
	FatG     float64
	RecipeID string
}

type WorkoutRecord struct {
	ID        uuid.UUID
	Name      string
	Focus     string
	Intensity string
	Blocks    json.RawMessage
}

// PlanSummary: заголовок плана для списков
type PlanSummary struct {
	ID         uuid.UUID
	UserID     string
	StartDate  string
	KcalTarget int
	CreatedAt  time.Time
}

// DayMacrosRow: строка представления plan_day_macros
type DayMacrosRow struct {
	PlanID   uuid.UUID
	DayIndex int
	Date     string
	Kcal     int
	ProteinG float64
	CarbsG   float64
	FatG     float64
}

// PlansStorage: сохранённые планы
type PlansStorage interface {
	// CreatePlan сохраняет план со всеми днями, приёмами пищи и тренировками атомарно.
	// CreatedAt заполняется хранилищем.
	CreatePlan(ctx context.Context, plan *PlanRecord) error

	// GetPlan возвращает план целиком или ErrNotFound
	GetPlan(ctx context.Context, id uuid.UUID) (*PlanRecord, error)

	// ListPlans возвращает заголовки планов пользователя, новые первыми
	ListPlans(ctx context.Context, userID string, limit int) ([]PlanSummary, error)

	// RefreshPlanViews пересчитывает агрегаты по дням. Идемпотентно.
	RefreshPlanViews(ctx context.Context) error

	// PlanDayMacros возвращает суммы макронутриентов по дням плана
	PlanDayMacros(ctx context.Context, planID uuid.UUID) ([]DayMacrosRow, error)
}

// Storage объединяет каталоги и планы
type Storage interface {
	CatalogStorage
	PlansStorage

	// Close закрывает соединение (для Postgres и SQLite)
	Close() error
}

// SumDayMacros aggregates meal macros per day, the same way the
// plan_day_macros view does.
func SumDayMacros(plan *PlanRecord) []DayMacrosRow {
	rows := make([]DayMacrosRow, 0, len(plan.Days))
	for _, day := range plan.Days {
		row := DayMacrosRow{PlanID: plan.ID, DayIndex: day.DayIndex, Date: day.Date}
		for _, m := range day.Meals {
			row.Kcal += m.Kcal
			row.ProteinG += m.ProteinG
			row.CarbsG += m.CarbsG
			row.FatG += m.FatG
		}
		rows = append(rows, row)
	}
	return rows
}
