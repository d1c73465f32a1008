package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helix/epe-server/internal/storage"
)

// MemoryStorage: in-memory реализация storage.Storage
type MemoryStorage struct {
	mu        sync.RWMutex
	recipes   map[string]storage.RecipeRow
	exercises map[string]storage.ExerciseRow
	plans     map[uuid.UUID]*storage.PlanRecord
	// dayMacros is the materialized per-day aggregate, rebuilt by RefreshPlanViews
	dayMacros map[uuid.UUID][]storage.DayMacrosRow
	now       func() time.Time
}

var _ storage.Storage = (*MemoryStorage)(nil)

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		recipes:   make(map[string]storage.RecipeRow),
		exercises: make(map[string]storage.ExerciseRow),
		plans:     make(map[uuid.UUID]*storage.PlanRecord),
		dayMacros: make(map[uuid.UUID][]storage.DayMacrosRow),
		now:       time.Now,
	}
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) ListRecipes(ctx context.Context) ([]storage.RecipeRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]storage.RecipeRow, 0, len(m.recipes))
	for _, r := range m.recipes {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (m *MemoryStorage) ListExercises(ctx context.Context) ([]storage.ExerciseRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]storage.ExerciseRow, 0, len(m.exercises))
	for _, e := range m.exercises {
		rows = append(rows, e)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (m *MemoryStorage) UpsertRecipes(ctx context.Context, rows []storage.RecipeRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	for _, r := range rows {
		r.Allergens = slices.Clone(r.Allergens)
		r.Ingredients = slices.Clone(r.Ingredients)
		r.Tags = slices.Clone(r.Tags)
		r.UpdatedAt = now
		m.recipes[r.ID] = r
	}
	return nil
}

func (m *MemoryStorage) UpsertExercises(ctx context.Context, rows []storage.ExerciseRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	for _, e := range rows {
		e.Tags = slices.Clone(e.Tags)
		e.UpdatedAt = now
		m.exercises[e.ID] = e
	}
	return nil
}

func (m *MemoryStorage) CreatePlan(ctx context.Context, plan *storage.PlanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	plan.CreatedAt = m.now().UTC()
	m.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (m *MemoryStorage) GetPlan(ctx context.Context, id uuid.UUID) (*storage.PlanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plan, ok := m.plans[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clonePlan(plan), nil
}

func (m *MemoryStorage) ListPlans(ctx context.Context, userID string, limit int) ([]storage.PlanSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []storage.PlanSummary{}
	for _, p := range m.plans {
		if p.UserID != userID {
			continue
		}
		out = append(out, storage.PlanSummary{
			ID:         p.ID,
			UserID:     p.UserID,
			StartDate:  p.StartDate,
			KcalTarget: p.KcalTarget,
			CreatedAt:  p.CreatedAt,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return strings.Compare(out[i].ID.String(), out[j].ID.String()) > 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStorage) RefreshPlanViews(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	views := make(map[uuid.UUID][]storage.DayMacrosRow, len(m.plans))
	for id, p := range m.plans {
		views[id] = storage.SumDayMacros(p)
	}
	m.dayMacros = views
	return nil
}

func (m *MemoryStorage) PlanDayMacros(ctx context.Context, planID uuid.UUID) ([]storage.DayMacrosRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.dayMacros[planID]), nil
}

func clonePlan(p *storage.PlanRecord) *storage.PlanRecord {
	c := *p
	c.Explanations = slices.Clone(p.Explanations)
	c.Input = slices.Clone(p.Input)
	c.Days = make([]storage.PlanDayRecord, len(p.Days))
	for i, d := range p.Days {
		d.Adjustments = slices.Clone(d.Adjustments)
		d.Meals = slices.Clone(d.Meals)
		d.Workouts = make([]storage.WorkoutRecord, len(p.Days[i].Workouts))
		for j, w := range p.Days[i].Workouts {
			w.Blocks = slices.Clone(w.Blocks)
			d.Workouts[j] = w
		}
		c.Days[i] = d
	}
	return &c
}
