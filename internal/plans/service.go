package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/helix/epe-server/internal/epe"
	"github.com/helix/epe-server/internal/logger"
	"github.com/helix/epe-server/internal/storage"
)

var (
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("plan not found")
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	refreshRetries   = 3
)

// CatalogSource supplies the recipe and exercise snapshot for one request.
type CatalogSource interface {
	Snapshot(ctx context.Context) (epe.Catalog, error)
}

// Service runs validate -> snapshot -> generate -> persist -> refresh.
type Service struct {
	store       storage.PlansStorage
	catalog     CatalogSource
	planner     *epe.Planner
	log         *logger.Logger
	refreshBase time.Duration
}

func NewService(store storage.PlansStorage, catalog CatalogSource, planner *epe.Planner, log *logger.Logger) *Service {
	return &Service{
		store:       store,
		catalog:     catalog,
		planner:     planner,
		log:         log.With("component", "plans"),
		refreshBase: 100 * time.Millisecond,
	}
}

// BindUser applies the authenticated subject to the payload: it fills an
// empty user_id and rejects a different one.
func BindUser(subject string, in *epe.Input) error {
	if subject == "" {
		return nil
	}
	switch strings.TrimSpace(in.UserID) {
	case "":
		in.UserID = subject
		return nil
	case subject:
		return nil
	default:
		return ErrForbidden
	}
}

// Preview validates and plans without persisting anything.
func (s *Service) Preview(ctx context.Context, in epe.Input) (epe.WeekPlan, error) {
	if errs := s.planner.Validate(in); len(errs) > 0 {
		return epe.WeekPlan{}, errs
	}

	cat, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return epe.WeekPlan{}, fmt.Errorf("catalog snapshot: %w", err)
	}
	return s.planner.Generate(in, cat), nil
}

// Create plans, persists the result in one transaction and refreshes the
// per-day views. A failed refresh is logged and does not fail the call.
func (s *Service) Create(ctx context.Context, in epe.Input) (*PlanResponse, error) {
	plan, err := s.Preview(ctx, in)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}
	rec, err := toRecord(in, raw, plan)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePlan(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist plan: %w", err)
	}

	// the plan is committed; the refresh outlives a disconnected client
	s.refreshViews(context.WithoutCancel(ctx), rec.ID)

	trainDays := 0
	for _, d := range plan.Week {
		if d.Focus == epe.FocusTrain {
			trainDays++
		}
	}
	s.log.Info("plan created",
		"user_id", rec.UserID,
		"plan_id", rec.ID,
		"training_days", trainDays,
		"explanations", len(plan.Explanations),
	)

	return &PlanResponse{
		PlanID:       rec.ID,
		UserID:       rec.UserID,
		StartDate:    rec.StartDate,
		KcalTarget:   plan.KcalTarget,
		Macros:       plan.Macros,
		Week:         plan.Week,
		Explanations: plan.Explanations,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

func (s *Service) refreshViews(ctx context.Context, planID uuid.UUID) {
	backoff := retry.WithMaxRetries(refreshRetries, retry.NewExponential(s.refreshBase))
	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := s.store.RefreshPlanViews(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		s.log.Warn("plan views refresh failed", "plan_id", planID, "attempts", attempts, "error", err)
	}
}

// Get loads a persisted plan. subject, when set, must own it.
func (s *Service) Get(ctx context.Context, id uuid.UUID, subject string) (*PlanResponse, error) {
	rec, err := s.store.GetPlan(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if subject != "" && rec.UserID != subject {
		return nil, ErrForbidden
	}
	return fromRecord(rec)
}

// List returns plan headers for userID, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]PlanSummaryDTO, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	rows, err := s.store.ListPlans(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]PlanSummaryDTO, len(rows))
	for i, r := range rows {
		out[i] = PlanSummaryDTO{
			PlanID:     r.ID,
			UserID:     r.UserID,
			StartDate:  r.StartDate,
			KcalTarget: r.KcalTarget,
			CreatedAt:  r.CreatedAt,
		}
	}
	return out, nil
}

// DayTotals reads the per-day macro view for a plan.
func (s *Service) DayTotals(ctx context.Context, id uuid.UUID) ([]storage.DayMacrosRow, error) {
	return s.store.PlanDayMacros(ctx, id)
}
