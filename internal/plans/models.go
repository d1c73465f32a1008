package plans

import (
	"time"

	"github.com/google/uuid"

	"github.com/helix/epe-server/internal/epe"
)

// PlanResponse is the persisted plan in the same shape as a fresh one.
type PlanResponse struct {
	PlanID       uuid.UUID     `json:"plan_id"`
	UserID       string        `json:"user_id"`
	StartDate    string        `json:"start_date"`
	KcalTarget   int           `json:"kcal_target"`
	Macros       epe.Macros    `json:"macros"`
	Week         []epe.DayPlan `json:"week"`
	Explanations []string      `json:"explanations"`
	CreatedAt    time.Time     `json:"created_at"`
}

type PlanSummaryDTO struct {
	PlanID     uuid.UUID `json:"plan_id"`
	UserID     string    `json:"user_id"`
	StartDate  string    `json:"start_date"`
	KcalTarget int       `json:"kcal_target"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListPlansResponse struct {
	Plans []PlanSummaryDTO `json:"plans"`
}

type ReportURLResponse struct {
	URL string `json:"url"`
}
