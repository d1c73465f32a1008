package plans

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/helix/epe-server/internal/epe"
	"github.com/helix/epe-server/internal/reports"
	"github.com/helix/epe-server/internal/userctx"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	service *Service
	reports *reports.Service
}

func NewHandlers(service *Service, reportsService *reports.Service) *Handlers {
	return &Handlers{service: service, reports: reportsService}
}

// HandlePreview handles POST /v1/plans/preview
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	plan, err := h.service.Preview(r.Context(), in)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// HandleCreate handles POST /v1/plans
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleGet handles GET /v1/plans/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePlanID(w, r)
	if !ok {
		return
	}

	subject, _ := userctx.GetUserID(r.Context())
	resp, err := h.service.Get(r.Context(), id, subject)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleList handles GET /v1/plans?user_id=&limit=
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	subject, _ := userctx.GetUserID(r.Context())
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	switch {
	case userID == "" && subject == "":
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	case userID == "":
		userID = subject
	case subject != "" && userID != subject:
		writeError(w, http.StatusForbidden, "forbidden", "user_id does not match token")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = l
	}

	items, err := h.service.List(r.Context(), userID, limit)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListPlansResponse{Plans: items})
}

// HandleReport handles GET /v1/plans/{id}/report?format=pdf|csv
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePlanID(w, r)
	if !ok {
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = reports.FormatPDF
	}
	if format != reports.FormatPDF && format != reports.FormatCSV {
		writeError(w, http.StatusBadRequest, "invalid_format", "Format must be 'pdf' or 'csv'")
		return
	}

	ctx := r.Context()
	subject, _ := userctx.GetUserID(ctx)
	plan, err := h.service.Get(ctx, id, subject)
	if err != nil {
		h.handleError(w, err)
		return
	}

	totals, err := h.service.DayTotals(ctx, id)
	if err != nil {
		h.service.log.Warn("plan day totals unavailable", "plan_id", id, "error", err)
		totals = nil
	}

	out, err := h.reports.Publish(ctx, reports.WeekReport{
		PlanID:       plan.PlanID,
		UserID:       plan.UserID,
		StartDate:    plan.StartDate,
		KcalTarget:   plan.KcalTarget,
		Macros:       plan.Macros,
		Week:         plan.Week,
		Explanations: plan.Explanations,
		DayTotals:    totals,
	}, format)
	if err != nil {
		h.service.log.Error("plan report failed", "plan_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to build report")
		return
	}

	if out.URL != "" {
		writeJSON(w, http.StatusOK, ReportURLResponse{URL: out.URL})
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Data)
}

// decodeInput reads the body and binds the authenticated subject.
func (h *Handlers) decodeInput(w http.ResponseWriter, r *http.Request) (epe.Input, bool) {
	var in epe.Input
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return in, false
	}

	subject, _ := userctx.GetUserID(r.Context())
	if err := BindUser(subject, &in); err != nil {
		writeError(w, http.StatusForbidden, "forbidden", "user_id does not match token")
		return in, false
	}
	return in, true
}

func (h *Handlers) handleError(w http.ResponseWriter, err error) {
	var verrs epe.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"code":    "invalid_input",
				"message": "Input failed validation",
				"details": verrs,
			},
		})
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Plan not found")
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "Plan belongs to another user")
	default:
		h.service.log.Error("plans request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func parsePlanID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Invalid plan ID")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
