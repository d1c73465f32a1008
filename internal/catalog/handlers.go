package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/helix/epe-server/internal/epe"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

type RecipesResponse struct {
	Recipes []epe.Recipe `json:"recipes"`
}

type ExercisesResponse struct {
	Exercises []epe.Exercise `json:"exercises"`
}

// HandleListRecipes returns the current recipe catalog.
// GET /v1/catalog/recipes
func (h *Handlers) HandleListRecipes(w http.ResponseWriter, r *http.Request) {
	cat, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.service.log.Error("catalog snapshot failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, RecipesResponse{Recipes: cat.Recipes})
}

// HandleListExercises returns the current exercise catalog.
// GET /v1/catalog/exercises
func (h *Handlers) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	cat, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.service.log.Error("catalog snapshot failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, ExercisesResponse{Exercises: cat.Exercises})
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
