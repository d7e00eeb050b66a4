package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/jutsu/internal/store"
)

// DefaultActivationLimit caps the history returned when no limit is given.
const DefaultActivationLimit = 50

// ActivationHandler serves the activation history.
type ActivationHandler struct {
	store *store.Store
}

// NewActivationHandler creates an ActivationHandler with the given store.
func NewActivationHandler(s *store.Store) *ActivationHandler {
	return &ActivationHandler{store: s}
}

// RegisterRoutes mounts GET /api/activations.
func (h *ActivationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/activations", h.list)
}

type listActivationsResponse struct {
	Activations []*store.Activation `json:"activations"`
}

func (h *ActivationHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultActivationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	activations, err := h.store.Activations().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list activations")
		return
	}
	if activations == nil {
		activations = []*store.Activation{}
	}
	writeJSON(w, http.StatusOK, listActivationsResponse{Activations: activations})
}
