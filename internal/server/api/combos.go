// Package api provides HTTP API handlers for the jutsu combo library and
// activation history.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ayusman/jutsu/internal/app"
	"github.com/ayusman/jutsu/internal/gesture"
	"github.com/ayusman/jutsu/internal/store"
)

// Selector queues a combo selection on the frame loop.
type Selector interface {
	Select(id string) error
}

// ComboHandler serves the combo library. Edits go to the live library and,
// when a store is configured, are persisted.
type ComboHandler struct {
	library  *gesture.Library
	store    *store.Store
	selector Selector
	logger   *zap.Logger
}

// NewComboHandler creates a ComboHandler. s and sel may be nil; without a
// selector the select route is not registered.
func NewComboHandler(library *gesture.Library, s *store.Store, sel Selector, logger *zap.Logger) *ComboHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComboHandler{library: library, store: s, selector: sel, logger: logger}
}

// RegisterRoutes mounts the combo routes under /api/combos.
func (h *ComboHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/combos", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Delete("/", h.delete)
			if h.selector != nil {
				r.Post("/select", h.selectCombo)
			}
		})
	})
}

type listCombosResponse struct {
	Combos []gesture.ComboDefinition `json:"combos"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (h *ComboHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listCombosResponse{Combos: h.library.List()})
}

func (h *ComboHandler) get(w http.ResponseWriter, r *http.Request) {
	def, ok := h.library.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Combo not found")
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (h *ComboHandler) create(w http.ResponseWriter, r *http.Request) {
	var def gesture.ComboDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := def.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if app.ReservedKey(def.ID) {
		writeError(w, http.StatusBadRequest, "Combo id is reserved for a key binding")
		return
	}

	// The library claims the id first so concurrent creates conflict there
	// instead of on the table's primary key.
	if err := h.library.Add(def); err != nil {
		if errors.Is(err, gesture.ErrDuplicateCombo) {
			writeError(w, http.StatusConflict, "Combo already exists")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.store != nil {
		if err := h.store.Combos().Create(def); err != nil {
			h.library.Remove(def.ID)
			h.logger.Error("failed to store combo", zap.String("combo", def.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to create combo")
			return
		}
	}

	h.logger.Info("combo created", zap.String("combo", def.ID), zap.String("name", def.Name))
	writeJSON(w, http.StatusCreated, def)
}

func (h *ComboHandler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.library.Get(id); !ok {
		writeError(w, http.StatusNotFound, "Combo not found")
		return
	}

	var def gesture.ComboDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	def.ID = id
	if err := def.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.store != nil {
		err := h.store.Combos().Update(def)
		if errors.Is(err, store.ErrNotFound) {
			// Combos that only came from the config file are persisted on first edit.
			err = h.store.Combos().Create(def)
		}
		if err != nil {
			h.logger.Error("failed to store combo", zap.String("combo", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to update combo")
			return
		}
	}
	if err := h.library.Replace(def); err != nil {
		writeError(w, http.StatusNotFound, "Combo not found")
		return
	}

	writeJSON(w, http.StatusOK, def)
}

func (h *ComboHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.library.Remove(id); err != nil {
		writeError(w, http.StatusNotFound, "Combo not found")
		return
	}

	if h.store != nil {
		if err := h.store.Combos().Delete(id); err != nil && !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("failed to delete stored combo", zap.String("combo", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to delete combo")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ComboHandler) selectCombo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.selector.Select(id); err != nil {
		if errors.Is(err, gesture.ErrUnknownCombo) {
			writeError(w, http.StatusNotFound, "Combo not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to select combo")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "selected", "combo": id})
}
