package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dkarpov/fleetwire/internal/modules/notification/application"
	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

type PreferenceHandler struct {
	service *application.PreferenceService
}

func NewPreferenceHandler(service *application.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

// List returns all preference rows for the caller, seeding defaults on
// first access.
func (h *PreferenceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, carrierID, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if carrierID == uuid.Nil {
		http.Error(w, "carrier is required", http.StatusBadRequest)
		return
	}

	prefs, err := h.service.List(r.Context(), userID, carrierID)
	if err != nil {
		http.Error(w, "failed to fetch preferences", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": prefs})
}

// Update upserts an array of per-type channel flags and returns the full
// refreshed set.
func (h *PreferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, carrierID, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if carrierID == uuid.Nil {
		http.Error(w, "carrier is required", http.StatusBadRequest)
		return
	}

	var updates []application.PreferenceUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	prefs, err := h.service.Update(r.Context(), userID, carrierID, updates)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidNotification) {
			http.Error(w, "unknown notification type", http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to update preferences", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": prefs})
}
