package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dkarpov/fleetwire/internal/modules/notification/application"
	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

// EventHandler ingests domain events from the dispatch system and fans them
// out through the dispatcher. The caller's own transaction has already
// committed by the time this runs; a failure here never rolls anything back.
type EventHandler struct {
	dispatcher *application.Dispatcher
}

func NewEventHandler(dispatcher *application.Dispatcher) *EventHandler {
	return &EventHandler{dispatcher: dispatcher}
}

type eventRequest struct {
	Kind     application.EventKind  `json:"kind"`
	DriverID *uuid.UUID             `json:"driver_id,omitempty"`
	Refs     domain.Refs            `json:"refs"`
	Data     map[string]interface{} `json:"data"`
}

func (h *EventHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	_, carrierID, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if carrierID == uuid.Nil {
		http.Error(w, "carrier is required", http.StatusBadRequest)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.dispatcher.Dispatch(r.Context(), application.DomainEvent{
		Kind:      req.Kind,
		CarrierID: carrierID,
		DriverID:  req.DriverID,
		Refs:      req.Refs,
		Data:      req.Data,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidNotification) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to dispatch event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{"created": len(created), "data": created})
}
