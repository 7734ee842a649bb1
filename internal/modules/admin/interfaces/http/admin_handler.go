package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/dkarpov/fleetwire/internal/modules/admin/application"
)

const (
	defaultLogPageSize = 50
	maxLogPageSize     = 200
)

type AdminHandler struct {
	service *application.AdminService
	log     *logrus.Logger
}

func NewAdminHandler(service *application.AdminService, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{service: service, log: log}
}

// Connections is GET /admin/connections.
func (h *AdminHandler) Connections(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Connections(r.Context())
	if err != nil {
		h.log.WithError(err).Error("admin: failed to list connections")
		http.Error(w, "failed to list connections", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// Stats is GET /admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.log.WithError(err).Error("admin: failed to compute stats")
		http.Error(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// Log is GET /admin/notifications, the raw cross-tenant listing.
func (h *AdminHandler) Log(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	limit := defaultLogPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLogPageSize {
		limit = maxLogPageSize
	}

	items, total, err := h.service.Log(r.Context(), limit, (page-1)*limit)
	if err != nil {
		h.log.WithError(err).Error("admin: failed to list notification log")
		http.Error(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":  items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Purge is POST /admin/notifications/purge.
func (h *AdminHandler) Purge(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Purge(r.Context())
	if err != nil {
		h.log.WithError(err).Error("admin: failed to purge expired notifications")
		http.Error(w, "failed to purge notifications", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"deleted": deleted})
}
