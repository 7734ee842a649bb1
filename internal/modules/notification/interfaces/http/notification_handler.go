package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkarpov/fleetwire/internal/gateway/middleware"
	"github.com/dkarpov/fleetwire/internal/modules/notification/application"
	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type NotificationHandler struct {
	service *application.NotificationService
}

func NewNotificationHandler(service *application.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func identity(r *http.Request) (userID, carrierID uuid.UUID, ok bool) {
	userID, uok := r.Context().Value(middleware.ContextKeyUserID).(uuid.UUID)
	carrierID, cok := r.Context().Value(middleware.ContextKeyCarrierID).(uuid.UUID)
	return userID, carrierID, uok && cok
}

// List serves the company feed with pagination, unread-only and type
// filters, plus a since-millis cursor for clients polling instead of
// streaming.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, carrierID, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if carrierID == uuid.Nil {
		http.Error(w, "carrier is required", http.StatusBadRequest)
		return
	}

	limit := defaultPageSize
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	filter := domain.ListFilter{
		CarrierID:  carrierID,
		UserID:     &userID,
		UnreadOnly: r.URL.Query().Get("unread_only") == "true",
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			t := domain.NotificationType(strings.TrimSpace(part))
			if t.Valid() {
				filter.Types = append(filter.Types, t)
			}
		}
	}

	if raw := r.URL.Query().Get("since"); raw != "" {
		millis, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid since cursor", http.StatusBadRequest)
			return
		}
		since := time.UnixMilli(millis)
		filter.Since = &since
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "failed to fetch notifications", http.StatusInternalServerError)
		return
	}

	totalPages := 0
	if result.Total > 0 {
		totalPages = (result.Total + limit - 1) / limit
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":         result.Items,
		"unread_count": result.UnreadCount,
		"pagination": map[string]interface{}{
			"page":        page,
			"total":       result.Total,
			"total_pages": totalPages,
			"has_more":    page < totalPages,
		},
	})
}

type createRequest struct {
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	UserID    *uuid.UUID              `json:"user_id,omitempty"`
	DriverID  *uuid.UUID              `json:"driver_id,omitempty"`
	Data      domain.Payload          `json:"data,omitempty"`
	ExpiresAt *time.Time              `json:"expires_at,omitempty"`
	Refs      domain.Refs             `json:"refs"`
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, carrierID, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	n, err := h.service.Create(r.Context(), application.CreateInput{
		CarrierID: carrierID,
		UserID:    req.UserID,
		DriverID:  req.DriverID,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Data:      req.Data,
		ExpiresAt: req.ExpiresAt,
		Refs:      req.Refs,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidNotification) {
			http.Error(w, "type, title and message are required", http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to create notification", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"data": n})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, carrierID, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	notificationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}

	updated, err := h.service.MarkRead(r.Context(), []uuid.UUID{notificationID}, userID, carrierID)
	if err != nil {
		http.Error(w, "failed to mark notification as read", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"updated": updated})
}

type markReadRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// MarkManyAsRead marks an explicit id list read. Already-read ids are
// skipped, so repeated calls are harmless.
func (h *NotificationHandler) MarkManyAsRead(w http.ResponseWriter, r *http.Request) {
	userID, carrierID, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.service.MarkRead(r.Context(), req.IDs, userID, carrierID)
	if err != nil {
		http.Error(w, "failed to mark notifications as read", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"updated": updated})
}

func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, carrierID, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	updated, err := h.service.MarkAllRead(r.Context(), userID, carrierID)
	if err != nil {
		http.Error(w, "failed to mark all notifications as read", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"updated": updated})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, carrierID, ok := identity(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID, carrierID)
	if err != nil {
		http.Error(w, "failed to get unread count", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"count": count})
}
