package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dkarpov/fleetwire/internal/gateway/middleware"
	admin_http "github.com/dkarpov/fleetwire/internal/modules/admin/interfaces/http"
	auth_http "github.com/dkarpov/fleetwire/internal/modules/auth/interfaces/http"
	notification_http "github.com/dkarpov/fleetwire/internal/modules/notification/interfaces/http"
	stream_http "github.com/dkarpov/fleetwire/internal/modules/stream/interfaces/http"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	AuthHandler         *auth_http.AuthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	NotificationHandler *notification_http.NotificationHandler
	PreferenceHandler   *notification_http.PreferenceHandler
	EventHandler        *notification_http.EventHandler
	StreamHandler       *stream_http.StreamHandler
	AdminHandler        *admin_http.AdminHandler
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	// Health Check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus Metrics Endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Auth Routes
	mux.HandleFunc("POST /register", config.AuthHandler.Register)
	mux.HandleFunc("POST /login", config.AuthHandler.Login)
	mux.Handle("GET /me", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.AuthHandler.Me)))

	// Notification Routes
	mux.Handle("GET /notifications", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.List)))
	mux.Handle("POST /notifications", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.Create)))
	mux.Handle("PATCH /notifications/{id}/read", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.MarkAsRead)))
	mux.Handle("PATCH /notifications/read", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.MarkManyAsRead)))
	mux.Handle("PATCH /notifications/read-all", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.MarkAllAsRead)))
	mux.Handle("GET /notifications/unread-count", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.UnreadCount)))

	// Streaming (EventSource; token accepted via query parameter)
	mux.Handle("/notifications/stream", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.StreamHandler.Stream)))

	// Preference Routes
	mux.Handle("GET /notification-preferences", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.PreferenceHandler.List)))
	mux.Handle("PUT /notification-preferences", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.PreferenceHandler.Update)))

	// Domain Event Ingest
	mux.Handle("POST /events", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.EventHandler.Ingest)))

	// Admin Routes
	mux.Handle("GET /admin/connections", config.AuthMiddleware.RequireAuth(config.AuthMiddleware.RequireAdmin(http.HandlerFunc(config.AdminHandler.Connections))))
	mux.Handle("GET /admin/stats", config.AuthMiddleware.RequireAuth(config.AuthMiddleware.RequireAdmin(http.HandlerFunc(config.AdminHandler.Stats))))
	mux.Handle("GET /admin/notifications", config.AuthMiddleware.RequireAuth(config.AuthMiddleware.RequireAdmin(http.HandlerFunc(config.AdminHandler.Log))))
	mux.Handle("POST /admin/notifications/purge", config.AuthMiddleware.RequireAuth(config.AuthMiddleware.RequireAdmin(http.HandlerFunc(config.AdminHandler.Purge))))

	return mux
}
