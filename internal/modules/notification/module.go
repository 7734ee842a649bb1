package notification

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/dkarpov/fleetwire/internal/modules/notification/application"
	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
	"github.com/dkarpov/fleetwire/internal/modules/notification/infrastructure/persistence/postgres"
	notification_http "github.com/dkarpov/fleetwire/internal/modules/notification/interfaces/http"
)

const janitorInterval = time.Hour

type Module struct {
	repo              *postgres.PgNotificationRepository
	prefRepo          *postgres.PgPreferenceRepository
	service           *application.NotificationService
	preferences       *application.PreferenceService
	dispatcher        *application.Dispatcher
	handler           *notification_http.NotificationHandler
	preferenceHandler *notification_http.PreferenceHandler
	eventHandler      *notification_http.EventHandler
	stopJanitor       func()
}

func NewModule(db *sqlx.DB, directory domain.UserDirectory, log *logrus.Logger) *Module {
	repo := postgres.NewPgNotificationRepository(db)
	prefRepo := postgres.NewPgPreferenceRepository(db)
	deliveryRepo := postgres.NewPgDeliveryRepository(db)

	preferences := application.NewPreferenceService(prefRepo, log)
	dedup := application.NewDedupPolicy(repo, log)
	dispatcher := application.NewDispatcher(repo, deliveryRepo, directory, preferences, dedup, log)
	service := application.NewNotificationService(repo, preferences, log)

	m := &Module{
		repo:              repo,
		prefRepo:          prefRepo,
		service:           service,
		preferences:       preferences,
		dispatcher:        dispatcher,
		handler:           notification_http.NewNotificationHandler(service),
		preferenceHandler: notification_http.NewPreferenceHandler(preferences),
		eventHandler:      notification_http.NewEventHandler(dispatcher),
	}
	m.stopJanitor = service.StartJanitor(janitorInterval)
	return m
}

func (m *Module) HTTPHandler() *notification_http.NotificationHandler {
	return m.handler
}

func (m *Module) PreferenceHandler() *notification_http.PreferenceHandler {
	return m.preferenceHandler
}

func (m *Module) EventHandler() *notification_http.EventHandler {
	return m.eventHandler
}

func (m *Module) Service() *application.NotificationService {
	return m.service
}

func (m *Module) Preferences() *application.PreferenceService {
	return m.preferences
}

func (m *Module) Dispatcher() *application.Dispatcher {
	return m.dispatcher
}

// Repository exposes the store to the stream module's poll loop.
func (m *Module) Repository() domain.NotificationRepository {
	return m.repo
}

// PreferenceRepository exposes preference rows to the admin module's stats.
func (m *Module) PreferenceRepository() domain.PreferenceRepository {
	return m.prefRepo
}

func (m *Module) Close() {
	m.stopJanitor()
}
