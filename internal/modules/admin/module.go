package admin

import (
	"github.com/sirupsen/logrus"

	"github.com/dkarpov/fleetwire/internal/modules/admin/application"
	admin_http "github.com/dkarpov/fleetwire/internal/modules/admin/interfaces/http"
	notifdomain "github.com/dkarpov/fleetwire/internal/modules/notification/domain"
	"github.com/dkarpov/fleetwire/internal/modules/stream/tracker"
)

type Module struct {
	service *application.AdminService
	handler *admin_http.AdminHandler
}

func NewModule(
	notifications notifdomain.NotificationRepository,
	preferences notifdomain.PreferenceRepository,
	tr tracker.Tracker,
	log *logrus.Logger,
) *Module {
	service := application.NewAdminService(notifications, preferences, tr, log)
	handler := admin_http.NewAdminHandler(service, log)
	return &Module{service: service, handler: handler}
}

func (m *Module) Service() *application.AdminService {
	return m.service
}

func (m *Module) HTTPHandler() *admin_http.AdminHandler {
	return m.handler
}
