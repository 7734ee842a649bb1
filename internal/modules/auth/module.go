package auth

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dkarpov/fleetwire/internal/modules/auth/application"
	"github.com/dkarpov/fleetwire/internal/modules/auth/infrastructure/persistence/postgres"
	auth_http "github.com/dkarpov/fleetwire/internal/modules/auth/interfaces/http"
)

type Module struct {
	service    *application.AuthService
	repository *postgres.PgUserRepository
	handler    *auth_http.AuthHandler
}

func NewModule(db *sqlx.DB, jwtSecret string, jwtExpiry time.Duration) *Module {
	repository := postgres.NewUserRepository(db)
	service := application.NewAuthService(repository, jwtSecret, jwtExpiry)
	handler := auth_http.NewAuthHandler(service)

	return &Module{
		service:    service,
		repository: repository,
		handler:    handler,
	}
}

func (m *Module) Service() *application.AuthService {
	return m.service
}

// UserRepository doubles as the notification module's UserDirectory.
func (m *Module) UserRepository() *postgres.PgUserRepository {
	return m.repository
}

func (m *Module) HTTPHandler() *auth_http.AuthHandler {
	return m.handler
}
