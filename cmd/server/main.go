package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/dkarpov/fleetwire/internal/gateway"
	"github.com/dkarpov/fleetwire/internal/gateway/middleware"
	"github.com/dkarpov/fleetwire/internal/logging"
	"github.com/dkarpov/fleetwire/internal/modules/admin"
	"github.com/dkarpov/fleetwire/internal/modules/auth"
	"github.com/dkarpov/fleetwire/internal/modules/notification"
	"github.com/dkarpov/fleetwire/internal/modules/stream"
	"github.com/dkarpov/fleetwire/internal/modules/stream/session"
	"github.com/dkarpov/fleetwire/internal/shared/infrastructure/config"
	"github.com/dkarpov/fleetwire/internal/shared/infrastructure/database"
	"github.com/dkarpov/fleetwire/pkg/migration"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .env is optional; real deployments inject environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("database connected")

	dbURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.DBName, cfg.Database.SSLMode,
	)
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := migration.AutoMigrate(dbURL, migrationsPath, log); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = database.NewRedis(cfg.Redis.Conn)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info("redis connected")
	}

	authModule := auth.NewModule(db, cfg.JWT.Secret, cfg.JWT.Expiry)
	notificationModule := notification.NewModule(db, authModule.UserRepository(), log)
	defer notificationModule.Close()

	streamModule := stream.NewModule(
		session.Config{
			HeartbeatInterval: cfg.Stream.HeartbeatInterval,
			PollInterval:      cfg.Stream.PollInterval,
			PollTimeout:       cfg.Stream.PollTimeout,
			LookBack:          cfg.Stream.LookBack,
			BatchSize:         cfg.Stream.BatchSize,
			MaxMessages:       cfg.Stream.MaxMessages,
			Budget:            cfg.Stream.Budget,
			EarlyWarningLead:  cfg.Stream.EarlyWarningLead,
			CloseLead:         cfg.Stream.CloseLead,
			FailureThreshold:  uint32(cfg.Stream.FailureThreshold),
		},
		redisClient,
		notificationModule.Repository(),
		notificationModule.Preferences(),
		log,
	)
	adminModule := admin.NewModule(
		notificationModule.Repository(),
		notificationModule.PreferenceRepository(),
		streamModule.Tracker(),
		log,
	)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	mux := gateway.SetupRoutes(gateway.RouterConfig{
		AuthHandler:         authModule.HTTPHandler(),
		AuthMiddleware:      authMiddleware,
		NotificationHandler: notificationModule.HTTPHandler(),
		PreferenceHandler:   notificationModule.PreferenceHandler(),
		EventHandler:        notificationModule.EventHandler(),
		StreamHandler:       streamModule.HTTPHandler(),
		AdminHandler:        adminModule.HTTPHandler(),
	})

	handler := middleware.PrometheusMiddleware(mux)
	handler = middleware.CORSMiddleware(handler, cfg.Server.AllowedOrigins)

	server := gateway.NewServer(cfg.Server.Port, handler, log)
	if err := server.Start(); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
