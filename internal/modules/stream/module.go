package stream

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	stream_http "github.com/dkarpov/fleetwire/internal/modules/stream/interfaces/http"
	"github.com/dkarpov/fleetwire/internal/modules/stream/session"
	"github.com/dkarpov/fleetwire/internal/modules/stream/tracker"
)

type Module struct {
	tracker tracker.Tracker
	handler *stream_http.StreamHandler
}

// NewModule wires the streaming subsystem. With a Redis client the
// connection registry is shared across instances; without one it is
// process-local and admin connection counts are a per-instance lower bound.
func NewModule(cfg session.Config, redisClient *redis.Client, poller session.Poller, prefs stream_http.PreferenceChecker, log *logrus.Logger) *Module {
	var reg tracker.Tracker
	if redisClient != nil {
		reg = tracker.NewRedisTracker(redisClient)
	} else {
		reg = tracker.NewMemoryTracker()
	}

	return &Module{
		tracker: reg,
		handler: stream_http.NewStreamHandler(cfg, reg, poller, prefs, log),
	}
}

func (m *Module) HTTPHandler() *stream_http.StreamHandler {
	return m.handler
}

// Tracker exposes the registry to the admin module.
func (m *Module) Tracker() tracker.Tracker {
	return m.tracker
}
