package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dkarpov/fleetwire/internal/gateway/middleware"
	"github.com/dkarpov/fleetwire/internal/modules/stream/session"
	"github.com/dkarpov/fleetwire/internal/modules/stream/tracker"
)

// PreferenceChecker answers whether a user has any channel of any type
// enabled; a user with a fully disabled preference set gets 204 and should
// poll instead of streaming.
type PreferenceChecker interface {
	HasAnyEnabled(ctx context.Context, userID, carrierID uuid.UUID) (bool, error)
}

type StreamHandler struct {
	cfg     session.Config
	reg     tracker.Tracker
	poller  session.Poller
	prefs   PreferenceChecker
	log     *logrus.Logger
}

func NewStreamHandler(cfg session.Config, reg tracker.Tracker, poller session.Poller, prefs PreferenceChecker, log *logrus.Logger) *StreamHandler {
	return &StreamHandler{cfg: cfg, reg: reg, poller: poller, prefs: prefs, log: log}
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	// Disables proxy buffering so frames reach the client immediately.
	w.Header().Set("X-Accel-Buffering", "no")
}

// Stream is the SSE endpoint. Authorization failures reject before the
// session starts; after that only the session's own machinery ends the
// connection.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		setStreamHeaders(w)
		w.WriteHeader(http.StatusOK)
		return
	}

	userID, ok := r.Context().Value(middleware.ContextKeyUserID).(uuid.UUID)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	carrierID, ok := r.Context().Value(middleware.ContextKeyCarrierID).(uuid.UUID)
	if !ok || carrierID == uuid.Nil {
		http.Error(w, "carrier is required", http.StatusBadRequest)
		return
	}

	hasAny, err := h.prefs.HasAnyEnabled(r.Context(), userID, carrierID)
	if err != nil {
		// Preference reads fail open; a store error does not block the stream.
		h.log.WithError(err).Warn("preference check failed, streaming anyway")
	} else if !hasAny {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	setStreamHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := &sseSink{w: w, flusher: flusher}
	sess := session.New(h.cfg, userID, carrierID, r.UserAgent(), h.reg, h.poller, sink, h.log)

	if err := sess.Run(r.Context()); err != nil {
		h.log.WithError(err).Debug("stream session ended with send failure")
	}
}

// sseSink frames events as `data: <JSON>\n\n` and flushes each one. The
// mutex keeps frames whole if a caller ever sends from outside the session
// goroutine.
type sseSink struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseSink) Send(ev session.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", raw); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
