package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
	"github.com/dkarpov/fleetwire/internal/modules/stream/tracker"
)

type State int32

const (
	StateConnecting State = iota
	StateStreaming
	StateEarlyWarning
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateEarlyWarning:
		return "early_warning"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

const (
	EventConnected      = "connected"
	EventHeartbeat      = "heartbeat"
	EventNotification   = "notification"
	EventEarlyWarning   = "early_warning"
	EventTimeoutWarning = "timeout_warning"
	EventError          = "error"
	EventShutdown       = "shutdown"
)

// Event is one frame pushed down a streaming connection.
type Event struct {
	Type         string               `json:"type"`
	Timestamp    time.Time            `json:"timestamp"`
	Message      string               `json:"message,omitempty"`
	ConnectionID string               `json:"connection_id,omitempty"`
	Notification *domain.Notification `json:"notification,omitempty"`
}

// Sink receives events in emission order. The SSE handler provides one;
// tests substitute their own.
type Sink interface {
	Send(Event) error
}

// Poller is the slice of the notification store a session reads through.
type Poller interface {
	PollSince(ctx context.Context, carrierID, userID uuid.UUID, since time.Time, limit int) ([]domain.Notification, error)
}

// Config tunes the session's timers against the hosting platform's
// execution budget. Every poll query runs under PollTimeout, which must stay
// far below Budget.
type Config struct {
	HeartbeatInterval time.Duration
	PollInterval      time.Duration
	PollTimeout       time.Duration
	LookBack          time.Duration
	BatchSize         int
	MaxMessages       int
	Budget            time.Duration
	EarlyWarningLead  time.Duration
	CloseLead         time.Duration
	FailureThreshold  uint32
}

func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 25 * time.Second,
		PollInterval:      10 * time.Second,
		PollTimeout:       2 * time.Second,
		LookBack:          90 * time.Second,
		BatchSize:         5,
		MaxMessages:       200,
		Budget:            280 * time.Second,
		EarlyWarningLead:  15 * time.Second,
		CloseLead:         5 * time.Second,
		FailureThreshold:  3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = d.PollTimeout
	}
	if c.LookBack <= 0 {
		c.LookBack = d.LookBack
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.MaxMessages <= 0 {
		c.MaxMessages = d.MaxMessages
	}
	if c.Budget <= 0 {
		c.Budget = d.Budget
	}
	if c.EarlyWarningLead <= 0 {
		c.EarlyWarningLead = d.EarlyWarningLead
	}
	if c.CloseLead <= 0 {
		c.CloseLead = d.CloseLead
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	return c
}

// Session drives one streaming connection: heartbeats, store polling under a
// circuit breaker, and forced teardown strictly before the platform would
// kill the invocation. All events flow from the Run goroutine, so emission
// order is the delivery order.
type Session struct {
	cfg       Config
	userID    uuid.UUID
	carrierID uuid.UUID
	userAgent string

	reg     tracker.Tracker
	poller  Poller
	sink    Sink
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger

	state    atomic.Int32
	connID   string
	since    time.Time
	sent     int
	degraded bool

	teardownOnce sync.Once
}

func New(cfg Config, userID, carrierID uuid.UUID, userAgent string, reg tracker.Tracker, poller Poller, sink Sink, log *logrus.Logger) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:       cfg,
		userID:    userID,
		carrierID: carrierID,
		userAgent: userAgent,
		reg:       reg,
		poller:    poller,
		sink:      sink,
		log:       log,
	}
	// The breaker's open interval outlasts the session budget, so once it
	// trips it never closes again within this connection. A fresh
	// connection builds a fresh breaker with a zeroed counter.
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stream-poll",
		MaxRequests: 1,
		Timeout:     cfg.Budget + time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	})
	s.state.Store(int32(StateConnecting))
	return s
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) ConnectionID() string {
	return s.connID
}

// Run blocks until the session ends: client disconnect (ctx cancelled), send
// failure, or the forced-timeout timer. Teardown is idempotent; the abort
// path and the timeout path share it.
func (s *Session) Run(ctx context.Context) error {
	connID, err := s.reg.Register(s.userID, s.carrierID, s.userAgent)
	if err != nil {
		// Tracking is observability only; the stream still works.
		s.log.WithError(err).Warn("connection register failed")
	}
	s.connID = connID

	if err := s.sink.Send(Event{Type: EventConnected, Timestamp: time.Now(), ConnectionID: connID}); err != nil {
		s.teardown()
		return err
	}
	s.state.Store(int32(StateStreaming))
	s.since = time.Now().Add(-s.cfg.LookBack)

	sessionsActive.Inc()
	defer sessionsActive.Dec()

	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()
	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()
	early := time.NewTimer(s.cfg.Budget - s.cfg.EarlyWarningLead)
	defer early.Stop()
	force := time.NewTimer(s.cfg.Budget - s.cfg.CloseLead)
	defer force.Stop()

	defer s.teardown()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-heartbeat.C:
			if err := s.sink.Send(Event{Type: EventHeartbeat, Timestamp: time.Now()}); err != nil {
				return err
			}
			if s.connID != "" {
				if err := s.reg.Heartbeat(s.connID); err != nil {
					s.log.WithError(err).Warn("tracker heartbeat failed")
				}
			}

		case <-poll.C:
			if err := s.pollTick(ctx); err != nil {
				return err
			}

		case <-early.C:
			s.state.CompareAndSwap(int32(StateStreaming), int32(StateEarlyWarning))
			if err := s.sink.Send(Event{Type: EventEarlyWarning, Timestamp: time.Now(), Message: "connection will close soon, prepare to reconnect"}); err != nil {
				return err
			}

		case <-force.C:
			s.sink.Send(Event{Type: EventTimeoutWarning, Timestamp: time.Now(), Message: "execution budget reached"})
			s.sink.Send(Event{Type: EventShutdown, Timestamp: time.Now()})
			return nil
		}
	}
}

// pollTick queries the store for fresh rows and pushes at most one batch.
// Query failures and timeouts feed the breaker; once it opens the session
// stays heartbeat-only for its remaining lifetime and announces the
// degradation exactly once. Only a send failure is fatal.
func (s *Session) pollTick(ctx context.Context) error {
	if s.degraded || s.sent >= s.cfg.MaxMessages {
		return nil
	}

	pollStart := time.Now()
	result, err := s.breaker.Execute(func() (interface{}, error) {
		pctx, cancel := context.WithTimeout(ctx, s.cfg.PollTimeout)
		defer cancel()
		return s.poller.PollSince(pctx, s.carrierID, s.userID, s.since, s.cfg.BatchSize)
	})
	if err != nil {
		pollFailures.Inc()
		if s.breaker.State() == gobreaker.StateOpen {
			s.degraded = true
			s.log.WithFields(logrus.Fields{"user_id": s.userID, "carrier_id": s.carrierID}).
				Warn("poll circuit breaker tripped, session degraded to heartbeat-only")
			return s.sink.Send(Event{Type: EventError, Timestamp: time.Now(), Message: "notification polling unavailable, heartbeats only"})
		}
		return nil
	}

	notifications := result.([]domain.Notification)
	for i := range notifications {
		if s.sent >= s.cfg.MaxMessages {
			break
		}
		// The query excludes expired rows, but a short-lived row can cross
		// its expiry between the query and the push.
		if notifications[i].Expired(time.Now()) {
			continue
		}
		if err := s.sink.Send(Event{Type: EventNotification, Timestamp: time.Now(), Notification: &notifications[i]}); err != nil {
			return err
		}
		s.sent++
	}
	// Advance the cursor only after a successful poll so nothing created
	// during an outage is skipped once polling recovers.
	s.since = pollStart
	return nil
}

// teardown is safe to invoke any number of times and from either the abort
// or the timeout path; the tracker sees exactly one unregister.
func (s *Session) teardown() {
	s.teardownOnce.Do(func() {
		s.state.Store(int32(StateClosing))
		if s.connID != "" {
			if err := s.reg.Unregister(s.connID); err != nil {
				s.log.WithError(err).Warn("connection unregister failed")
			}
		}
		s.state.Store(int32(StateClosed))
	})
}

// Teardown exposes the idempotent teardown path for callers that need to
// force-close from outside Run.
func (s *Session) Teardown() {
	s.teardown()
}
