package tracker

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultStaleAfter is the heartbeat age past which a connection is
// considered dead and eligible for eviction.
const DefaultStaleAfter = 5 * time.Minute

// Connection is the transient record of one open streaming session. It is
// never persisted; it lives exactly as long as the session that registered
// it (or until staleness eviction).
type Connection struct {
	ID            string    `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	CarrierID     uuid.UUID `json:"carrier_id"`
	UserAgent     string    `json:"user_agent"`
	ConnectedAt   time.Time `json:"connected_at"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Tracker is the registry of active streaming connections. It is consulted
// by admin tooling only and plays no part in delivery. The in-memory
// implementation sees only its own process; a horizontally scaled deployment
// either accepts per-instance counts as a lower bound or uses the Redis
// implementation.
type Tracker interface {
	Register(userID, carrierID uuid.UUID, userAgent string) (string, error)
	Heartbeat(id string) error
	Unregister(id string) error
	// ListActive returns connections with heartbeat age within staleAfter,
	// evicting older entries as a side effect.
	ListActive(staleAfter time.Duration) ([]Connection, error)
	Count() (int, error)
}

// MemoryTracker is the single-process implementation. Eviction is lazy:
// stale entries are dropped when ListActive or Count walks the map, there is
// no background sweep.
type MemoryTracker struct {
	mu    sync.Mutex
	conns map[string]*Connection
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{conns: make(map[string]*Connection)}
}

func (t *MemoryTracker) Register(userID, carrierID uuid.UUID, userAgent string) (string, error) {
	now := time.Now()
	conn := &Connection{
		ID:            uuid.NewString(),
		UserID:        userID,
		CarrierID:     carrierID,
		UserAgent:     userAgent,
		ConnectedAt:   now,
		LastHeartbeat: now,
	}
	t.mu.Lock()
	t.conns[conn.ID] = conn
	t.mu.Unlock()
	return conn.ID, nil
}

func (t *MemoryTracker) Heartbeat(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if conn, ok := t.conns[id]; ok {
		conn.LastHeartbeat = time.Now()
	}
	return nil
}

func (t *MemoryTracker) Unregister(id string) error {
	t.mu.Lock()
	delete(t.conns, id)
	t.mu.Unlock()
	return nil
}

func (t *MemoryTracker) ListActive(staleAfter time.Duration) ([]Connection, error) {
	cutoff := time.Now().Add(-staleAfter)
	t.mu.Lock()
	defer t.mu.Unlock()

	active := make([]Connection, 0, len(t.conns))
	for id, conn := range t.conns {
		if conn.LastHeartbeat.Before(cutoff) {
			delete(t.conns, id)
			continue
		}
		active = append(active, *conn)
	}
	return active, nil
}

func (t *MemoryTracker) Count() (int, error) {
	active, err := t.ListActive(DefaultStaleAfter)
	if err != nil {
		return 0, err
	}
	return len(active), nil
}
