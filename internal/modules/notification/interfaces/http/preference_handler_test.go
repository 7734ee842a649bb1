package http_test

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarpov/fleetwire/internal/modules/notification/application"
	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
	notificationhttp "github.com/dkarpov/fleetwire/internal/modules/notification/interfaces/http"
)

// prefStoreStub keeps rows in memory so List can observe the seeding pass.
type prefStoreStub struct {
	rows map[domain.NotificationType]domain.Preference
}

func newPrefStore() *prefStoreStub {
	return &prefStoreStub{rows: make(map[domain.NotificationType]domain.Preference)}
}

func (s *prefStoreStub) GetByTriple(_ context.Context, _, _ uuid.UUID, t domain.NotificationType) (*domain.Preference, error) {
	p, ok := s.rows[t]
	if !ok {
		return nil, domain.ErrPreferenceNotFound
	}
	return &p, nil
}
func (s *prefStoreStub) ListByUser(context.Context, uuid.UUID, uuid.UUID) ([]domain.Preference, error) {
	out := make([]domain.Preference, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p)
	}
	return out, nil
}
func (s *prefStoreStub) BulkCreate(_ context.Context, prefs []domain.Preference) error {
	for _, p := range prefs {
		if _, ok := s.rows[p.Type]; !ok {
			s.rows[p.Type] = p
		}
	}
	return nil
}
func (s *prefStoreStub) Upsert(_ context.Context, p *domain.Preference) error {
	s.rows[p.Type] = *p
	return nil
}
func (s *prefStoreStub) EnabledMap(context.Context, uuid.UUID, uuid.UUID) (map[domain.NotificationType]bool, error) {
	m := make(map[domain.NotificationType]bool, len(s.rows))
	for t, p := range s.rows {
		m[t] = p.Enabled
	}
	return m, nil
}
func (s *prefStoreStub) DisabledFraction(context.Context) (float64, error) { return 0, nil }

func newPreferenceHandler(store *prefStoreStub) *notificationhttp.PreferenceHandler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return notificationhttp.NewPreferenceHandler(application.NewPreferenceService(store, log))
}

func TestPreferenceList_SeedsDefaultsOnFirstAccess(t *testing.T) {
	store := newPrefStore()
	h := newPreferenceHandler(store)

	w := httptest.NewRecorder()
	h.List(w, authedRequest(stdhttp.MethodGet, "/notification-preferences", nil, uuid.New(), uuid.New()))

	require.Equal(t, stdhttp.StatusOK, w.Code)
	var resp struct {
		Data []domain.Preference `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, len(domain.AllTypes))
	for _, p := range resp.Data {
		assert.True(t, p.Enabled, "in-app channel seeds on for %s", p.Type)
		assert.False(t, p.EmailEnabled)
	}
}

func TestPreferenceUpdate_UnknownTypeRejected(t *testing.T) {
	h := newPreferenceHandler(newPrefStore())

	body := strings.NewReader(`[{"type": "CARRIER_PIGEON", "enabled": true}]`)
	w := httptest.NewRecorder()
	h.Update(w, authedRequest(stdhttp.MethodPut, "/notification-preferences", body, uuid.New(), uuid.New()))
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)
}

func TestPreferenceUpdate_UpsertsAndReturnsFullSet(t *testing.T) {
	store := newPrefStore()
	h := newPreferenceHandler(store)
	userID, carrierID := uuid.New(), uuid.New()

	// Seed via List first so the refreshed set is the full grid.
	h.List(httptest.NewRecorder(), authedRequest(stdhttp.MethodGet, "/notification-preferences", nil, userID, carrierID))

	body := strings.NewReader(`[{"type": "LOCATION_UPDATE", "enabled": false, "email_enabled": true}]`)
	w := httptest.NewRecorder()
	h.Update(w, authedRequest(stdhttp.MethodPut, "/notification-preferences", body, userID, carrierID))

	require.Equal(t, stdhttp.StatusOK, w.Code)
	var resp struct {
		Data []domain.Preference `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, len(domain.AllTypes))

	updated := store.rows[domain.TypeLocationUpdate]
	assert.False(t, updated.Enabled)
	assert.True(t, updated.EmailEnabled)
}

func TestPreferenceUpdate_Unauthorized(t *testing.T) {
	h := newPreferenceHandler(newPrefStore())

	w := httptest.NewRecorder()
	h.Update(w, httptest.NewRequest(stdhttp.MethodPut, "/notification-preferences", nil))
	assert.Equal(t, stdhttp.StatusUnauthorized, w.Code)
}
