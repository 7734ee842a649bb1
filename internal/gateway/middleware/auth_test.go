package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarpov/fleetwire/internal/modules/auth/infrastructure/jwt"
)

const testSecret = "test-secret"

func issueToken(t *testing.T, userID, carrierID uuid.UUID, role string) string {
	t.Helper()
	token, err := jwt.GenerateToken(testSecret, time.Hour, userID, carrierID, role)
	require.NoError(t, err)
	return token
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	userID, carrierID := uuid.New(), uuid.New()
	m := NewAuthMiddleware(testSecret)

	var gotUser, gotCarrier uuid.UUID
	var gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Context().Value(ContextKeyUserID).(uuid.UUID)
		gotCarrier = r.Context().Value(ContextKeyCarrierID).(uuid.UUID)
		gotRole = r.Context().Value(ContextKeyRole).(string)
	})

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, userID, carrierID, "dispatcher"))
	rec := httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, carrierID, gotCarrier)
	assert.Equal(t, "dispatcher", gotRole)
}

func TestRequireAuth_QueryTokenFallback(t *testing.T) {
	// EventSource cannot set headers, so the stream endpoint passes the
	// token as a query parameter.
	m := NewAuthMiddleware(testSecret)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	token := issueToken(t, uuid.New(), uuid.New(), "dispatcher")
	req := httptest.NewRequest(http.MethodGet, "/notifications/stream?token="+token, nil)
	rec := httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rec := httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	m.RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	m := NewAuthMiddleware(testSecret)

	run := func(role string) int {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

		req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer "+issueToken(t, uuid.New(), uuid.New(), role))
		rec := httptest.NewRecorder()
		m.RequireAuth(m.RequireAdmin(next)).ServeHTTP(rec, req)

		if rec.Code == http.StatusOK {
			assert.True(t, called)
		}
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run("admin"))
	assert.Equal(t, http.StatusForbidden, run("dispatcher"))
}
