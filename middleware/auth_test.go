package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"alumni-portal/models"
	"alumni-portal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newSessions(t *testing.T) (*utils.SessionManager, string) {
	t.Helper()
	m := utils.NewSessionManager("secret", time.Hour, false)
	token, _, err := m.GenerateJWT(&models.User{ID: primitive.NewObjectID(), Name: "Ada", Email: "a@b.com"})
	require.NoError(t, err)
	return m, token
}

func okHandler(seen **utils.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen, _ = ClaimsFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestPageGateRedirectsWithoutSession(t *testing.T) {
	m, _ := newSessions(t)
	h := PageGate(m, "/payment", "/auth/login")(okHandler(nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payment/checkout?plan=gold", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/login", loc.Path)
	assert.Equal(t, "/payment/checkout?plan=gold", loc.Query().Get("callbackUrl"))
}

func TestPageGateInvalidToken(t *testing.T) {
	m, _ := newSessions(t)
	h := PageGate(m, "/payment", "/auth/login")(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/payment", nil)
	req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: "forged"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestPageGateAllowsSession(t *testing.T) {
	m, token := newSessions(t)
	var seen *utils.Claims
	h := PageGate(m, "/payment", "/auth/login")(okHandler(&seen))

	req := httptest.NewRequest(http.MethodGet, "/payment/history", nil)
	req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "a@b.com", seen.Email)
}

func TestPageGatePassesOtherPaths(t *testing.T) {
	m, _ := newSessions(t)
	h := PageGate(m, "/payment", "/auth/login")(okHandler(nil))

	for _, path := range []string{"/", "/about", "/payments", "/auth/login"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRequireSession(t *testing.T) {
	m, token := newSessions(t)
	var seen *utils.Claims
	h := RequireSession(m)(okHandler(&seen))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/payments/history", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"Unauthorized"`)
	assert.Nil(t, seen)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "a@b.com", seen.Email)
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
