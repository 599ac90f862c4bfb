package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"alumni-portal/controllers"
	"alumni-portal/models"
	"alumni-portal/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRouter(t *testing.T) (*mux.Router, *utils.SessionManager) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "payment"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("home"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "payment", "index.html"), []byte("pay"), 0o644))

	sessions := utils.NewSessionManager("secret", time.Hour, false)
	router := mux.NewRouter()
	RegisterRoutes(router, Handlers{
		Users:     controllers.NewUserController(nil, nil, nil, sessions, true),
		Payments:  controllers.NewPaymentController(nil, true),
		Sessions:  sessions,
		StaticDir: dir,
	})
	return router, sessions
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPublicPagesPass(t *testing.T) {
	router, _ := newRouter(t)
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "home", rec.Body.String())
}

func TestPaymentPagesGated(t *testing.T) {
	router, sessions := newRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/payment/?plan=gold", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?callbackUrl=%2Fpayment%2F%3Fplan%3Dgold", rec.Header().Get("Location"))

	token, _, err := sessions.GenerateJWT(&models.User{ID: primitive.NewObjectID(), Email: "a@b.com"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/payment/", nil)
	req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: token})
	rec = serve(router, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pay", rec.Body.String())
}

func TestSessionRoutesRequireSession(t *testing.T) {
	router, _ := newRouter(t)

	for _, r := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/payments/history", nil),
		httptest.NewRequest(http.MethodPost, "/api/payments/record", nil),
		httptest.NewRequest(http.MethodGet, "/api/auth/me", nil),
	} {
		rec := serve(router, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.URL.Path)
	}
}

func TestLogoutRoute(t *testing.T) {
	router, _ := newRouter(t)
	rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownAPIPathsNotFound(t *testing.T) {
	router, _ := newRouter(t)
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/auth/oauth/google", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
