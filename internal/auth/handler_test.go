package auth

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birdwatch/pkg/database"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })

	h := NewHandler(NewRepo(db), TokenService{
		Secret:   []byte("test-secret"),
		Issuer:   "birdwatch-test",
		Duration: time.Hour,
	})

	router := gin.New()
	h.RegisterRoutes(router.Group("/auth"))
	h.RegisterCheckLogin(router.Group("/api"))
	return router
}

func doJSON(router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/auth/register", gin.H{
		"username": "alex",
		"email":    "alex@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestCheckLogin(t *testing.T) {
	router := newTestRouter(t)

	t.Run("anonymous", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/check-login", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"logged_in": false}`, w.Body.String())
	})

	t.Run("garbage token is still not an error", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/check-login", nil, "not-a-token")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"logged_in": false}`, w.Body.String())
	})

	t.Run("after register", func(t *testing.T) {
		token := registerUser(t, router)
		w := doJSON(router, http.MethodGet, "/api/check-login", nil, token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"logged_in": true}`, w.Body.String())
	})
}

func TestLoginAndLogout(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router)

	w := doJSON(router, http.MethodPost, "/auth/login", gin.H{
		"email":    "alex@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// logout bumps the token version; the old token stops working
	w = doJSON(router, http.MethodPost, "/auth/logout", nil, resp.Token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/check-login", nil, resp.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"logged_in": false}`, w.Body.String())
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router)

	w := doJSON(router, http.MethodPost, "/auth/login", gin.H{
		"email":    "alex@example.com",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
