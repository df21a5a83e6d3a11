package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Contour/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnv() *Authenv {
	return NewAuthenv([]byte("test-key"), repo.NewMemoryRepository(), nil, false)
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["detail"]
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv()

	w := postJSON(t, env.RegisterHandler, RegisterRequest{Login: " anna ", Password: "secret1", Email: "anna@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)

	claims, err := env.ParseToken(c.Value)
	require.NoError(t, err)
	assert.Equal(t, "anna", claims.Login)
	assert.Equal(t, 1, claims.UserID)

	w = postJSON(t, env.RegisterHandler, RegisterRequest{Login: "anna", Password: "secret1", Email: "x@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postJSON(t, env.AuthHandler, LoginRequest{Login: "anna", Password: "secret1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, sessionCookie(w))

	w = postJSON(t, env.AuthHandler, LoginRequest{Login: "anna", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid login or password", detail(t, w))

	w = postJSON(t, env.AuthHandler, LoginRequest{Login: "ghost", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv()
	tests := []struct {
		name string
		req  RegisterRequest
		want string
	}{
		{"missing login", RegisterRequest{Password: "secret1", Email: "a@example.com"}, "login is required"},
		{"short password", RegisterRequest{Login: "anna", Password: "abc", Email: "a@example.com"}, "password must be at least 6 characters"},
		{"bad email", RegisterRequest{Login: "anna", Password: "secret1", Email: "nope"}, "email must be a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, env.RegisterHandler, tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, detail(t, w))
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv()
	var seenID int
	h := env.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID, _, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := env.IssueToken(7, "anna")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, seenID)
}

func TestParseToken_ExpiredAndForeignKey(t *testing.T) {
	env := newTestEnv()
	token, err := env.IssueToken(1, "anna")
	require.NoError(t, err)

	env.now = func() time.Time { return time.Now().Add(2 * tokenTTL) }
	_, err = env.ParseToken(token)
	assert.Error(t, err)

	other := NewAuthenv([]byte("other-key"), repo.NewMemoryRepository(), nil, false)
	token, err = other.IssueToken(1, "anna")
	require.NoError(t, err)
	_, err = newTestEnv().ParseToken(token)
	assert.Error(t, err)
}

func TestOptionalUser(t *testing.T) {
	env := newTestEnv()
	var authed bool
	h := env.OptionalUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, authed = UserFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, authed)

	token, err := env.IssueToken(3, "bob")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, authed)
}

func TestLogout(t *testing.T) {
	env := newTestEnv()
	w := httptest.NewRecorder()
	env.LogoutHandler(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
}

func TestLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(0.001, 2)
	h := limiter.LimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:" + []string{"1000", "1001", "1002"}[i]
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSweep_DropsIdleClients(t *testing.T) {
	limiter := NewIPRateLimiter(0.001, 1)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	first := limiter.getLimiter("10.0.0.1")
	require.True(t, first.Allow())
	require.False(t, first.Allow())

	now = now.Add(2 * time.Minute)
	limiter.getLimiter("10.0.0.2")

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, limiter.Sweep(3*time.Minute))
	assert.Len(t, limiter.ips, 1)
	assert.Contains(t, limiter.ips, "10.0.0.2")

	// A dropped client starts over with a full budget.
	assert.True(t, limiter.getLimiter("10.0.0.1").Allow())
}

func TestCleanup_StopsWithContext(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)
	limiter.getLimiter("10.0.0.1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		limiter.Cleanup(ctx, time.Millisecond, 0)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		limiter.mu.Lock()
		defer limiter.mu.Unlock()
		return len(limiter.ips) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop")
	}
}
