package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserID(r.Context())
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(userID))
})

var testVerifier = VerifierFunc(func(ctx context.Context, token string) (string, error) {
	switch token {
	case "good":
		return "user-42", nil
	case "anonymous":
		return "", nil
	}
	return "", errors.New("bad signature")
})

func TestAuthMiddleware(t *testing.T) {
	h := AuthMiddleware(testVerifier)(okHandler)

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
		{"rejected token", "Bearer forged", http.StatusUnauthorized, ""},
		{"no subject", "Bearer anonymous", http.StatusUnauthorized, ""},
		{"valid token", "Bearer good", http.StatusOK, "user-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), "error")
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	_, ok := GetUserID(context.Background())
	assert.False(t, ok)

	id, ok := GetUserID(context.WithValue(context.Background(), UserIDKey, "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}

func TestBasicAuthMiddleware(t *testing.T) {
	h := BasicAuthMiddleware("prom", "secret")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="Metrics"`, rec.Header().Get("WWW-Authenticate"))

	req.SetBasicAuth("prom", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.SetBasicAuth("prom", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBasicAuthMiddleware_UnconfiguredIsClosed(t *testing.T) {
	h := BasicAuthMiddleware("", "")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("", "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPprofSecurityMiddleware(t *testing.T) {
	h := PprofSecurityMiddleware("s3cret")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req.Header.Set("X-Pprof-Secret", "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	closed := PprofSecurityMiddleware("")(okHandler)
	req = httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	rec = httptest.NewRecorder()
	closed.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMonitorMiddleware_KeepsStatus(t *testing.T) {
	h := MonitorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Middleware(okHandler)

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("1.1.1.1"))
	assert.Equal(t, http.StatusOK, send("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("1.1.1.1"))
	assert.Equal(t, http.StatusOK, send("2.2.2.2"), "buckets are per client")
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.getLimiter("1.1.1.1")

	rl.mu.Lock()
	rl.visitors["1.1.1.1"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()
	rl.getLimiter("2.2.2.2")

	rl.evictIdle(3 * time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	require.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "2.2.2.2")
}

func signTestToken(t *testing.T, method gojwt.SigningMethod, key any, claims gojwt.MapClaims) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestHMACVerifier(t *testing.T) {
	secret := []byte("test-secret-key-for-testing-only")
	v := NewHMACVerifier(string(secret), "https://glow.test")
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name    string
		token   string
		subject string
	}{
		{"valid", signTestToken(t, gojwt.SigningMethodHS256, secret, gojwt.MapClaims{"sub": "user_1", "iss": "https://glow.test", "exp": exp}), "user_1"},
		{"wrong secret", signTestToken(t, gojwt.SigningMethodHS256, []byte("other-secret"), gojwt.MapClaims{"sub": "user_1", "iss": "https://glow.test", "exp": exp}), ""},
		{"wrong issuer", signTestToken(t, gojwt.SigningMethodHS256, secret, gojwt.MapClaims{"sub": "user_1", "iss": "https://evil.test", "exp": exp}), ""},
		{"expired", signTestToken(t, gojwt.SigningMethodHS256, secret, gojwt.MapClaims{"sub": "user_1", "iss": "https://glow.test", "exp": time.Now().Add(-time.Hour).Unix()}), ""},
		{"no expiry", signTestToken(t, gojwt.SigningMethodHS256, secret, gojwt.MapClaims{"sub": "user_1", "iss": "https://glow.test"}), ""},
		{"other algorithm", signTestToken(t, gojwt.SigningMethodHS512, secret, gojwt.MapClaims{"sub": "user_1", "iss": "https://glow.test", "exp": exp}), ""},
		{"garbage", "not-a-jwt", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := v.Verify(context.Background(), tt.token)
			if tt.subject == "" {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.subject, subject)
		})
	}
}
