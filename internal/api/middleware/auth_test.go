package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movielocations/movielocations/internal/api/middleware"
)

const testSigningKey = "test-secret-key-for-testing-only"

func testAuthConfig() middleware.AdminAuthConfig {
	return middleware.AdminAuthConfig{
		SigningKey: testSigningKey,
		Issuer:     "movielocations-admin",
		Audience:   "movielocations-api",
	}
}

// signToken creates an HS256 admin token.
func signToken(t *testing.T, key string, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    "movielocations-admin",
		Subject:   "ops@example.com",
		Audience:  jwt.ClaimStrings{"movielocations-api"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminAuth_MissingAuthorizationHeader(t *testing.T) {
	handler := middleware.AdminAuth(testAuthConfig())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "missing authorization header")
}

func TestAdminAuth_InvalidAuthorizationFormat(t *testing.T) {
	handler := middleware.AdminAuth(testAuthConfig())(okHandler())

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "token123"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"bearer lowercase no space", "bearer token123"},
		{"empty bearer", "Bearer "},
		{"just bearer", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAdminAuth_InvalidToken(t *testing.T) {
	handler := middleware.AdminAuth(testAuthConfig())(okHandler())

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "invalid.jwt.token"},
		{"wrong key", signToken(t, "another-key", jwt.SigningMethodHS256, validClaims())},
		{"wrong method", signToken(t, testSigningKey, jwt.SigningMethodHS512, validClaims())},
		{"wrong audience", func() string {
			c := validClaims()
			c.Audience = jwt.ClaimStrings{"someone-else"}
			return signToken(t, testSigningKey, jwt.SigningMethodHS256, c)
		}()},
		{"no expiry", func() string {
			c := validClaims()
			c.ExpiresAt = nil
			return signToken(t, testSigningKey, jwt.SigningMethodHS256, c)
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid access token")
		})
	}
}

func TestAdminAuth_ExpiredToken(t *testing.T) {
	handler := middleware.AdminAuth(testAuthConfig())(okHandler())

	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSigningKey, jwt.SigningMethodHS256, claims))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "access token has expired")
}

func TestAdminAuth_ValidToken(t *testing.T) {
	token := signToken(t, testSigningKey, jwt.SigningMethodHS256, validClaims())

	var capturedSubject string
	handler := middleware.AdminAuth(testAuthConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedSubject = middleware.GetSubject(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops@example.com", capturedSubject)
}

func TestAdminAuth_CaseInsensitiveBearer(t *testing.T) {
	token := signToken(t, testSigningKey, jwt.SigningMethodHS256, validClaims())
	handler := middleware.AdminAuth(testAuthConfig())(okHandler())

	cases := []string{"Bearer ", "bearer ", "BEARER "}
	for _, prefix := range cases {
		t.Run(prefix, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			req.Header.Set("Authorization", prefix+token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestAdminAuth_DisabledWithoutKey(t *testing.T) {
	handler := middleware.AdminAuth(middleware.AdminAuthConfig{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetSubject_NoAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	assert.Empty(t, middleware.GetSubject(req.Context()))
}
