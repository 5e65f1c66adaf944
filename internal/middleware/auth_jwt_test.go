package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alittlebroken/ecommerce/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test_secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":  int64(42),
		"role": "CUSTOMER",
		"iat":  now.Unix(),
		"exp":  now.Add(15 * time.Minute).Unix(),
	}
}

func runAuth(t *testing.T, authz string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	mw := AuthJWT(config.Config{JWTSecret: testJWTSecret})
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, c, called
}

func TestAuthJWT_ValidToken(t *testing.T) {
	token := signToken(t, testJWTSecret, validClaims())
	rec, c, called := runAuth(t, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Equal(t, int64(42), c.Get(CtxUserIDKey))
	assert.Equal(t, "CUSTOMER", c.Get(CtxUserRoleKey))
}

func TestAuthJWT_MissingHeader(t *testing.T) {
	rec, _, called := runAuth(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthJWT_NotBearer(t *testing.T) {
	token := signToken(t, testJWTSecret, validClaims())
	rec, _, called := runAuth(t, "Basic "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	token := signToken(t, "other_secret", validClaims())
	rec, _, called := runAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthJWT_ExpiredToken(t *testing.T) {
	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	token := signToken(t, testJWTSecret, claims)

	rec, _, called := runAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthJWT_MissingRole(t *testing.T) {
	claims := validClaims()
	delete(claims, "role")
	token := signToken(t, testJWTSecret, claims)

	rec, _, called := runAuth(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAdminRoleGuard(t *testing.T) {
	cases := []struct {
		name   string
		role   interface{}
		status int
		passes bool
	}{
		{"admin allowed", "ADMIN", http.StatusOK, true},
		{"customer forbidden", "CUSTOMER", http.StatusForbidden, false},
		{"missing role", nil, http.StatusUnauthorized, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tc.role != nil {
				c.Set(CtxUserRoleKey, tc.role)
			}

			called := false
			handler := AdminRoleGuard()(func(c echo.Context) error {
				called = true
				return c.NoContent(http.StatusOK)
			})
			require.NoError(t, handler(c))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.passes, called)
		})
	}
}
