package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-signing-key-for-form-entry")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func serve(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (echo.Context, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var called bool
	err := mw(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})(c)
	return c, called, err
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, called, err := serve(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), "")
	if err == nil || called {
		t.Fatal("expected rejection without authorization header")
	}
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	for _, h := range []string{"Token abc", "Bearer", "Basic dXNlcjpwYXNz"} {
		_, called, err := serve(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), h)
		if err == nil || called {
			t.Errorf("%q: expected rejection", h)
		}
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "formentry",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Roles: []string{"physician"},
	}
	tokenStr := createTestToken(t, claims, testSigningKey)

	c, called, err := serve(t, JWTMiddleware(JWTConfig{Issuer: "formentry", SigningKey: testSigningKey}), "Bearer "+tokenStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler was not called")
	}
	if uid := UserIDFromContext(c.Request().Context()); uid != "user-123" {
		t.Errorf("expected user-123, got %q", uid)
	}
	roles := RolesFromContext(c.Request().Context())
	if len(roles) != 1 || roles[0] != "physician" {
		t.Errorf("expected [physician], got %v", roles)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
		},
	}
	tokenStr := createTestToken(t, claims, testSigningKey)

	_, called, err := serve(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), "Bearer "+tokenStr)
	if err == nil || called {
		t.Error("expected expired token to be rejected")
	}
}

func TestJWTMiddleware_WrongKeyAndIssuer(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", Issuer: "elsewhere"}}

	tokenStr := createTestToken(t, claims, []byte("some-other-key"))
	if _, _, err := serve(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), "Bearer "+tokenStr); err == nil {
		t.Error("expected token signed with another key to be rejected")
	}

	tokenStr = createTestToken(t, claims, testSigningKey)
	if _, _, err := serve(t, JWTMiddleware(JWTConfig{Issuer: "formentry", SigningKey: testSigningKey}), "Bearer "+tokenStr); err == nil {
		t.Error("expected token from another issuer to be rejected")
	}
}

func TestDevAuthMiddleware_GrantsAdmin(t *testing.T) {
	c, called, err := serve(t, DevAuthMiddleware(), "")
	if err != nil || !called {
		t.Fatalf("expected pass-through, got err=%v called=%v", err, called)
	}
	if uid := UserIDFromContext(c.Request().Context()); uid != "dev-user" {
		t.Errorf("expected dev-user, got %q", uid)
	}
	roles := RolesFromContext(c.Request().Context())
	if len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("expected [admin], got %v", roles)
	}
}
