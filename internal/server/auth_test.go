package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestAuthMiddlewareRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := signJWT("user-42", secret, time.Hour)
	if err != nil {
		t.Fatalf("signJWT: %v", err)
	}

	e := echo.New()
	handler := authMiddleware(secret)(func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("user_id").(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Body.String() != "user-42" {
		t.Fatalf("user_id = %q, want user-42", rec.Body.String())
	}
}

func TestAuthMiddlewareCookie(t *testing.T) {
	secret := []byte("test-secret")
	token, err := signJWT("user-7", secret, time.Hour)
	if err != nil {
		t.Fatalf("signJWT: %v", err)
	}

	e := echo.New()
	handler := authMiddleware(secret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: token})
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	e := echo.New()
	handler := authMiddleware([]byte("test-secret"))(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	cases := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"missing token", func(r *http.Request) {}},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }},
		{"wrong secret", func(r *http.Request) {
			tok, _ := signJWT("u", []byte("other-secret"), time.Hour)
			r.Header.Set("Authorization", "Bearer "+tok)
		}},
		{"expired", func(r *http.Request) {
			tok, _ := signJWT("u", []byte("test-secret"), -time.Hour)
			r.Header.Set("Authorization", "Bearer "+tok)
		}},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		tc.setup(req)
		rec := httptest.NewRecorder()
		err := handler(e.NewContext(req, rec))
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusUnauthorized {
			t.Errorf("%s: err = %v, want 401", tc.name, err)
		}
	}
}
