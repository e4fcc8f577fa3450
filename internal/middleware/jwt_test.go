package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aminjonov/taskhub/internal/auth"
)

const testSecret = "mw-test-secret"

func runJWT(t *testing.T, header string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/tasks/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	next := func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	}
	if err := JWTAuth(testSecret)(next)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, c, called
}

func TestJWTAuth_ValidToken(t *testing.T) {
	tok, err := auth.NewAccessToken(testSecret, 42, "alice", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec, c, called := runJWT(t, "Bearer "+tok.Token)
	if !called {
		t.Fatalf("expected next handler to run, got status %d body %s", rec.Code, rec.Body.String())
	}
	if got := UserID(c); got != 42 {
		t.Fatalf("expected user_id 42 in context, got %d", got)
	}
	if got := Username(c); got != "alice" {
		t.Fatalf("expected username alice in context, got %q", got)
	}
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	rec, _, called := runJWT(t, "")
	if called {
		t.Fatal("next handler must not run without a bearer token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	tok, err := auth.NewAccessToken("some-other-secret", 42, "alice", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec, _, called := runJWT(t, "Bearer "+tok.Token)
	if called {
		t.Fatal("next handler must not run for a foreign-signed token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	tok, err := auth.NewAccessToken(testSecret, 42, "alice", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec, _, called := runJWT(t, "Bearer "+tok.Token)
	if called {
		t.Fatal("next handler must not run for an expired token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTAuth_GarbageToken(t *testing.T) {
	rec, _, called := runJWT(t, "Bearer not-a-token")
	if called {
		t.Fatal("next handler must not run for garbage input")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
