package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fitsbi/fitsbi-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The pool connects lazily, so route registration can be exercised without a
// database behind it.
func newRoutesTestApp(t *testing.T) *fiber.App {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), "postgres://localhost:5432/fitsbi")
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	app := fiber.New()
	RegisterRoutes(app, &config.Config{JWTSecret: "test-secret"}, pool)
	return app
}

func TestWebSocketRouteBypassesBearerMiddleware(t *testing.T) {
	app := newRoutesTestApp(t)

	// No Authorization header: the request has to reach the websocket guard,
	// which answers 426 for a plain GET, instead of the bearer middleware's
	// 401. Browser clients carry the token as a query parameter only.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ws", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426 from the websocket guard, got %d", resp.StatusCode)
	}
}

func TestV1RoutesRequireBearerToken(t *testing.T) {
	app := newRoutesTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", resp.StatusCode)
	}
}
