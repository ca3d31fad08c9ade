package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/StudioOnboardBack/internal/services"
	eventsws "github.com/saeid-a/StudioOnboardBack/internal/websocket"
	"go.uber.org/zap"
)

func newEventsTestApp(service *stubOnboardingService) *fiber.App {
	handler := NewEventsHandler(service, eventsws.NewHub(zap.NewNop()), zap.NewNop())

	app := fiber.New()
	app.Get("/ws", func(c *fiber.Ctx) error {
		c.Locals("session_id", testSessionID)
		return c.Next()
	}, handler.Upgrade, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func upgradeRequest() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	return req
}

func TestEventsUpgradeRequiresWebSocket(t *testing.T) {
	app := newEventsTestApp(&stubOnboardingService{session: newTestSession("HYBRID_01")})

	resp, _ := doJSON(t, app, http.MethodGet, "/ws", "")
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}

func TestEventsUpgradeRejectsUnknownSession(t *testing.T) {
	app := newEventsTestApp(&stubOnboardingService{err: services.ErrSessionNotFound})

	resp, err := app.Test(upgradeRequest())
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestEventsUpgradePassesLiveSession(t *testing.T) {
	service := &stubOnboardingService{session: newTestSession("HYBRID_01")}
	app := newEventsTestApp(service)

	resp, err := app.Test(upgradeRequest())
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected upgrade to proceed, got %d", resp.StatusCode)
	}
	if service.lastSessionID != testSessionID {
		t.Fatalf("expected lookup of %q, got %q", testSessionID, service.lastSessionID)
	}
}
