package handlers

import (
	"context"
	"errors"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/StudioOnboardBack/internal/services"
	"github.com/saeid-a/StudioOnboardBack/internal/store"
	eventsws "github.com/saeid-a/StudioOnboardBack/internal/websocket"
	"go.uber.org/zap"
)

type sessionLookup interface {
	Get(ctx context.Context, sessionID string) (*store.Session, error)
}

// EventsHandler streams tracker events for one session over a websocket.
type EventsHandler struct {
	sessions sessionLookup
	hub      *eventsws.Hub
	log      *zap.Logger
}

func NewEventsHandler(sessions sessionLookup, hub *eventsws.Hub, log *zap.Logger) *EventsHandler {
	return &EventsHandler{
		sessions: sessions,
		hub:      hub,
		log:      log,
	}
}

// Upgrade runs after SessionRequired and rejects plain HTTP requests and
// sessions that no longer exist.
func (h *EventsHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	if _, err := h.sessions.Get(c.Context(), sessionID); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Onboarding session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process onboarding request"})
	}

	return c.Next()
}

func (h *EventsHandler) HandleWebSocket(conn *websocket.Conn) {
	sessionID, _ := conn.Locals("session_id").(string)
	client := eventsws.NewClient(h.hub, conn, sessionID)

	if !h.hub.Register(client) {
		h.log.Warn("event hub stopped, closing socket", zap.String("session_id", sessionID))
		_ = conn.Close()
		return
	}
	go client.WritePump()
	client.ReadPump()
}
