package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/StudioOnboardBack/internal/services"
	"github.com/saeid-a/StudioOnboardBack/internal/store"
	"go.uber.org/zap"
)

const (
	bookingSignatureHeader = "X-Cal-Signature-256"
	bookingMetadataKey     = "onboarding_session"

	triggerBookingCreated   = "BOOKING_CREATED"
	triggerBookingCancelled = "BOOKING_CANCELLED"
)

type bookingSignalService interface {
	SetBookingConfirmed(ctx context.Context, sessionID string, value bool) (*store.Session, error)
}

// BookingHandler receives the scheduling provider's webhook and turns it into
// the tracker's booking signal.
type BookingHandler struct {
	service bookingSignalService
	secret  []byte
	log     *zap.Logger
}

func NewBookingHandler(service bookingSignalService, secret string, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		secret:  []byte(secret),
		log:     log,
	}
}

type bookingWebhookRequest struct {
	TriggerEvent string `json:"triggerEvent"`
	Payload      struct {
		UID      string            `json:"uid"`
		Metadata map[string]string `json:"metadata"`
	} `json:"payload"`
}

func (h *BookingHandler) Webhook(c *fiber.Ctx) error {
	if len(h.secret) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	}

	body := c.Body()
	if !h.validSignature(body, c.Get(bookingSignatureHeader)) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid signature"})
	}

	var req bookingWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var confirmed bool
	switch req.TriggerEvent {
	case triggerBookingCreated:
		confirmed = true
	case triggerBookingCancelled:
		confirmed = false
	default:
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	sessionID := strings.TrimSpace(req.Payload.Metadata[bookingMetadataKey])
	if sessionID == "" {
		h.log.Warn("booking webhook without onboarding session",
			zap.String("trigger", req.TriggerEvent),
			zap.String("booking_uid", req.Payload.UID),
		)
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	if _, err := h.service.SetBookingConfirmed(c.Context(), sessionID, confirmed); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			h.log.Warn("booking webhook for unknown session",
				zap.String("session_id", sessionID),
				zap.String("trigger", req.TriggerEvent),
			)
			return c.JSON(fiber.Map{"status": "ignored"})
		}
		h.log.Error("apply booking signal", zap.String("session_id", sessionID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to apply booking"})
	}

	h.log.Info("booking signal applied",
		zap.String("session_id", sessionID),
		zap.String("trigger", req.TriggerEvent),
		zap.Bool("confirmed", confirmed),
	)
	return c.JSON(fiber.Map{"status": "applied"})
}

func (h *BookingHandler) validSignature(body []byte, signature string) bool {
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(provided) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
