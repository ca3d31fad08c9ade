package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/saeid-a/StudioOnboardBack/internal/models"
	"github.com/saeid-a/StudioOnboardBack/internal/onboarding"
	"github.com/saeid-a/StudioOnboardBack/internal/services"
	"github.com/saeid-a/StudioOnboardBack/internal/store"
	"github.com/saeid-a/StudioOnboardBack/pkg/utils"
	"go.uber.org/zap"
)

const (
	confirmHint  = "Book your first session and agree to the Studio terms before confirming your onboarding."
	termsMessage = "Thank you for agreeing to the Studio terms and conditions. A member of the team will be in touch with you soon."
)

type onboardingApplicationService interface {
	Catalog() *onboarding.Catalog
	Start(ctx context.Context, plan string) (*store.Session, error)
	Get(ctx context.Context, sessionID string) (*store.Session, error)
	End(ctx context.Context, sessionID string) error
	ToggleStep(ctx context.Context, sessionID string, step onboarding.Step) (*store.Session, error)
	SetBookingConfirmed(ctx context.Context, sessionID string, value bool) (*store.Session, error)
	ConfirmOnboarding(ctx context.Context, sessionID string) (*store.Session, error)
	SubmitBaseline(ctx context.Context, sessionID string, metrics models.BaselineMetrics) error
}

type OnboardingHandler struct {
	service    onboardingApplicationService
	jwtSecret  string
	sessionTTL time.Duration
	bookingURL string
	log        *zap.Logger
}

func NewOnboardingHandler(
	service onboardingApplicationService,
	jwtSecret string,
	sessionTTL time.Duration,
	bookingURL string,
	log *zap.Logger,
) *OnboardingHandler {
	return &OnboardingHandler{
		service:    service,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		bookingURL: bookingURL,
		log:        log,
	}
}

type startSessionRequest struct {
	Plan string `json:"plan"`
}

type setBookingRequest struct {
	Confirmed *bool `json:"confirmed"`
}

func (h *OnboardingHandler) StartSession(c *fiber.Ctx) error {
	var req startSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}
	// Query and route values alias the request buffer and outlive the
	// request once stored, so they are copied.
	if req.Plan == "" {
		req.Plan = fiberutils.CopyString(c.Query("plan"))
	}

	session, err := h.service.Start(c.Context(), req.Plan)
	if err != nil {
		return mapOnboardingError(c, err)
	}

	token, err := utils.GenerateToken(session.ID, session.State.SelectedPlan, h.jwtSecret, h.sessionTTL)
	if err != nil {
		h.log.Error("sign session token", zap.String("session_id", session.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start onboarding session"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":   token,
		"session": h.view(session),
	})
}

func (h *OnboardingHandler) GetSession(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	session, err := h.service.Get(c.Context(), sessionID)
	if err != nil {
		return mapOnboardingError(c, err)
	}

	return c.JSON(fiber.Map{"session": h.view(session)})
}

func (h *OnboardingHandler) EndSession(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	if err := h.service.End(c.Context(), sessionID); err != nil {
		return mapOnboardingError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *OnboardingHandler) ToggleStep(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	step := onboarding.Step(fiberutils.CopyString(strings.TrimSpace(c.Params("step"))))
	session, err := h.service.ToggleStep(c.Context(), sessionID, step)
	if err != nil {
		return mapOnboardingError(c, err)
	}

	return c.JSON(fiber.Map{
		"session":           h.view(session),
		"booking_requested": step == h.service.Catalog().BookingStep(),
	})
}

// SetBooking is the manual stand-in for the booking provider callback: the
// user agrees to the studio terms inside the booking surface.
func (h *OnboardingHandler) SetBooking(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	var req setBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Confirmed == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "confirmed is required"})
	}

	session, err := h.service.SetBookingConfirmed(c.Context(), sessionID, *req.Confirmed)
	if err != nil {
		return mapOnboardingError(c, err)
	}

	response := fiber.Map{"session": h.view(session)}
	if *req.Confirmed {
		response["message"] = termsMessage
	}
	return c.JSON(response)
}

func (h *OnboardingHandler) ConfirmOnboarding(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	session, err := h.service.ConfirmOnboarding(c.Context(), sessionID)
	if errors.Is(err, onboarding.ErrBookingNotConfirmed) {
		response := fiber.Map{
			"error": "Booking not confirmed",
			"code":  "BOOKING_NOT_CONFIRMED",
			"hint":  confirmHint,
		}
		if session != nil {
			response["session"] = h.view(session)
		}
		return c.Status(fiber.StatusConflict).JSON(response)
	}
	if err != nil {
		return mapOnboardingError(c, err)
	}

	return c.JSON(fiber.Map{"session": h.view(session)})
}

func parseSessionID(c *fiber.Ctx) (string, error) {
	sessionID, ok := c.Locals("session_id").(string)
	if !ok || strings.TrimSpace(sessionID) == "" {
		return "", errors.New("missing session id")
	}
	return sessionID, nil
}

func mapOnboardingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, onboarding.ErrUnknownStep):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Onboarding session not found"})
	case errors.Is(err, services.ErrSubmissionInFlight):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "error": "A submission is already in progress"})
	case errors.Is(err, services.ErrSubmissionFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "error": submissionFailedMessage})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process onboarding request"})
	}
}
