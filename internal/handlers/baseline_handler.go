package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/StudioOnboardBack/internal/models"
	"github.com/saeid-a/StudioOnboardBack/internal/onboarding"
)

const (
	submissionFailedMessage  = "We couldn't save your baseline right now. Please try again."
	submissionSuccessMessage = "Thanks, your baseline has been received."
)

type baselineRecorder interface {
	Record(submission models.BaselineSubmission) models.BaselineRecord
}

// BaselineHandler is the in-service Submission Sink. It defaults missing
// fields, logs the payload and always reports success. Nothing is stored.
type BaselineHandler struct {
	sink baselineRecorder
}

func NewBaselineHandler(sink baselineRecorder) *BaselineHandler {
	return &BaselineHandler{sink: sink}
}

type baselineSinkRequest struct {
	WeightKG      *float64 `json:"weightKg"`
	AvgSleepHours *float64 `json:"avgSleepHours"`
	Notes         *string  `json:"notes"`
	Plan          *string  `json:"plan"`
}

func (h *BaselineHandler) Receive(c *fiber.Ctx) error {
	var req baselineSinkRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid JSON body"})
	}

	plan := ""
	if req.Plan != nil {
		plan = *req.Plan
	}

	h.sink.Record(models.BaselineSubmission{
		WeightKG:      req.WeightKG,
		AvgSleepHours: req.AvgSleepHours,
		Notes:         req.Notes,
		Plan:          onboarding.NormalizePlan(plan),
	})

	return c.JSON(fiber.Map{"success": true})
}

type submitBaselineRequest struct {
	WeightKG      *float64 `json:"weightKg"`
	AvgSleepHours *float64 `json:"avgSleepHours"`
	Notes         *string  `json:"notes"`
}

// SubmitBaseline forwards the session's baseline metrics to the configured
// sink. On failure the client keeps its field values and may retry.
func (h *OnboardingHandler) SubmitBaseline(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid session"})
	}

	var req submitBaselineRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
		}
	}

	err = h.service.SubmitBaseline(c.Context(), sessionID, models.BaselineMetrics{
		WeightKG:      req.WeightKG,
		AvgSleepHours: req.AvgSleepHours,
		Notes:         req.Notes,
	})
	if err != nil {
		return mapOnboardingError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": submissionSuccessMessage,
	})
}
