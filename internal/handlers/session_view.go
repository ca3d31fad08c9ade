package handlers

import (
	"net/url"
	"time"

	"github.com/saeid-a/StudioOnboardBack/internal/models"
	"github.com/saeid-a/StudioOnboardBack/internal/onboarding"
	"github.com/saeid-a/StudioOnboardBack/internal/store"
)

const bookingMetadataParam = "metadata[onboarding_session]"

type stepView struct {
	models.StepDescriptor
	Completed bool `json:"completed"`
}

type sessionView struct {
	SessionID           string     `json:"session_id"`
	SelectedPlan        string     `json:"selected_plan"`
	Steps               []stepView `json:"steps"`
	CompletedCount      int        `json:"completed_count"`
	TotalSteps          int        `json:"total_steps"`
	BookingConfirmed    bool       `json:"booking_confirmed"`
	OnboardingConfirmed bool       `json:"onboarding_confirmed"`
	CanConfirm          bool       `json:"can_confirm"`
	ConfirmHint         string     `json:"confirm_hint,omitempty"`
	BookingURL          string     `json:"booking_url"`
	ExpiresAt           time.Time  `json:"expires_at"`
}

func (h *OnboardingHandler) view(session *store.Session) sessionView {
	descriptors := h.service.Catalog().Steps()
	steps := make([]stepView, 0, len(descriptors))
	for _, descriptor := range descriptors {
		steps = append(steps, stepView{
			StepDescriptor: descriptor,
			Completed:      session.State.Completed[onboarding.Step(descriptor.ID)],
		})
	}

	state := session.State
	view := sessionView{
		SessionID:           session.ID,
		SelectedPlan:        state.SelectedPlan,
		Steps:               steps,
		CompletedCount:      state.CompletedCount(),
		TotalSteps:          len(steps),
		BookingConfirmed:    state.BookingConfirmed,
		OnboardingConfirmed: state.OnboardingConfirmed,
		CanConfirm:          state.BookingConfirmed && !state.OnboardingConfirmed,
		BookingURL:          bookingURLFor(h.bookingURL, session.ID),
		ExpiresAt:           session.ExpiresAt,
	}
	if !state.BookingConfirmed && !state.OnboardingConfirmed {
		view.ConfirmHint = confirmHint
	}
	return view
}

// bookingURLFor tags the provider URL with the session id so the booking
// webhook can find its way back to the session.
func bookingURLFor(base, sessionID string) string {
	parsed, err := url.Parse(base)
	if err != nil || base == "" {
		return base
	}
	query := parsed.Query()
	query.Set(bookingMetadataParam, sessionID)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
