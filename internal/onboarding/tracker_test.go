package onboarding

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/saeid-a/StudioOnboardBack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackerStartsWithEveryStepIncomplete(t *testing.T) {
	catalog := DefaultCatalog()
	tracker := NewTracker(catalog, "")

	state := tracker.State()
	require.Len(t, state.Completed, len(catalog.IDs()))
	for _, step := range catalog.IDs() {
		done, ok := state.Completed[step]
		require.True(t, ok, "missing step %q", step)
		assert.False(t, done)
	}
	assert.False(t, state.BookingConfirmed)
	assert.False(t, state.OnboardingConfirmed)
	assert.Equal(t, UnspecifiedPlan, state.SelectedPlan)
}

func TestNormalizePlanKeepsValuesVerbatim(t *testing.T) {
	assert.Equal(t, UnspecifiedPlan, NormalizePlan(""))
	assert.Equal(t, "HYBRID_01", NormalizePlan("HYBRID_01"))
	assert.Equal(t, " not-a-plan ", NormalizePlan(" not-a-plan "))
}

func TestToggleStepIsAnInvolution(t *testing.T) {
	catalog := DefaultCatalog()

	for _, step := range catalog.IDs() {
		tracker := NewTracker(catalog, "HYBRID_02")
		before := tracker.State()

		_, err := tracker.ToggleStep(step)
		require.NoError(t, err)
		after, err := tracker.ToggleStep(step)
		require.NoError(t, err)

		if diff := cmp.Diff(before, after); diff != "" {
			t.Fatalf("double toggle of %q changed state (-before +after):\n%s", step, diff)
		}
	}
}

func TestToggleStepMarksOnlyThatStep(t *testing.T) {
	tracker := NewTracker(DefaultCatalog(), "")

	state, err := tracker.ToggleStep(StepEverfit)
	require.NoError(t, err)

	for step, done := range state.Completed {
		if step == StepEverfit {
			assert.True(t, done)
			continue
		}
		assert.False(t, done, "step %q should stay incomplete", step)
	}
}

func TestToggleStepRejectsUnknownStep(t *testing.T) {
	tracker := NewTracker(DefaultCatalog(), "")

	state, err := tracker.ToggleStep("yoga")
	require.ErrorIs(t, err, ErrUnknownStep)
	assert.Equal(t, 0, state.CompletedCount())
	assert.Empty(t, tracker.DrainEvents())
}

func TestToggleBookingStepRequestsBookingSurface(t *testing.T) {
	tracker := NewTracker(DefaultCatalog(), "")

	_, err := tracker.ToggleStep(StepBook)
	require.NoError(t, err)

	events := tracker.DrainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventStepToggled, events[0].Type)
	assert.Equal(t, EventBookingRequested, events[1].Type)
	assert.Equal(t, StepBook, events[1].Step)
	assert.False(t, tracker.State().BookingConfirmed, "checklist flag must not set the booking signal")
	assert.Empty(t, tracker.DrainEvents())
}

func TestConfirmOnboardingGatedOnlyByBookingSignal(t *testing.T) {
	catalog := DefaultCatalog()
	ids := catalog.IDs()

	for mask := 0; mask < 1<<len(ids); mask++ {
		tracker := NewTracker(catalog, "")
		for i, step := range ids {
			if mask&(1<<i) != 0 {
				_, err := tracker.ToggleStep(step)
				require.NoError(t, err)
			}
		}
		tracker.DrainEvents()

		state, err := tracker.ConfirmOnboarding()
		require.ErrorIs(t, err, ErrBookingNotConfirmed, "mask %b", mask)
		assert.False(t, state.OnboardingConfirmed)
		assert.Empty(t, tracker.DrainEvents())
	}
}

func TestConfirmOnboardingOnFreshSessionIsRejected(t *testing.T) {
	tracker := NewTracker(DefaultCatalog(), "")

	_, err := tracker.ConfirmOnboarding()
	require.ErrorIs(t, err, ErrBookingNotConfirmed)
	assert.False(t, tracker.State().OnboardingConfirmed)
}

func TestConfirmOnboardingAfterBookingIsIdempotent(t *testing.T) {
	tracker := NewTracker(DefaultCatalog(), "")
	tracker.SetBookingConfirmed(true)

	state, err := tracker.ConfirmOnboarding()
	require.NoError(t, err)
	assert.True(t, state.OnboardingConfirmed)

	state, err = tracker.ConfirmOnboarding()
	require.NoError(t, err)
	assert.True(t, state.OnboardingConfirmed)

	confirmations := 0
	for _, event := range tracker.DrainEvents() {
		if event.Type == EventOnboardingConfirmed {
			confirmations++
		}
	}
	assert.Equal(t, 1, confirmations)
}

func TestClearingBookingKeepsConfirmation(t *testing.T) {
	tracker := NewTracker(DefaultCatalog(), "")
	tracker.SetBookingConfirmed(true)
	_, err := tracker.ConfirmOnboarding()
	require.NoError(t, err)

	state := tracker.SetBookingConfirmed(false)
	assert.False(t, state.BookingConfirmed)
	assert.True(t, state.OnboardingConfirmed)

	state, err = tracker.ConfirmOnboarding()
	require.NoError(t, err)
	assert.True(t, state.OnboardingConfirmed)
}

func TestSetBookingConfirmedEmitsOnlyOnChange(t *testing.T) {
	tracker := NewTracker(DefaultCatalog(), "")

	tracker.SetBookingConfirmed(true)
	tracker.SetBookingConfirmed(true)
	tracker.SetBookingConfirmed(false)

	events := tracker.DrainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventBookingConfirmed, events[0].Type)
	assert.Equal(t, EventBookingCancelled, events[1].Type)
}

func TestStateReturnsCopies(t *testing.T) {
	tracker := NewTracker(DefaultCatalog(), "")

	state := tracker.State()
	state.Completed[StepTerms] = true

	assert.False(t, tracker.State().Completed[StepTerms])
}

func TestRestoreRoundTripsThroughJSON(t *testing.T) {
	catalog := DefaultCatalog()
	tracker := NewTracker(catalog, "HYBRID_03")
	_, err := tracker.ToggleStep(StepProfiles)
	require.NoError(t, err)
	tracker.SetBookingConfirmed(true)

	encoded, err := json.Marshal(tracker.State())
	require.NoError(t, err)

	var decoded State
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	restored, err := Restore(catalog, decoded)
	require.NoError(t, err)
	assert.Equal(t, tracker.State(), restored.State())
}

func TestRestoreRejectsMismatchedKeys(t *testing.T) {
	catalog := DefaultCatalog()

	missing := NewState(catalog, "")
	delete(missing.Completed, StepLoseIt)
	_, err := Restore(catalog, missing)
	require.ErrorIs(t, err, ErrInvalidState)

	extra := NewState(catalog, "")
	delete(extra.Completed, StepLoseIt)
	extra.Completed["pilates"] = false
	_, err = Restore(catalog, extra)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestNewCatalogValidation(t *testing.T) {
	_, err := NewCatalog(nil, StepBook)
	require.Error(t, err)

	_, err = NewCatalog([]models.StepDescriptor{{ID: "a"}, {ID: "a"}}, "a")
	require.Error(t, err)

	_, err = NewCatalog([]models.StepDescriptor{{ID: "a"}}, StepBook)
	require.Error(t, err)

	catalog, err := NewCatalog([]models.StepDescriptor{{ID: " a "}, {ID: "b"}}, "b")
	require.NoError(t, err)
	assert.Equal(t, []Step{"a", "b"}, catalog.IDs())
}
