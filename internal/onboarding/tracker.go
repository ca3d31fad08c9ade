package onboarding

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventStepToggled         EventType = "step_toggled"
	EventBookingRequested    EventType = "booking_requested"
	EventBookingConfirmed    EventType = "booking_confirmed"
	EventBookingCancelled    EventType = "booking_cancelled"
	EventOnboardingConfirmed EventType = "onboarding_confirmed"
	EventBaselineSubmitted   EventType = "baseline_submitted"
)

// Event is an observable side effect of a tracker operation. Events are
// buffered on the tracker until the owner drains them.
type Event struct {
	Type  EventType `json:"type"`
	Step  Step      `json:"step,omitempty"`
	State State     `json:"state"`
	At    time.Time `json:"at"`
}

// Tracker applies onboarding operations to a single session's State. A Tracker
// is owned by one session and is not safe for concurrent use.
type Tracker struct {
	catalog *Catalog
	state   State
	pending []Event
	now     func() time.Time
}

func NewTracker(catalog *Catalog, plan string) *Tracker {
	return &Tracker{
		catalog: catalog,
		state:   NewState(catalog, plan),
		now:     time.Now,
	}
}

// Restore wraps a previously stored state. The state must match the catalog.
func Restore(catalog *Catalog, state State) (*Tracker, error) {
	if err := state.Validate(catalog); err != nil {
		return nil, err
	}
	return &Tracker{
		catalog: catalog,
		state:   state.Clone(),
		now:     time.Now,
	}, nil
}

func (t *Tracker) State() State {
	return t.state.Clone()
}

func (t *Tracker) Catalog() *Catalog {
	return t.catalog
}

func (t *Tracker) CanConfirm() bool {
	return t.state.BookingConfirmed && !t.state.OnboardingConfirmed
}

// ToggleStep flips the completion flag of step. Steps carry no ordering
// constraint. Toggling the booking step also emits EventBookingRequested so the
// client can present the booking surface.
func (t *Tracker) ToggleStep(step Step) (State, error) {
	if !t.catalog.Has(step) {
		return t.State(), fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}

	t.state.Completed[step] = !t.state.Completed[step]
	t.emit(EventStepToggled, step)
	if step == t.catalog.BookingStep() {
		t.emit(EventBookingRequested, step)
	}

	return t.State(), nil
}

// SetBookingConfirmed records the external booking signal. Clearing it never
// clears an onboarding confirmation that already happened.
func (t *Tracker) SetBookingConfirmed(value bool) State {
	if t.state.BookingConfirmed == value {
		return t.State()
	}

	t.state.BookingConfirmed = value
	if value {
		t.emit(EventBookingConfirmed, "")
	} else {
		t.emit(EventBookingCancelled, "")
	}
	return t.State()
}

// ConfirmOnboarding sets the terminal confirmation flag. It refuses with
// ErrBookingNotConfirmed, leaving state untouched, until the booking signal is
// true, and is a no-op once confirmed.
func (t *Tracker) ConfirmOnboarding() (State, error) {
	if t.state.OnboardingConfirmed {
		return t.State(), nil
	}
	if !t.state.BookingConfirmed {
		return t.State(), ErrBookingNotConfirmed
	}

	t.state.OnboardingConfirmed = true
	t.emit(EventOnboardingConfirmed, "")
	return t.State(), nil
}

// RecordBaselineSubmitted emits EventBaselineSubmitted. The metrics themselves
// are never kept on the state.
func (t *Tracker) RecordBaselineSubmitted() {
	t.emit(EventBaselineSubmitted, "")
}

func (t *Tracker) DrainEvents() []Event {
	events := t.pending
	t.pending = nil
	return events
}

func (t *Tracker) emit(eventType EventType, step Step) {
	t.pending = append(t.pending, Event{
		Type:  eventType,
		Step:  step,
		State: t.State(),
		At:    t.now().UTC(),
	})
}
