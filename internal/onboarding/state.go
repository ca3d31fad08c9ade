package onboarding

import "fmt"

// UnspecifiedPlan stands in for an absent entry plan.
const UnspecifiedPlan = "UNSPECIFIED"

// State is the per-session onboarding state. It is created when a session
// starts and discarded when the session ends; nothing outlives the session.
type State struct {
	Completed           map[Step]bool `json:"completed"`
	BookingConfirmed    bool          `json:"booking_confirmed"`
	OnboardingConfirmed bool          `json:"onboarding_confirmed"`
	SelectedPlan        string        `json:"selected_plan"`
}

func NewState(catalog *Catalog, plan string) State {
	completed := make(map[Step]bool, len(catalog.steps))
	for _, id := range catalog.IDs() {
		completed[id] = false
	}

	return State{
		Completed:    completed,
		SelectedPlan: NormalizePlan(plan),
	}
}

// NormalizePlan keeps any non-empty plan verbatim. Plans are never checked
// against a known list.
func NormalizePlan(plan string) string {
	if plan == "" {
		return UnspecifiedPlan
	}
	return plan
}

func (s State) Clone() State {
	completed := make(map[Step]bool, len(s.Completed))
	for step, done := range s.Completed {
		completed[step] = done
	}
	s.Completed = completed
	return s
}

// Validate checks that the completion map holds exactly the declared steps.
func (s State) Validate(catalog *Catalog) error {
	if len(s.Completed) != len(catalog.steps) {
		return fmt.Errorf("%w: expected %d steps, got %d", ErrInvalidState, len(catalog.steps), len(s.Completed))
	}
	for step := range s.Completed {
		if !catalog.Has(step) {
			return fmt.Errorf("%w: undeclared step %q", ErrInvalidState, step)
		}
	}
	if s.SelectedPlan == "" {
		return fmt.Errorf("%w: empty plan", ErrInvalidState)
	}
	return nil
}

func (s State) CompletedCount() int {
	count := 0
	for _, done := range s.Completed {
		if done {
			count++
		}
	}
	return count
}
