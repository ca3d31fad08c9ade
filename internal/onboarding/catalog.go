package onboarding

import (
	"fmt"
	"strings"

	"github.com/saeid-a/StudioOnboardBack/internal/models"
)

type Step string

const (
	StepEverfit  Step = "everfit"
	StepLoseIt   Step = "loseit"
	StepProfiles Step = "profiles"
	StepTerms    Step = "terms"
	StepBook     Step = "book"
)

// Catalog is the ordered, read-only set of declared onboarding steps. One
// catalog is loaded at startup and shared by every session.
type Catalog struct {
	steps       []models.StepDescriptor
	index       map[Step]int
	bookingStep Step
}

func NewCatalog(steps []models.StepDescriptor, bookingStep Step) (*Catalog, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("catalog must declare at least one step")
	}

	index := make(map[Step]int, len(steps))
	copied := make([]models.StepDescriptor, 0, len(steps))
	for i, descriptor := range steps {
		id := Step(strings.TrimSpace(descriptor.ID))
		if id == "" {
			return nil, fmt.Errorf("step %d has an empty id", i)
		}
		if _, exists := index[id]; exists {
			return nil, fmt.Errorf("duplicate step id %q", id)
		}
		index[id] = i

		descriptor.ID = string(id)
		descriptor.Actions = append([]models.StepAction(nil), descriptor.Actions...)
		copied = append(copied, descriptor)
	}

	if _, ok := index[bookingStep]; !ok {
		return nil, fmt.Errorf("booking step %q is not declared", bookingStep)
	}

	return &Catalog{
		steps:       copied,
		index:       index,
		bookingStep: bookingStep,
	}, nil
}

// DefaultCatalog returns the built-in studio checklist.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(DefaultSteps(), StepBook)
	if err != nil {
		panic(err)
	}
	return catalog
}

func DefaultSteps() []models.StepDescriptor {
	return []models.StepDescriptor{
		{
			ID:          string(StepEverfit),
			Title:       "STEP 1 — DOWNLOAD EVERFIT",
			Description: "Your training plan, habit tracking and progress photos will live here.",
			Actions: []models.StepAction{
				{Label: "Download on iOS", Href: "https://apps.apple.com/us/app/everfit-client/id1508725411"},
				{Label: "Download on Android", Href: "https://play.google.com/store/apps/details?id=com.everfit.client"},
			},
		},
		{
			ID:          string(StepLoseIt),
			Title:       "STEP 2 — DOWNLOAD LOSE IT",
			Description: "We’ll use this to loosely track calories and protein.",
			Actions: []models.StepAction{
				{Label: "Download on iOS", Href: "https://apps.apple.com/us/app/lose-it-calorie-counter/id297368629"},
				{Label: "Download on Android", Href: "https://play.google.com/store/apps/details?id=com.fitnow.loseit"},
			},
		},
		{
			ID:          string(StepProfiles),
			Title:       "STEP 3 — COMPLETE YOUR APP PROFILES",
			Description: "Add your details such as height, current weight, goal weight and any other important details so you can track progress.",
		},
		{
			ID:          string(StepTerms),
			Title:       "STEP 4 — REVIEW THE STUDIO TERMS",
			Description: "Read the Private Studio terms and conditions before your first session.",
		},
		{
			ID:          string(StepBook),
			Title:       "STEP 5 — BOOK YOUR FIRST SESSION",
			Description: "Use the calendar to choose a time that works for you and agree to the Studio terms.",
		},
	}
}

func (c *Catalog) Steps() []models.StepDescriptor {
	out := make([]models.StepDescriptor, len(c.steps))
	for i, descriptor := range c.steps {
		descriptor.Actions = append([]models.StepAction(nil), descriptor.Actions...)
		out[i] = descriptor
	}
	return out
}

func (c *Catalog) IDs() []Step {
	ids := make([]Step, len(c.steps))
	for i, descriptor := range c.steps {
		ids[i] = Step(descriptor.ID)
	}
	return ids
}

func (c *Catalog) Has(step Step) bool {
	_, ok := c.index[step]
	return ok
}

func (c *Catalog) BookingStep() Step {
	return c.bookingStep
}
