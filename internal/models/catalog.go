package models

type StepAction struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type StepDescriptor struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Actions     []StepAction `json:"actions,omitempty"`
}

// Package is a pricing-page training package. Prices are in pence.
type Package struct {
	Code            string  `json:"code"`
	Title           string  `json:"title"`
	Summary         string  `json:"summary"`
	Description     string  `json:"description"`
	SessionsTotal   int     `json:"sessions_total"`
	SessionsPerWeek int     `json:"sessions_per_week"`
	PricePence      int64   `json:"price_pence"`
	PromoPricePence *int64  `json:"promo_price_pence"`
	Badge           *string `json:"badge"`
	CTALabel        string  `json:"cta_label"`
	CTAUrl          string  `json:"cta_url"`
	OnboardingPath  string  `json:"onboarding_path"`
}
