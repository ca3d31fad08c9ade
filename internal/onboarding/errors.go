package onboarding

import "errors"

var (
	// ErrUnknownStep means a caller named a step outside the declared catalog.
	ErrUnknownStep = errors.New("unknown onboarding step")
	// ErrBookingNotConfirmed is returned by ConfirmOnboarding until the booking
	// signal has been received.
	ErrBookingNotConfirmed = errors.New("booking not confirmed")
	ErrInvalidState        = errors.New("invalid onboarding state")
)
