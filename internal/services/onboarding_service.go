package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/saeid-a/StudioOnboardBack/internal/models"
	"github.com/saeid-a/StudioOnboardBack/internal/onboarding"
	"github.com/saeid-a/StudioOnboardBack/internal/store"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound    = errors.New("onboarding session not found")
	ErrSubmissionInFlight = errors.New("baseline submission already in progress")
)

// lockGrace keeps the in-flight guard alive slightly past the sink timeout.
const lockGrace = 5 * time.Second

type eventPublisher interface {
	Publish(sessionID string, events ...onboarding.Event)
}

type OnboardingService struct {
	catalog       *onboarding.Catalog
	store         store.Store
	sink          BaselineSink
	events        eventPublisher
	log           *zap.Logger
	submitTimeout time.Duration
	newID         func() string
	now           func() time.Time
}

func NewOnboardingService(
	catalog *onboarding.Catalog,
	sessionStore store.Store,
	sink BaselineSink,
	events eventPublisher,
	log *zap.Logger,
	submitTimeout time.Duration,
) *OnboardingService {
	return &OnboardingService{
		catalog:       catalog,
		store:         sessionStore,
		sink:          sink,
		events:        events,
		log:           log,
		submitTimeout: submitTimeout,
		newID:         uuid.NewString,
		now:           time.Now,
	}
}

func (s *OnboardingService) Catalog() *onboarding.Catalog {
	return s.catalog
}

// Start opens a fresh session. plan is carried verbatim.
func (s *OnboardingService) Start(ctx context.Context, plan string) (*store.Session, error) {
	session := store.Session{
		ID:        s.newID(),
		State:     onboarding.NewState(s.catalog, plan),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("onboarding session started",
		zap.String("session_id", session.ID),
		zap.String("plan", session.State.SelectedPlan),
	)
	return s.Get(ctx, session.ID)
}

func (s *OnboardingService) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return session, nil
}

// End discards the session and its state.
func (s *OnboardingService) End(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return mapStoreError(err)
	}
	s.log.Info("onboarding session ended", zap.String("session_id", sessionID))
	return nil
}

func (s *OnboardingService) ToggleStep(ctx context.Context, sessionID string, step onboarding.Step) (*store.Session, error) {
	session, err := s.mutate(ctx, sessionID, func(tracker *onboarding.Tracker) error {
		_, err := tracker.ToggleStep(step)
		return err
	})
	if errors.Is(err, onboarding.ErrUnknownStep) {
		s.log.Error("toggle of undeclared onboarding step",
			zap.String("session_id", sessionID),
			zap.String("step", string(step)),
		)
	}
	return session, err
}

// SetBookingConfirmed records the booking signal, whether it came from the
// provider webhook or the manual stand-in.
func (s *OnboardingService) SetBookingConfirmed(ctx context.Context, sessionID string, value bool) (*store.Session, error) {
	return s.mutate(ctx, sessionID, func(tracker *onboarding.Tracker) error {
		tracker.SetBookingConfirmed(value)
		return nil
	})
}

func (s *OnboardingService) ConfirmOnboarding(ctx context.Context, sessionID string) (*store.Session, error) {
	session, err := s.mutate(ctx, sessionID, func(tracker *onboarding.Tracker) error {
		_, err := tracker.ConfirmOnboarding()
		return err
	})
	if err == nil {
		s.log.Info("onboarding confirmed", zap.String("session_id", sessionID))
	}
	return session, err
}

// SubmitBaseline forwards metrics plus the session plan to the sink. Only one
// submission per session may be in flight. The sink call is detached from
// ctx cancellation and bounded by the sink timeout alone.
func (s *OnboardingService) SubmitBaseline(ctx context.Context, sessionID string, metrics models.BaselineMetrics) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	lockKey := "baseline:" + sessionID
	acquired, err := s.store.TryLock(ctx, lockKey, s.submitTimeout+lockGrace)
	if err != nil {
		return fmt.Errorf("acquire submission guard: %w", err)
	}
	if !acquired {
		return ErrSubmissionInFlight
	}
	defer func() {
		if err := s.store.Unlock(context.Background(), lockKey); err != nil {
			s.log.Warn("release submission guard", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()

	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.submitTimeout)
	defer cancel()

	err = s.sink.Submit(submitCtx, models.BaselineSubmission{
		WeightKG:      metrics.WeightKG,
		AvgSleepHours: metrics.AvgSleepHours,
		Notes:         metrics.Notes,
		Plan:          session.State.SelectedPlan,
	})
	if err != nil {
		s.log.Warn("baseline submission failed",
			zap.String("session_id", sessionID),
			zap.String("plan", session.State.SelectedPlan),
			zap.Error(err),
		)
		if errors.Is(err, ErrSubmissionFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	if tracker, err := onboarding.Restore(s.catalog, session.State); err == nil {
		tracker.RecordBaselineSubmitted()
		s.events.Publish(sessionID, tracker.DrainEvents()...)
	}
	return nil
}

func (s *OnboardingService) mutate(
	ctx context.Context,
	sessionID string,
	op func(tracker *onboarding.Tracker) error,
) (*store.Session, error) {
	var events []onboarding.Event

	session, err := s.store.Update(ctx, sessionID, func(session *store.Session) error {
		tracker, err := onboarding.Restore(s.catalog, session.State)
		if err != nil {
			return err
		}
		if err := op(tracker); err != nil {
			return err
		}
		session.State = tracker.State()
		events = tracker.DrainEvents()
		return nil
	})
	if err != nil {
		return session, mapStoreError(err)
	}

	s.events.Publish(sessionID, events...)
	return session, nil
}

func mapStoreError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}
