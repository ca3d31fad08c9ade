package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/saeid-a/StudioOnboardBack/internal/models"
	"github.com/saeid-a/StudioOnboardBack/internal/onboarding"
	"github.com/saeid-a/StudioOnboardBack/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]onboarding.Event
}

func (p *recordingPublisher) Publish(sessionID string, events ...onboarding.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string][]onboarding.Event)
	}
	p.events[sessionID] = append(p.events[sessionID], events...)
}

func (p *recordingPublisher) types(sessionID string) []onboarding.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []onboarding.EventType
	for _, event := range p.events[sessionID] {
		out = append(out, event.Type)
	}
	return out
}

type stubSink struct {
	mu          sync.Mutex
	err         error
	calls       int
	last        models.BaselineSubmission
	block       chan struct{}
	started     chan struct{}
	lastCtxDone bool
}

func (s *stubSink) Submit(ctx context.Context, submission models.BaselineSubmission) error {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = submission
	s.lastCtxDone = ctx.Err() != nil
	return s.err
}

func newTestOnboardingService(sink BaselineSink) (*OnboardingService, *recordingPublisher) {
	publisher := &recordingPublisher{}
	svc := NewOnboardingService(
		onboarding.DefaultCatalog(),
		store.NewMemoryStore(time.Hour),
		sink,
		publisher,
		zap.NewNop(),
		time.Second,
	)
	return svc, publisher
}

func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string  { return &v }

func TestOnboardingServiceStartDefaultsPlan(t *testing.T) {
	svc, _ := newTestOnboardingService(&stubSink{})

	session, err := svc.Start(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, onboarding.UnspecifiedPlan, session.State.SelectedPlan)
	assert.Len(t, session.State.Completed, 5)
}

func TestOnboardingServiceToggleAndConfirmFlow(t *testing.T) {
	ctx := context.Background()
	svc, publisher := newTestOnboardingService(&stubSink{})
	session, err := svc.Start(ctx, "HYBRID_01")
	require.NoError(t, err)

	updated, err := svc.ToggleStep(ctx, session.ID, onboarding.StepBook)
	require.NoError(t, err)
	assert.True(t, updated.State.Completed[onboarding.StepBook])

	current, err := svc.ConfirmOnboarding(ctx, session.ID)
	require.ErrorIs(t, err, onboarding.ErrBookingNotConfirmed)
	require.NotNil(t, current)
	assert.False(t, current.State.OnboardingConfirmed)

	_, err = svc.SetBookingConfirmed(ctx, session.ID, true)
	require.NoError(t, err)

	confirmed, err := svc.ConfirmOnboarding(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, confirmed.State.OnboardingConfirmed)

	assert.Equal(t, []onboarding.EventType{
		onboarding.EventStepToggled,
		onboarding.EventBookingRequested,
		onboarding.EventBookingConfirmed,
		onboarding.EventOnboardingConfirmed,
	}, publisher.types(session.ID))
}

func TestOnboardingServiceUnknownSessionAndStep(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestOnboardingService(&stubSink{})

	_, err := svc.ToggleStep(ctx, "missing", onboarding.StepBook)
	require.ErrorIs(t, err, ErrSessionNotFound)

	session, err := svc.Start(ctx, "")
	require.NoError(t, err)
	_, err = svc.ToggleStep(ctx, session.ID, "spin-class")
	require.ErrorIs(t, err, onboarding.ErrUnknownStep)

	require.NoError(t, svc.End(ctx, session.ID))
	_, err = svc.Get(ctx, session.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmitBaselineForwardsMetricsAndPlan(t *testing.T) {
	ctx := context.Background()
	sink := &stubSink{}
	svc, publisher := newTestOnboardingService(sink)
	session, err := svc.Start(ctx, "HYBRID_01")
	require.NoError(t, err)

	err = svc.SubmitBaseline(ctx, session.ID, models.BaselineMetrics{
		WeightKG:      floatPtr(72.5),
		AvgSleepHours: floatPtr(7),
		Notes:         stringPtr("knee twinge"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, "HYBRID_01", sink.last.Plan)
	assert.Equal(t, 72.5, *sink.last.WeightKG)
	assert.Equal(t, []onboarding.EventType{onboarding.EventBaselineSubmitted}, publisher.types(session.ID))

	after, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.State, after.State, "submission must not touch onboarding state")
}

func TestSubmitBaselineCollapsesSinkErrors(t *testing.T) {
	ctx := context.Background()
	sink := &stubSink{err: errors.New("connection reset")}
	svc, publisher := newTestOnboardingService(sink)
	session, err := svc.Start(ctx, "")
	require.NoError(t, err)

	err = svc.SubmitBaseline(ctx, session.ID, models.BaselineMetrics{})
	require.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Empty(t, publisher.types(session.ID))

	sink.err = nil
	require.NoError(t, svc.SubmitBaseline(ctx, session.ID, models.BaselineMetrics{}), "guard must be released after failure")
}

func TestSubmitBaselineRejectsConcurrentSubmission(t *testing.T) {
	ctx := context.Background()
	sink := &stubSink{block: make(chan struct{}), started: make(chan struct{}, 1)}
	svc, _ := newTestOnboardingService(sink)
	session, err := svc.Start(ctx, "")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- svc.SubmitBaseline(ctx, session.ID, models.BaselineMetrics{})
	}()
	<-sink.started

	err = svc.SubmitBaseline(ctx, session.ID, models.BaselineMetrics{})
	require.ErrorIs(t, err, ErrSubmissionInFlight)

	close(sink.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, sink.calls)
}

func TestSubmitBaselineSurvivesCallerCancellation(t *testing.T) {
	sink := &stubSink{block: make(chan struct{}), started: make(chan struct{}, 1)}
	svc, _ := newTestOnboardingService(sink)
	session, err := svc.Start(context.Background(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.SubmitBaseline(ctx, session.ID, models.BaselineMetrics{})
	}()
	<-sink.started
	cancel()
	close(sink.block)

	require.NoError(t, <-done)
	assert.False(t, sink.lastCtxDone)
}
