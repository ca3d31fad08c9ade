package eventsws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/saeid-a/StudioOnboardBack/internal/onboarding"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type fakeConn struct {
	writes    chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		writes: make(chan []byte, 8),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	select {
	case <-f.closed:
		return errors.New("closed")
	case f.writes <- data:
		return nil
	}
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func TestHubDeliversEventsToSessionSockets(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	conn := newFakeConn()
	client := NewClient(hub, conn, "s1")
	if !hub.Register(client) {
		t.Fatalf("expected register to succeed")
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		client.WritePump()
	}()
	go func() {
		defer wg.Done()
		client.ReadPump()
	}()

	state := onboarding.NewState(onboarding.DefaultCatalog(), "HYBRID_01")
	hub.Publish("other", onboarding.Event{Type: onboarding.EventBookingConfirmed, State: state, At: time.Now()})
	hub.Publish("s1", onboarding.Event{Type: onboarding.EventBookingRequested, Step: onboarding.StepBook, State: state, At: time.Now()})

	select {
	case payload := <-conn.writes:
		var message struct {
			Type  string           `json:"type"`
			Step  string           `json:"step"`
			State onboarding.State `json:"state"`
		}
		if err := json.Unmarshal(payload, &message); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		if message.Type != string(onboarding.EventBookingRequested) {
			t.Fatalf("expected booking_requested, got %q", message.Type)
		}
		if message.Step != string(onboarding.StepBook) {
			t.Fatalf("expected step book, got %q", message.Step)
		}
		if message.State.SelectedPlan != "HYBRID_01" {
			t.Fatalf("expected plan in state, got %q", message.State.SelectedPlan)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}

	_ = conn.Close()
	cancel()
	wg.Wait()
}

func TestHubRegisterAfterStopReturnsFalse(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	client := NewClient(hub, newFakeConn(), "s1")
	if hub.Register(client) {
		t.Fatalf("expected register to fail on a stopped hub")
	}
	hub.Unregister(client)
}

func TestPublishDropsWhenQueueIsFull(t *testing.T) {
	hub := NewHub(zap.NewNop())
	event := onboarding.Event{Type: onboarding.EventStepToggled, At: time.Now()}

	for i := 0; i < cap(hub.broadcast)+10; i++ {
		hub.Publish("s1", event)
	}

	if got := len(hub.broadcast); got != cap(hub.broadcast) {
		t.Fatalf("expected full queue of %d, got %d", cap(hub.broadcast), got)
	}
}
