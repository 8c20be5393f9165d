package telemetry

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"casas-auth/internal/telemetry/domain"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*domain.AuthEvent
	emitErr error
	done    chan struct{}
}

func newMockEmitter(buffer int) *mockEventEmitter {
	return &mockEventEmitter{done: make(chan struct{}, buffer)}
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *domain.AuthEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*domain.AuthEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuthEvent(nil), m.events...)
}

func (m *mockEventEmitter) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for emit %d of %d", i+1, n)
		}
	}
}

var discard = zerolog.New(io.Discard)

func TestEmitAsync_NilEmitterOrEvent(t *testing.T) {
	EmitAsync(nil, discard, &domain.AuthEvent{Type: domain.EventLogout})

	emitter := newMockEmitter(1)
	EmitAsync(emitter, discard, nil)
	time.Sleep(10 * time.Millisecond)
	if n := len(emitter.getEvents()); n != 0 {
		t.Errorf("expected 0 events, got %d", n)
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := newMockEmitter(1)
	EmitAsync(emitter, discard, &domain.AuthEvent{Type: domain.EventLogout, SubjectID: "user-1"})
	emitter.wait(t, 1)

	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].SubjectID != "user-1" || events[0].Type != domain.EventLogout {
		t.Errorf("event = %+v", events[0])
	}
}

func TestEmitAsync_ErrorIsSwallowed(t *testing.T) {
	emitter := newMockEmitter(1)
	emitter.emitErr = errors.New("broker down")
	EmitAsync(emitter, discard, &domain.AuthEvent{Type: domain.EventLoginFailure})
	emitter.wait(t, 1)
}

func TestEmitAsync_ConcurrentAccess(t *testing.T) {
	emitter := newMockEmitter(10)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, discard, &domain.AuthEvent{Type: domain.EventLogin})
		}()
	}
	wg.Wait()
	emitter.wait(t, 10)
	if n := len(emitter.getEvents()); n != 10 {
		t.Errorf("expected 10 events, got %d", n)
	}
}

func TestMulti(t *testing.T) {
	a, b := newMockEmitter(1), newMockEmitter(1)
	b.emitErr = errors.New("b failed")
	m := Multi(a, nil, b)

	err := m.Emit(context.Background(), &domain.AuthEvent{Type: domain.EventLogout})
	if err == nil || err.Error() != "b failed" {
		t.Errorf("err = %v, want b failed", err)
	}
	if len(a.getEvents()) != 1 || len(b.getEvents()) != 1 {
		t.Error("every emitter should receive the event")
	}
	if err := Multi().Emit(context.Background(), &domain.AuthEvent{}); err != nil {
		t.Errorf("empty Multi err = %v", err)
	}
}
