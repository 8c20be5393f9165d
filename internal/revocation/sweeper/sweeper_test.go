package sweeper

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"casas-auth/internal/revocation/domain"
	"casas-auth/internal/revocation/repository"
)

type recorded struct {
	pass    string
	removed int64
	err     error
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (f *fakeRecorder) Sweep(_ context.Context, pass string, removed int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recorded{pass, removed, err})
}

type failingStore struct{ calls int }

func (f *failingStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	f.calls++
	return 0, errors.New("connection refused")
}

func TestSweep_RemovesOnlyStrictlyExpired(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := repository.NewMemoryRepository()
	for token, exp := range map[string]time.Time{
		"past":   start.Add(-time.Minute),
		"equal":  start,
		"future": start.Add(time.Hour),
	} {
		if _, err := repo.Insert(ctx, &domain.Entry{Token: token, OwnerID: "u1", ExpiresAt: exp}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	rec := &fakeRecorder{}
	s := New(repo, zerolog.New(io.Discard), Options{Metrics: rec, Now: func() time.Time { return start }})
	removed, err := s.Sweep(ctx, PassFrequent)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if repo.Get("past") != nil {
		t.Error("past entry should be gone")
	}
	if repo.Get("equal") == nil || repo.Get("future") == nil {
		t.Error("entries expiring at or after the pass start must survive")
	}
	if len(rec.seen) != 1 || rec.seen[0].pass != PassFrequent || rec.seen[0].removed != 1 {
		t.Errorf("recorded = %+v", rec.seen)
	}
}

func TestSweep_StoreFailureIsReported(t *testing.T) {
	store := &failingStore{}
	rec := &fakeRecorder{}
	s := New(store, zerolog.New(io.Discard), Options{Metrics: rec})
	if _, err := s.Sweep(context.Background(), PassDaily); err == nil {
		t.Fatal("expected error")
	}
	if _, err := s.Sweep(context.Background(), PassDaily); err == nil {
		t.Fatal("expected error on retry")
	}
	if store.calls != 2 {
		t.Errorf("calls = %d, want 2", store.calls)
	}
	if len(rec.seen) != 2 || rec.seen[0].err == nil {
		t.Errorf("recorded = %+v", rec.seen)
	}
}

func TestRun_SweepsOnIntervalAndStops(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	rec := &fakeRecorder{}
	s := New(repo, zerolog.New(io.Discard), Options{Interval: 10 * time.Millisecond, Metrics: rec})

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		rec.mu.Lock()
		n := len(rec.seen)
		rec.mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("frequent pass did not run")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNextDaily(t *testing.T) {
	loc := time.FixedZone("test", -4*3600)
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"later today", time.Date(2026, 3, 1, 1, 30, 0, 0, loc), time.Date(2026, 3, 1, 3, 0, 0, 0, loc)},
		{"exactly now rolls over", time.Date(2026, 3, 1, 3, 0, 0, 0, loc), time.Date(2026, 3, 2, 3, 0, 0, 0, loc)},
		{"already passed", time.Date(2026, 3, 1, 18, 0, 0, 0, loc), time.Date(2026, 3, 2, 3, 0, 0, 0, loc)},
		{"month end", time.Date(2026, 3, 31, 4, 0, 0, 0, loc), time.Date(2026, 4, 1, 3, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextDaily(tt.now, 3, 0); !got.Equal(tt.want) {
				t.Errorf("nextDaily = %v, want %v", got, tt.want)
			}
		})
	}
}
