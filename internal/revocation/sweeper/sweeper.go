// Package sweeper periodically deletes revocation entries whose tokens have expired.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Pass names the cadence that triggered a sweep.
const (
	PassFrequent = "frequent"
	PassDaily    = "daily"
)

// Store is the subset of the revocation repository the sweeper needs.
type Store interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Recorder records sweep outcomes. *otel.Metrics satisfies it.
type Recorder interface {
	Sweep(ctx context.Context, pass string, removed int64, err error)
}

// Options configures a Sweeper. Zero values fall back to defaults.
type Options struct {
	// Interval is the frequent cadence; default 1h.
	Interval time.Duration
	// DailyHour and DailyMinute give the local wall-clock time of the daily pass.
	DailyHour   int
	DailyMinute int
	// Timeout bounds a single DeleteExpired call; default 30s.
	Timeout time.Duration
	Metrics Recorder
	Now     func() time.Time
}

// Sweeper runs the frequent and daily passes.
type Sweeper struct {
	store    Store
	log      zerolog.Logger
	metrics  Recorder
	interval time.Duration
	hour     int
	minute   int
	timeout  time.Duration
	now      func() time.Time
}

// New returns a Sweeper over store.
func New(store Store, log zerolog.Logger, opts Options) *Sweeper {
	s := &Sweeper{
		store:    store,
		log:      log.With().Str("component", "sweeper").Logger(),
		metrics:  opts.Metrics,
		interval: opts.Interval,
		hour:     opts.DailyHour,
		minute:   opts.DailyMinute,
		timeout:  opts.Timeout,
		now:      opts.Now,
	}
	if s.interval <= 0 {
		s.interval = time.Hour
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Sweep removes every entry with expiresAt strictly before the pass start.
// Errors are logged and returned; callers keep running.
func (s *Sweeper) Sweep(ctx context.Context, pass string) (int64, error) {
	start := s.now()
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	removed, err := s.store.DeleteExpired(callCtx, start)
	if s.metrics != nil {
		s.metrics.Sweep(ctx, pass, removed, err)
	}
	if err != nil {
		s.log.Error().Err(err).Str("pass", pass).Msg("sweep failed")
		return 0, err
	}
	s.log.Info().Str("pass", pass).Int64("removed", removed).
		Dur("took", s.now().Sub(start)).Msg("sweep complete")
	return removed, nil
}

// Run blocks until ctx is done, sweeping every Interval and once a day at the configured time.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).
		Int("daily_hour", s.hour).Int("daily_minute", s.minute).Msg("sweeper started")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.runFrequent(ctx)
	}()
	go func() {
		defer wg.Done()
		s.runDaily(ctx)
	}()
	wg.Wait()
	s.log.Info().Msg("sweeper stopped")
}

func (s *Sweeper) runFrequent(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Sweep(ctx, PassFrequent)
		}
	}
}

func (s *Sweeper) runDaily(ctx context.Context) {
	for {
		wait := nextDaily(s.now(), s.hour, s.minute).Sub(s.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			_, _ = s.Sweep(ctx, PassDaily)
		}
	}
}

// nextDaily returns the first hour:minute in now's location strictly after now.
func nextDaily(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next
}
