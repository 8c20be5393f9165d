package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the auth counters. A nil *Metrics records nothing.
type Metrics struct {
	validations metric.Int64Counter
	logins      metric.Int64Counter
	logouts     metric.Int64Counter
	swept       metric.Int64Counter
	sweepErrors metric.Int64Counter
}

// NewMetrics registers the auth counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.validations, err = meter.Int64Counter("auth.token.validations",
		metric.WithDescription("Token validations by outcome")); err != nil {
		return nil, err
	}
	if m.logins, err = meter.Int64Counter("auth.logins",
		metric.WithDescription("Login attempts by outcome")); err != nil {
		return nil, err
	}
	if m.logouts, err = meter.Int64Counter("auth.logouts",
		metric.WithDescription("Logouts; newly_revoked=false for repeats")); err != nil {
		return nil, err
	}
	if m.swept, err = meter.Int64Counter("auth.revocations.swept",
		metric.WithDescription("Revocation entries removed by the sweeper")); err != nil {
		return nil, err
	}
	if m.sweepErrors, err = meter.Int64Counter("auth.sweep.errors",
		metric.WithDescription("Failed sweeper passes")); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validation records a validation outcome ("accepted" or a rejection reason, or "error").
func (m *Metrics) Validation(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Login records a login outcome.
func (m *Metrics) Login(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Logout records a successful logout.
func (m *Metrics) Logout(ctx context.Context, newlyRevoked bool) {
	if m == nil {
		return
	}
	m.logouts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("newly_revoked", newlyRevoked)))
}

// Sweep records a sweeper pass. err non-nil counts a failure.
func (m *Metrics) Sweep(ctx context.Context, pass string, removed int64, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("pass", pass))
	if err != nil {
		m.sweepErrors.Add(ctx, 1, attrs)
		return
	}
	m.swept.Add(ctx, removed, attrs)
}
