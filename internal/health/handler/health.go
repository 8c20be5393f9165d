// Package handler reports service health over HTTP and keeps the gRPC health service in sync.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker is implemented by the user mutation policy evaluator.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc is an optional dependency check; a failure degrades the report without failing it.
type CheckFunc func(ctx context.Context) error

// Component is the status of one dependency.
type Component struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Report is the aggregated health answer.
type Report struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components []Component `json:"components"`
}

// Healthy reports whether every required dependency answered.
func (r Report) Healthy() bool {
	return r.Status != StatusUnhealthy
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Checker aggregates the database ping, the policy engine and optional checks.
type Checker struct {
	db       Pinger
	policy   PolicyChecker
	optional map[string]CheckFunc
	timeout  time.Duration
}

// NewChecker returns a Checker. db and policy may be nil.
func NewChecker(db Pinger, policy PolicyChecker) *Checker {
	return &Checker{db: db, policy: policy, optional: map[string]CheckFunc{}, timeout: 2 * time.Second}
}

// WithOptional registers a non-critical dependency such as the revocation cache.
func (c *Checker) WithOptional(name string, fn CheckFunc) *Checker {
	c.optional[name] = fn
	return c
}

// Check runs every probe. Database or policy failures make the report unhealthy.
func (c *Checker) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rep := Report{Status: StatusHealthy, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	if c.db != nil {
		rep.add("database", c.db.PingContext(ctx), true)
	}
	if c.policy != nil {
		rep.add("policy", c.policy.HealthCheck(ctx), true)
	}
	for name, fn := range c.optional {
		rep.add(name, fn(ctx), false)
	}
	return rep
}

func (r *Report) add(name string, err error, required bool) {
	comp := Component{Name: name, Status: StatusHealthy}
	if err != nil {
		comp.Error = err.Error()
		comp.Status = StatusUnhealthy
		switch {
		case required:
			r.Status = StatusUnhealthy
		case r.Status == StatusHealthy:
			r.Status = StatusDegraded
		}
	}
	r.Components = append(r.Components, comp)
}

// HTTP answers 200 when healthy or degraded and 503 otherwise.
func (c *Checker) HTTP() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rep := c.Check(ctx.Request.Context())
		code := http.StatusOK
		if !rep.Healthy() {
			code = http.StatusServiceUnavailable
		}
		ctx.JSON(code, rep)
	}
}

// Watch mirrors Check into srv's overall serving status every interval until ctx is done.
func (c *Checker) Watch(ctx context.Context, srv *health.Server, interval time.Duration, log zerolog.Logger) {
	last := healthpb.HealthCheckResponse_UNKNOWN
	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if !c.Check(ctx).Healthy() {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		if status != last {
			log.Info().Str("status", status.String()).Msg("grpc health status changed")
			last = status
		}
		srv.SetServingStatus("", status)
	}

	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}
