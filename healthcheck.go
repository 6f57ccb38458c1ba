package connpool

import (
	"context"
	"errors"

	"github.com/alexliesenfeld/health"
)

var errHealthCheckUnhealthy = errors.New("connpool: health check reported unhealthy")

// HealthChecker is the asynchronous predicate used on acquire (mandatory)
// and, if Options.ReleaseHealthCheck is set, on release. It is called only
// on c.Executor(); a failed check is treated identically to a check that
// returns a non-nil error — neither surfaces to the caller, both mean
// "unhealthy".
type HealthChecker interface {
	Healthy(ctx context.Context, c Conn) error
}

// HealthCheckerFunc adapts a function to HealthChecker.
type HealthCheckerFunc func(ctx context.Context, c Conn) error

func (f HealthCheckerFunc) Healthy(ctx context.Context, c Conn) error { return f(ctx, c) }

// defaultHealthChecker is used when Options.HealthCheck is left nil. It
// builds a one-shot github.com/alexliesenfeld/health checker with a single
// named check that delegates to c.Alive, and reports unhealthy unless the
// aggregate status comes back up. alexliesenfeld/health is built for
// periodic/cached service health aggregation; used here with neither Start
// nor WithPeriodicCheck it simply runs its one check synchronously each call,
// which is exactly the per-connection predicate a pool acquire/release check
// needs.
type defaultHealthChecker struct{}

func (defaultHealthChecker) Healthy(ctx context.Context, c Conn) error {
	checker := health.NewChecker(
		health.WithCheck(health.Check{
			Name:  "conn",
			Check: c.Alive,
		}),
	)
	result := checker.Check(ctx)
	if result.Status != health.StatusUp {
		if err, ok := firstCheckError(result); ok {
			return err
		}
		return errHealthCheckUnhealthy
	}
	return nil
}

func firstCheckError(result health.CheckerResult) (error, bool) {
	for _, detail := range result.Details {
		if detail.Error != nil {
			return detail.Error, true
		}
	}
	return nil, false
}
