package resilience

import (
	"context"

	"github.com/cesarmartin1/crm-david/pkg/logger"
	"go.uber.org/zap"
)

// FallbackFunc runs instead of the operation while the breaker is open
type FallbackFunc func(ctx context.Context, err error) (interface{}, error)

// NoopFallback returns ErrCircuitOpen
func NoopFallback(ctx context.Context, err error) (interface{}, error) {
	return nil, ErrCircuitOpen
}

// GracefulDegradation logs which dependency is degraded and returns
// ErrCircuitOpen so the caller can treat it as "no data".
func GracefulDegradation(dependency string) FallbackFunc {
	return func(ctx context.Context, err error) (interface{}, error) {
		logger.WithContext(ctx).Warn("dependency degraded, circuit breaker open",
			zap.String("dependency", dependency),
			zap.Error(err),
		)
		return nil, ErrCircuitOpen
	}
}
