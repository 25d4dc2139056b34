package monitoring

import (
	"fmt"
	"time"

	"github.com/cesarmartin1/crm-david/pkg/config"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// InitSentry configures the global Sentry client. An empty DSN leaves Sentry
// disabled and returns false.
func InitSentry(cfg config.SentryConfig, environment, release string) (bool, error) {
	if cfg.DSN == "" {
		return false, nil
	}

	rate := cfg.SampleRate
	if rate <= 0 || rate > 1 {
		rate = 1
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      environment,
		Release:          release,
		SampleRate:       rate,
		AttachStacktrace: true,
	})
	if err != nil {
		return false, fmt.Errorf("failed to init sentry: %w", err)
	}
	return true, nil
}

// Middleware attaches a Sentry hub to every request. Panics are re-raised so
// the recovery middleware still answers with the JSON envelope.
func Middleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// Flush waits for buffered events before shutdown
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
