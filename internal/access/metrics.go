package access

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_access_denied_total",
		Help: "Requests refused by section permissions",
	}, []string{"section"})

	logFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crm_access_log_failures_total",
		Help: "Access log entries that could not be written",
	})
)
