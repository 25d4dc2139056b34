package routing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	legsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_route_legs_total",
		Help: "Route legs planned by kind",
	}, []string{"kind"})

	legsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_route_legs_failed_total",
		Help: "Route legs that contributed nothing because geocoding or routing failed",
	}, []string{"kind"})
)
