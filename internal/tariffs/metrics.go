package tariffs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var calculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "crm_tariff_calculations_total",
	Help: "Tariff calculations by the table the rate was resolved from",
}, []string{"source"})
