package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_imports_total",
		Help: "Workbook imports by dataset and outcome",
	}, []string{"kind", "outcome"})

	importedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_imported_rows_total",
		Help: "Rows written by workbook imports",
	}, []string{"kind"})

	skippedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_import_skipped_rows_total",
		Help: "Workbook rows that could not be imported",
	}, []string{"kind"})
)
