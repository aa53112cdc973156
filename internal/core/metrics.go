package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Imported roster rows by outcome (created, failed, duplicate, validated).",
	}, []string{"outcome"})

	importRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster",
		Subsystem: "import",
		Name:      "runs_total",
		Help:      "Import runs by mode and result.",
	}, []string{"mode", "result"})

	importDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "roster",
		Subsystem: "import",
		Name:      "duration_seconds",
		Help:      "Wall time of a complete import run.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"mode"})

	exportedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster",
		Subsystem: "export",
		Name:      "records_total",
		Help:      "Patients written to exports by format.",
	}, []string{"format"})
)

func runMode(dryRun bool) string {
	if dryRun {
		return "dry_run"
	}
	return "commit"
}

// recordImportMetrics is called once per finished run.
func recordImportMetrics(report *ImportReport) {
	mode := runMode(report.DryRun)
	created := "created"
	if report.DryRun {
		created = "validated"
	}
	importRows.WithLabelValues(created).Add(float64(report.Succeeded))
	importRows.WithLabelValues("failed").Add(float64(report.Failed))
	importRows.WithLabelValues("duplicate").Add(float64(report.DuplicatesSkipped))

	result := "ok"
	if report.Failed > 0 {
		result = "partial"
	}
	importRuns.With(prometheus.Labels{"mode": mode, "result": result}).Inc()
	importDuration.WithLabelValues(mode).Observe(report.Elapsed.Seconds())
}

// recordRejectedImport counts a run stopped by a file-level error.
func recordRejectedImport(dryRun bool, elapsed time.Duration) {
	mode := runMode(dryRun)
	importRuns.With(prometheus.Labels{"mode": mode, "result": "rejected"}).Inc()
	importDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}
