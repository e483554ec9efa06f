package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors the report service records. Each instance owns
// its own registry so tests can build as many as they like.
type Metrics struct {
	Registry          *prometheus.Registry
	ReportSaves       *prometheus.CounterVec
	ReportPublishes   prometheus.Counter
	ReportDeletes     *prometheus.CounterVec
	ResolutionMisses  *prometheus.CounterVec
	SaveDuration      prometheus.Histogram
	ProducersImported prometheus.Counter
	ReportsArchived   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ReportSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "woolreport_report_saves_total",
			Help: "Report saves by mode (create, update) and outcome.",
		}, []string{"mode", "outcome"}),
		ReportPublishes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "woolreport_report_publishes_total",
			Help: "Reports moved from draft to published.",
		}),
		ReportDeletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "woolreport_report_deletes_total",
			Help: "Cascade deletions by outcome.",
		}, []string{"outcome"}),
		ResolutionMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "woolreport_name_resolution_misses_total",
			Help: "Reference names that could not be resolved during a save.",
		}, []string{"kind"}),
		SaveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "woolreport_report_save_seconds",
			Help:    "Duration of report saves.",
			Buckets: prometheus.DefBuckets,
		}),
		ProducersImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "woolreport_producers_imported_total",
			Help: "Producer rows parsed from import files.",
		}),
		ReportsArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "woolreport_reports_archived_total",
			Help: "Reports archived by the scheduled sweep.",
		}),
	}

	m.Registry.MustRegister(
		m.ReportSaves,
		m.ReportPublishes,
		m.ReportDeletes,
		m.ResolutionMisses,
		m.SaveDuration,
		m.ProducersImported,
		m.ReportsArchived,
	)
	return m
}
