package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ground temperature pipeline.
type Metrics struct {
	JobsConsumed    prometheus.Counter
	PointsProduced  prometheus.Counter
	TransformErrors prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Solver metrics.
	GroupsPerJob            prometheus.Histogram
	SolveCycles             prometheus.Histogram
	SolveErrors             prometheus.Counter
	UnconvergedGroups       prometheus.Counter
	PointsSkipped           prometheus.Counter
	BatchProcessingDuration prometheus.Histogram

	// Solve cache lookups. Labels: result={hit,miss}.
	SolveCache *prometheus.CounterVec
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		JobsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ground_etl",
			Name:      "jobs_consumed_total",
			Help:      "Total solve jobs read from the source topic.",
		}),
		PointsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ground_etl",
			Name:      "points_produced_total",
			Help:      "Total point results written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ground_etl",
			Name:      "transform_errors_total",
			Help:      "Total jobs that failed to parse or solve.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ground_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		GroupsPerJob: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ground_etl",
			Name:      "groups_per_job",
			Help:      "Distinct equivalence groups per solve job.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		SolveCycles: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ground_etl",
			Name:      "solve_cycles",
			Help:      "Diurnal cycles needed to reach equilibrium per group.",
			Buckets:   []float64{2, 3, 4, 5, 7, 10, 15, 20, 25},
		}),
		SolveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ground_etl",
			Name:      "solve_errors_total",
			Help:      "Groups excluded because the root finder failed.",
		}),
		UnconvergedGroups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ground_etl",
			Name:      "unconverged_groups_total",
			Help:      "Groups emitted without reaching the equilibrium threshold.",
		}),
		PointsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ground_etl",
			Name:      "points_skipped_total",
			Help:      "Points excluded due to missing material properties.",
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ground_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete extract-solve-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SolveCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ground_etl",
			Name:      "solve_cache_total",
			Help:      "Solve cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.JobsConsumed,
		m.PointsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.GroupsPerJob,
		m.SolveCycles,
		m.SolveErrors,
		m.UnconvergedGroups,
		m.PointsSkipped,
		m.BatchProcessingDuration,
		m.SolveCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		JobsConsumed:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ground_etl", Name: "jobs_consumed_total"}),
		PointsProduced:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ground_etl", Name: "points_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ground_etl", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "ground_etl", Name: "pipeline_running"}),
		GroupsPerJob:            prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "ground_etl", Name: "groups_per_job"}),
		SolveCycles:             prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "ground_etl", Name: "solve_cycles"}),
		SolveErrors:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ground_etl", Name: "solve_errors_total"}),
		UnconvergedGroups:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ground_etl", Name: "unconverged_groups_total"}),
		PointsSkipped:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "ground_etl", Name: "points_skipped_total"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "ground_etl", Name: "batch_processing_duration_seconds"}),
		SolveCache:              prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "ground_etl", Name: "solve_cache_total"}, []string{"result"}),
	}
}
