package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urbancanopy/ground-temp-etl/internal/domain"
	"github.com/urbancanopy/ground-temp-etl/internal/observability"
)

// JobTransformer turns a raw solve-job message into per-point results: it
// extracts the job's weather day from the preloaded yearly record, groups the
// points into equivalence classes, solves each class once on the worker pool,
// and broadcasts the series back to every point.
type JobTransformer struct {
	records []domain.WeatherRecord
	solver  GroupSolver
	workers int
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a JobTransformer over a yearly weather record.
// workers <= 0 sizes the pool to the available cores.
func NewTransformer(records []domain.WeatherRecord, solver GroupSolver, workers int, logger *slog.Logger, metrics *observability.Metrics) *JobTransformer {
	return &JobTransformer{
		records: records,
		solver:  solver,
		workers: workers,
		logger:  logger,
		metrics: metrics,
	}
}

func (t *JobTransformer) Transform(ctx context.Context, raw domain.RawJob) ([]domain.PointResult, error) {
	job, err := domain.ParseJobRequest(raw)
	if err != nil {
		return nil, err
	}

	profile, err := domain.ExtractProfile(t.records, job.Month, job.Day)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.JobID, err)
	}
	meridian, err := domain.ReferenceMeridian(job.UTCOffset)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.JobID, err)
	}

	samples := job.Samples()
	groups, skipped := Simplify(samples)
	for _, s := range skipped {
		t.logger.Warn("point excluded from solving",
			"job_id", job.JobID, "point_id", s.Point.ID, "error", s.Err)
		t.metrics.PointsSkipped.Inc()
	}
	t.metrics.GroupsPerJob.Observe(float64(len(groups)))

	env := SolveEnv{
		Profile:     profile,
		AltitudeM:   job.AltitudeM,
		MeridianLon: meridian,
		MeanLon:     MeanLongitude(samples),
	}

	results := SolveAll(ctx, t.solver, groups, env, t.workers, t.logger, t.metrics)
	return Broadcast(job.JobID, groups, results), nil
}
