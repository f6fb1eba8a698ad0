package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/urbancanopy/ground-temp-etl/internal/domain"
	"github.com/urbancanopy/ground-temp-etl/internal/observability"
)

// SolveEnv is the per-job environment shared by every group solve: the
// extracted weather day and the site parameters of the evapotranspiration
// model.
type SolveEnv struct {
	Profile     domain.DailyWeatherProfile
	AltitudeM   float64
	MeridianLon float64
	MeanLon     float64
}

// GroupSolver solves one equivalence group against an environment.
type GroupSolver interface {
	SolveGroup(ctx context.Context, g Group, env SolveEnv) (domain.SolvedSeries, error)
}

// EquilibriumSolver is the concrete GroupSolver: it derives the deep-ground
// boundary series and the evapotranspiration flux for the group's material
// and latitude, then iterates the energy balance to a converged diurnal
// cycle.
type EquilibriumSolver struct{}

func (EquilibriumSolver) SolveGroup(_ context.Context, g Group, env SolveEnv) (domain.SolvedSeries, error) {
	rep := g.Representative
	in := domain.SolveInput{
		Material: rep.Material,
		Shadow:   rep.Shadow,
		Profile:  env.Profile,
		GroundK:  domain.DeepGroundSeries(env.Profile, rep.Material),
		ET0: domain.HourlyEvapotranspiration(env.Profile, domain.EvapoParams{
			Latitude:    rep.Lat,
			Albedo:      rep.Material.Albedo,
			AltitudeM:   env.AltitudeM,
			MeridianLon: env.MeridianLon,
			MeanLon:     env.MeanLon,
		}),
	}
	return domain.Solve(in)
}

// groupOutcome carries one finished group solve back to the accumulator.
type groupOutcome struct {
	key    domain.EquivalenceKey
	series domain.SolvedSeries
	err    error
}

// SolveAll solves every group on a worker pool. Hours within a group are
// strictly sequential; groups share no mutable state, so they run
// embarrassingly parallel. Cancellation is honored between group solves
// only: groups already finished when the context is cancelled remain in the
// returned map.
//
// Failed groups are logged with their key and excluded from the result;
// unconverged groups are kept, tagged via SolvedSeries.Converged.
func SolveAll(ctx context.Context, solver GroupSolver, groups []Group, env SolveEnv, workers int, logger *slog.Logger, metrics *observability.Metrics) map[domain.EquivalenceKey]domain.SolvedSeries {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(groups) {
		workers = len(groups)
	}

	work := make(chan Group)
	outcomes := make(chan groupOutcome)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range work {
				series, err := solver.SolveGroup(ctx, g, env)
				outcomes <- groupOutcome{key: g.Key, series: series, err: err}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, g := range groups {
			// Checked between solves, never mid-solve.
			select {
			case <-ctx.Done():
				return
			case work <- g:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make(map[domain.EquivalenceKey]domain.SolvedSeries, len(groups))
	for o := range outcomes {
		if o.err != nil {
			logger.Warn("group solve failed, excluding from output",
				"key", string(o.key), "error", o.err)
			metrics.SolveErrors.Inc()
			continue
		}
		if !o.series.Converged {
			logger.Warn("group failed to reach equilibrium, emitting best series",
				"key", string(o.key), "cycles", o.series.Cycles)
			metrics.UnconvergedGroups.Inc()
		}
		metrics.SolveCycles.Observe(float64(o.series.Cycles))
		results[o.key] = o.series
	}
	return results
}
