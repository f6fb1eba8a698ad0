package pipeline

import (
	"github.com/urbancanopy/ground-temp-etl/internal/domain"
)

// Group is one equivalence class of points: a representative carrying the
// material and shading sequence, plus every member the solved series fans
// out to.
type Group struct {
	Key            domain.EquivalenceKey
	Representative domain.PointSample
	Members        []domain.PointSample
}

// SkippedPoint records a point excluded from solving, with the reason.
type SkippedPoint struct {
	Point domain.PointSample
	Err   error
}

// Simplify partitions points into equivalence groups by (material, shading)
// key, preserving first-appearance order so output stays deterministic.
// Points whose material or shading fails validation are returned separately
// and do not form groups.
func Simplify(points []domain.PointSample) ([]Group, []SkippedPoint) {
	var groups []Group
	var skipped []SkippedPoint
	index := make(map[domain.EquivalenceKey]int)

	for _, p := range points {
		if err := p.Validate(); err != nil {
			skipped = append(skipped, SkippedPoint{Point: p, Err: err})
			continue
		}
		key := p.Key()
		if i, ok := index[key]; ok {
			groups[i].Members = append(groups[i].Members, p)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{
			Key:            key,
			Representative: p,
			Members:        []domain.PointSample{p},
		})
	}
	return groups, skipped
}

// MeanLongitude averages the geographic longitude over all points. The
// evapotranspiration model uses it as the site longitude.
func MeanLongitude(points []domain.PointSample) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += p.Lon
	}
	return sum / float64(len(points))
}

// Broadcast fans each solved group out to its member points. Groups absent
// from results (solve failures) are dropped; members of a group share the
// identical series.
func Broadcast(jobID string, groups []Group, results map[domain.EquivalenceKey]domain.SolvedSeries) []domain.PointResult {
	var out []domain.PointResult
	for _, g := range groups {
		series, ok := results[g.Key]
		if !ok {
			continue
		}
		for _, p := range g.Members {
			out = append(out, domain.NewPointResult(jobID, p, series))
		}
	}
	return out
}
