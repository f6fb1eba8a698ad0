package pipeline_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbancanopy/ground-temp-etl/internal/domain"
	"github.com/urbancanopy/ground-temp-etl/internal/pipeline"
)

func asphaltSample(id string, sunlit bool) domain.PointSample {
	p := domain.PointSample{
		ID: id,
		Material: domain.SurfaceMaterial{
			Name: "asphalt", Albedo: 0.08, Emissivity: 0.95,
			HeatCapacity: 2.0e6, Conductivity: 0.75, Thickness: 0.20,
		},
	}
	if sunlit {
		for h := 6; h <= 19; h++ {
			p.Shadow[h] = 1
		}
	}
	return p
}

func TestSimplify_GroupsByMaterialAndShading(t *testing.T) {
	points := []domain.PointSample{
		asphaltSample("a", true),
		asphaltSample("b", true),
		asphaltSample("c", false),
	}

	groups, skipped := pipeline.Simplify(points)
	require.Empty(t, skipped)
	require.Len(t, groups, 2)

	// First-appearance order.
	assert.Equal(t, "a", groups[0].Representative.ID)
	assert.Len(t, groups[0].Members, 2)
	assert.Equal(t, "c", groups[1].Representative.ID)
	assert.Len(t, groups[1].Members, 1)
}

func TestSimplify_ExcludesInvalidMaterials(t *testing.T) {
	bad := asphaltSample("bad", true)
	bad.Material.Thickness = math.NaN()

	groups, skipped := pipeline.Simplify([]domain.PointSample{
		asphaltSample("ok", true),
		bad,
	})

	require.Len(t, groups, 1)
	assert.Equal(t, "ok", groups[0].Representative.ID)

	require.Len(t, skipped, 1)
	assert.Equal(t, "bad", skipped[0].Point.ID)
	assert.Error(t, skipped[0].Err)
}

func TestSimplify_ExcludesInvalidShadow(t *testing.T) {
	bad := asphaltSample("bad", true)
	bad.Shadow[12] = math.NaN()

	groups, skipped := pipeline.Simplify([]domain.PointSample{
		asphaltSample("ok", true),
		bad,
	})

	// A malformed shadow cell must not reach the solver as NaN.
	require.Len(t, groups, 1)
	assert.Equal(t, "ok", groups[0].Representative.ID)

	require.Len(t, skipped, 1)
	assert.Equal(t, "bad", skipped[0].Point.ID)
	var shadowErr *domain.InvalidShadowError
	require.ErrorAs(t, skipped[0].Err, &shadowErr)
	assert.Equal(t, 13, shadowErr.Hour)
}

func TestMeanLongitude(t *testing.T) {
	points := []domain.PointSample{
		{Lon: 4.0}, {Lon: 5.0}, {Lon: 6.0},
	}
	assert.InDelta(t, 5.0, pipeline.MeanLongitude(points), 1e-12)
	assert.Zero(t, pipeline.MeanLongitude(nil))
}

func TestBroadcast(t *testing.T) {
	points := []domain.PointSample{
		asphaltSample("a", true),
		asphaltSample("b", true),
		asphaltSample("c", false),
	}
	groups, _ := pipeline.Simplify(points)

	sunSeries := domain.SolvedSeries{MeanC: 30, Converged: true}
	results := map[domain.EquivalenceKey]domain.SolvedSeries{
		groups[0].Key: sunSeries,
		// groups[1] missing: its solve failed.
	}

	out := pipeline.Broadcast("job-1", groups, results)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].PointID)
	assert.Equal(t, "b", out[1].PointID)
	for _, r := range out {
		assert.Equal(t, "job-1", r.JobID)
		assert.Equal(t, 30.0, r.MeanC)
		assert.True(t, r.Converged)
	}
}
