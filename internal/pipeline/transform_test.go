package pipeline_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbancanopy/ground-temp-etl/internal/domain"
	"github.com/urbancanopy/ground-temp-etl/internal/pipeline"
)

// testRecords is a compact synthetic year: a midsummer target day with a
// sinusoidal temperature swing and radiation bell, plus a flat cold day so
// the yearly statistics have spread.
func testRecords() []domain.WeatherRecord {
	var records []domain.WeatherRecord
	for h := 1; h <= domain.HoursPerDay; h++ {
		records = append(records, domain.WeatherRecord{
			Month: 1, Day: 1, Hour: h,
			DryBulbC: -2, RelHumidity: 85,
		})
	}
	for h := 1; h <= domain.HoursPerDay; h++ {
		r := domain.WeatherRecord{
			Month: 6, Day: 21, Hour: h,
			DryBulbC:    23 + 7*math.Sin(math.Pi*(float64(h)-9)/12),
			RelHumidity: 55,
		}
		if h >= 6 && h <= 20 {
			r.GlobalHorizRad = math.Max(800*math.Sin(math.Pi*(float64(h)-6)/14), 0)
		}
		records = append(records, r)
	}
	return records
}

func testProfile() domain.DailyWeatherProfile {
	p, err := domain.ExtractProfile(testRecords(), 6, 21)
	if err != nil {
		panic(err)
	}
	return p
}

func makeJob(t *testing.T, points []domain.JobPoint) domain.RawJob {
	t.Helper()
	job := domain.JobRequest{
		JobID:     "job-1",
		Day:       21,
		Month:     6,
		UTCOffset: 1,
		AltitudeM: 170,
		Points:    points,
	}
	value, err := json.Marshal(job)
	require.NoError(t, err)
	return domain.RawJob{Key: []byte(job.JobID), Value: value}
}

func jobPoint(id string, sunlit bool) domain.JobPoint {
	s := asphaltSample(id, sunlit)
	return domain.JobPoint{
		ID: s.ID, Lon: 4.85, Lat: 45.75,
		Material: s.Material,
		Shadow:   s.Shadow[:],
	}
}

func TestTransform(t *testing.T) {
	tfm := pipeline.NewTransformer(testRecords(), pipeline.EquilibriumSolver{}, 2, slog.Default(), newTestMetrics())

	raw := makeJob(t, []domain.JobPoint{
		jobPoint("a", true),
		jobPoint("b", true),
		jobPoint("c", false),
	})

	results, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byID := map[string]domain.PointResult{}
	for _, r := range results {
		assert.Equal(t, "job-1", r.JobID)
		assert.True(t, r.Converged)
		byID[r.PointID] = r
	}

	// Same equivalence class, identical series.
	assert.Empty(t, cmp.Diff(byID["a"].TempsC, byID["b"].TempsC))
	// Sunlit asphalt runs hotter than shaded.
	assert.Greater(t, byID["a"].MeanC, byID["c"].MeanC)
}

func TestTransform_BadPayload(t *testing.T) {
	tfm := pipeline.NewTransformer(testRecords(), newMockGroupSolver(), 2, slog.Default(), newTestMetrics())

	_, err := tfm.Transform(context.Background(), domain.RawJob{Value: []byte(`not json`)})
	assert.Error(t, err)
}

func TestTransform_DayMissingFromWeatherRecord(t *testing.T) {
	tfm := pipeline.NewTransformer(testRecords(), newMockGroupSolver(), 2, slog.Default(), newTestMetrics())

	job := makeJob(t, []domain.JobPoint{jobPoint("a", true)})
	var req domain.JobRequest
	require.NoError(t, json.Unmarshal(job.Value, &req))
	req.Month = 3
	value, err := json.Marshal(req)
	require.NoError(t, err)
	job.Value = value

	_, err = tfm.Transform(context.Background(), job)
	var dfErr *domain.DataFormatError
	require.ErrorAs(t, err, &dfErr)
}

func TestTransform_BadUTCOffset(t *testing.T) {
	tfm := pipeline.NewTransformer(testRecords(), newMockGroupSolver(), 2, slog.Default(), newTestMetrics())

	job := domain.JobRequest{
		JobID: "job-2", Day: 21, Month: 6, UTCOffset: 99,
		Points: []domain.JobPoint{jobPoint("a", true)},
	}
	value, err := json.Marshal(job)
	require.NoError(t, err)

	_, err = tfm.Transform(context.Background(), domain.RawJob{Value: value})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestTransform_SkipsInvalidPoints(t *testing.T) {
	tfm := pipeline.NewTransformer(testRecords(), pipeline.EquilibriumSolver{}, 2, slog.Default(), newTestMetrics())

	bad := jobPoint("bad", true)
	bad.Material.Thickness = 0

	raw := makeJob(t, []domain.JobPoint{jobPoint("ok", true), bad})

	results, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ok", results[0].PointID)
}
