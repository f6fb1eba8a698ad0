package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawJob represents an unprocessed solve-job message from the source topic.
type RawJob struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// JobPoint is one sample point inside a solve job. The shadow sequence may be
// shorter than 24 entries; hours without raster coverage default to
// NightShadow.
type JobPoint struct {
	ID       string          `json:"id"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Lon      float64         `json:"lon"`
	Lat      float64         `json:"lat"`
	Material SurfaceMaterial `json:"material"`
	Shadow   []float64       `json:"shadow"`
}

// JobRequest is a point-batch solve job published by the upstream
// geoprocessing collaborator: the target day, site parameters, and the
// sample points with their material and shading data.
type JobRequest struct {
	JobID     string     `json:"job_id"`
	Day       int        `json:"day"`
	Month     int        `json:"month"`
	UTCOffset int        `json:"utc_offset"`
	AltitudeM float64    `json:"altitude_m"`
	Points    []JobPoint `json:"points"`
}

// ParseJobRequest deserializes and sanity-checks a raw job message.
func ParseJobRequest(raw RawJob) (JobRequest, error) {
	var job JobRequest
	if err := json.Unmarshal(raw.Value, &job); err != nil {
		return JobRequest{}, fmt.Errorf("parse job request: %w", err)
	}
	if job.Day < 1 || job.Day > 31 {
		return JobRequest{}, fmt.Errorf("job %s: day %d out of range", job.JobID, job.Day)
	}
	if job.Month < 1 || job.Month > 12 {
		return JobRequest{}, fmt.Errorf("job %s: month %d out of range", job.JobID, job.Month)
	}
	if len(job.Points) == 0 {
		return JobRequest{}, fmt.Errorf("job %s: no points", job.JobID)
	}
	return job, nil
}

// Samples converts the job's wire points into PointSamples, padding missing
// shadow hours with the night convention.
func (j JobRequest) Samples() []PointSample {
	samples := make([]PointSample, len(j.Points))
	for i, p := range j.Points {
		s := PointSample{
			ID:       p.ID,
			X:        p.X,
			Y:        p.Y,
			Lon:      p.Lon,
			Lat:      p.Lat,
			Material: p.Material,
		}
		for h := 0; h < HoursPerDay; h++ {
			if h < len(p.Shadow) {
				s.Shadow[h] = p.Shadow[h]
			} else {
				s.Shadow[h] = NightShadow
			}
		}
		samples[i] = s
	}
	return samples
}

// PointResult is the solved series for one original point, destined for the
// sink topic or the results CSV. The series is copied verbatim from the
// point's equivalence group.
type PointResult struct {
	JobID     string    `json:"job_id,omitempty"`
	PointID   string    `json:"point_id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	TempsC    []float64 `json:"temps_c"`
	MinC      float64   `json:"min_c"`
	MeanC     float64   `json:"mean_c"`
	MaxC      float64   `json:"max_c"`
	Converged bool      `json:"converged"`
	Cycles    int       `json:"cycles"`
	SolvedAt  time.Time `json:"solved_at"`
}

// NewPointResult fans a group's solved series out to one original point.
func NewPointResult(jobID string, p PointSample, s SolvedSeries) PointResult {
	temps := make([]float64, HoursPerDay)
	copy(temps, s.TempsC[:])
	return PointResult{
		JobID:     jobID,
		PointID:   p.ID,
		X:         p.X,
		Y:         p.Y,
		TempsC:    temps,
		MinC:      s.MinC,
		MeanC:     s.MeanC,
		MaxC:      s.MaxC,
		Converged: s.Converged,
		Cycles:    s.Cycles,
		SolvedAt:  s.SolvedAt,
	}
}
