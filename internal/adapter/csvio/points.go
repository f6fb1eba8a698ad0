package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/urbancanopy/ground-temp-etl/internal/domain"
)

// Point CSV layout: one row per sample point. Shadow columns are named
// shadow_1..shadow_24; absent columns default to the night convention.
var pointHeader = []string{
	"id", "x", "y", "lon", "lat",
	"material", "alb", "em", "cv", "lambd", "ep", "kc", "fixed_temp",
}

// ReadPoints parses a point-sample CSV. Unparseable numeric material and
// shadow fields become NaN rather than an error, so point validation
// downstream can exclude the point and report it without failing the batch.
func ReadPoints(r io.Reader) ([]domain.PointSample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read points csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("points csv has no data rows")
	}

	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range pointHeader {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("points csv missing column %q", col)
		}
	}

	points := make([]domain.PointSample, 0, len(rows)-1)
	for n, row := range rows[1:] {
		get := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		x, errX := strconv.ParseFloat(get("x"), 64)
		y, errY := strconv.ParseFloat(get("y"), 64)
		lon, errLon := strconv.ParseFloat(get("lon"), 64)
		lat, errLat := strconv.ParseFloat(get("lat"), 64)
		if errX != nil || errY != nil || errLon != nil || errLat != nil {
			return nil, fmt.Errorf("points csv row %d: bad coordinates", n+2)
		}

		p := domain.PointSample{
			ID:  get("id"),
			X:   x,
			Y:   y,
			Lon: lon,
			Lat: lat,
			Material: domain.SurfaceMaterial{
				Name:            get("material"),
				Albedo:          floatOrNaN(get("alb")),
				Emissivity:      floatOrNaN(get("em")),
				HeatCapacity:    floatOrNaN(get("cv")),
				Conductivity:    floatOrNaN(get("lambd")),
				Thickness:       floatOrNaN(get("ep")),
				CropCoefficient: floatOrNaN(get("kc")),
				FixedTempC:      floatOrNaN(get("fixed_temp")),
			},
		}
		if p.ID == "" {
			return nil, fmt.Errorf("points csv row %d: empty id", n+2)
		}
		for h := 0; h < domain.HoursPerDay; h++ {
			col := fmt.Sprintf("shadow_%d", h+1)
			if i, ok := idx[col]; ok && i < len(row) && strings.TrimSpace(row[i]) != "" {
				p.Shadow[h] = floatOrNaN(strings.TrimSpace(row[i]))
			} else {
				p.Shadow[h] = domain.NightShadow
			}
		}
		points = append(points, p)
	}
	return points, nil
}

// ReadPointsFile opens and parses a points CSV from disk.
func ReadPointsFile(path string) ([]domain.PointSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open points file: %w", err)
	}
	defer f.Close()
	return ReadPoints(f)
}

func floatOrNaN(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
