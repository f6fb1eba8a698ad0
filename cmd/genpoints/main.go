// Command genpoints generates synthetic sample-point fixtures for testing the
// ground temperature pipeline. It lays out a square grid over a small urban
// block, assigns materials by band, and computes a plausible daylight shading
// pattern per point. It writes both the points CSV consumed by cmd/compute
// and a JSON job fixture that can be published to the source Kafka topic.
//
// Usage:
//
//	go run ./cmd/genpoints \
//	  -grid 10 -spacing 2 \
//	  -csv-out data/mock/points.csv \
//	  -job-out data/mock/job.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urbancanopy/ground-temp-etl/internal/domain"
)

// Site anchor: a city block near Lyon, the kind of mid-latitude site the
// model is typically run against.
const (
	originLon       = 4.85
	originLat       = 45.75
	metersPerDegree = 111320.0
)

var materials = []domain.SurfaceMaterial{
	{Name: "asphalt", Albedo: 0.08, Emissivity: 0.95, HeatCapacity: 2.0e6, Conductivity: 0.75, Thickness: 0.20, CropCoefficient: 0},
	{Name: "concrete", Albedo: 0.30, Emissivity: 0.92, HeatCapacity: 2.1e6, Conductivity: 1.50, Thickness: 0.25, CropCoefficient: 0},
	{Name: "grass", Albedo: 0.25, Emissivity: 0.98, HeatCapacity: 3.1e6, Conductivity: 1.10, Thickness: 0.30, CropCoefficient: 0.85},
	{Name: "bare_soil", Albedo: 0.17, Emissivity: 0.95, HeatCapacity: 1.4e6, Conductivity: 0.80, Thickness: 0.30, CropCoefficient: 0.30},
	{Name: "water", Albedo: 0.06, Emissivity: 0.96, HeatCapacity: 4.18e6, Conductivity: 0.60, Thickness: 1.00, CropCoefficient: 1.05, FixedTempC: 18},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	grid := flag.Int("grid", 10, "points per grid side")
	spacing := flag.Float64("spacing", 2, "grid spacing in meters")
	csvOut := flag.String("csv-out", "", "output path for the points CSV")
	jobOut := flag.String("job-out", "", "output path for the JSON job fixture (optional)")
	day := flag.Int("day", 21, "job day of month")
	month := flag.Int("month", 6, "job month")
	utcOffset := flag.Int("utc-offset", 1, "job UTC offset")
	altitude := flag.Float64("altitude", 170, "job site altitude in meters")
	flag.Parse()

	if *csvOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -csv-out")
	}

	points := generate(*grid, *spacing)
	log.Printf("generated %d points across %d materials", len(points), len(materials))

	if err := writePointsCSV(*csvOut, points); err != nil {
		return fmt.Errorf("writing points CSV: %w", err)
	}
	log.Printf("wrote points CSV: %s", *csvOut)

	if *jobOut != "" {
		job := buildJob(points, *day, *month, *utcOffset, *altitude)
		if err := writeJSON(*jobOut, job); err != nil {
			return fmt.Errorf("writing job fixture: %w", err)
		}
		log.Printf("wrote job fixture: %s (job_id=%s)", *jobOut, job.JobID)
	}

	printStats(points)
	return nil
}

// generate lays out a grid x grid block of points. Materials rotate by row
// band; shading follows a deterministic pattern so equivalence groups have
// multiple members.
func generate(grid int, spacing float64) []domain.PointSample {
	points := make([]domain.PointSample, 0, grid*grid)
	for row := 0; row < grid; row++ {
		for col := 0; col < grid; col++ {
			x := float64(col) * spacing
			y := float64(row) * spacing
			m := materials[(row*len(materials))/grid%len(materials)]
			p := domain.PointSample{
				ID:       fmt.Sprintf("p-%03d", row*grid+col),
				X:        x,
				Y:        y,
				Lon:      originLon + x/(metersPerDegree*math.Cos(originLat*math.Pi/180)),
				Lat:      originLat + y/metersPerDegree,
				Material: m,
				Shadow:   shadowPattern(col, grid),
			}
			points = append(points, p)
		}
	}
	return points
}

// shadowPattern models a building to the west: the closer the column to the
// western edge, the later the point comes out of shade in the morning and
// the earlier it falls back in the evening. Night hours stay at the night
// convention.
func shadowPattern(col, grid int) [domain.HoursPerDay]float64 {
	var s [domain.HoursPerDay]float64
	// Shade depth in hours, 0 to 3, stepped so several columns share a
	// pattern and group together.
	depth := 3 * (grid - 1 - col) / grid
	sunrise := 6 + depth
	sunset := 20 - depth
	for h := 0; h < domain.HoursPerDay; h++ {
		switch {
		case h < sunrise || h > sunset:
			s[h] = domain.NightShadow
		case h == sunrise || h == sunset:
			s[h] = 0.5
		default:
			s[h] = 1
		}
	}
	return s
}

func buildJob(points []domain.PointSample, day, month, utcOffset int, altitude float64) domain.JobRequest {
	job := domain.JobRequest{
		JobID:     fmt.Sprintf("genpoints-%02d%02d", month, day),
		Day:       day,
		Month:     month,
		UTCOffset: utcOffset,
		AltitudeM: altitude,
		Points:    make([]domain.JobPoint, len(points)),
	}
	for i, p := range points {
		job.Points[i] = domain.JobPoint{
			ID:       p.ID,
			X:        p.X,
			Y:        p.Y,
			Lon:      p.Lon,
			Lat:      p.Lat,
			Material: p.Material,
			Shadow:   p.Shadow[:],
		}
	}
	return job
}

func writePointsCSV(path string, points []domain.PointSample) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"id", "x", "y", "lon", "lat", "material", "alb", "em", "cv", "lambd", "ep", "kc", "fixed_temp"}
	for h := 1; h <= domain.HoursPerDay; h++ {
		header = append(header, fmt.Sprintf("shadow_%d", h))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range points {
		p := &points[i]
		row := []string{
			p.ID,
			ftoa(p.X), ftoa(p.Y), ftoa(p.Lon), ftoa(p.Lat),
			p.Material.Name,
			ftoa(p.Material.Albedo), ftoa(p.Material.Emissivity),
			ftoa(p.Material.HeatCapacity), ftoa(p.Material.Conductivity),
			ftoa(p.Material.Thickness), ftoa(p.Material.CropCoefficient),
			ftoa(p.Material.FixedTempC),
		}
		for h := 0; h < domain.HoursPerDay; h++ {
			row = append(row, ftoa(p.Shadow[h]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(points []domain.PointSample) {
	byMaterial := map[string]int{}
	byKey := map[domain.EquivalenceKey]int{}
	for _, p := range points {
		byMaterial[p.Material.Name]++
		byKey[p.Key()]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total points: %d\n", len(points))
	fmt.Printf("Equivalence groups: %d\n", len(byKey))
	for _, m := range materials {
		fmt.Printf("  %-10s %d\n", m.Name, byMaterial[m.Name])
	}
}
