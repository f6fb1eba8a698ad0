// Command compute runs the ground temperature model once, offline: it reads
// an EPW weather file and a points CSV, solves the hourly surface energy
// balance for the requested day, and writes a results CSV. It shares the
// domain and pipeline packages with the long-running ETL service, so its
// output matches what the service would publish for the same job.
//
// Usage:
//
//	go run ./cmd/compute \
//	  -epw data/WeatherData.epw \
//	  -points data/points.csv \
//	  -out data/temperatures.csv \
//	  -day 21 -month 6 -utc-offset 1 -altitude 35
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/urbancanopy/ground-temp-etl/internal/adapter/csvio"
	"github.com/urbancanopy/ground-temp-etl/internal/domain"
	"github.com/urbancanopy/ground-temp-etl/internal/observability"
	"github.com/urbancanopy/ground-temp-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "compute: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	epwPath := flag.String("epw", "", "path to the yearly EPW weather file")
	pointsPath := flag.String("points", "", "path to the sample points CSV")
	outPath := flag.String("out", "", "output path for the results CSV")
	day := flag.Int("day", 0, "day of month to solve (1-31)")
	month := flag.Int("month", 0, "month to solve (1-12)")
	utcOffset := flag.Int("utc-offset", 0, "site UTC offset in hours (-12 to 14)")
	altitude := flag.Float64("altitude", 0, "site altitude in meters")
	workers := flag.Int("workers", 0, "solver workers (0 = number of cores)")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	if *epwPath == "" || *pointsPath == "" || *outPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -epw, -points, -out")
	}

	logger := observability.NewLogger(*logLevel, "text")
	metrics := observability.NewMetrics()

	records, err := csvio.ReadEPWFile(*epwPath)
	if err != nil {
		return fmt.Errorf("load weather data: %w", err)
	}

	profile, err := domain.ExtractProfile(records, *month, *day)
	if err != nil {
		return fmt.Errorf("extract weather day: %w", err)
	}

	meridian, err := domain.ReferenceMeridian(*utcOffset)
	if err != nil {
		return err
	}

	points, err := csvio.ReadPointsFile(*pointsPath)
	if err != nil {
		return fmt.Errorf("load points: %w", err)
	}

	groups, skipped := pipeline.Simplify(points)
	for _, s := range skipped {
		logger.Warn("point excluded", "point_id", s.Point.ID, "error", s.Err)
	}

	env := pipeline.SolveEnv{
		Profile:     profile,
		AltitudeM:   *altitude,
		MeridianLon: meridian,
		MeanLon:     pipeline.MeanLongitude(points),
	}

	solver := pipeline.EquilibriumSolver{}
	solved := pipeline.SolveAll(context.Background(), solver, groups, env, *workers, logger, metrics)
	results := pipeline.Broadcast("", groups, solved)

	if err := csvio.WriteResultsFile(*outPath, results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	unconverged := 0
	for i := range results {
		if !results[i].Converged {
			unconverged++
		}
	}
	logger.Info("solve complete",
		"points", len(points),
		"groups", len(groups),
		"skipped", len(skipped),
		"unconverged", unconverged,
		"out", *outPath,
	)
	return nil
}
