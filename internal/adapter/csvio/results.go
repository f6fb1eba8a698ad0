package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urbancanopy/ground-temp-etl/internal/domain"
)

// WriteResults writes one CSV row per solved point: identity, coordinates,
// the 24 hourly temperatures, the summary statistics, and the convergence
// tag. The layout matches what the downstream styling step consumes.
func WriteResults(w io.Writer, results []domain.PointResult) error {
	cw := csv.NewWriter(w)

	header := []string{"id", "x", "y"}
	for h := 0; h < domain.HoursPerDay; h++ {
		header = append(header, fmt.Sprintf("t%02d", h))
	}
	header = append(header, "min", "mean", "max", "converged", "cycles")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write results header: %w", err)
	}

	for _, r := range results {
		row := make([]string, 0, len(header))
		row = append(row, r.PointID, formatFloat(r.X), formatFloat(r.Y))
		for _, t := range r.TempsC {
			row = append(row, formatFloat(t))
		}
		row = append(row,
			formatFloat(r.MinC), formatFloat(r.MeanC), formatFloat(r.MaxC),
			strconv.FormatBool(r.Converged), strconv.Itoa(r.Cycles))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write result row %s: %w", r.PointID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteResultsFile writes the results CSV to disk.
func WriteResultsFile(path string, results []domain.PointResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	if err := WriteResults(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
