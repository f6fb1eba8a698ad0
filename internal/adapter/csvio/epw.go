// Package csvio is the file boundary of the pipeline: it parses EPW-style
// weather records, reads point-sample CSVs produced by the upstream
// geoprocessing step, and writes result CSVs for downstream rendering.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urbancanopy/ground-temp-etl/internal/domain"
)

// EPW column indices for the fields the model consumes. The remaining
// columns of the 35-field EPW layout are ignored.
const (
	epwColMonth    = 1
	epwColDay      = 2
	epwColHour     = 3
	epwColDryBulb  = 6
	epwColRelHum   = 8
	epwColGlobHRad = 13
	epwMinColumns  = 14
)

// ReadEPW parses a yearly EPW weather file. Header rows before the first row
// whose leading field is numeric are skipped; a file with no numeric row at
// all yields a DataFormatError.
func ReadEPW(r io.Reader) ([]domain.WeatherRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var records []domain.WeatherRecord
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.DataFormatError{Reason: fmt.Sprintf("line %d: %v", line+1, err)}
		}
		line++

		if len(records) == 0 && !isNumeric(row[0]) {
			// Still inside the EPW header block.
			continue
		}
		rec, err := parseEPWRow(row, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, &domain.DataFormatError{Reason: "no numeric data rows found"}
	}
	return records, nil
}

// ReadEPWFile opens and parses an EPW file from disk.
func ReadEPWFile(path string) ([]domain.WeatherRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weather file: %w", err)
	}
	defer f.Close()
	return ReadEPW(f)
}

func parseEPWRow(row []string, line int) (domain.WeatherRecord, error) {
	if len(row) < epwMinColumns {
		return domain.WeatherRecord{}, &domain.DataFormatError{
			Reason: fmt.Sprintf("line %d: %d columns, need at least %d", line, len(row), epwMinColumns),
		}
	}
	fail := func(col int, err error) (domain.WeatherRecord, error) {
		return domain.WeatherRecord{}, &domain.DataFormatError{
			Reason: fmt.Sprintf("line %d, column %d: %v", line, col+1, err),
		}
	}

	month, err := strconv.Atoi(strings.TrimSpace(row[epwColMonth]))
	if err != nil {
		return fail(epwColMonth, err)
	}
	day, err := strconv.Atoi(strings.TrimSpace(row[epwColDay]))
	if err != nil {
		return fail(epwColDay, err)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(row[epwColHour]))
	if err != nil {
		return fail(epwColHour, err)
	}
	dryBulb, err := strconv.ParseFloat(strings.TrimSpace(row[epwColDryBulb]), 64)
	if err != nil {
		return fail(epwColDryBulb, err)
	}
	relHum, err := strconv.ParseFloat(strings.TrimSpace(row[epwColRelHum]), 64)
	if err != nil {
		return fail(epwColRelHum, err)
	}
	ghr, err := strconv.ParseFloat(strings.TrimSpace(row[epwColGlobHRad]), 64)
	if err != nil {
		return fail(epwColGlobHRad, err)
	}

	return domain.WeatherRecord{
		Month:          month,
		Day:            day,
		Hour:           hour,
		DryBulbC:       dryBulb,
		RelHumidity:    relHum,
		GlobalHorizRad: ghr,
	}, nil
}

// isNumeric mirrors the header scan of the reference tool: a data row starts
// with an unsigned integer year.
func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
