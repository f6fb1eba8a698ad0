package domain

import (
	"fmt"
	"math"
)

// HoursPerDay is the length of every hourly sequence in this package.
const HoursPerDay = 24

// WeatherRecord is one hour of a yearly EPW-style weather file.
// Hour follows the EPW convention and runs 1-24.
type WeatherRecord struct {
	Month          int
	Day            int
	Hour           int
	DryBulbC       float64 // dry bulb temperature, °C
	RelHumidity    float64 // relative humidity, %
	GlobalHorizRad float64 // global horizontal radiation, Wh/m²
}

// DailyWeatherProfile holds the 24-hour weather sequences for one target day
// plus the year-wide per-hour-of-day statistics driving the deep-ground model.
// All temperature sequences are in kelvin.
type DailyWeatherProfile struct {
	Month      int
	Day        int
	DayOrdinal int // cumulative day of year for (Month, Day)

	TairK  [HoursPerDay]float64 // air temperature, K
	GhWhm2 [HoursPerDay]float64 // global horizontal radiation, Wh/m²
	TskyK  [HoursPerDay]float64 // sky temperature, K
	RelHum [HoursPerDay]float64 // relative humidity, %

	TyearK  [HoursPerDay]float64 // yearly mean air temperature per hour of day, K
	DeltaTK [HoursPerDay]float64 // max deviation from TyearK against yearly extremes, K
}

// DataFormatError reports a malformed or incomplete weather file. It is fatal:
// no solving happens when the weather record cannot be read.
type DataFormatError struct {
	Reason string
}

func (e *DataFormatError) Error() string {
	return "weather data format: " + e.Reason
}

// celsiusToKelvin is the absolute-scale offset applied to dry bulb readings.
const celsiusToKelvin = 273.15

// SkyTemperatureK derives sky temperature (K) from a dry bulb reading in °C
// using the empirical Fuentes (1987) correlation, rounded to 2 decimals.
func SkyTemperatureK(dryBulbC float64) float64 {
	t := 0.037536*math.Pow(dryBulbC, 1.5) + 0.32*dryBulbC + celsiusToKelvin
	return round2(t)
}

// cumulativeDays uses non-leap month lengths; the deep-ground model treats the
// year as 365 days regardless of the weather file's length.
var monthLengths = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DayOrdinal returns the cumulative day-of-year for a (month, day) pair,
// e.g. (7, 21) → 202.
func DayOrdinal(month, day int) int {
	t := day
	for m := 0; m < month-1; m++ {
		t += monthLengths[m]
	}
	return t
}

// ExtractProfile filters a yearly record down to the (month, day) target and
// computes the year-wide hourly statistics. It returns a DataFormatError when
// the record is empty or the target day has fewer than 24 rows.
func ExtractProfile(records []WeatherRecord, month, day int) (DailyWeatherProfile, error) {
	if len(records) == 0 {
		return DailyWeatherProfile{}, &DataFormatError{Reason: "no weather records"}
	}

	profile := DailyWeatherProfile{
		Month:      month,
		Day:        day,
		DayOrdinal: DayOrdinal(month, day),
	}

	// Target-day sequences, in file order. Extra rows (duplicated day in a
	// leap-year file) beyond the first 24 are ignored.
	n := 0
	for _, r := range records {
		if r.Month != month || r.Day != day {
			continue
		}
		if n == HoursPerDay {
			break
		}
		profile.TairK[n] = r.DryBulbC + celsiusToKelvin
		profile.GhWhm2[n] = r.GlobalHorizRad
		profile.TskyK[n] = SkyTemperatureK(r.DryBulbC)
		profile.RelHum[n] = r.RelHumidity
		n++
	}
	if n < HoursPerDay {
		return DailyWeatherProfile{}, &DataFormatError{
			Reason: fmt.Sprintf("target day %02d-%02d has %d rows, need %d", month, day, n, HoursPerDay),
		}
	}

	// Year-wide per-hour-of-day means and the symmetric deviation bound
	// against the yearly extremes (not per-hour extremes).
	var sum [HoursPerDay]float64
	var count [HoursPerDay]int
	minYear := math.Inf(1)
	maxYear := math.Inf(-1)
	for _, r := range records {
		if r.Hour < 1 || r.Hour > HoursPerDay {
			continue
		}
		k := r.DryBulbC + celsiusToKelvin
		sum[r.Hour-1] += k
		count[r.Hour-1]++
		minYear = math.Min(minYear, k)
		maxYear = math.Max(maxYear, k)
	}
	for h := 0; h < HoursPerDay; h++ {
		if count[h] == 0 {
			return DailyWeatherProfile{}, &DataFormatError{
				Reason: fmt.Sprintf("no rows for hour of day %d", h+1),
			}
		}
		profile.TyearK[h] = sum[h] / float64(count[h])
		profile.DeltaTK[h] = math.Max(maxYear-profile.TyearK[h], profile.TyearK[h]-minYear)
	}

	return profile, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
