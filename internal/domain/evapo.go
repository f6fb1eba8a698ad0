package domain

import (
	"fmt"
	"math"
)

// Penman-Monteith constants, following the FAO-56 hourly formulation as used
// by the reference surface model.
const (
	// stefanBoltzmannHour is the Stefan-Boltzmann constant per hour in
	// MJ/m²·K⁴·h.
	stefanBoltzmannHour = 2.043e-10

	// latentHeatJkg is the latent heat of vaporization used to convert
	// mm/hour of evapotranspiration into an energy flux.
	latentHeatJkg = 2_260_000.0

	// nightClearSkyFraction substitutes for the Rs/Rso ratio in the net
	// longwave term when the sun is below the horizon. The 0.8 value is an
	// approximation of unclear origin inherited from the reference model;
	// do not re-derive it.
	nightClearSkyFraction = 0.8

	// kelvinOffsetET is the Celsius conversion offset used inside the
	// evapotranspiration formulas. The reference model uses 273.3 here
	// rather than 273.15; kept for output parity.
	kelvinOffsetET = 273.3
)

// nominalWindSpeed is the fixed 2 m wind speed (m/s) from the logarithmic
// wind-profile adjustment of a 1 km/h measurement at reference height.
var nominalWindSpeed = 0.27 * (4.87 / math.Log(67.8*2-5.42))

// ReferenceMeridian maps a UTC offset (-12..+14) to the longitude of the
// time zone's reference meridian in degrees, east positive. Both UTC-12 and
// UTC+12 map to the 180° meridian.
func ReferenceMeridian(utcOffset int) (float64, error) {
	if utcOffset < -12 || utcOffset > 14 {
		return 0, fmt.Errorf("utc offset %d out of range [-12, 14]", utcOffset)
	}
	if utcOffset == -12 {
		return 180, nil
	}
	return float64(utcOffset) * 15, nil
}

// EvapoParams carries the per-group and per-run inputs of the
// evapotranspiration model.
type EvapoParams struct {
	Latitude    float64 // point latitude, degrees
	Albedo      float64 // material albedo
	AltitudeM   float64 // site altitude, m
	MeridianLon float64 // time-zone reference longitude, degrees east
	MeanLon     float64 // mean sample longitude, degrees east
}

// HourlyEvapotranspiration computes the reference evapotranspiration energy
// flux (W/m²) for each hour of the profile's day, clamped at zero. Day and
// night hours use different soil heat flux ratios and wind-function
// coefficients; the branch is selected by whether the mid-hour solar hour
// angle lies within the sunset angle.
func HourlyEvapotranspiration(p DailyWeatherProfile, params EvapoParams) [HoursPerDay]float64 {
	t := float64(p.DayOrdinal)

	// Antimeridian zones flip sign when the samples sit in the western
	// hemisphere, so the longitude correction stays small.
	lonz := params.MeridianLon
	if lonz > 170 && params.MeanLon < 0 {
		lonz = -lonz
	}
	l := -(lonz - params.MeanLon)

	// Site- and day-level terms.
	pa := 101.3 * math.Pow((293-0.0065*params.AltitudeM)/293, 5.26) // atmospheric pressure, kPa
	gamma := 0.000665 * pa                                          // psychrometric constant
	dr := 1 + 0.033*math.Cos(yearAngFreq*t)                         // inverse relative Earth-Sun distance
	decl := 0.409 * math.Sin(yearAngFreq*t-1.39)                    // solar declination
	phi := params.Latitude * math.Pi / 180
	b := 2 * math.Pi * (t - 81) / 364
	sc := 0.1645*math.Sin(2*b) - 0.1255*math.Cos(b) - 0.025*math.Sin(b) // seasonal correction
	ws := math.Acos(-math.Tan(phi) * math.Tan(decl))                    // sunset hour angle

	var et0 [HoursPerDay]float64
	for h := 0; h < HoursPerDay; h++ {
		tMean := p.TairK[h] - kelvinOffsetET
		rs := p.GhWhm2[h] * 0.0036 // Wh/m² → MJ/m²
		rns := (1 - params.Albedo) * rs

		// Saturation curve slope and vapor pressures.
		es := 0.6108 * math.Exp(17.27*tMean/(tMean+237.3))
		ea := es * p.RelHum[h] / 100
		delta := 4098 * es / math.Pow(tMean+237.3, 2)

		tt := (37 / (tMean + 273)) * nominalWindSpeed

		// Mid-hour solar hour angle and the surrounding hour-angle bounds.
		w := (math.Pi / 12) * ((float64(h) + 0.5 + 0.06667*l + sc) - 12)
		w1 := w - math.Pi/24
		w2 := w + math.Pi/24

		var rn, g, windCoef float64
		if w > -ws && w < ws {
			// Extraterrestrial and clear-sky radiation over the hour.
			ra := (12 * 60 / math.Pi) * 0.0820 * dr *
				((w2-w1)*math.Sin(phi)*math.Sin(decl) + math.Cos(phi)*math.Cos(decl)*(math.Sin(w2)-math.Sin(w1)))
			rso := (0.75 + 2e-5*params.AltitudeM) * ra
			rnl := stefanBoltzmannHour * math.Pow(tMean+273.16, 4) *
				(0.34 - 0.14*math.Sqrt(ea)) * (1.35*(rs/rso) - 0.35)
			rn = rns - rnl
			g = 0.1 * rn
			windCoef = 0.24
		} else {
			rnl := stefanBoltzmannHour * math.Pow(tMean+273.16, 4) *
				(0.34 - 0.14*math.Sqrt(ea)) * (1.35*nightClearSkyFraction - 0.35)
			rn = rns - rnl
			g = 0.5 * rn
			windCoef = 0.96
		}

		denom := delta + gamma*(1+windCoef*nominalWindSpeed)
		etRad := (delta / denom) * (0.408*rn - g)
		etWind := (gamma / denom) * tt * (es - ea)

		flux := (etWind + etRad) * latentHeatJkg / 3600
		if flux < 0 {
			flux = 0
		}
		et0[h] = flux
	}
	return et0
}
