package domain

import "math"

// Deep-ground model constants: burial depth of the boundary node and the
// angular frequency of the yearly temperature wave.
const (
	burialDepthM = 0.2
	yearAngFreq  = 2 * math.Pi / 365
)

// DeepGroundSeries derives the constant boundary temperature at 20 cm depth
// for each hour of day, in kelvin. The yearly mean per hour is damped by the
// material's thermal diffusivity: a surface wave of amplitude DeltaT
// attenuates by e^(-Z/Zo) at burial depth Z, where Zo is the damping depth.
func DeepGroundSeries(p DailyWeatherProfile, m SurfaceMaterial) [HoursPerDay]float64 {
	// Thermal diffusivity in m²/day, then damping depth.
	dh := (m.Conductivity / m.HeatCapacity) * 86400
	zo := math.Sqrt(2 * dh / yearAngFreq)

	attenuation := math.Exp(-burialDepthM/zo) * math.Cos(yearAngFreq*float64(p.DayOrdinal)-burialDepthM/zo)

	var tint [HoursPerDay]float64
	for h := 0; h < HoursPerDay; h++ {
		tint[h] = p.TyearK[h] - p.DeltaTK[h]*attenuation
	}
	return tint
}
