// Package domain models hourly ground surface temperature over a spatial
// sample grid for one representative calendar day.
//
// # Data Source
//
// Weather input is an EPW-style yearly hourly record (8760 or 8784 rows).
// Header rows before the first numeric row are skipped by the CSV front-end.
// The model reads month, day, hour (1-24), dry bulb temperature (°C),
// relative humidity (%), and global horizontal radiation (Wh/m²); all other
// EPW columns are ignored.
//
// Sky temperature is not stored in the file. It is derived from the dry bulb
// reading with the empirical Fuentes (1987) correlation
//
//	Tsky = 0.037536·Tc^1.5 + 0.32·Tc + 273.15  [K]
//
// rounded to 2 decimals. See [SkyTemperatureK].
//
// # Energy Balance
//
// For each hour the surface temperature T (K) solves
//
//	A + B·T + C·T⁴ = 0
//
// where B collects the convective, conductive, and transient-capacitance
// coefficients, C the longwave emission, and A the hour's absorbed shortwave
// radiation, sky longwave, air convection, deep-ground conduction, previous
// hour's storage, and latent heat loss. The quartic is strictly increasing on
// the physical band [200 K, 340 K], so it has exactly one relevant root
// there; [Solve] finds it with a bisection-safeguarded Newton iteration.
//
// The 24-hour pass repeats, seeding each cycle with the previous cycle's
// final hour, until the diurnal loop closes within 0.5 °C or 25 cycles have
// run. The iteration state is an explicit [CycleState] with a pure transition
// function, so the cap and convergence check are testable in isolation.
//
// # Shading Convention
//
// Each point carries 24 sunlit fractions: 1 = fully sunlit, 0 = fully
// shaded. The upstream raster pipeline only covers daylight hours; hours
// without coverage are fixed to [NightShadow] (fully shaded). Absorbed
// shortwave splits 80% direct, scaled by the sunlit fraction, and 20%
// diffuse, received regardless of shading.
//
// # Equivalence Classes
//
// Points sharing a material and an identical shading tuple are
// interchangeable: the solver is a pure function of (material, shadow,
// weather), so one solve per [EquivalenceKey] serves every member of the
// class, and equal keys guarantee bitwise-identical series.
//
// # Evapotranspiration
//
// Hourly reference evapotranspiration follows the FAO-56 Penman-Monteith
// hourly formulation with a fixed nominal wind speed. Night hours replace the
// measured-to-clear-sky radiation ratio with a fixed 0.8 fraction and use a
// 50% soil heat flux instead of the daytime 10%; both inherited from the
// reference surface model and preserved as named constants. The result is
// converted to an energy flux with a latent heat of 2,260,000 J/kg and
// clamped at zero.
package domain
