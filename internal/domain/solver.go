package domain

import (
	"fmt"
	"math"
	"time"
)

// Energy-balance constants.
const (
	// convectiveCoef is the fixed convective exchange coefficient hc, W/m²·K.
	convectiveCoef = 5.0

	// stefanBoltzmann is the Stefan-Boltzmann constant, W/m²·K⁴.
	stefanBoltzmann = 5.67e-8

	// initialSeedC seeds the previous-midnight surface temperature for the
	// first simulated cycle.
	initialSeedC = 28.0

	// convergenceThresholdC is the diurnal closure tolerance in °C: the cycle
	// repeats until the final hour of one pass lands within this distance of
	// the seed it started from.
	convergenceThresholdC = 0.5

	// maxCycles caps the day-cycle iteration. A group still open at the cap
	// is emitted unconverged.
	maxCycles = 25

	// The physically relevant root of the quartic lies in this band; the
	// root finder brackets it there.
	rootBandLowK  = 200.0
	rootBandHighK = 340.0
)

// RootBracketError reports an hour whose quartic could not be solved on the
// physical temperature band: no sign change, a non-finite coefficient, or a
// root the iteration failed to resolve. The group is excluded from output;
// the batch continues.
type RootBracketError struct {
	Hour  int
	Cycle int
	A     float64
	Err   error
}

func (e *RootBracketError) Error() string {
	return fmt.Sprintf("energy balance root at hour %d, cycle %d (A=%g): %v",
		e.Hour, e.Cycle, e.A, e.Err)
}

func (e *RootBracketError) Unwrap() error { return e.Err }

// SolveInput is everything one equivalence group needs: the material, its
// shading sequence, the day's weather, and the precomputed deep-ground and
// evapotranspiration series.
type SolveInput struct {
	Material SurfaceMaterial
	Shadow   [HoursPerDay]float64
	Profile  DailyWeatherProfile
	GroundK  [HoursPerDay]float64 // deep-ground boundary temperature, K
	ET0      [HoursPerDay]float64 // evapotranspiration energy flux, W/m²
}

// SolvedSeries is the 24-hour surface temperature solution for one
// equivalence group, in °C rounded to 2 decimals.
type SolvedSeries struct {
	TempsC    [HoursPerDay]float64 `json:"temps_c"`
	MinC      float64              `json:"min_c"`
	MeanC     float64              `json:"mean_c"`
	MaxC      float64              `json:"max_c"`
	Converged bool                 `json:"converged"`
	Cycles    int                  `json:"cycles"`
	SolvedAt  time.Time            `json:"solved_at"`
}

// CycleState is the state of the diurnal iteration: the number of completed
// 24-hour passes, the seed temperature carried from the previous pass's final
// hour, and the current pass's solutions. All temperatures in kelvin.
type CycleState struct {
	Cycle   int
	T0      float64
	History [HoursPerDay]float64
}

// coefficients holds the hour-independent B and C of A + B·T + C·T⁴ = 0.
type coefficients struct {
	b float64 // convective + conductive + transient-capacitance
	c float64 // radiative emission
}

func materialCoefficients(m SurfaceMaterial) coefficients {
	return coefficients{
		b: convectiveCoef + m.Conductivity/m.Thickness + m.HeatCapacity*m.Thickness/3600,
		c: m.Emissivity * stefanBoltzmann,
	}
}

// coefficientA assembles the hour-dependent constant term: absorbed shortwave
// (split 0.8 direct scaled by the sunlit fraction, 0.2 diffuse), sky longwave,
// convection against air, conduction against the deep ground, transient
// storage against the previous hour, and latent heat loss.
func coefficientA(in SolveInput, h int, tPrev float64) float64 {
	m := in.Material
	gh := in.Profile.GhWhm2[h]
	a0 := -(0.8*gh*in.Shadow[h]*(1-m.Albedo) + 0.2*gh*(1-m.Albedo))
	a1 := -m.Emissivity * stefanBoltzmann * math.Pow(in.Profile.TskyK[h], 4)
	a2 := -convectiveCoef * in.Profile.TairK[h]
	a3 := -(m.Conductivity / m.Thickness) * in.GroundK[h]
	a4 := -(m.HeatCapacity * m.Thickness / 3600) * tPrev
	a5 := in.ET0[h] * m.CropCoefficient
	return a0 + a1 + a2 + a3 + a4 + a5
}

// initialState seeds the iteration at 28 °C for the previous midnight.
func initialState() CycleState {
	return CycleState{T0: initialSeedC + celsiusToKelvin}
}

// advance runs one full 24-hour pass of the energy balance and returns the
// next state. It is a pure function of its inputs: hour h uses hour h-1's
// solution (or the carried T0 at h=0), with a warm-start guess biased toward
// warming in daylight and cooling in shade.
func advance(in SolveInput, coef coefficients, s CycleState) (CycleState, error) {
	next := CycleState{Cycle: s.Cycle + 1, T0: s.T0}
	for h := 0; h < HoursPerDay; h++ {
		var tPrev, guess float64
		if h == 0 {
			tPrev = s.T0
			guess = s.T0 - 0.5
		} else {
			tPrev = next.History[h-1]
			if in.Shadow[h] > 0.4 {
				guess = tPrev + 1.0
			} else {
				guess = tPrev - 0.5
			}
		}
		a := coefficientA(in, h, tPrev)
		root, err := solveEnergyBalance(a, coef.b, coef.c, guess)
		if err != nil {
			return CycleState{}, &RootBracketError{Hour: h, Cycle: next.Cycle, A: a, Err: err}
		}
		next.History[h] = root
	}
	return next, nil
}

// converged reports whether a state that completed at least two cycles closes
// the diurnal loop within the threshold.
func (s CycleState) converged() bool {
	return s.Cycle >= 2 && math.Abs(s.History[HoursPerDay-1]-s.T0) < convergenceThresholdC
}

// carry moves the final hour of this pass into the seed for the next one.
func (s CycleState) carry() CycleState {
	s.T0 = s.History[HoursPerDay-1]
	return s
}

// Solve iterates the 24-hour energy balance for one equivalence group until
// the diurnal cycle converges or the cycle cap is reached. A material with a
// nonzero fixed override temperature bypasses the integration entirely.
// The returned series is in °C; Converged is false when the cap was hit, and
// the caller decides how to surface that warning.
func Solve(in SolveInput) (SolvedSeries, error) {
	if err := in.Material.Validate(); err != nil {
		return SolvedSeries{}, err
	}

	if in.Material.FixedTempC != 0 {
		return fixedSeries(in.Material.FixedTempC), nil
	}

	coef := materialCoefficients(in.Material)
	state := initialState()
	for {
		next, err := advance(in, coef, state)
		if err != nil {
			return SolvedSeries{}, err
		}
		if next.converged() {
			return finishSeries(next, true), nil
		}
		if next.Cycle == maxCycles {
			return finishSeries(next, false), nil
		}
		state = next.carry()
	}
}

func fixedSeries(tempC float64) SolvedSeries {
	s := SolvedSeries{
		MinC:      tempC,
		MeanC:     tempC,
		MaxC:      tempC,
		Converged: true,
		SolvedAt:  clock.Now(),
	}
	for h := range s.TempsC {
		s.TempsC[h] = tempC
	}
	return s
}

func finishSeries(state CycleState, converged bool) SolvedSeries {
	s := SolvedSeries{
		Converged: converged,
		Cycles:    state.Cycle,
		SolvedAt:  clock.Now(),
	}
	sum := 0.0
	s.MinC = math.Inf(1)
	s.MaxC = math.Inf(-1)
	for h, k := range state.History {
		c := round2(k - celsiusToKelvin)
		s.TempsC[h] = c
		sum += c
		s.MinC = math.Min(s.MinC, c)
		s.MaxC = math.Max(s.MaxC, c)
	}
	s.MeanC = round2(sum / HoursPerDay)
	return s
}

// solveEnergyBalance finds the root of f(T) = a + b·T + c·T⁴ on the physical
// band. With b > 0 and c ≥ 0 the function is strictly increasing there, so a
// sign change implies exactly one root. Newton steps from the warm start are
// safeguarded by bisection whenever a step leaves the bracket.
func solveEnergyBalance(a, b, c, guess float64) (float64, error) {
	f := func(t float64) float64 { return a + b*t + c*t*t*t*t }
	df := func(t float64) float64 { return b + 4*c*t*t*t }

	lo, hi := rootBandLowK, rootBandHighK
	flo, fhi := f(lo), f(hi)
	// NaN coefficients pass a plain sign-change test; reject them outright.
	if math.IsNaN(flo) || math.IsNaN(fhi) {
		return 0, fmt.Errorf("non-finite residual on [%g, %g]", lo, hi)
	}
	if flo == 0 {
		return lo, nil
	}
	if fhi == 0 {
		return hi, nil
	}
	if flo > 0 || fhi < 0 {
		return 0, fmt.Errorf("no sign change on [%g, %g]", lo, hi)
	}

	t := guess
	if t < lo || t > hi {
		t = (lo + hi) / 2
	}
	for i := 0; i < 100; i++ {
		ft := f(t)
		if math.Abs(ft) < 1e-9 {
			return t, nil
		}
		// Shrink the bracket around the root.
		if ft < 0 {
			lo = t
		} else {
			hi = t
		}
		step := ft / df(t)
		t -= step
		if t <= lo || t >= hi {
			t = (lo + hi) / 2
		}
		if math.Abs(step) < 1e-12 {
			return t, nil
		}
	}
	if math.Abs(f(t)) < 1e-6 {
		return t, nil
	}
	return 0, fmt.Errorf("root not resolved after 100 iterations (residual %g)", f(t))
}
