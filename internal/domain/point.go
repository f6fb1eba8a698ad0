package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SurfaceMaterial describes the thermal properties of a ground material.
// Values are immutable inputs to the solver.
type SurfaceMaterial struct {
	Name            string  `json:"name"`
	Albedo          float64 `json:"alb"`
	Emissivity      float64 `json:"em"`
	HeatCapacity    float64 `json:"cv"`         // volumetric heat capacity, J/m³·K
	Conductivity    float64 `json:"lambd"`      // thermal conductivity, W/m·K
	Thickness       float64 `json:"ep"`         // layer thickness, m
	CropCoefficient float64 `json:"kc"`         // evapotranspiration coefficient
	FixedTempC      float64 `json:"fixed_temp"` // override temperature, °C; 0 = not fixed
}

// MissingMaterialPropertyError marks a point whose material record lacks a
// usable numeric field. The point's equivalence group is excluded from
// solving; the batch continues.
type MissingMaterialPropertyError struct {
	Material string
	Field    string
}

func (e *MissingMaterialPropertyError) Error() string {
	return fmt.Sprintf("material %q: property %s missing or not a number", e.Material, e.Field)
}

// Validate checks that every property the energy balance divides by or
// multiplies with is a usable number. Thickness, conductivity, and heat
// capacity must additionally be positive because they appear as divisors.
func (m SurfaceMaterial) Validate() error {
	checks := []struct {
		name     string
		value    float64
		positive bool
	}{
		{"alb", m.Albedo, false},
		{"em", m.Emissivity, false},
		{"cv", m.HeatCapacity, true},
		{"lambd", m.Conductivity, true},
		{"ep", m.Thickness, true},
		{"kc", m.CropCoefficient, false},
		{"fixed_temp", m.FixedTempC, false},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &MissingMaterialPropertyError{Material: m.Name, Field: c.name}
		}
		if c.positive && c.value <= 0 {
			return &MissingMaterialPropertyError{Material: m.Name, Field: c.name}
		}
	}
	return nil
}

// InvalidShadowError marks a point whose hourly sunlit fraction is not a
// usable number. Hour is 1-based, matching the shadow_N CSV columns.
type InvalidShadowError struct {
	PointID string
	Hour    int
}

func (e *InvalidShadowError) Error() string {
	return fmt.Sprintf("point %q: shadow hour %d missing or not a number", e.PointID, e.Hour)
}

// NightShadow is the sunlit fraction assigned to hours without raster
// coverage. The raster pipeline only produces shadow layers for daylight
// hours; night hours are conventionally fully shaded.
const NightShadow = 0.0

// PointSample is one grid point supplied by the upstream geoprocessing step:
// planar and geographic coordinates, a material, and 24 hourly sunlit
// fractions (1 = fully sunlit, 0 = fully shaded).
type PointSample struct {
	ID       string               `json:"id"`
	X        float64              `json:"x"`
	Y        float64              `json:"y"`
	Lon      float64              `json:"lon"`
	Lat      float64              `json:"lat"`
	Material SurfaceMaterial      `json:"material"`
	Shadow   [HoursPerDay]float64 `json:"shadow"`
}

// Validate checks the material properties and every hourly sunlit fraction.
// A point failing either check is excluded from solving and reported; the
// batch continues.
func (p PointSample) Validate() error {
	if err := p.Material.Validate(); err != nil {
		return err
	}
	for h, s := range p.Shadow {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return &InvalidShadowError{PointID: p.ID, Hour: h + 1}
		}
	}
	return nil
}

// EquivalenceKey identifies the (material, shading) class of a point. Two
// points with equal keys receive bitwise-identical solved series.
type EquivalenceKey string

// Key builds the equivalence key from the material name and the ordered
// shadow tuple. The float formatting is exact (shortest round-trip), so keys
// collide only for genuinely identical shading.
func (p PointSample) Key() EquivalenceKey {
	var b strings.Builder
	b.WriteString(p.Material.Name)
	b.WriteString("-(")
	for h, s := range p.Shadow {
		if h > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(s, 'g', -1, 64))
	}
	b.WriteByte(')')
	return EquivalenceKey(b.String())
}
