/*
Copyright © 2018 the Plume authors.
This file is part of Plume.

Plume is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Plume is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Plume.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package plume estimates airborne concentrations downwind of a
// hazardous chemical release. It implements a steady-state Gaussian
// plume model for neutrally buoyant gases and a two-regime dense-gas
// model for gases heavier than air, together with
// Pasquill-Gifford-Turner atmospheric stability classification and
// Briggs-style dispersion coefficients. All calculations are pure
// functions of their inputs; the package holds no state between calls
// and is safe for concurrent use.
package plume

import (
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/unit"
)

// Version gives the version number.
const Version = "0.9.0"

// Molar mass of dry air [g/mol].
const mwAir = 28.97

// Universal gas constant [J/(mol·K)].
const rGas = 8.31446

// Chemical holds the properties of a released chemical that are
// relevant to dispersion modeling. It is treated as immutable
// during an evaluation.
type Chemical struct {
	Name string

	// MolecularWeight is the molar mass [g/mol]. It must be
	// positive.
	MolecularWeight float64

	// Density is the density of the stored material [kg/m³].
	// It is informational; vapor density is computed from the
	// molecular weight and the ideal gas law.
	Density float64

	// Threshold is the concentration [kg/m³] above which exposure
	// is considered disabling, if known. Risk tiers are derived
	// from ratios against this value.
	Threshold *unit.Unit
}

// RelativeDensity returns the density of this chemical's vapor
// relative to air.
func (c *Chemical) RelativeDensity() float64 {
	return c.MolecularWeight / mwAir
}

// ReleaseType specifies the temporal behavior of a release.
type ReleaseType int

const (
	// Continuous is a steady ongoing emission.
	Continuous ReleaseType = iota
	// Instantaneous is a finite mass released all at once (a puff).
	Instantaneous
	// Variable is a release whose rate changes over time; it is
	// modeled here using its average rate.
	Variable
)

func (t ReleaseType) String() string {
	switch t {
	case Continuous:
		return "continuous"
	case Instantaneous:
		return "instantaneous"
	case Variable:
		return "variable"
	default:
		return "unknown"
	}
}

// Release describes a single chemical release event.
type Release struct {
	// Location is the geographic position of the source
	// (X = longitude, Y = latitude) [degrees].
	Location geom.Point

	// Height is the release height above ground [m]. Must be ≥ 0.
	Height float64

	Type ReleaseType

	// Rate is the emission rate [kg/s]. Zero means unspecified.
	Rate float64

	// Mass is the total released mass [kg]. Zero means unspecified.
	// At least one of Rate and Mass should be given; if neither is,
	// a documented default rate is used and a Diagnostic is
	// attached to the results.
	Mass float64

	// Start and End bound the release period. A zero End means the
	// release is ongoing; rate calculations then assume a default
	// duration of one hour.
	Start, End time.Time

	// Temperature [K] and Pressure [Pa] of the released material.
	// Zero values mean ambient conditions.
	Temperature float64
	Pressure    float64

	// Stack parameters for releases from a stack or vent. When
	// StackDiameter is nonzero, plume rise is added to Height
	// following ASME (1973). StackVelocity is the exit velocity
	// [m/s] and StackTemp the exit temperature [K].
	StackDiameter float64
	StackVelocity float64
	StackTemp     float64
}

// duration returns the active release duration [s].
func (r *Release) duration() float64 {
	if r.End.IsZero() {
		return defaultReleaseDuration
	}
	d := r.End.Sub(r.Start).Seconds()
	if d <= 0 {
		return defaultReleaseDuration
	}
	return d
}

// defaultReleaseDuration is assumed when a release has no end
// time [s].
const defaultReleaseDuration = 3600.

// defaultReleaseRate is the conservative source strength assumed
// when a release specifies neither a rate nor a total mass [kg/s].
const defaultReleaseRate = 0.1

// WeatherObservation is a snapshot of the weather at the release
// site. It is supplied by the caller; this package does not know how
// it was obtained.
type WeatherObservation struct {
	WindSpeed     float64 // [m/s] at the 10 m reference height
	WindDirection float64 // [degrees clockwise from north, blowing from]
	Temperature   float64 // [°C]
	Pressure      float64 // [hPa]

	// CloudCover is the cloud cover fraction (0–1). A negative
	// value means unknown.
	CloudCover float64

	// SolarInsolation [W/m²]. A negative value means unknown, in
	// which case it is computed from the solar altitude.
	SolarInsolation float64

	// MixingHeight is the inversion height capping vertical
	// dispersion [m]. Zero means no capping inversion.
	MixingHeight float64

	// SurfaceRoughness is the aerodynamic roughness length [m].
	// Values ≥ 0.20 m select the urban dispersion coefficients.
	SurfaceRoughness float64

	// OverWater indicates the plume travels over open water.
	OverWater bool

	// Stability is the atmospheric stability class, if observed.
	// ClassUnknown means it will be derived from the other fields.
	Stability StabilityClass
}

// EvaluationPoint is a receptor location in plume coordinates:
// X downwind of the source, Y crosswind, Z above ground [m].
type EvaluationPoint struct {
	X, Y, Z float64
}

// Regime identifies which physical model and sub-regime produced a
// concentration estimate.
type Regime int

const (
	// RegimeLightGas is the Gaussian plume model for neutral or
	// buoyant releases.
	RegimeLightGas Regime = iota
	// RegimeHeavyGravity is the gravity-dominated (slumping) phase
	// of the dense-gas model.
	RegimeHeavyGravity
	// RegimeHeavyPassive is the passive-diffusion phase of the
	// dense-gas model.
	RegimeHeavyPassive
)

func (r Regime) String() string {
	switch r {
	case RegimeLightGas:
		return "light gas"
	case RegimeHeavyGravity:
		return "heavy gas: gravity-dominated"
	case RegimeHeavyPassive:
		return "heavy gas: passive diffusion"
	default:
		return "unknown"
	}
}

// DiagnosticCode identifies the condition a Diagnostic reports.
type DiagnosticCode int

const (
	// DiagDefaultSourceStrength means neither a release rate nor a
	// total mass was supplied, so the default rate was used.
	DiagDefaultSourceStrength DiagnosticCode = iota + 1
	// DiagPointFailure means a single receptor could not be
	// evaluated; its concentration is reported as zero.
	DiagPointFailure
	// DiagDerivedStability means the stability class was not
	// observed and was derived from time of day and cloud cover.
	DiagDerivedStability
	// DiagDefaultThreshold means the chemical has no toxicity
	// threshold, so risk tiers use the default threshold.
	DiagDefaultThreshold
)

// Diagnostic is a side-channel warning attached to a result. It
// reports degraded or defaulted inputs without interrupting the
// computation.
type Diagnostic struct {
	Code    DiagnosticCode
	Message string
}

func (d Diagnostic) String() string { return d.Message }

// ConcentrationEstimate is the result of evaluating one point. It is
// created fresh per query and never mutated afterwards.
type ConcentrationEstimate struct {
	// Concentration [kg/m³].
	Concentration float64

	// Units documents the concentration unit convention.
	Units string

	Point EvaluationPoint

	// Distance [m] and Direction [degrees clockwise from north]
	// from the source.
	Distance  float64
	Direction float64

	// Stability is the stability class used for this estimate.
	Stability StabilityClass

	// Regime is the model regime that produced this estimate.
	Regime Regime

	Risk RiskTier

	Diagnostics []Diagnostic
}

// ConcUnits is the unit convention for all concentrations returned
// by this package.
const ConcUnits = "kg/m³"

// airDensity returns the density of air [kg/m³] at temperature
// T [K] and pressure P [Pa] from the ideal gas law.
func airDensity(T, P float64) float64 {
	return P * mwAir / 1000. / (rGas * T)
}

// vaporDensity returns the density [kg/m³] of a gas with molar mass
// mw [g/mol] at temperature T [K] and pressure P [Pa].
func vaporDensity(mw, T, P float64) float64 {
	return P * mw / 1000. / (rGas * T)
}
