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

package plume

import (
	"fmt"
	"math"
)

// Dense-gas model constants.
const (
	// blanketThickness is the assumed depth of the source blanket
	// from which the initial cloud radius is derived [m].
	blanketThickness = 0.1

	// initialCloudHeight is the initial dense cloud height [m].
	initialCloudHeight = 1.5

	// entrainmentK controls the dilution of the cloud with downwind
	// distance: the dilution factor is 1 + entrainmentK·x/1000.
	entrainmentK = 4.0

	// frontalConst relates the gravity front velocity to √(g′H)
	// (van Ulden 1974).
	frontalConst = 1.15

	// shearSpread is the linear crosswind growth of the cloud due
	// to wind direction shear [m/m].
	shearSpread = 0.17

	// criticalRi is the bulk Richardson number above which the
	// cloud is gravity-dominated.
	criticalRi = 1.0

	// continuousBlanketTime is the emission interval whose volume
	// forms the source blanket for a continuous release [s].
	continuousBlanketTime = 60.

	// topHatToGaussian converts a top-hat half-width to the standard
	// deviation of the equivalent Gaussian profile.
	topHatToGaussian = 2.15
)

// heavyVerticalExp is the exponent n of the dense-cloud vertical
// profile (1−z/H)^n, by stability: 1.0 for unstable classes, 1.5 for
// neutral, 2.5 for stable.
func heavyVerticalExp(class StabilityClass) float64 {
	switch class {
	case ClassA, ClassB:
		return 1.0
	case ClassC, ClassD:
		return 1.5
	default:
		return 2.5
	}
}

// heavyGas is a two-regime model for gases denser than air. Close to
// the source, where the bulk Richardson number exceeds one, the
// cloud slumps under its own weight and spreads by gravity; farther
// downwind, once ambient turbulence dominates, it disperses as a
// passive Gaussian plume with spread enhanced by the residual size
// of the dense phase. The regime is evaluated independently at every
// queried distance, so a single plume can report different regimes
// at different points.
type heavyGas struct {
	q       float64 // effective source strength [kg/s]
	u10     float64 // reference wind speed [m/s]
	gPrime0 float64 // initial reduced gravity [m/s²]
	r0      float64 // initial cloud radius [m]
	h0      float64 // initial cloud height [m]
	sy0     float64 // initial lateral spread for the passive regime [m]
	sz0     float64 // initial vertical spread for the passive regime [m]
	class   StabilityClass
	coeffs  DispersionCoeffs
}

// newHeavyGas resolves the per-release source parameters of the
// dense-gas model: ambient and vapor densities from the ideal gas
// law, reduced gravity, and the initial cloud geometry from the
// assumed source blanket.
func newHeavyGas(rel *Release, chem *Chemical, w *WeatherObservation,
	class StabilityClass, coeffs DispersionCoeffs) (*heavyGas, []Diagnostic, error) {

	if chem.MolecularWeight <= 0 {
		return nil, nil, fmt.Errorf("plume: molecular weight must be positive (got %g)",
			chem.MolecularWeight)
	}
	q, diags := sourceStrength(rel)

	airTemp := w.Temperature + 273.15
	p := w.Pressure * 100. // hPa to Pa
	if p <= 0 {
		p = 101325.
	}
	gasTemp := rel.Temperature
	if gasTemp <= 0 {
		gasTemp = airTemp
	}
	gasP := rel.Pressure
	if gasP <= 0 {
		gasP = p
	}
	rhoAir := airDensity(airTemp, p)
	rhoGas := vaporDensity(chem.MolecularWeight, gasTemp, gasP)
	gPrime := 9.81 * (rhoGas - rhoAir) / rhoAir
	if gPrime < 0 {
		gPrime = 0
	}

	// Source blanket volume: the whole released mass for a puff,
	// otherwise one minute of emission.
	var vol float64
	if rel.Mass > 0 {
		vol = rel.Mass / rhoGas
	} else {
		vol = q * continuousBlanketTime / rhoGas
	}
	r0 := math.Sqrt(vol / (math.Pi * blanketThickness))

	return &heavyGas{
		q:       q,
		u10:     w.WindSpeed,
		gPrime0: gPrime,
		r0:      r0,
		h0:      initialCloudHeight,
		sy0:     r0 / topHatToGaussian,
		sz0:     initialCloudHeight / topHatToGaussian,
		class:   class,
		coeffs:  coeffs,
	}, diags, nil
}

// cloudState returns the diluted cloud properties at downwind
// distance x [m]: effective height, local reduced gravity, wind
// speed at cloud height, and the bulk Richardson number.
func (m *heavyGas) cloudState(x float64) (H, gPrime, u, ri float64) {
	dilution := 1. + entrainmentK*x/1000.
	H = m.h0 * math.Sqrt(dilution)
	gPrime = m.gPrime0 / dilution
	u = windAtHeight(m.u10, H, m.class)
	if u > 0 {
		ri = gPrime * H / (u * u)
	}
	return
}

func (m *heavyGas) concentration(x, y, z float64) (float64, Regime) {
	if x <= 0 || m.u10 <= 0 {
		return 0, RegimeHeavyGravity
	}
	H, gPrime, u, ri := m.cloudState(x)

	if ri > criticalRi {
		return m.gravityConcentration(x, y, z, H, gPrime, u, ri), RegimeHeavyGravity
	}
	return m.passiveConcentration(x, y, z, u), RegimeHeavyPassive
}

// gravityConcentration evaluates the slumping-phase profile: a
// homogeneous core of shrinking width surrounded by Gaussian edges,
// with a power-law vertical profile.
func (m *heavyGas) gravityConcentration(x, y, z, H, gPrime, u, ri float64) float64 {
	if z >= H {
		return 0
	}
	// Effective cloud width: initial diameter, gravity front
	// spreading over the travel time, and linear wind-shear growth.
	front := frontalConst * math.Sqrt(gPrime*H)
	width := 2.*m.r0 + 2.*front*x/u + shearSpread*x

	// The flat homogeneous core shrinks to nothing as the cloud
	// approaches the passive transition at Ri = 1.
	core := width * (1. - criticalRi/ri)

	c := m.q / (u * width * H)

	edge := math.Abs(y) - core/2.
	if edge > 0 {
		sy := m.coeffs.SigmaY(x)
		c *= math.Exp(-edge * edge / (2. * sy * sy))
	}
	return c * math.Pow(1.-z/H, heavyVerticalExp(m.class))
}

// passiveConcentration evaluates the post-transition Gaussian plume
// with spread enhanced by the initial cloud dimensions. The cloud is
// ground-based by the time it turns passive, so the source height is
// zero and the ground reflection doubles the concentration.
func (m *heavyGas) passiveConcentration(x, y, z, u float64) float64 {
	sy := math.Sqrt(math.Pow(m.coeffs.SigmaY(x), 2) + m.sy0*m.sy0)
	sz := math.Sqrt(math.Pow(m.coeffs.SigmaZ(x), 2) + m.sz0*m.sz0)
	return m.q / (u * sy * sz * math.Sqrt(2.*math.Pi)) *
		math.Exp(-y*y/(2.*sy*sy)) *
		verticalTerm(z, 0, sz, 0)
}
