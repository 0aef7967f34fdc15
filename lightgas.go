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

	"github.com/ctessum/atmos/plumerise"
)

// gasModel evaluates the concentration [kg/m³] at a point in plume
// coordinates (x downwind, y crosswind, z above ground, all in
// meters). Implementations are resolved once per release and are
// safe for concurrent use.
type gasModel interface {
	concentration(x, y, z float64) (float64, Regime)
}

// sourceStrength returns the effective emission rate Q [kg/s] for a
// release: the explicit rate if given, otherwise total mass spread
// over the release duration, otherwise the documented conservative
// default together with a diagnostic.
func sourceStrength(r *Release) (float64, []Diagnostic) {
	if r.Rate > 0 {
		return r.Rate, nil
	}
	if r.Mass > 0 {
		return r.Mass / r.duration(), nil
	}
	return defaultReleaseRate, []Diagnostic{{
		Code: DiagDefaultSourceStrength,
		Message: fmt.Sprintf("release has neither rate nor total mass; "+
			"assuming default rate %g kg/s", defaultReleaseRate),
	}}
}

// lightGas is a steady-state Gaussian plume model for neutrally
// buoyant or buoyant releases. Concentrations are
//
//	C = Q/(u·σy·σz·√2π) · exp(−y²/2σy²) · verticalTerm
//
// in kg/m³ with Q in kg/s, where verticalTerm reflects the plume at
// the ground and, when a capping inversion is present above the
// release, at the inversion base.
type lightGas struct {
	q         float64 // effective source strength [kg/s]
	effHeight float64 // release height plus plume rise [m]
	u10       float64 // reference wind speed [m/s]
	mixing    float64 // mixing height [m]; 0 means uncapped
	class     StabilityClass
	coeffs    DispersionCoeffs
}

// modelTop is the top of the synthetic single-layer column used for
// the plume rise calculation [m].
const modelTop = 5000.

// potential temperature gradients [K/m] for the stable plume rise
// formula.
var dThetaDz = [ClassF + 1]float64{
	ClassE: 0.020,
	ClassF: 0.035,
}

// effectiveHeight returns the release height raised by ASME (1973)
// plume rise when stack parameters are present.
func effectiveHeight(rel *Release, w *WeatherObservation, class StabilityClass) (float64, error) {
	if rel.StackDiameter <= 0 || w.WindSpeed <= 0 {
		return rel.Height, nil
	}
	airTemp := w.Temperature + 273.15
	stackTemp := rel.StackTemp
	if stackTemp == 0 {
		stackTemp = airTemp
	}
	sClass := 0.
	if class >= ClassE {
		sClass = 1.
	}
	s1 := 9.80665 / airTemp * dThetaDz[class]
	u := windAtHeight(w.WindSpeed, rel.Height, class)
	_, h, err := plumerise.ASME(rel.Height, rel.StackDiameter, stackTemp,
		rel.StackVelocity,
		[]float64{0, modelTop},
		[]float64{airTemp},
		[]float64{u},
		[]float64{sClass},
		[]float64{s1})
	if err == plumerise.ErrAboveModelTop {
		// The rise calculation is still valid; the plume is just
		// higher than the column top.
		err = nil
	}
	if err != nil {
		return rel.Height, fmt.Errorf("plume: calculating plume rise: %v", err)
	}
	return h, nil
}

// newLightGas resolves the per-release parameters of the Gaussian
// plume model.
func newLightGas(rel *Release, w *WeatherObservation, class StabilityClass,
	coeffs DispersionCoeffs) (*lightGas, []Diagnostic, error) {

	q, diags := sourceStrength(rel)
	h, err := effectiveHeight(rel, w, class)
	if err != nil {
		return nil, nil, err
	}
	return &lightGas{
		q:         q,
		effHeight: h,
		u10:       w.WindSpeed,
		mixing:    w.MixingHeight,
		class:     class,
		coeffs:    coeffs,
	}, diags, nil
}

// reflectionTerms is the number of image sources summed on each side
// of the plume when a capping inversion is present.
const reflectionTerms = 5

// verticalTerm evaluates the vertical concentration profile at
// height z for a plume centered at height h with vertical spread
// sz, including ground reflection and, when the mixing height L
// exceeds h, a finite series of inversion reflections.
func verticalTerm(z, h, sz, L float64) float64 {
	if L > 0 && L > h {
		var sum float64
		for n := -reflectionTerms; n <= reflectionTerms; n++ {
			h1 := h + 2.*float64(n)*L
			h2 := -h + 2.*float64(n)*L
			sum += math.Exp(-(z-h1)*(z-h1)/(2.*sz*sz)) +
				math.Exp(-(z-h2)*(z-h2)/(2.*sz*sz))
		}
		return sum
	}
	return math.Exp(-(z-h)*(z-h)/(2.*sz*sz)) +
		math.Exp(-(z+h)*(z+h)/(2.*sz*sz))
}

func (m *lightGas) concentration(x, y, z float64) (float64, Regime) {
	if x <= 0 || m.u10 <= 0 {
		return 0, RegimeLightGas
	}
	u := windAtHeight(m.u10, m.effHeight, m.class)
	sy := m.coeffs.SigmaY(x)
	sz := m.coeffs.SigmaZ(x)
	c := m.q / (u * sy * sz * math.Sqrt(2.*math.Pi)) *
		math.Exp(-y*y/(2.*sy*sy)) *
		verticalTerm(z, m.effHeight, sz, m.mixing)
	return c, RegimeLightGas
}
