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

// urbanRoughness is the surface roughness length [m] at and above
// which the urban dispersion coefficients are used.
const urbanRoughness = 0.20

// sigmaCoeffs holds the per-class constants of the dispersion
// coefficient fits: a two-term lateral fit, a three-term vertical
// fit, and a two-term along-wind fit. With x the downwind distance
// in kilometers,
//
//	σy(x) = sy1·x^(1/(1+sy2·x))                 [km]
//	σz(x) = sz1·x^(1/(1+sz2·x+sz3·x²))          [km]
//	σx(x) = sx1·x^sx2                           [km]
//
// so sy1, sz1 and sx1 are the respective spreads at 1 km. The fits
// reproduce the Pasquill-Gifford-Turner curves (rural) and the
// McElroy-Pooler urban measurements over the screening range of
// roughly 0.05–5 km.
type sigmaCoeffs struct {
	sy1, sy2      float64
	sz1, sz2, sz3 float64
	sx1, sx2      float64
}

// ruralSigma and urbanSigma are indexed by StabilityClass
// (ClassUnknown slot unused).
var ruralSigma = [ClassF + 1]sigmaCoeffs{
	ClassA: {0.215, 0.012, 0.450, -0.080, 0.012, 0.160, 0.95},
	ClassB: {0.155, 0.010, 0.110, -0.040, 0.008, 0.120, 0.93},
	ClassC: {0.105, 0.008, 0.061, -0.010, 0.005, 0.085, 0.91},
	ClassD: {0.068, 0.006, 0.031, 0.015, 0.003, 0.056, 0.89},
	ClassE: {0.050, 0.005, 0.022, 0.030, 0.002, 0.042, 0.87},
	ClassF: {0.034, 0.004, 0.014, 0.045, 0.001, 0.029, 0.85},
}

var urbanSigma = [ClassF + 1]sigmaCoeffs{
	ClassA: {0.270, 0.012, 0.340, -0.060, 0.010, 0.210, 0.95},
	ClassB: {0.255, 0.011, 0.310, -0.050, 0.009, 0.190, 0.93},
	ClassC: {0.186, 0.010, 0.200, 0.005, 0.006, 0.140, 0.91},
	ClassD: {0.135, 0.008, 0.160, 0.010, 0.004, 0.095, 0.89},
	ClassE: {0.093, 0.007, 0.051, 0.025, 0.003, 0.064, 0.87},
	ClassF: {0.073, 0.006, 0.037, 0.040, 0.002, 0.047, 0.85},
}

// DispersionCoeffs supplies the distance-dependent plume spread
// coefficients for one stability class and surface type.
type DispersionCoeffs struct {
	Class StabilityClass
	Urban bool
	c     sigmaCoeffs
}

// Coefficients returns the dispersion coefficient set for the given
// stability class. The urban coefficients are used when the surface
// roughness length is at least 0.20 m.
func Coefficients(class StabilityClass, surfaceRoughness float64) (DispersionCoeffs, error) {
	if class < ClassA || class > ClassF {
		return DispersionCoeffs{}, fmt.Errorf("plume: no dispersion coefficients for stability class %v", class)
	}
	d := DispersionCoeffs{Class: class, Urban: surfaceRoughness >= urbanRoughness}
	if d.Urban {
		d.c = urbanSigma[class]
	} else {
		d.c = ruralSigma[class]
	}
	return d, nil
}

// sigmaFloor is the minimum plume spread [m] returned by any of the
// coefficient functions, avoiding singular concentrations very close
// to the source.
const sigmaFloor = 1.

// SigmaY returns the crosswind plume spread [m] at downwind distance
// x [m].
func (d DispersionCoeffs) SigmaY(x float64) float64 {
	xKm := x / 1000.
	if xKm <= 0 {
		return sigmaFloor
	}
	s := d.c.sy1 * math.Pow(xKm, 1./(1.+d.c.sy2*xKm)) * 1000.
	return math.Max(s, sigmaFloor)
}

// SigmaZ returns the vertical plume spread [m] at downwind distance
// x [m].
func (d DispersionCoeffs) SigmaZ(x float64) float64 {
	xKm := x / 1000.
	if xKm <= 0 {
		return sigmaFloor
	}
	s := d.c.sz1 * math.Pow(xKm, 1./(1.+d.c.sz2*xKm+d.c.sz3*xKm*xKm)) * 1000.
	return math.Max(s, sigmaFloor)
}

// SigmaX returns the along-wind plume spread [m] at downwind
// distance x [m], used for puff passage-time calculations.
func (d DispersionCoeffs) SigmaX(x float64) float64 {
	xKm := x / 1000.
	if xKm <= 0 {
		return sigmaFloor
	}
	s := d.c.sx1 * math.Pow(xKm, d.c.sx2) * 1000.
	return math.Max(s, sigmaFloor)
}

// windProfileExp is the power-law exponent p in the wind profile
// u(h) = u10·(h/10)^p for each stability class (Irwin 1979, rural).
var windProfileExp = [ClassF + 1]float64{
	ClassA: 0.108,
	ClassB: 0.112,
	ClassC: 0.120,
	ClassD: 0.142,
	ClassE: 0.203,
	ClassF: 0.253,
}

// windAtHeight extrapolates the 10 m reference wind speed u10 [m/s]
// to height h [m] with the power-law profile for the given stability
// class. Heights below 1 m use the 1 m value to keep the profile
// finite at the ground.
func windAtHeight(u10, h float64, class StabilityClass) float64 {
	if u10 <= 0 {
		return 0
	}
	if h < 1 {
		h = 1
	}
	p := windProfileExp[class]
	return u10 * math.Pow(h/10., p)
}
