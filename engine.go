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
	"runtime"
	"sync"

	"github.com/ctessum/unit"
	"github.com/jonboulle/clockwork"
	"gonum.org/v1/gonum/floats"
)

// heavyGasCutoff is the vapor density relative to air above which a
// chemical is modeled as a dense gas.
const heavyGasCutoff = 1.2

// breathingHeight is the receptor height [m] used for grid cells and
// centerline scans.
const breathingHeight = 1.5

// centerlineSamples is the number of points in the fixed-resolution
// centerline maximum search.
const centerlineSamples = 100

// Engine orchestrates dispersion model selection and evaluation. The
// zero value is not usable; use NewEngine. An Engine holds no
// per-release state and its methods may be called concurrently.
type Engine struct {
	// Clock supplies the current time for day/night determination
	// when a stability class must be derived. Defaults to the real
	// clock; tests may inject a fake.
	Clock clockwork.Clock

	// MaxPoints bounds the number of points a single grid or
	// receptor-batch request may evaluate.
	MaxPoints int

	// CullThreshold is the concentration [kg/m³] below which grid
	// cells are omitted from results.
	CullThreshold float64

	// DefaultCloudCover (fraction 0–1) is assumed when deriving a
	// stability class from an observation without cloud cover.
	DefaultCloudCover float64
}

// NewEngine returns an Engine with the default configuration.
func NewEngine() *Engine {
	return &Engine{
		Clock:             clockwork.NewRealClock(),
		MaxPoints:         100000,
		CullThreshold:     1.e-9,
		DefaultCloudCover: 0.5,
	}
}

// resolved holds the per-release decisions that are made once and
// then threaded through every point evaluation: the selected model,
// the stability class, and the dispersion coefficients.
type resolved struct {
	model  gasModel
	class  StabilityClass
	coeffs DispersionCoeffs
	u10    float64
	diags  []Diagnostic
}

// resolve validates the inputs and makes the per-release decisions.
// Model routing is a pure function of the chemical's relative vapor
// density; a release keeps its model for every evaluated point even
// though real plumes dilute toward neutral buoyancy as they travel.
func (e *Engine) resolve(rel *Release, chem *Chemical, w *WeatherObservation) (*resolved, error) {
	if rel == nil || chem == nil || w == nil {
		return nil, fmt.Errorf("plume: release, chemical, and weather must all be non-nil")
	}
	if chem.MolecularWeight <= 0 {
		return nil, fmt.Errorf("plume: chemical %q molecular weight must be positive (got %g)",
			chem.Name, chem.MolecularWeight)
	}
	if rel.Height < 0 {
		return nil, fmt.Errorf("plume: release height must be ≥ 0 (got %g)", rel.Height)
	}
	if w.WindSpeed < 0 {
		return nil, fmt.Errorf("plume: wind speed must be ≥ 0 (got %g)", w.WindSpeed)
	}

	r := &resolved{u10: w.WindSpeed}

	r.class = w.Stability
	if r.class < ClassA || r.class > ClassF {
		r.class = e.deriveStability(rel, w)
		r.diags = append(r.diags, Diagnostic{
			Code: DiagDerivedStability,
			Message: fmt.Sprintf("weather observation has no stability class; derived %v "+
				"from time of day and cloud cover", r.class),
		})
	}

	var err error
	r.coeffs, err = Coefficients(r.class, w.SurfaceRoughness)
	if err != nil {
		return nil, err
	}

	var diags []Diagnostic
	if chem.RelativeDensity() > heavyGasCutoff {
		r.model, diags, err = newHeavyGas(rel, chem, w, r.class, r.coeffs)
	} else {
		r.model, diags, err = newLightGas(rel, w, r.class, r.coeffs)
	}
	if err != nil {
		return nil, err
	}
	r.diags = append(r.diags, diags...)
	return r, nil
}

// deriveStability classifies the atmosphere from the observation and
// the current time when no stability class was supplied.
func (e *Engine) deriveStability(rel *Release, w *WeatherObservation) StabilityClass {
	now := e.Clock.Now()
	lat := rel.Location.Y
	cloud := w.CloudCover
	if cloud < 0 {
		cloud = e.DefaultCloudCover
	}
	insolation := w.SolarInsolation
	if insolation < 0 {
		insolation = Insolation(lat, now, cloud)
	}
	daytime := SolarAltitude(lat, now) > 0
	return ClassifyStability(w.WindSpeed, cloud, insolation, daytime, w.OverWater)
}

// Concentration evaluates the concentration [kg/m³] at a single
// point in plume coordinates.
func (e *Engine) Concentration(p EvaluationPoint, rel *Release, chem *Chemical, w *WeatherObservation) (float64, error) {
	r, err := e.resolve(rel, chem, w)
	if err != nil {
		return 0, err
	}
	est, err := e.estimate(r, chem, w, p)
	if err != nil {
		return 0, err
	}
	return est.Concentration, nil
}

// estimate evaluates one point with an already-resolved model,
// returning a fully populated ConcentrationEstimate.
func (e *Engine) estimate(r *resolved, chem *Chemical, w *WeatherObservation, p EvaluationPoint) (ConcentrationEstimate, error) {
	if badCoord(p.X) || badCoord(p.Y) || badCoord(p.Z) {
		return ConcentrationEstimate{}, fmt.Errorf("plume: malformed evaluation point (%g, %g, %g)",
			p.X, p.Y, p.Z)
	}
	c, regime := r.model.concentration(p.X, p.Y, p.Z)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return ConcentrationEstimate{}, fmt.Errorf("plume: non-finite concentration at (%g, %g, %g)",
			p.X, p.Y, p.Z)
	}
	tier, riskDiags := classifyRisk(c, chem)
	est := ConcentrationEstimate{
		Concentration: c,
		Units:         ConcUnits,
		Point:         p,
		Distance:      math.Hypot(p.X, p.Y),
		Direction:     pointBearing(p, w.WindDirection),
		Stability:     r.class,
		Regime:        regime,
		Risk:          tier,
	}
	est.Diagnostics = append(est.Diagnostics, r.diags...)
	est.Diagnostics = append(est.Diagnostics, riskDiags...)
	return est, nil
}

func badCoord(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// pointBearing returns the compass bearing [degrees] from the source
// to the point, given the direction the wind blows from. The plume x
// axis points downwind.
func pointBearing(p EvaluationPoint, windFrom float64) float64 {
	downwind := windFrom + 180.
	b := downwind + math.Atan2(p.Y, p.X)*180./math.Pi
	b = math.Mod(b, 360.)
	if b < 0 {
		b += 360.
	}
	return b
}

// EvaluateReceptors evaluates each receptor independently. A failure
// at one receptor does not abort the batch: that receptor reports
// zero concentration with an attached diagnostic, and the remaining
// receptors are evaluated normally. Results are returned in receptor
// order.
func (e *Engine) EvaluateReceptors(rel *Release, chem *Chemical, w *WeatherObservation, receptors []EvaluationPoint) ([]ConcentrationEstimate, error) {
	if len(receptors) > e.MaxPoints {
		return nil, fmt.Errorf("plume: %d receptors exceeds the limit of %d",
			len(receptors), e.MaxPoints)
	}
	r, err := e.resolve(rel, chem, w)
	if err != nil {
		return nil, err
	}
	out := make([]ConcentrationEstimate, len(receptors))
	e.forEach(len(receptors), func(i int) {
		est, err := e.estimate(r, chem, w, receptors[i])
		if err != nil {
			est = ConcentrationEstimate{
				Units:     ConcUnits,
				Point:     receptors[i],
				Stability: r.class,
				Diagnostics: []Diagnostic{{
					Code:    DiagPointFailure,
					Message: err.Error(),
				}},
			}
		}
		out[i] = est
	})
	return out, nil
}

// EvaluateGrid evaluates a regular grid aligned with the wind: cell
// centers every gridSpacing meters downwind out to maxDistance, and
// crosswind to ±maxDistance/2, at breathing height. Cells whose
// concentration falls below the cull threshold are omitted from the
// results. The request fails if it would evaluate more than
// MaxPoints cells.
func (e *Engine) EvaluateGrid(rel *Release, chem *Chemical, w *WeatherObservation, gridSpacing, maxDistance float64) ([]ConcentrationEstimate, error) {
	if gridSpacing <= 0 {
		return nil, fmt.Errorf("plume: grid spacing must be positive (got %g)", gridSpacing)
	}
	if maxDistance < gridSpacing {
		return nil, fmt.Errorf("plume: max distance %g is smaller than grid spacing %g",
			maxDistance, gridSpacing)
	}
	nx := int(maxDistance / gridSpacing)
	ny := int(maxDistance / 2. / gridSpacing)
	total := nx * (2*ny + 1)
	if total > e.MaxPoints {
		return nil, fmt.Errorf("plume: grid of %d points exceeds the limit of %d",
			total, e.MaxPoints)
	}
	r, err := e.resolve(rel, chem, w)
	if err != nil {
		return nil, err
	}

	points := make([]EvaluationPoint, 0, total)
	for i := 1; i <= nx; i++ {
		for j := -ny; j <= ny; j++ {
			points = append(points, EvaluationPoint{
				X: float64(i) * gridSpacing,
				Y: float64(j) * gridSpacing,
				Z: breathingHeight,
			})
		}
	}

	ests := make([]ConcentrationEstimate, len(points))
	e.forEach(len(points), func(i int) {
		est, err := e.estimate(r, chem, w, points[i])
		if err != nil {
			est = ConcentrationEstimate{
				Units:     ConcUnits,
				Point:     points[i],
				Stability: r.class,
				Diagnostics: []Diagnostic{{
					Code:    DiagPointFailure,
					Message: err.Error(),
				}},
			}
		}
		ests[i] = est
	})

	// Cull sequentially so the result order does not depend on
	// evaluation order.
	out := ests[:0]
	for _, est := range ests {
		if est.Concentration >= e.CullThreshold || hasDiag(est.Diagnostics, DiagPointFailure) {
			out = append(out, est)
		}
	}
	return out, nil
}

func hasDiag(diags []Diagnostic, code DiagnosticCode) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

// forEach runs f(i) for i in [0, n) across the available processors.
func (e *Engine) forEach(n int, f func(int)) {
	nprocs := runtime.GOMAXPROCS(0)
	if nprocs > n {
		nprocs = n
	}
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			for i := pp; i < n; i += nprocs {
				f(i)
			}
			wg.Done()
		}(pp)
	}
	wg.Wait()
}

// concDose is the dimension set of a dose: concentration integrated
// over time [kg·s/m³].
var concDose = unit.Dimensions{
	unit.MassDim:   1,
	unit.LengthDim: -3,
	unit.TimeDim:   1,
}

// Dose returns the inhaled exposure dose [kg·s/m³] at a point. For
// continuous and variable releases the concentration persists for
// the lesser of the exposure duration and the release's active
// duration. For an instantaneous release the puff passes the
// receptor in roughly 4σy(x)/u seconds (a ±2σ width heuristic), and
// that passage time caps the exposure.
func (e *Engine) Dose(p EvaluationPoint, rel *Release, chem *Chemical, w *WeatherObservation, exposure *unit.Unit) (*unit.Unit, []Diagnostic, error) {
	if err := exposure.Check(unit.Dimensions{unit.TimeDim: 1}); err != nil {
		return nil, nil, fmt.Errorf("plume: exposure duration: %v", err)
	}
	r, err := e.resolve(rel, chem, w)
	if err != nil {
		return nil, nil, err
	}
	est, err := e.estimate(r, chem, w, p)
	if err != nil {
		return nil, nil, err
	}

	var t float64
	switch rel.Type {
	case Instantaneous:
		if w.WindSpeed <= 0 {
			t = 0
		} else {
			t = 4. * r.coeffs.SigmaY(p.X) / w.WindSpeed
		}
	default:
		t = math.Min(exposure.Value(), rel.duration())
	}
	return unit.New(est.Concentration*t, concDose), est.Diagnostics, nil
}

// MaxConcentrationAlongCenterline scans the plume centerline
// (y = 0, z = 0) at a fixed resolution of 100 samples out to
// maxDistance and returns the distance [m] and value [kg/m³] of the
// largest concentration found. The search is resolution-limited and
// centerline-only: it can miss sharp near-source peaks between
// samples and, for the flat-topped dense-gas profile, off-centerline
// maxima.
func (e *Engine) MaxConcentrationAlongCenterline(rel *Release, chem *Chemical, w *WeatherObservation, maxDistance float64) (float64, float64, error) {
	if maxDistance <= 0 {
		return 0, 0, fmt.Errorf("plume: max distance must be positive (got %g)", maxDistance)
	}
	r, err := e.resolve(rel, chem, w)
	if err != nil {
		return 0, 0, err
	}
	xs := make([]float64, centerlineSamples)
	floats.Span(xs, maxDistance/centerlineSamples, maxDistance)
	cs := make([]float64, len(xs))
	e.forEach(len(xs), func(i int) {
		c, _ := r.model.concentration(xs[i], 0, 0)
		if math.IsNaN(c) || math.IsInf(c, 0) {
			c = 0
		}
		cs[i] = c
	})
	i := floats.MaxIdx(cs)
	return xs[i], cs[i], nil
}
