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
	"math"
	"testing"
	"time"
)

// testWeather returns a neutral daytime observation: 5 m/s wind,
// stability class D, rural surface.
func testWeather() *WeatherObservation {
	return &WeatherObservation{
		WindSpeed:        5,
		WindDirection:    270,
		Temperature:      15,
		Pressure:         1013,
		CloudCover:       0.2,
		SolarInsolation:  600,
		SurfaceRoughness: 0.03,
		Stability:        ClassD,
	}
}

func testRelease() *Release {
	return &Release{
		Height: 2,
		Type:   Continuous,
		Rate:   1,
		Start:  time.Date(2018, 6, 21, 10, 0, 0, 0, time.UTC),
	}
}

func newTestLightGas(t *testing.T, rel *Release, w *WeatherObservation) (*lightGas, []Diagnostic) {
	t.Helper()
	coeffs, err := Coefficients(w.Stability, w.SurfaceRoughness)
	if err != nil {
		t.Fatal(err)
	}
	m, diags, err := newLightGas(rel, w, w.Stability, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	return m, diags
}

func TestLightGasDegenerateGeometry(t *testing.T) {
	m, _ := newTestLightGas(t, testRelease(), testWeather())
	for _, x := range []float64{-100, 0} {
		if c, _ := m.concentration(x, 0, 1.5); c != 0 {
			t.Errorf("concentration at x=%g: got %g, want 0", x, c)
		}
	}

	calm := testWeather()
	calm.WindSpeed = 0
	m, _ = newTestLightGas(t, testRelease(), calm)
	if c, _ := m.concentration(1000, 0, 1.5); c != 0 {
		t.Errorf("concentration in calm air: got %g, want 0", c)
	}
}

func TestLightGasLateralProfile(t *testing.T) {
	m, _ := newTestLightGas(t, testRelease(), testWeather())
	const x, z = 1000., 1.5

	// Symmetric about the centerline.
	for _, y := range []float64{10, 50, 200} {
		cp, _ := m.concentration(x, y, z)
		cm, _ := m.concentration(x, -y, z)
		if absDiff(cp, cm) > cp*1.e-12 {
			t.Errorf("lateral asymmetry at y=±%g: %g vs %g", y, cp, cm)
		}
	}

	// Non-increasing in |y|.
	prev := math.Inf(1)
	for y := 0.; y <= 500.; y += 25. {
		c, _ := m.concentration(x, y, z)
		if c > prev {
			t.Errorf("concentration increased moving crosswind at y=%g", y)
		}
		prev = c
	}
}

func TestLightGasClosedForm(t *testing.T) {
	// 1 kg/s of a neutral gas released at 2 m in a 5 m/s class D
	// wind, evaluated at 1 km on the centerline at breathing height,
	// must match the closed-form Gaussian evaluation.
	const tol = 1.e-12
	w := testWeather()
	rel := testRelease()
	m, _ := newTestLightGas(t, rel, w)

	const x, z = 1000., 1.5
	coeffs, err := Coefficients(ClassD, w.SurfaceRoughness)
	if err != nil {
		t.Fatal(err)
	}
	sy := coeffs.SigmaY(x)
	sz := coeffs.SigmaZ(x)
	u := windAtHeight(w.WindSpeed, rel.Height, ClassD)
	want := rel.Rate / (u * sy * sz * math.Sqrt(2*math.Pi)) *
		(math.Exp(-(z-rel.Height)*(z-rel.Height)/(2*sz*sz)) +
			math.Exp(-(z+rel.Height)*(z+rel.Height)/(2*sz*sz)))

	got, regime := m.concentration(x, 0, z)
	if regime != RegimeLightGas {
		t.Errorf("regime: got %v, want %v", regime, RegimeLightGas)
	}
	if absDiff(got, want) > want*tol {
		t.Errorf("centerline concentration: got %g, want %g", got, want)
	}
	// Order of magnitude sanity check for these conditions.
	if got < 1.e-5 || got > 1.e-3 {
		t.Errorf("concentration %g kg/m³ outside the expected range", got)
	}
}

func TestLightGasMixingHeight(t *testing.T) {
	// A capping inversion traps the plume, so far enough downwind
	// the ground-level concentration under an inversion exceeds the
	// unbounded value.
	w := testWeather()
	m, _ := newTestLightGas(t, testRelease(), w)

	capped := testWeather()
	capped.MixingHeight = 100
	mc, _ := newTestLightGas(t, testRelease(), capped)

	const x, z = 10000., 1.5
	unbounded, _ := m.concentration(x, 0, z)
	trapped, _ := mc.concentration(x, 0, z)
	if trapped <= unbounded {
		t.Errorf("inversion at 100 m should raise the far-field ground concentration: "+
			"trapped=%g unbounded=%g", trapped, unbounded)
	}

	// An inversion below the release height has no effect.
	low := testWeather()
	low.MixingHeight = 1
	ml, _ := newTestLightGas(t, testRelease(), low)
	c1, _ := ml.concentration(1000, 0, z)
	c2, _ := m.concentration(1000, 0, z)
	if absDiff(c1, c2) > c2*1.e-12 {
		t.Errorf("inversion below release height changed the result: %g vs %g", c1, c2)
	}
}

func TestSourceStrength(t *testing.T) {
	// Explicit rate wins.
	q, diags := sourceStrength(&Release{Rate: 2, Mass: 7200})
	if q != 2 || len(diags) != 0 {
		t.Errorf("explicit rate: got q=%g diags=%v", q, diags)
	}

	// Mass over an explicit duration.
	start := time.Date(2018, 6, 21, 10, 0, 0, 0, time.UTC)
	q, diags = sourceStrength(&Release{
		Mass:  1800,
		Start: start,
		End:   start.Add(30 * time.Minute),
	})
	if absDiff(q, 1) > 1.e-12 || len(diags) != 0 {
		t.Errorf("mass over 30 min: got q=%g diags=%v, want q=1", q, diags)
	}

	// Mass with no end time assumes one hour.
	q, _ = sourceStrength(&Release{Mass: 7200, Start: start})
	if absDiff(q, 2) > 1.e-12 {
		t.Errorf("mass with default duration: got q=%g, want 2", q)
	}

	// Neither rate nor mass falls back to the default with a
	// diagnostic.
	q, diags = sourceStrength(&Release{})
	if q != defaultReleaseRate {
		t.Errorf("default source strength: got %g, want %g", q, defaultReleaseRate)
	}
	if len(diags) != 1 || diags[0].Code != DiagDefaultSourceStrength {
		t.Errorf("default source strength diagnostics: got %v", diags)
	}
}

func TestPlumeRise(t *testing.T) {
	w := testWeather()
	noStack := testRelease()

	hot := testRelease()
	hot.Height = 10
	hot.StackDiameter = 1
	hot.StackVelocity = 10
	hot.StackTemp = 400

	h0, err := effectiveHeight(noStack, w, ClassD)
	if err != nil {
		t.Fatal(err)
	}
	if h0 != noStack.Height {
		t.Errorf("no stack: effective height %g, want %g", h0, noStack.Height)
	}

	h1, err := effectiveHeight(hot, w, ClassD)
	if err != nil {
		t.Fatal(err)
	}
	if h1 <= hot.Height {
		t.Errorf("buoyant stack: effective height %g should exceed stack height %g",
			h1, hot.Height)
	}

	// A faster exit velocity carries more heat flux and rises at
	// least as far.
	faster := *hot
	faster.StackVelocity = 20
	h2, err := effectiveHeight(&faster, w, ClassD)
	if err != nil {
		t.Fatal(err)
	}
	if h2 < h1 {
		t.Errorf("doubling the exit velocity lowered the rise: %g to %g", h1, h2)
	}

	// A taller effective source lowers the near-ground centerline
	// concentration close to the source.
	coeffs, err := Coefficients(ClassD, w.SurfaceRoughness)
	if err != nil {
		t.Fatal(err)
	}
	ground, _, err := newLightGas(noStack, w, ClassD, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	elevated, _, err := newLightGas(hot, w, ClassD, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	cg, _ := ground.concentration(200, 0, 1.5)
	ce, _ := elevated.concentration(200, 0, 1.5)
	if ce >= cg {
		t.Errorf("elevated plume near-source concentration %g should be below "+
			"ground release %g", ce, cg)
	}
}
