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

import "testing"

var allClasses = []StabilityClass{ClassA, ClassB, ClassC, ClassD, ClassE, ClassF}

func TestSigmaIncreasing(t *testing.T) {
	// σy and σz grow monotonically with distance over the screening
	// range for every class and both surface types.
	for _, roughness := range []float64{0.03, 0.5} {
		for _, class := range allClasses {
			d, err := Coefficients(class, roughness)
			if err != nil {
				t.Fatal(err)
			}
			for x := 100.; x < 5000.; x += 100. {
				if d.SigmaY(x+100) <= d.SigmaY(x) {
					t.Errorf("class %v roughness %g: σy not increasing at x=%g",
						class, roughness, x)
				}
				if d.SigmaZ(x+100) <= d.SigmaZ(x) {
					t.Errorf("class %v roughness %g: σz not increasing at x=%g",
						class, roughness, x)
				}
				if d.SigmaX(x+100) <= d.SigmaX(x) {
					t.Errorf("class %v roughness %g: σx not increasing at x=%g",
						class, roughness, x)
				}
			}
		}
	}
}

func TestSigmaOrdering(t *testing.T) {
	// Less stable classes spread more at any given distance.
	for _, x := range []float64{200., 1000., 3000.} {
		for i := 0; i < len(allClasses)-1; i++ {
			d1, err := Coefficients(allClasses[i], 0.03)
			if err != nil {
				t.Fatal(err)
			}
			d2, err := Coefficients(allClasses[i+1], 0.03)
			if err != nil {
				t.Fatal(err)
			}
			if d1.SigmaY(x) <= d2.SigmaY(x) {
				t.Errorf("σy(%g) for class %v should exceed class %v",
					x, allClasses[i], allClasses[i+1])
			}
		}
	}
}

func TestSigmaReferenceValues(t *testing.T) {
	// At 1 km the lateral and vertical fits reduce to their leading
	// coefficients.
	const tol = 1.e-9
	d, err := Coefficients(ClassD, 0.03)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.SigmaY(1000); absDiff(got, 68) > tol {
		t.Errorf("rural D σy(1 km): got %g, want 68", got)
	}
	if got := d.SigmaZ(1000); absDiff(got, 31) > tol {
		t.Errorf("rural D σz(1 km): got %g, want 31", got)
	}

	u, err := Coefficients(ClassD, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if !u.Urban {
		t.Error("roughness 0.5 m should select urban coefficients")
	}
	if got := u.SigmaY(1000); absDiff(got, 135) > tol {
		t.Errorf("urban D σy(1 km): got %g, want 135", got)
	}
}

func TestSigmaFloor(t *testing.T) {
	d, err := Coefficients(ClassF, 0.03)
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range []float64{-100., 0., 1., 5.} {
		if s := d.SigmaY(x); s < 1 {
			t.Errorf("σy(%g) = %g below the 1 m floor", x, s)
		}
		if s := d.SigmaZ(x); s < 1 {
			t.Errorf("σz(%g) = %g below the 1 m floor", x, s)
		}
		if s := d.SigmaX(x); s < 1 {
			t.Errorf("σx(%g) = %g below the 1 m floor", x, s)
		}
	}
}

func TestCoefficientsUnknownClass(t *testing.T) {
	if _, err := Coefficients(ClassUnknown, 0.03); err == nil {
		t.Error("coefficients for an unknown class should fail")
	}
}

func TestWindProfile(t *testing.T) {
	// The profile reproduces the reference speed at 10 m and
	// increases with height and with stability.
	for _, class := range allClasses {
		if u := windAtHeight(5, 10, class); absDiff(u, 5) > 1.e-12 {
			t.Errorf("class %v: wind at 10 m: got %g, want 5", class, u)
		}
		if windAtHeight(5, 50, class) <= 5 {
			t.Errorf("class %v: wind at 50 m should exceed the 10 m speed", class)
		}
	}
	// More stable classes shear more strongly above the reference
	// height.
	if windAtHeight(5, 100, ClassF) <= windAtHeight(5, 100, ClassA) {
		t.Error("stable shear at 100 m should exceed unstable shear")
	}
	if u := windAtHeight(0, 10, ClassD); u != 0 {
		t.Errorf("calm reference wind: got %g, want 0", u)
	}
}
