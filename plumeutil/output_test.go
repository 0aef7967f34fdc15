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

package plumeutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/plume"
)

func TestSummarize(t *testing.T) {
	ests := []plume.ConcentrationEstimate{
		{Concentration: 1.e-6, Risk: plume.RiskSafe},
		{Concentration: 3.e-5, Risk: plume.RiskNotableDiscomfort},
		{Concentration: 2.e-4, Risk: plume.RiskLifeThreatening},
	}
	sum := Summarize(ests)
	if sum.Count != 3 {
		t.Errorf("count: got %d, want 3", sum.Count)
	}
	if sum.Max != 2.e-4 {
		t.Errorf("max: got %g, want 2e-4", sum.Max)
	}
	wantMean := (1.e-6 + 3.e-5 + 2.e-4) / 3.
	if math.Abs(sum.Mean-wantMean) > wantMean*1.e-12 {
		t.Errorf("mean: got %g, want %g", sum.Mean, wantMean)
	}
	if sum.AboveSafe != 2 {
		t.Errorf("above safe: got %d, want 2", sum.AboveSafe)
	}
	if sum.Disabling != 1 {
		t.Errorf("disabling: got %d, want 1", sum.Disabling)
	}

	empty := Summarize(nil)
	if empty.Count != 0 || empty.Mean != 0 || empty.Max != 0 {
		t.Errorf("empty summary: got %+v", empty)
	}
}

func TestRaster(t *testing.T) {
	s := &ScenarioSpec{Grid: GridSpec{Spacing: 100, MaxDistance: 500}}
	ests := []plume.ConcentrationEstimate{
		{Point: plume.EvaluationPoint{X: 100, Y: 0}, Concentration: 1.e-4},
		{Point: plume.EvaluationPoint{X: 300, Y: -100}, Concentration: 2.e-5},
		{Point: plume.EvaluationPoint{X: 500, Y: 200}, Concentration: 3.e-6},
	}
	a, err := s.Raster(ests)
	if err != nil {
		t.Fatal(err)
	}
	nx, ny := 5, 2
	if a.Shape[0] != nx || a.Shape[1] != 2*ny+1 {
		t.Fatalf("raster shape: got %v, want [%d %d]", a.Shape, nx, 2*ny+1)
	}
	if v := a.Get(0, ny); v != 1.e-4 {
		t.Errorf("cell (100, 0): got %g, want 1e-4", v)
	}
	if v := a.Get(2, ny-1); v != 2.e-5 {
		t.Errorf("cell (300, -100): got %g, want 2e-5", v)
	}
	if v := a.Get(4, ny+2); v != 3.e-6 {
		t.Errorf("cell (500, 200): got %g, want 3e-6", v)
	}

	s.Grid.Spacing = 0
	if _, err := s.Raster(ests); err == nil {
		t.Error("zero spacing should be an error")
	}
}

func TestWriteGeoJSON(t *testing.T) {
	s := writeTestScenario(t)
	ests := []plume.ConcentrationEstimate{
		{
			Point:         plume.EvaluationPoint{X: 1000, Y: 0, Z: 1.5},
			Concentration: 5.e-5,
			Units:         plume.ConcUnits,
			Distance:      1000,
			Direction:     90,
			Stability:     plume.ClassD,
			Regime:        plume.RegimeLightGas,
			Risk:          plume.RiskDisabling,
		},
		{
			Point:         plume.EvaluationPoint{X: 2000, Y: 100, Z: 1.5},
			Concentration: 1.e-5,
			Units:         plume.ConcUnits,
			Distance:      2002.5,
			Direction:     90,
			Stability:     plume.ClassD,
			Regime:        plume.RegimeLightGas,
			Risk:          plume.RiskNotableDiscomfort,
			Diagnostics: []plume.Diagnostic{
				{Code: plume.DiagDefaultThreshold, Message: "no toxicity threshold"},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "out.geojson")
	if err := s.WriteGeoJSON(ests, path); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var fc struct {
		Type     string
		Features []struct {
			Type     string
			Geometry struct {
				Type        string
				Coordinates []float64
			}
			Properties map[string]interface{}
		}
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Fatalf("got %s with %d features", fc.Type, len(fc.Features))
	}
	f := fc.Features[0]
	if f.Geometry.Type != "Point" {
		t.Errorf("geometry type: got %s", f.Geometry.Type)
	}
	// Wind from 270° carries the plume east, so a downwind point maps
	// east of the source near its latitude.
	lon, lat := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
	if lon <= s.Release.Longitude {
		t.Errorf("downwind point longitude %g should be east of the source %g",
			lon, s.Release.Longitude)
	}
	if math.Abs(lat-s.Release.Latitude) > 0.01 {
		t.Errorf("downwind point latitude %g should be near the source %g",
			lat, s.Release.Latitude)
	}
	if f.Properties["risk"] != plume.RiskDisabling.String() {
		t.Errorf("risk property: got %v", f.Properties["risk"])
	}
	if _, ok := fc.Features[1].Properties["diagnostics"]; !ok {
		t.Error("diagnostics property missing from the second feature")
	}
}

func TestResultIndex(t *testing.T) {
	s := writeTestScenario(t)
	ests := []plume.ConcentrationEstimate{
		{Point: plume.EvaluationPoint{X: 500, Y: 0}, Concentration: 1.e-4, Risk: plume.RiskDisabling},
		{Point: plume.EvaluationPoint{X: 500, Y: 100}, Concentration: 5.e-5, Risk: plume.RiskDisabling},
		{Point: plume.EvaluationPoint{X: 5000, Y: 0}, Concentration: 1.e-6, Risk: plume.RiskSafe},
	}
	ix, err := s.IndexResults(ests)
	if err != nil {
		t.Fatal(err)
	}

	// A window around the source catches the two near-field results
	// but not the one 5 km downwind.
	near := &geom.Bounds{
		Min: geom.Point{X: s.Release.Longitude - 0.02, Y: s.Release.Latitude - 0.02},
		Max: geom.Point{X: s.Release.Longitude + 0.02, Y: s.Release.Latitude + 0.02},
	}
	got := ix.Within(near)
	if len(got) != 2 {
		t.Fatalf("near-field query: got %d results, want 2", len(got))
	}

	worst, ok := ix.WorstWithin(near)
	if !ok {
		t.Fatal("near-field query should find a worst result")
	}
	if worst.Concentration != 1.e-4 {
		t.Errorf("worst result: got concentration %g, want 1e-4", worst.Concentration)
	}

	// An empty window far from the plume finds nothing.
	far := &geom.Bounds{
		Min: geom.Point{X: s.Release.Longitude - 1.0, Y: s.Release.Latitude - 1.0},
		Max: geom.Point{X: s.Release.Longitude - 0.9, Y: s.Release.Latitude - 0.9},
	}
	if _, ok := ix.WorstWithin(far); ok {
		t.Error("empty window should find no results")
	}
}
