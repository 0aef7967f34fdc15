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
	"fmt"
	"os"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
	"github.com/spatialmodel/plume"
)

// concUnit wraps a concentration value [kg/m³] in its unit type.
func concUnit(v float64) *unit.Unit {
	return unit.New(v, unit.KilogramPerMeter3)
}

// feature and featureCollection wrap geometries for GeoJSON output.
type feature struct {
	Type       string                 `json:"type"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// WriteGeoJSON writes the concentration estimates as a GeoJSON
// FeatureCollection of points in WGS84 coordinates, with the
// concentration, risk tier, regime, and any diagnostics attached as
// feature properties.
func (s *ScenarioSpec) WriteGeoJSON(ests []plume.ConcentrationEstimate, path string) error {
	_, inverse, err := localProjection(s.Release.Longitude, s.Release.Latitude)
	if err != nil {
		return err
	}
	theta := downwindRad(s.Weather.WindDirection)

	fc := featureCollection{Type: "FeatureCollection"}
	for _, est := range ests {
		pt, err := plumeToGeographic(est.Point, theta, inverse)
		if err != nil {
			return fmt.Errorf("plumeutil: unprojecting result point %v: %v", est.Point, err)
		}
		g, err := geojson.ToGeoJSON(pt)
		if err != nil {
			return err
		}
		props := map[string]interface{}{
			"concentration": est.Concentration,
			"units":         est.Units,
			"distance":      est.Distance,
			"direction":     est.Direction,
			"stability":     est.Stability.String(),
			"regime":        est.Regime.String(),
			"risk":          est.Risk.String(),
		}
		if len(est.Diagnostics) > 0 {
			msgs := make([]string, len(est.Diagnostics))
			for i, d := range est.Diagnostics {
				msgs[i] = d.Message
			}
			props["diagnostics"] = msgs
		}
		fc.Features = append(fc.Features, feature{
			Type:       "Feature",
			Geometry:   g,
			Properties: props,
		})
	}

	b, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("plumeutil: writing results to %s: %v", path, err)
	}
	return nil
}

// Raster assembles grid evaluation results into a dense
// concentration array with dimensions [downwind][crosswind],
// suitable for contouring or export. Culled cells are zero.
func (s *ScenarioSpec) Raster(ests []plume.ConcentrationEstimate) (*sparse.DenseArray, error) {
	spacing := s.Grid.Spacing
	if spacing <= 0 {
		return nil, fmt.Errorf("plumeutil: grid spacing must be positive (got %g)", spacing)
	}
	nx := int(s.Grid.MaxDistance / spacing)
	ny := int(s.Grid.MaxDistance / 2. / spacing)
	a := sparse.ZerosDense(nx, 2*ny+1)
	for _, est := range ests {
		i := int(est.Point.X/spacing+0.5) - 1
		j := int(est.Point.Y/spacing+0.5) + ny
		if est.Point.Y < 0 {
			j = ny - int(-est.Point.Y/spacing+0.5)
		}
		if i < 0 || i >= nx || j < 0 || j >= 2*ny+1 {
			continue
		}
		a.Set(est.Concentration, i, j)
	}
	return a, nil
}

// ResultSummary holds aggregate statistics over a set of estimates.
type ResultSummary struct {
	Count     int
	Mean, Max float64
	StdDev    float64
	AboveSafe int // points above the safe tier
	Disabling int // points at or above the disabling tier
}

// Summarize computes aggregate statistics over the estimates.
func Summarize(ests []plume.ConcentrationEstimate) ResultSummary {
	var d stats.Stats
	var sum ResultSummary
	for _, est := range ests {
		d.Update(est.Concentration)
		if est.Risk > plume.RiskSafe {
			sum.AboveSafe++
		}
		if est.Risk >= plume.RiskDisabling {
			sum.Disabling++
		}
	}
	sum.Count = d.Count()
	if sum.Count > 0 {
		sum.Mean = d.Mean()
		sum.Max = d.Max()
	}
	if sum.Count > 1 {
		sum.StdDev = d.SampleStandardDeviation()
	}
	return sum
}

func (r ResultSummary) String() string {
	return fmt.Sprintf("%d points: mean %.3g kg/m³, max %.3g kg/m³, "+
		"σ %.3g, %d above safe, %d disabling or worse",
		r.Count, r.Mean, r.Max, r.StdDev, r.AboveSafe, r.Disabling)
}
