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

// Package plumeutil holds configuration, scenario handling, and
// output formatting for the Plume dispersion model, as used by the
// plume command-line program.
package plumeutil

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/plume"
)

// ScenarioSpec describes one modeling scenario, as decoded from a
// TOML scenario file.
type ScenarioSpec struct {
	// ChemicalDB is the path of the chemical property database.
	ChemicalDB string

	// Chemical is the name of the released chemical, which must
	// exist in the database.
	Chemical string

	Release   ReleaseSpec
	Weather   WeatherSpec
	Receptors []ReceptorSpec
	Grid      GridSpec

	// OutputFile is the path the GeoJSON results are written to.
	OutputFile string
}

// ReleaseSpec locates and quantifies the release.
type ReleaseSpec struct {
	Longitude, Latitude float64 // [degrees]
	Height              float64 // [m]
	Type                string  // continuous, instantaneous, or variable
	Rate                float64 // [kg/s]
	Mass                float64 // [kg]
	Duration            float64 // [s]; 0 means open-ended
	Temperature         float64 // [K]; 0 means ambient
	Pressure            float64 // [Pa]; 0 means ambient

	StackDiameter float64 // [m]
	StackVelocity float64 // [m/s]
	StackTemp     float64 // [K]
}

// WeatherSpec is the weather observation for the scenario.
type WeatherSpec struct {
	WindSpeed        float64 // [m/s]
	WindDirection    float64 // [degrees]
	Temperature      float64 // [°C]
	Pressure         float64 // [hPa]
	CloudCover       float64 // fraction 0–1; negative means unknown
	SolarInsolation  float64 // [W/m²]; negative means unknown
	MixingHeight     float64 // [m]
	SurfaceRoughness float64 // [m]
	OverWater        bool
	StabilityClass   string // A–F, or empty to derive
}

// ReceptorSpec is a geographic receptor location.
type ReceptorSpec struct {
	Longitude, Latitude float64 // [degrees]
	Height              float64 // [m above ground]
}

// GridSpec configures grid evaluation.
type GridSpec struct {
	Spacing     float64 // [m]
	MaxDistance float64 // [m]
}

// LoadScenario reads a scenario specification from a TOML file.
// Cloud cover and insolation default to unknown when the file omits
// them.
func LoadScenario(path string) (*ScenarioSpec, error) {
	s := &ScenarioSpec{
		Weather: WeatherSpec{CloudCover: -1, SolarInsolation: -1},
		Grid:    GridSpec{Spacing: 100, MaxDistance: 5000},
	}
	if _, err := toml.DecodeFile(path, s); err != nil {
		return nil, fmt.Errorf("plumeutil: decoding scenario file %s: %v", path, err)
	}
	return s, nil
}

// chemicalRecord is one entry in the TOML chemical database.
type chemicalRecord struct {
	Name            string
	MolecularWeight float64 // [g/mol]
	Density         float64 // [kg/m³]
	Threshold       float64 // disabling concentration [kg/m³]; 0 means unknown
}

type chemicalDB struct {
	Chemical []chemicalRecord
}

// LoadChemicals reads the TOML chemical property database at path,
// returning the chemicals keyed by name.
func LoadChemicals(path string) (map[string]*plume.Chemical, error) {
	var db chemicalDB
	if _, err := toml.DecodeFile(path, &db); err != nil {
		return nil, fmt.Errorf("plumeutil: decoding chemical database %s: %v", path, err)
	}
	out := make(map[string]*plume.Chemical, len(db.Chemical))
	for _, rec := range db.Chemical {
		c := &plume.Chemical{
			Name:            rec.Name,
			MolecularWeight: rec.MolecularWeight,
			Density:         rec.Density,
		}
		if rec.Threshold > 0 {
			c.Threshold = concUnit(rec.Threshold)
		}
		out[rec.Name] = c
	}
	return out, nil
}

// Inputs converts the scenario specification into the records the
// dispersion engine consumes.
func (s *ScenarioSpec) Inputs() (*plume.Release, *plume.Chemical, *plume.WeatherObservation, error) {
	chems, err := LoadChemicals(s.ChemicalDB)
	if err != nil {
		return nil, nil, nil, err
	}
	chem, ok := chems[s.Chemical]
	if !ok {
		return nil, nil, nil, fmt.Errorf("plumeutil: chemical %q is not in database %s",
			s.Chemical, s.ChemicalDB)
	}

	rel := &plume.Release{
		Location:      geom.Point{X: s.Release.Longitude, Y: s.Release.Latitude},
		Height:        s.Release.Height,
		Rate:          s.Release.Rate,
		Mass:          s.Release.Mass,
		Start:         time.Now(),
		Temperature:   s.Release.Temperature,
		Pressure:      s.Release.Pressure,
		StackDiameter: s.Release.StackDiameter,
		StackVelocity: s.Release.StackVelocity,
		StackTemp:     s.Release.StackTemp,
	}
	switch s.Release.Type {
	case "", "continuous":
		rel.Type = plume.Continuous
	case "instantaneous":
		rel.Type = plume.Instantaneous
	case "variable":
		rel.Type = plume.Variable
	default:
		return nil, nil, nil, fmt.Errorf("plumeutil: unknown release type %q", s.Release.Type)
	}
	if s.Release.Duration > 0 {
		rel.End = rel.Start.Add(time.Duration(s.Release.Duration * float64(time.Second)))
	}

	w := &plume.WeatherObservation{
		WindSpeed:        s.Weather.WindSpeed,
		WindDirection:    s.Weather.WindDirection,
		Temperature:      s.Weather.Temperature,
		Pressure:         s.Weather.Pressure,
		CloudCover:       s.Weather.CloudCover,
		SolarInsolation:  s.Weather.SolarInsolation,
		MixingHeight:     s.Weather.MixingHeight,
		SurfaceRoughness: s.Weather.SurfaceRoughness,
		OverWater:        s.Weather.OverWater,
	}
	if s.Weather.StabilityClass != "" {
		w.Stability, err = plume.ParseStabilityClass(s.Weather.StabilityClass)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return rel, chem, w, nil
}

// localProjection returns forward and inverse transforms between
// WGS84 longitude/latitude and a transverse Mercator plane centered
// on the source, in meters.
func localProjection(lon, lat float64) (forward, inverse proj.Transformer, err error) {
	src, err := proj.Parse("+proj=longlat +datum=WGS84")
	if err != nil {
		return nil, nil, err
	}
	dst, err := proj.Parse(fmt.Sprintf(
		"+proj=tmerc +lat_0=%g +lon_0=%g +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m",
		lat, lon))
	if err != nil {
		return nil, nil, err
	}
	forward, err = src.NewTransform(dst)
	if err != nil {
		return nil, nil, err
	}
	inverse, err = dst.NewTransform(src)
	if err != nil {
		return nil, nil, err
	}
	return forward, inverse, nil
}

// downwindRad converts the direction the wind blows from [degrees]
// to the compass bearing of plume travel [radians].
func downwindRad(windFrom float64) float64 {
	return (windFrom + 180.) * math.Pi / 180.
}

// ReceptorPoints resolves the scenario's geographic receptors to
// plume coordinates: downwind and crosswind distances from the
// source, aligned with the wind direction.
func (s *ScenarioSpec) ReceptorPoints() ([]plume.EvaluationPoint, error) {
	forward, _, err := localProjection(s.Release.Longitude, s.Release.Latitude)
	if err != nil {
		return nil, err
	}
	theta := downwindRad(s.Weather.WindDirection)
	sinT, cosT := math.Sin(theta), math.Cos(theta)

	pts := make([]plume.EvaluationPoint, len(s.Receptors))
	for i, r := range s.Receptors {
		east, north, err := forward(r.Longitude, r.Latitude)
		if err != nil {
			return nil, fmt.Errorf("plumeutil: projecting receptor %d: %v", i, err)
		}
		// Rotate the local east/north offsets into plume
		// coordinates.
		pts[i] = plume.EvaluationPoint{
			X: east*sinT + north*cosT,
			Y: east*cosT - north*sinT,
			Z: r.Height,
		}
	}
	return pts, nil
}

// plumeToGeographic converts a point in plume coordinates back to
// longitude/latitude using the inverse of the receptor projection.
func plumeToGeographic(p plume.EvaluationPoint, theta float64, inverse proj.Transformer) (geom.Point, error) {
	sinT, cosT := math.Sin(theta), math.Cos(theta)
	east := p.X*sinT + p.Y*cosT
	north := p.X*cosT - p.Y*sinT
	lon, lat, err := inverse(east, north)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Point{X: lon, Y: lat}, nil
}

// fileExists reports whether path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
