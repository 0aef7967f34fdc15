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
	"time"
)

// StabilityClass is a Pasquill-Gifford-Turner atmospheric stability
// class, from ClassA (very unstable) to ClassF (very stable).
type StabilityClass int

const (
	// ClassUnknown means the stability class has not been observed
	// or derived yet.
	ClassUnknown StabilityClass = iota
	ClassA
	ClassB
	ClassC
	ClassD
	ClassE
	ClassF
)

func (s StabilityClass) String() string {
	switch s {
	case ClassA:
		return "A"
	case ClassB:
		return "B"
	case ClassC:
		return "C"
	case ClassD:
		return "D"
	case ClassE:
		return "E"
	case ClassF:
		return "F"
	default:
		return "unknown"
	}
}

// ParseStabilityClass converts a stability letter A–F to a
// StabilityClass.
func ParseStabilityClass(s string) (StabilityClass, error) {
	switch s {
	case "A", "a":
		return ClassA, nil
	case "B", "b":
		return ClassB, nil
	case "C", "c":
		return ClassC, nil
	case "D", "d":
		return ClassD, nil
	case "E", "e":
		return ClassE, nil
	case "F", "f":
		return ClassF, nil
	default:
		return ClassUnknown, fmt.Errorf("plume: invalid stability class %q", s)
	}
}

// Solar insolation band thresholds [W/m²] for the daytime
// classification (Turner 1970).
const (
	insolationStrong   = 851.
	insolationModerate = 526.
	insolationSlight   = 176.
)

// windBin returns the index of the wind speed bin used by the
// stability lookup tables: <2, 2–3, 3–5, 5–6, ≥6 m/s.
func windBin(windSpeed float64) int {
	switch {
	case windSpeed < 2:
		return 0
	case windSpeed < 3:
		return 1
	case windSpeed < 5:
		return 2
	case windSpeed < 6:
		return 3
	default:
		return 4
	}
}

// dayTable maps [insolation band][wind speed bin] to a stability
// class for daytime conditions. Where the Pasquill reference table
// allows a pair of classes (e.g. A–B) the more stable of the two is
// used. Bands are indexed strong, moderate, slight, none.
var dayTable = [4][5]StabilityClass{
	{ClassA, ClassB, ClassB, ClassC, ClassC}, // strong insolation
	{ClassB, ClassB, ClassC, ClassD, ClassD}, // moderate
	{ClassB, ClassC, ClassC, ClassD, ClassD}, // slight
	{ClassD, ClassD, ClassD, ClassD, ClassD}, // none (overcast day)
}

// nightTable maps [cloudy][wind speed bin] to a stability class for
// nighttime conditions, where cloudy means cloud cover > 50%.
var nightTable = [2][5]StabilityClass{
	{ClassF, ClassF, ClassE, ClassD, ClassD}, // clear or lightly clouded
	{ClassE, ClassE, ClassD, ClassD, ClassD}, // cloudy
}

// ClassifyStability derives a Pasquill-Gifford-Turner stability class
// from surface weather. windSpeed is the 10 m wind speed [m/s],
// cloudCover is the cloud cover fraction (0–1), and insolation is the
// incoming solar radiation [W/m²] (ignored at night). The
// classification is deterministic: over water the atmosphere is
// always taken as slightly stable (E) because of the suppressed
// convection there, and cloud cover above 50% forces neutral (D)
// conditions regardless of the time of day.
func ClassifyStability(windSpeed, cloudCover, insolation float64, daytime, overWater bool) StabilityClass {
	if overWater {
		return ClassE
	}
	if cloudCover > 0.5 {
		return ClassD
	}
	bin := windBin(windSpeed)
	if daytime {
		var band int
		switch {
		case insolation > insolationStrong:
			band = 0
		case insolation > insolationModerate:
			band = 1
		case insolation > insolationSlight:
			band = 2
		default:
			band = 3
		}
		return dayTable[band][bin]
	}
	cloudy := 0
	if cloudCover > 0.5 {
		cloudy = 1
	}
	return nightTable[cloudy][bin]
}

// minSolarAltitude is the solar altitude [radians] below which
// insolation is taken as zero (~0.1°).
const minSolarAltitude = 0.1 * math.Pi / 180.

// SolarAltitude returns the altitude of the sun above the horizon
// [radians] at latitude lat [degrees] and time t, using the
// day-of-year solar declination and the hour angle of local solar
// time.
func SolarAltitude(lat float64, t time.Time) float64 {
	decl := 23.45 * math.Pi / 180. *
		math.Sin(2*math.Pi*float64(284+t.YearDay())/365.)
	hour := float64(t.Hour()) + float64(t.Minute())/60.
	hourAngle := 15. * math.Pi / 180. * (hour - 12.)
	latR := lat * math.Pi / 180.
	sinAlt := math.Sin(latR)*math.Sin(decl) +
		math.Cos(latR)*math.Cos(decl)*math.Cos(hourAngle)
	return math.Asin(sinAlt)
}

// Insolation estimates the incoming solar radiation [W/m²] at
// latitude lat [degrees] and time t given the cloud cover fraction
// (0–1), for use when no measured insolation is available. The clear
// sky value 1100·sin(altitude) is attenuated by 71% of the cloud
// cover, and the result is zero whenever the sun is at or below the
// horizon.
func Insolation(lat float64, t time.Time, cloudCover float64) float64 {
	alt := SolarAltitude(lat, t)
	if alt <= minSolarAltitude {
		return 0
	}
	if cloudCover < 0 {
		cloudCover = 0
	}
	i := 1100. * math.Sin(alt) * (1. - 0.71*cloudCover)
	return math.Max(i, 0)
}
