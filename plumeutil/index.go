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
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/spatialmodel/plume"
)

// ResultIndex is a spatial index over geographically located
// concentration estimates, for answering "what is the exposure
// around this place" queries against a finished evaluation.
type ResultIndex struct {
	tree *rtree.Rtree
}

type indexedResult struct {
	geom.Point
	estimate plume.ConcentrationEstimate
}

// IndexResults projects the estimates back to geographic coordinates
// and builds a spatial index over them.
func (s *ScenarioSpec) IndexResults(ests []plume.ConcentrationEstimate) (*ResultIndex, error) {
	_, inverse, err := localProjection(s.Release.Longitude, s.Release.Latitude)
	if err != nil {
		return nil, err
	}
	theta := downwindRad(s.Weather.WindDirection)

	tree := rtree.NewTree(25, 50)
	for _, est := range ests {
		pt, err := plumeToGeographic(est.Point, theta, inverse)
		if err != nil {
			return nil, err
		}
		tree.Insert(&indexedResult{Point: pt, estimate: est})
	}
	return &ResultIndex{tree: tree}, nil
}

// Within returns the estimates located inside the given
// longitude/latitude bounds.
func (ix *ResultIndex) Within(b *geom.Bounds) []plume.ConcentrationEstimate {
	var out []plume.ConcentrationEstimate
	for _, item := range ix.tree.SearchIntersect(b) {
		out = append(out, item.(*indexedResult).estimate)
	}
	return out
}

// WorstWithin returns the highest-risk estimate inside the bounds,
// breaking ties by concentration. The second return is false when no
// estimate falls inside the bounds.
func (ix *ResultIndex) WorstWithin(b *geom.Bounds) (plume.ConcentrationEstimate, bool) {
	var worst plume.ConcentrationEstimate
	found := false
	for _, est := range ix.Within(b) {
		if !found || est.Risk > worst.Risk ||
			(est.Risk == worst.Risk && est.Concentration > worst.Concentration) {
			worst = est
			found = true
		}
	}
	return worst, found
}
