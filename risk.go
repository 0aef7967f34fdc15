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

// RiskTier buckets a concentration into an AEGL-style exposure
// severity level. Tiers are ordered: a higher tier always means a
// more severe exposure.
type RiskTier int

const (
	RiskSafe RiskTier = iota
	RiskDetectable
	RiskNotableDiscomfort
	RiskDisabling
	RiskLifeThreatening
)

func (r RiskTier) String() string {
	switch r {
	case RiskSafe:
		return "safe"
	case RiskDetectable:
		return "detectable"
	case RiskNotableDiscomfort:
		return "notable discomfort"
	case RiskDisabling:
		return "disabling"
	case RiskLifeThreatening:
		return "life-threatening"
	default:
		return "unknown"
	}
}

// defaultThreshold is the disabling-exposure concentration [kg/m³]
// assumed for chemicals without a toxicity threshold (1 mg/m³).
const defaultThreshold = 1.e-6

// Tier boundaries as ratios of the concentration to the chemical's
// disabling threshold.
const (
	ratioLifeThreatening   = 10.
	ratioDisabling         = 1.
	ratioNotableDiscomfort = 0.1
	ratioDetectable        = 0.01
)

// classifyRisk buckets a concentration [kg/m³] against the
// chemical's toxicity threshold. The result is monotonic in
// concentration. When the chemical has no threshold the default is
// used and a diagnostic reports it.
func classifyRisk(conc float64, chem *Chemical) (RiskTier, []Diagnostic) {
	threshold := defaultThreshold
	var diags []Diagnostic
	if chem != nil && chem.Threshold != nil && chem.Threshold.Value() > 0 {
		threshold = chem.Threshold.Value()
	} else {
		diags = []Diagnostic{{
			Code: DiagDefaultThreshold,
			Message: "chemical has no toxicity threshold; " +
				"risk tiers use the default threshold of 1 mg/m³",
		}}
	}
	ratio := conc / threshold
	var tier RiskTier
	switch {
	case ratio >= ratioLifeThreatening:
		tier = RiskLifeThreatening
	case ratio >= ratioDisabling:
		tier = RiskDisabling
	case ratio >= ratioNotableDiscomfort:
		tier = RiskNotableDiscomfort
	case ratio >= ratioDetectable:
		tier = RiskDetectable
	default:
		tier = RiskSafe
	}
	return tier, diags
}

// ClassifyRisk buckets a concentration [kg/m³] into one of five
// ordered exposure severity tiers based on its ratio to the
// chemical's toxicity threshold.
func (e *Engine) ClassifyRisk(conc float64, chem *Chemical) RiskTier {
	tier, _ := classifyRisk(conc, chem)
	return tier
}
