package aggregate

import (
	"fmt"

	"github.com/factmesh/factmesh/internal/core"
)

const (
	highLogicConfidence  = 0.8
	highCredibilityScore = 75.0
	lowCredibilityScore  = 25.0
	skewedSourceCount    = 2
	highRiskScore        = 60.0
	highSuspicionScore   = 60.0
)

// deriveSignals extracts strong signals and warnings from the raw
// specialist outputs. Pure annotation, order-preserving by dimension,
// never affects the score.
func deriveSignals(outputs core.AgentOutputs) (signals, warnings []string) {
	if out := outputs.Get(core.DimensionLogic); out != nil {
		if out.Confidence > highLogicConfidence {
			signals = append(signals, fmt.Sprintf("Logic analysis highly confident (%.2f): verdict %s", out.Confidence, out.Verdict))
		}
	}

	if out := outputs.Get(core.DimensionCredibility); out != nil {
		score := core.Clamp100(out.Score * 100)
		if score > highCredibilityScore {
			signals = append(signals, fmt.Sprintf("Sources highly credible (%.0f/100)", score))
		} else if score < lowCredibilityScore {
			signals = append(signals, fmt.Sprintf("Sources poorly credible (%.0f/100)", score))
		}
	}

	if out := outputs.Get(core.DimensionCitation); out != nil {
		supporting := len(out.Supporting)
		contradicting := len(out.Contradicting)
		if supporting > skewedSourceCount && supporting > 2*contradicting {
			signals = append(signals, fmt.Sprintf("Evidence skews supporting (%d supporting vs %d contradicting)", supporting, contradicting))
		} else if contradicting > skewedSourceCount && contradicting > 2*supporting {
			signals = append(signals, fmt.Sprintf("Evidence skews contradicting (%d contradicting vs %d supporting)", contradicting, supporting))
		}
	}

	if out := outputs.Get(core.DimensionPropagation); out != nil && out.RiskScore > highSuspicionScore {
		warnings = append(warnings, fmt.Sprintf("Suspicious propagation pattern (suspicion %.0f/100)", out.RiskScore))
	}

	if out := outputs.Get(core.DimensionMedia); out != nil && out.RiskScore > highRiskScore {
		warnings = append(warnings, fmt.Sprintf("High media manipulation risk (%.0f/100)", out.RiskScore))
	}

	for _, dim := range core.Dimensions {
		out := outputs.Get(dim)
		if out == nil || len(out.Flags) == 0 {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("%s raised %d issue flags", dim, len(out.Flags)))
	}

	return signals, warnings
}
