package route

import "github.com/factmesh/factmesh/internal/core"

const (
	mediaRiskFlagThreshold   = 60.0
	propagationFlagThreshold = 60.0
	lowCredibilityThreshold  = 0.3
)

// DeriveFlags flattens the specialist outputs into the eight boolean
// red flags the route rules consume. Absent specialists raise nothing.
func DeriveFlags(outputs core.AgentOutputs) core.AgentFlags {
	var flags core.AgentFlags

	if out := outputs.Get(core.DimensionMedia); out != nil {
		flags.HighMediaRisk = out.RiskScore > mediaRiskFlagThreshold
	}
	if out := outputs.Get(core.DimensionPropagation); out != nil {
		flags.SuspiciousPropagation = out.RiskScore > propagationFlagThreshold
	}
	if out := outputs.Get(core.DimensionCredibility); out != nil {
		flags.LowSourceCredibility = out.Score < lowCredibilityThreshold
	}
	if out := outputs.Get(core.DimensionCitation); out != nil {
		flags.NoProfessionalFactCheck = out.FactCheckCount == 0
		flags.MissingCitations = out.HasFlag(core.FlagMissingCitations)
	}
	if out := outputs.Get(core.DimensionLogic); out != nil {
		flags.LogicContradictions = out.HasFlag(core.FlagLogicalContradiction)
	}

	// Bot and campaign indicators may surface from either the social or
	// the propagation specialist.
	for _, dim := range []core.Dimension{core.DimensionSocial, core.DimensionPropagation} {
		out := outputs.Get(dim)
		if out.HasFlag(core.FlagBotActivity) {
			flags.BotActivityDetected = true
		}
		if out.HasFlag(core.FlagCoordinatedCampaign) {
			flags.CoordinatedCampaign = true
		}
	}

	return flags
}
