package core

// Canonical flag strings specialists attach to AgentOutput.Flags. The
// red-flag derivation matches on these exact values.
const (
	FlagLogicalContradiction = "logical_contradiction"
	FlagMissingCitations     = "missing_citations"
	FlagBotActivity          = "bot_activity"
	FlagCoordinatedCampaign  = "coordinated_campaign"
)

// HasFlag reports whether the output carries the given flag string.
func (o *AgentOutput) HasFlag(flag string) bool {
	if o == nil {
		return false
	}
	for _, f := range o.Flags {
		if f == flag {
			return true
		}
	}
	return false
}
