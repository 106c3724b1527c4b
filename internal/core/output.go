package core

import "time"

// Dimension identifies one of the six specialist evaluation dimensions.
type Dimension string

const (
	DimensionLogic       Dimension = "logic_consistency"
	DimensionCredibility Dimension = "source_credibility"
	DimensionCitation    Dimension = "citation_evidence"
	DimensionSocial      Dimension = "social_evidence"
	DimensionMedia       Dimension = "media_forensics"
	DimensionPropagation Dimension = "propagation_pattern"
)

// Dimensions lists all specialist dimensions in aggregation order.
var Dimensions = []Dimension{
	DimensionLogic,
	DimensionCredibility,
	DimensionCitation,
	DimensionSocial,
	DimensionMedia,
	DimensionPropagation,
}

// TernaryVerdict is the three-way classification used by the logic
// specialist and by the aggregated verdict.
type TernaryVerdict string

const (
	VerdictTrue    TernaryVerdict = "TRUE"
	VerdictFalse   TernaryVerdict = "FALSE"
	VerdictUnclear TernaryVerdict = "UNCLEAR"
)

// SourceRef is a supporting or contradicting source found by a specialist.
type SourceRef struct {
	URL     string  `json:"url"`
	Title   string  `json:"title,omitempty"`
	Stance  string  `json:"stance,omitempty"` // supports, contradicts, neutral
	Quality float64 `json:"quality,omitempty"`
}

// DomainReputation is one reputation-table entry consulted by the
// credibility specialist.
type DomainReputation struct {
	Domain   string  `json:"domain"`
	Score    float64 `json:"score"` // 0-1
	Category string  `json:"category,omitempty"`
}

// AgentOutput is the typed verdict a single specialist produces.
// Absence (nil) means the specialist did not run or failed; every
// downstream consumer must tolerate that.
type AgentOutput struct {
	Dimension   Dimension      `json:"dimension"`
	Score       float64        `json:"score"`             // 0-1, domain meaning varies per specialist
	Confidence  float64        `json:"confidence"`        // 0-1
	Verdict     TernaryVerdict `json:"verdict,omitempty"` // logic specialist only
	Flags       []string       `json:"flags,omitempty"`
	Explanation string         `json:"explanation,omitempty"`

	// Domain evidence payloads. A specialist fills only the ones it owns.
	Supporting        []SourceRef        `json:"supporting,omitempty"`
	Contradicting     []SourceRef        `json:"contradicting,omitempty"`
	Reputations       []DomainReputation `json:"reputations,omitempty"`
	ManipulationTypes []string           `json:"manipulation_types,omitempty"`
	FactCheckCount    int                `json:"fact_check_count,omitempty"`
	RiskScore         float64            `json:"risk_score,omitempty"` // 0-100, media/propagation

	// Degraded marks a fallback output produced after a model failure or
	// unparseable verdict text.
	Degraded    bool      `json:"degraded,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp100 bounds v to [0,100].
func Clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Normalize clamps all continuous fields to their declared ranges.
// Specialists call this before handing an output downstream so that the
// aggregation invariants hold regardless of what the model emitted.
func (o *AgentOutput) Normalize() {
	o.Score = Clamp01(o.Score)
	o.Confidence = Clamp01(o.Confidence)
	o.RiskScore = Clamp100(o.RiskScore)
	switch o.Verdict {
	case VerdictTrue, VerdictFalse, VerdictUnclear, "":
	default:
		o.Verdict = VerdictUnclear
	}
}

// AgentOutputs maps each dimension to its specialist output. Missing keys
// (or nil values) mean the specialist did not run.
type AgentOutputs map[Dimension]*AgentOutput

// Get returns the output for dim, or nil when absent.
func (m AgentOutputs) Get(dim Dimension) *AgentOutput {
	if m == nil {
		return nil
	}
	return m[dim]
}

// Ran reports how many specialists produced an output.
func (m AgentOutputs) Ran() int {
	n := 0
	for _, o := range m {
		if o != nil {
			n++
		}
	}
	return n
}

// AgentFlags is the flattened set of boolean red flags the routing engine
// consumes. Eight flags are known; each true flag contributes one
// escalation reason.
type AgentFlags struct {
	HighMediaRisk           bool `json:"high_media_risk"`
	SuspiciousPropagation   bool `json:"suspicious_propagation"`
	LowSourceCredibility    bool `json:"low_source_credibility"`
	NoProfessionalFactCheck bool `json:"no_professional_fact_check"`
	LogicContradictions     bool `json:"logic_contradictions"`
	MissingCitations        bool `json:"missing_citations"`
	BotActivityDetected     bool `json:"bot_activity_detected"`
	CoordinatedCampaign     bool `json:"coordinated_campaign"`
}

// Count returns the number of raised flags.
func (f AgentFlags) Count() int {
	n := 0
	for _, b := range []bool{
		f.HighMediaRisk, f.SuspiciousPropagation, f.LowSourceCredibility,
		f.NoProfessionalFactCheck, f.LogicContradictions, f.MissingCitations,
		f.BotActivityDetected, f.CoordinatedCampaign,
	} {
		if b {
			n++
		}
	}
	return n
}

// Labels returns the human-readable label for every raised flag, in a
// fixed order so routing output is reproducible.
func (f AgentFlags) Labels() []string {
	var labels []string
	add := func(set bool, label string) {
		if set {
			labels = append(labels, label)
		}
	}
	add(f.HighMediaRisk, "High media manipulation risk")
	add(f.SuspiciousPropagation, "Suspicious propagation pattern")
	add(f.LowSourceCredibility, "Low source credibility")
	add(f.NoProfessionalFactCheck, "No professional fact-checks found")
	add(f.LogicContradictions, "Logical contradictions detected")
	add(f.MissingCitations, "Missing citations")
	add(f.BotActivityDetected, "Bot activity detected")
	add(f.CoordinatedCampaign, "Coordinated campaign indicators")
	return labels
}
