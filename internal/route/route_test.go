package route

import (
	"strings"
	"testing"

	"github.com/factmesh/factmesh/internal/core"
)

func claim(severity core.Severity, topic core.Topic, timeSensitive bool) *core.ClaimMetadata {
	return &core.ClaimMetadata{
		ID:            "claim-1",
		Text:          "a test claim",
		Platforms:     []core.Platform{core.PlatformTwitter},
		Topic:         topic,
		Severity:      severity,
		TimeSensitive: timeSensitive,
	}
}

func verdict(v core.TernaryVerdict, confidence float64) *core.AggregatedVerdict {
	return &core.AggregatedVerdict{Verdict: v, Confidence: confidence, OverallScore: 50}
}

func TestDecideAIOnly(t *testing.T) {
	d := Decide(claim(core.SeverityMedium, core.TopicTech, false),
		verdict(core.VerdictTrue, 0.85), core.AgentFlags{MissingCitations: true})

	if d.Route != core.RouteAIOnly {
		t.Fatalf("Route = %v, want ai_only", d.Route)
	}
	if d.Urgency != core.UrgencyLow {
		t.Errorf("Urgency = %v, want low", d.Urgency)
	}
	if d.NotificationPriority != core.NotifyLow {
		t.Errorf("NotificationPriority = %v, want low", d.NotificationPriority)
	}
	if d.VotingWindowSeconds != 0 || d.MinVotesRequired != 0 || len(d.TargetVoterCohorts) != 0 {
		t.Errorf("ai_only decision carries voting parameters: %+v", d)
	}
	if d.NeedsVote() {
		t.Error("NeedsVote() = true for ai_only")
	}
}

func TestDecideDeferArchived(t *testing.T) {
	d := Decide(claim("", "", false), verdict(core.VerdictUnclear, 0.30), core.AgentFlags{})

	if d.Route != core.RouteDeferArchived {
		t.Fatalf("Route = %v, want defer_archived", d.Route)
	}
	if d.Urgency != core.UrgencyLow {
		t.Errorf("Urgency = %v, want low", d.Urgency)
	}
}

func TestDecideDeferBlockedByTimeSensitivity(t *testing.T) {
	d := Decide(claim(core.SeverityLow, "", true), verdict(core.VerdictUnclear, 0.30), core.AgentFlags{})

	if d.Route != core.RouteCommunityVote {
		t.Fatalf("Route = %v, want community_vote (time-sensitive claims never defer)", d.Route)
	}
	if d.Urgency != core.UrgencyHigh {
		t.Errorf("Urgency = %v, want high", d.Urgency)
	}
	if d.VotingWindowSeconds != 180 {
		t.Errorf("VotingWindowSeconds = %d, want 180", d.VotingWindowSeconds)
	}
}

func TestDecideDeferBlockedBySeverity(t *testing.T) {
	d := Decide(claim(core.SeverityMedium, "", false), verdict(core.VerdictUnclear, 0.30), core.AgentFlags{})

	if d.Route != core.RouteCommunityVote {
		t.Fatalf("Route = %v, want community_vote (medium severity never defers)", d.Route)
	}
}

func TestDecideUnclearGoesToVote(t *testing.T) {
	d := Decide(claim(core.SeverityLow, "", false), verdict(core.VerdictUnclear, 0.60), core.AgentFlags{})

	if d.Route != core.RouteCommunityVote {
		t.Fatalf("Route = %v, want community_vote", d.Route)
	}
	if d.Urgency != core.UrgencyNormal {
		t.Errorf("Urgency = %v, want normal", d.Urgency)
	}
	if d.VotingWindowSeconds != 300 {
		t.Errorf("VotingWindowSeconds = %d, want 300", d.VotingWindowSeconds)
	}
	if d.MinVotesRequired != 15 {
		t.Errorf("MinVotesRequired = %d, want 15 (low severity, normal urgency)", d.MinVotesRequired)
	}
	if d.NotificationPriority != core.NotifyMedium {
		t.Errorf("NotificationPriority = %v, want medium", d.NotificationPriority)
	}
}

func TestDecideRedFlagsForceVote(t *testing.T) {
	flags := core.AgentFlags{HighMediaRisk: true, SuspiciousPropagation: true}
	d := Decide(claim(core.SeverityLow, "", false), verdict(core.VerdictTrue, 0.95), flags)

	if d.Route != core.RouteCommunityVote {
		t.Fatalf("Route = %v, want community_vote (2 red flags)", d.Route)
	}
	if len(d.EscalationReasons) != 2 {
		t.Errorf("EscalationReasons = %v, want 2 labels", d.EscalationReasons)
	}
}

func TestDecideBotCampaignUrgency(t *testing.T) {
	flags := core.AgentFlags{
		LowSourceCredibility:    true,
		SuspiciousPropagation:   true,
		BotActivityDetected:     true,
		CoordinatedCampaign:     true,
		NoProfessionalFactCheck: true,
	}
	d := Decide(claim(core.SeverityMedium, core.TopicPolitics, false),
		verdict(core.VerdictFalse, 0.55), flags)

	if d.Route != core.RouteCommunityVote {
		t.Fatalf("Route = %v, want community_vote", d.Route)
	}
	if d.Urgency != core.UrgencyHigh {
		t.Errorf("Urgency = %v, want high (bot/campaign flags)", d.Urgency)
	}
	if d.MinVotesRequired != 15 {
		t.Errorf("MinVotesRequired = %d, want 15 (medium severity, high urgency)", d.MinVotesRequired)
	}
	if d.NotificationPriority != core.NotifyHigh {
		t.Errorf("NotificationPriority = %v, want high", d.NotificationPriority)
	}
	if len(d.TargetVoterCohorts) != 1 {
		t.Fatalf("cohorts = %+v, want one (medium severity gets no gold cohort)", d.TargetVoterCohorts)
	}
	if d.TargetVoterCohorts[0].MinReputationTier != core.TierSilver {
		t.Errorf("base tier = %v, want silver (5 red flags)", d.TargetVoterCohorts[0].MinReputationTier)
	}
}

func TestDecideGoldCohortForHighSeverityHealth(t *testing.T) {
	flags := core.AgentFlags{
		LowSourceCredibility:  true,
		SuspiciousPropagation: true,
		MissingCitations:      true,
	}
	d := Decide(claim(core.SeverityHigh, core.TopicHealth, false),
		verdict(core.VerdictUnclear, 0.50), flags)

	if d.Route != core.RouteCommunityVote {
		t.Fatalf("Route = %v, want community_vote", d.Route)
	}
	if len(d.TargetVoterCohorts) != 2 {
		t.Fatalf("cohorts = %+v, want two", d.TargetVoterCohorts)
	}
	base, gold := d.TargetVoterCohorts[0], d.TargetVoterCohorts[1]
	if base.MinReputationTier != core.TierSilver {
		t.Errorf("base tier = %v, want silver", base.MinReputationTier)
	}
	if gold.MinReputationTier != core.TierGold {
		t.Errorf("second tier = %v, want gold", gold.MinReputationTier)
	}
	if len(gold.Topics) != 1 || gold.Topics[0] != core.TopicHealth {
		t.Errorf("gold cohort topics = %v, want [health]", gold.Topics)
	}
}

func TestDecideHighSeverityModestConfidence(t *testing.T) {
	// High severity with confidence below 0.90 escalates even when the
	// basic ai_only conditions hold.
	d := Decide(claim(core.SeverityHigh, core.TopicPolitics, false),
		verdict(core.VerdictTrue, 0.85), core.AgentFlags{})

	if d.Route != core.RouteAIOnly {
		// conf 0.85 >= 0.70, verdict TRUE, 0 flags: first rule matches
		// before the severity rule can.
		t.Fatalf("Route = %v, want ai_only (first rule wins)", d.Route)
	}
}

func TestMinVotesTable(t *testing.T) {
	tests := []struct {
		severity core.Severity
		urgency  core.Urgency
		want     int
	}{
		{core.SeverityHigh, core.UrgencyHigh, 20},
		{core.SeverityHigh, core.UrgencyNormal, 25},
		{core.SeverityMedium, core.UrgencyHigh, 15},
		{core.SeverityMedium, core.UrgencyNormal, 20},
		{core.SeverityLow, core.UrgencyHigh, 10},
		{core.SeverityLow, core.UrgencyNormal, 15},
	}
	for _, tt := range tests {
		if got := minVotes(tt.severity, tt.urgency); got != tt.want {
			t.Errorf("minVotes(%v, %v) = %d, want %d", tt.severity, tt.urgency, got, tt.want)
		}
	}
}

func TestVotingWindowTable(t *testing.T) {
	if got := votingWindow(core.UrgencyHigh); got != 180 {
		t.Errorf("high window = %d, want 180", got)
	}
	if got := votingWindow(core.UrgencyNormal); got != 300 {
		t.Errorf("normal window = %d, want 300", got)
	}
	if got := votingWindow(core.UrgencyLow); got != 600 {
		t.Errorf("low window = %d, want 600", got)
	}
}

func TestDecideDeterministic(t *testing.T) {
	c := claim(core.SeverityHigh, core.TopicHealth, true)
	v := verdict(core.VerdictUnclear, 0.55)
	flags := core.AgentFlags{BotActivityDetected: true, HighMediaRisk: true}

	a := Decide(c, v, flags)
	b := Decide(c, v, flags)

	if a.Route != b.Route || a.Urgency != b.Urgency ||
		a.VotingWindowSeconds != b.VotingWindowSeconds ||
		a.MinVotesRequired != b.MinVotesRequired ||
		a.Reasoning != b.Reasoning ||
		len(a.TargetVoterCohorts) != len(b.TargetVoterCohorts) {
		t.Errorf("decisions differ:\n%+v\n%+v", a, b)
	}
}

func TestReasoningCitesInputs(t *testing.T) {
	d := Decide(claim(core.SeverityHigh, core.TopicHealth, true),
		verdict(core.VerdictUnclear, 0.55),
		core.AgentFlags{HighMediaRisk: true, BotActivityDetected: true})

	for _, want := range []string{"community_vote", "UNCLEAR", "0.55", "2 red flags", "high", "time-sensitive"} {
		if !strings.Contains(d.Reasoning, want) {
			t.Errorf("Reasoning = %q, missing %q", d.Reasoning, want)
		}
	}
}

func TestDeriveFlags(t *testing.T) {
	outputs := core.AgentOutputs{
		core.DimensionLogic: {
			Dimension: core.DimensionLogic,
			Verdict:   core.VerdictFalse,
			Flags:     []string{core.FlagLogicalContradiction},
		},
		core.DimensionCredibility: {Dimension: core.DimensionCredibility, Score: 0.2},
		core.DimensionCitation: {
			Dimension:      core.DimensionCitation,
			Score:          0.4,
			FactCheckCount: 0,
			Flags:          []string{core.FlagMissingCitations},
		},
		core.DimensionSocial: {
			Dimension: core.DimensionSocial,
			Score:     0.3,
			Flags:     []string{core.FlagBotActivity},
		},
		core.DimensionMedia: {Dimension: core.DimensionMedia, RiskScore: 72},
		core.DimensionPropagation: {
			Dimension: core.DimensionPropagation,
			RiskScore: 81,
			Flags:     []string{core.FlagCoordinatedCampaign},
		},
	}

	flags := DeriveFlags(outputs)

	if !flags.HighMediaRisk || !flags.SuspiciousPropagation || !flags.LowSourceCredibility ||
		!flags.NoProfessionalFactCheck || !flags.LogicContradictions || !flags.MissingCitations ||
		!flags.BotActivityDetected || !flags.CoordinatedCampaign {
		t.Errorf("DeriveFlags() = %+v, want all eight raised", flags)
	}
	if flags.Count() != 8 {
		t.Errorf("Count() = %d, want 8", flags.Count())
	}
}

func TestDeriveFlagsAbsentSpecialists(t *testing.T) {
	flags := DeriveFlags(core.AgentOutputs{})
	if flags.Count() != 0 {
		t.Errorf("Count() = %d, want 0 for empty outputs", flags.Count())
	}
}

func TestDeriveFlagsThresholds(t *testing.T) {
	outputs := core.AgentOutputs{
		core.DimensionMedia:       {Dimension: core.DimensionMedia, RiskScore: 60},
		core.DimensionPropagation: {Dimension: core.DimensionPropagation, RiskScore: 60},
		core.DimensionCredibility: {Dimension: core.DimensionCredibility, Score: 0.3},
		core.DimensionCitation:    {Dimension: core.DimensionCitation, FactCheckCount: 2},
	}

	flags := DeriveFlags(outputs)

	if flags.HighMediaRisk {
		t.Error("risk exactly 60 must not flag")
	}
	if flags.SuspiciousPropagation {
		t.Error("suspicion exactly 60 must not flag")
	}
	if flags.LowSourceCredibility {
		t.Error("credibility exactly 0.3 must not flag")
	}
	if flags.NoProfessionalFactCheck {
		t.Error("citation with fact checks must not flag")
	}
}
