// Package route decides how an evaluated claim is resolved: accepted as
// AI-only, escalated to a community vote, or deferred to the archive.
// Decide is a pure function of its three inputs.
package route

import (
	"fmt"
	"strings"
	"time"

	"github.com/factmesh/factmesh/internal/core"
)

const (
	// Confidence thresholds for route selection.
	aiOnlyConfidence  = 0.70
	deferConfidence   = 0.40
	highSevConfidence = 0.90

	// Red-flag counts for escalation.
	aiOnlyMaxFlags    = 1
	voteFlagThreshold = 2
	silverFlagCount   = 3
	bronzeFlagCount   = 2
)

// Voting windows in seconds, fixed lookup by urgency.
const (
	windowHighSecs   = 180
	windowNormalSecs = 300
	windowLowSecs    = 600
)

// Decide computes the routing decision for an evaluated claim. It is
// deterministic: identical inputs always produce the identical decision
// apart from the DecidedAt timestamp.
func Decide(claim *core.ClaimMetadata, verdict *core.AggregatedVerdict, flags core.AgentFlags) *core.RoutingDecision {
	redFlags := flags.Count()
	severity := core.SeverityLow
	timeSensitive := false
	if claim != nil {
		severity = claim.EffectiveSeverity()
		timeSensitive = claim.TimeSensitive || claim.Breaking
	}

	route := selectRoute(verdict, severity, timeSensitive, redFlags)
	urgency := selectUrgency(route, severity, timeSensitive, flags)

	d := &core.RoutingDecision{
		Route:                route,
		Urgency:              urgency,
		NotificationPriority: notificationPriority(route, urgency, severity),
		Reasoning:            reasoning(route, verdict, severity, timeSensitive, redFlags),
		EscalationReasons:    flags.Labels(),
		DecidedAt:            time.Now().UTC(),
	}
	if claim != nil {
		d.ClaimID = claim.ID
	}

	if route == core.RouteCommunityVote {
		d.VotingWindowSeconds = votingWindow(urgency)
		d.MinVotesRequired = minVotes(severity, urgency)
		d.TargetVoterCohorts = voterCohorts(claim, severity, redFlags)
	}
	return d
}

// selectRoute applies the route rules in order; the first match wins.
func selectRoute(verdict *core.AggregatedVerdict, severity core.Severity, timeSensitive bool, redFlags int) core.Route {
	conf := verdict.Confidence
	unclear := verdict.Verdict == core.VerdictUnclear

	switch {
	case conf >= aiOnlyConfidence && !unclear && redFlags <= aiOnlyMaxFlags:
		return core.RouteAIOnly
	case conf < deferConfidence && unclear && severity == core.SeverityLow && !timeSensitive:
		return core.RouteDeferArchived
	case conf < aiOnlyConfidence || unclear || redFlags >= voteFlagThreshold:
		return core.RouteCommunityVote
	case severity == core.SeverityHigh && conf < highSevConfidence:
		return core.RouteCommunityVote
	default:
		return core.RouteAIOnly
	}
}

func selectUrgency(route core.Route, severity core.Severity, timeSensitive bool, flags core.AgentFlags) core.Urgency {
	if route != core.RouteCommunityVote {
		return core.UrgencyLow
	}
	if timeSensitive || severity == core.SeverityHigh || flags.CoordinatedCampaign || flags.BotActivityDetected {
		return core.UrgencyHigh
	}
	return core.UrgencyNormal
}

func votingWindow(urgency core.Urgency) int {
	switch urgency {
	case core.UrgencyHigh:
		return windowHighSecs
	case core.UrgencyNormal:
		return windowNormalSecs
	default:
		return windowLowSecs
	}
}

// minVotes looks up the vote quota by (severity, urgency). High urgency
// narrows the window, so it tolerates a lower quota than normal urgency.
func minVotes(severity core.Severity, urgency core.Urgency) int {
	high := urgency == core.UrgencyHigh
	switch severity {
	case core.SeverityHigh:
		if high {
			return 20
		}
		return 25
	case core.SeverityMedium:
		if high {
			return 15
		}
		return 20
	default:
		if high {
			return 10
		}
		return 15
	}
}

// voterCohorts builds the ordered cohort list for a community vote: one
// base cohort scoped to the claim's topic and platforms with an
// escalating reputation floor, plus a gold-tier cohort for high-severity
// health or politics claims.
func voterCohorts(claim *core.ClaimMetadata, severity core.Severity, redFlags int) []core.VoterCohort {
	base := core.VoterCohort{}
	var topic core.Topic
	if claim != nil {
		topic = claim.Topic
		if topic != "" {
			base.Topics = []core.Topic{topic}
		}
		base.Platforms = claim.Platforms
	}

	switch {
	case severity == core.SeverityHigh || redFlags >= silverFlagCount:
		base.MinReputationTier = core.TierSilver
	case redFlags >= bronzeFlagCount:
		base.MinReputationTier = core.TierBronze
	}

	cohorts := []core.VoterCohort{base}
	if severity == core.SeverityHigh && (topic == core.TopicHealth || topic == core.TopicPolitics) {
		cohorts = append(cohorts, core.VoterCohort{
			Topics:            []core.Topic{topic},
			MinReputationTier: core.TierGold,
		})
	}
	return cohorts
}

func notificationPriority(route core.Route, urgency core.Urgency, severity core.Severity) core.NotificationPriority {
	if route != core.RouteCommunityVote {
		return core.NotifyLow
	}
	switch {
	case urgency == core.UrgencyHigh || severity == core.SeverityHigh:
		return core.NotifyHigh
	case urgency == core.UrgencyNormal:
		return core.NotifyMedium
	default:
		return core.NotifyLow
	}
}

// reasoning renders the templated sentence citing the conditions that
// drove the route. Reproducible from the same inputs.
func reasoning(route core.Route, verdict *core.AggregatedVerdict, severity core.Severity, timeSensitive bool, redFlags int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Routed to %s: verdict %s at confidence %.2f with %d red flags, severity %s",
		route, verdict.Verdict, verdict.Confidence, redFlags, severity)
	if timeSensitive {
		b.WriteString(", time-sensitive")
	}
	b.WriteByte('.')
	return b.String()
}
