package core

import "time"

// Route selects how a claim is resolved after AI evaluation.
type Route string

const (
	RouteAIOnly        Route = "ai_only"
	RouteCommunityVote Route = "community_vote"
	RouteDeferArchived Route = "defer_archived"
)

// Urgency grades how quickly a community vote must happen.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// NotificationPriority grades how loudly voters are notified.
type NotificationPriority string

const (
	NotifyLow    NotificationPriority = "low"
	NotifyMedium NotificationPriority = "medium"
	NotifyHigh   NotificationPriority = "high"
)

// ReputationTier is the minimum voter reputation a cohort requires.
// Empty means no reputation filter.
type ReputationTier string

const (
	TierBronze ReputationTier = "bronze"
	TierSilver ReputationTier = "silver"
	TierGold   ReputationTier = "gold"
)

// VoterCohort describes which voters are eligible or preferred for a
// community-vote decision.
type VoterCohort struct {
	Topics            []Topic        `json:"topics,omitempty"`
	Platforms         []Platform     `json:"platforms,omitempty"`
	MinReputationTier ReputationTier `json:"min_reputation_tier,omitempty"`
}

// RoutingDecision is the deterministic routing output for a claim.
// Computed once from the aggregated verdict, claim metadata and flags;
// immutable afterward.
type RoutingDecision struct {
	ClaimID              string               `json:"claim_id"`
	Route                Route                `json:"route"`
	Urgency              Urgency              `json:"urgency"`
	VotingWindowSeconds  int                  `json:"voting_window_seconds"`
	MinVotesRequired     int                  `json:"min_votes_required"`
	TargetVoterCohorts   []VoterCohort        `json:"target_voter_cohorts,omitempty"`
	NotificationPriority NotificationPriority `json:"notification_priority"`
	Reasoning            string               `json:"reasoning"`
	EscalationReasons    []string             `json:"escalation_reasons,omitempty"`
	DecidedAt            time.Time            `json:"decided_at"`
}

// NeedsVote reports whether the decision opens a voting session.
func (d *RoutingDecision) NeedsVote() bool {
	return d.Route == RouteCommunityVote
}

// VotingSession is the persisted record opened when a claim routes to
// community voting.
type VotingSession struct {
	ClaimID          string    `json:"claim_id"`
	RouteReason      string    `json:"route_reason"`
	Urgency          Urgency   `json:"urgency"`
	VotingWindowSecs int       `json:"voting_window_secs"`
	MinVotesRequired int       `json:"min_votes_required"`
	Status           string    `json:"status"` // open, closed, cancelled
	OpenedAt         time.Time `json:"opened_at"`
	ClosesAt         time.Time `json:"closes_at"`
}
