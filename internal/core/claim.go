package core

import (
	"strings"
	"time"
)

// Severity classifies how damaging a claim would be if it spread unchecked.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity normalizes a severity string. Unknown values map to
// SeverityLow so that intake never rejects a claim over metadata.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityMedium:
		return SeverityMedium
	case SeverityHigh:
		return SeverityHigh
	default:
		return SeverityLow
	}
}

// Platform identifies where a claim originated.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformReddit    Platform = "reddit"
	PlatformFarcaster Platform = "farcaster"
	PlatformOther     Platform = "other"
)

// ParsePlatform normalizes a platform string. Unknown values map to
// PlatformOther.
func ParsePlatform(s string) Platform {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformTwitter:
		return PlatformTwitter
	case PlatformReddit:
		return PlatformReddit
	case PlatformFarcaster:
		return PlatformFarcaster
	default:
		return PlatformOther
	}
}

// Topic categorizes a claim for cohort matching.
type Topic string

const (
	TopicPolitics Topic = "politics"
	TopicHealth   Topic = "health"
	TopicFinance  Topic = "finance"
	TopicTech     Topic = "tech"
	TopicSports   Topic = "sports"
	TopicMisc     Topic = "misc"
)

// ParseTopic normalizes a topic string. Unknown values map to TopicMisc.
func ParseTopic(s string) Topic {
	t := Topic(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TopicPolitics, TopicHealth, TopicFinance, TopicTech, TopicSports:
		return t
	default:
		return TopicMisc
	}
}

// ClaimStatus tracks a claim through its evaluation lifecycle.
type ClaimStatus string

const (
	ClaimStatusPendingAI   ClaimStatus = "pending_ai"
	ClaimStatusAIEvaluated ClaimStatus = "ai_evaluated"
	ClaimStatusNeedsVote   ClaimStatus = "needs_vote"
	ClaimStatusResolved    ClaimStatus = "resolved"
	ClaimStatusDeferred    ClaimStatus = "deferred"
)

// ClaimMetadata is the immutable intake record for a claim.
// It is created once when a claim is submitted and read-only afterward.
type ClaimMetadata struct {
	ID            string     `json:"id"`
	Text          string     `json:"text"`
	Platforms     []Platform `json:"platforms,omitempty"`
	Topic         Topic      `json:"topic,omitempty"`
	Severity      Severity   `json:"severity,omitempty"`
	TimeSensitive bool       `json:"time_sensitive,omitempty"`
	Breaking      bool       `json:"breaking,omitempty"`
	URLs          []string   `json:"urls,omitempty"`
	MediaRefs     []string   `json:"media_refs,omitempty"`
	SubmittedAt   time.Time  `json:"submitted_at"`
}

// HasPlatform reports whether the claim was observed on the given platform.
func (c *ClaimMetadata) HasPlatform(p Platform) bool {
	for _, cp := range c.Platforms {
		if cp == p {
			return true
		}
	}
	return false
}

// EffectiveSeverity returns the claim severity, defaulting unset values to low.
func (c *ClaimMetadata) EffectiveSeverity() Severity {
	if c.Severity == "" {
		return SeverityLow
	}
	return c.Severity
}

// ClaimRecord is the persisted view of a claim: intake metadata plus the
// evaluation artifacts accumulated as it moves through the lifecycle.
type ClaimRecord struct {
	Claim     ClaimMetadata      `json:"claim"`
	Status    ClaimStatus        `json:"status"`
	Outputs   AgentOutputs       `json:"outputs,omitempty"`
	Verdict   *AggregatedVerdict `json:"verdict,omitempty"`
	Routing   *RoutingDecision   `json:"routing,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}
