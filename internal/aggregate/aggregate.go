// Package aggregate merges the available specialist outputs into one
// AggregatedVerdict: per-dimension scores, a weighted overall score, a
// shaped confidence, derived signals and a prose explanation.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/factmesh/factmesh/internal/core"
)

const (
	// ThresholdTrue and ThresholdFalse classify the overall score.
	// Fixed constants, not configuration.
	ThresholdTrue  = 70.0
	ThresholdFalse = 30.0

	// NeutralScore is the dimension score used when a specialist did
	// not run.
	NeutralScore = 50.0

	// NeutralConfidence is used when no specialist ran at all.
	NeutralConfidence = 0.5

	// confidenceAgentWeight and confidenceExtremenessWeight blend the
	// agent-confidence average with how far the overall score sits from
	// the midpoint.
	confidenceAgentWeight       = 0.7
	confidenceExtremenessWeight = 0.3
)

// DefaultWeights returns the default dimension weight vector. The
// entries sum to 1.0.
func DefaultWeights() map[core.Dimension]float64 {
	return map[core.Dimension]float64{
		core.DimensionLogic:       0.25,
		core.DimensionCredibility: 0.30,
		core.DimensionCitation:    0.25,
		core.DimensionSocial:      0.05,
		core.DimensionMedia:       0.10,
		core.DimensionPropagation: 0.05,
	}
}

// MergeWeights applies caller overrides on top of the defaults. An
// override replaces its entry outright; the remaining weights are NOT
// renormalized, so a caller supplying large overrides can push the
// overall score outside the usual envelope. Kept as-is intentionally.
func MergeWeights(overrides map[core.Dimension]float64) map[core.Dimension]float64 {
	weights := DefaultWeights()
	for dim, w := range overrides {
		if _, known := weights[dim]; known {
			weights[dim] = w
		}
	}
	return weights
}

// Aggregator computes aggregated verdicts. The scoring and
// classification steps are pure; only the explanation delegates to the
// generative collaborator.
type Aggregator struct {
	explainer core.ExplanationGenerator
	logger    *slog.Logger
}

// New creates an aggregator. explainer may be nil, in which case the
// deterministic template is always used.
func New(explainer core.ExplanationGenerator, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{explainer: explainer, logger: logger}
}

// Aggregate merges whatever specialist outputs are present. Any subset,
// including the empty set, yields a valid verdict.
func (a *Aggregator) Aggregate(ctx context.Context, claim *core.ClaimMetadata, outputs core.AgentOutputs, weightOverrides map[core.Dimension]float64) *core.AggregatedVerdict {
	weights := MergeWeights(weightOverrides)
	dims := DimensionScores(outputs)

	overall := 0.0
	for _, dim := range core.Dimensions {
		overall += dims[dim] * weights[dim]
	}
	overall = core.Clamp100(overall)

	verdict := Classify(overall)
	confidence := BlendConfidence(outputs, overall)
	signals, warnings := deriveSignals(outputs)

	v := &core.AggregatedVerdict{
		OverallScore:  overall,
		Verdict:       verdict,
		Confidence:    confidence,
		Dimensions:    dims,
		Weights:       weights,
		StrongSignals: signals,
		Warnings:      warnings,
		ComputedAt:    time.Now().UTC(),
	}
	if claim != nil {
		v.ClaimID = claim.ID
	}

	v.Explanation = a.explanation(ctx, claim, v, outputs)
	return v
}

// DimensionScores maps each specialist output to its 0-100 dimension
// score; absent specialists score the neutral midpoint.
func DimensionScores(outputs core.AgentOutputs) map[core.Dimension]float64 {
	dims := make(map[core.Dimension]float64, len(core.Dimensions))
	for _, dim := range core.Dimensions {
		dims[dim] = dimensionScore(dim, outputs.Get(dim))
	}
	return dims
}

func dimensionScore(dim core.Dimension, out *core.AgentOutput) float64 {
	if out == nil {
		return NeutralScore
	}
	switch dim {
	case core.DimensionLogic:
		// Ternary verdict blended toward the midpoint by confidence.
		base := NeutralScore
		switch out.Verdict {
		case core.VerdictTrue:
			base = 100
		case core.VerdictFalse:
			base = 0
		}
		conf := core.Clamp01(out.Confidence)
		return core.Clamp100(base*conf + NeutralScore*(1-conf))
	case core.DimensionMedia, core.DimensionPropagation:
		// Inverse of a 0-100 risk/suspicion score.
		return core.Clamp100(100 - out.RiskScore)
	default:
		// Linear rescale of the 0-1 domain score.
		return core.Clamp100(out.Score * 100)
	}
}

// Classify applies the fixed verdict thresholds.
func Classify(overall float64) core.TernaryVerdict {
	switch {
	case overall >= ThresholdTrue:
		return core.VerdictTrue
	case overall <= ThresholdFalse:
		return core.VerdictFalse
	default:
		return core.VerdictUnclear
	}
}

// BlendConfidence averages the confidences of the specialists that ran
// and blends in an extremeness term: scores near 0 or 100 read as more
// certain than mid-range scores.
func BlendConfidence(outputs core.AgentOutputs, overall float64) float64 {
	avg := NeutralConfidence
	if n := outputs.Ran(); n > 0 {
		sum := 0.0
		for _, out := range outputs {
			if out != nil {
				sum += core.Clamp01(out.Confidence)
			}
		}
		avg = sum / float64(n)
	}

	extremeness := (overall - NeutralScore) / NeutralScore
	if extremeness < 0 {
		extremeness = -extremeness
	}

	return core.Clamp01(avg*confidenceAgentWeight + extremeness*confidenceExtremenessWeight)
}

// explanation asks the collaborator for prose and falls back to the
// deterministic template sentence. It never fails.
func (a *Aggregator) explanation(ctx context.Context, claim *core.ClaimMetadata, v *core.AggregatedVerdict, outputs core.AgentOutputs) string {
	if a.explainer != nil {
		summary := core.ExplanationSummary{
			Verdict:      v.Verdict,
			OverallScore: v.OverallScore,
			Dimensions:   v.Dimensions,
			AgentNotes:   agentNotes(outputs),
		}
		if claim != nil {
			summary.ClaimText = claim.Text
		}
		prose, err := a.explainer.Generate(ctx, summary)
		if err == nil && prose != "" {
			return prose
		}
		if err != nil {
			a.logger.Warn("explanation generation failed, using template", "error", err)
		}
	}
	return TemplateExplanation(v, outputs.Ran())
}

// TemplateExplanation is the deterministic fallback sentence.
func TemplateExplanation(v *core.AggregatedVerdict, contributing int) string {
	return fmt.Sprintf("Verdict %s with overall score %.1f/100, based on %d contributing specialist evaluations.",
		v.Verdict, v.OverallScore, contributing)
}

func agentNotes(outputs core.AgentOutputs) map[core.Dimension]string {
	notes := make(map[core.Dimension]string)
	for dim, out := range outputs {
		if out != nil && out.Explanation != "" {
			notes[dim] = out.Explanation
		}
	}
	return notes
}
