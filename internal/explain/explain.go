// Package explain renders an aggregated verdict into reader-facing
// prose by delegating to the model service.
package explain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/factmesh/factmesh/internal/core"
)

const systemPrompt = `You write short, neutral verdict explanations for a claim assessment service.
Given a claim, its verdict and the per-dimension findings, write 2-4 plain sentences a general reader can follow.
State what the evidence shows, not what the reader should believe. No markdown, no lists, no hedging boilerplate.`

// DefaultTimeout bounds one explanation call.
const DefaultTimeout = 30 * time.Second

// Generator produces verdict explanations via the model service. It
// implements core.ExplanationGenerator.
type Generator struct {
	model   core.ModelService
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a generator. A non-positive timeout uses the default.
func New(model core.ModelService, timeout time.Duration, logger *slog.Logger) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{model: model, timeout: timeout, logger: logger}
}

// Generate returns the model's prose for the summary. Callers must keep
// their own deterministic fallback; any model failure surfaces as an
// error here.
func (g *Generator) Generate(ctx context.Context, summary core.ExplanationSummary) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.model.Invoke(callCtx, systemPrompt, []core.Message{
		{Role: core.RoleUser, Content: renderSummary(summary)},
	}, nil)
	if err != nil {
		return "", core.NewModelError("explanation_failed", "explanation generation failed").WithCause(err)
	}

	prose := strings.TrimSpace(resp.Text)
	if prose == "" {
		return "", core.NewModelError("explanation_empty", "model returned no explanation text")
	}
	return prose, nil
}

// renderSummary flattens the structured summary into the user prompt.
// Dimensions are emitted in sorted order so the prompt is reproducible.
func renderSummary(summary core.ExplanationSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\n", summary.ClaimText)
	fmt.Fprintf(&b, "Verdict: %s (overall score %.1f/100)\n", summary.Verdict, summary.OverallScore)

	dims := make([]string, 0, len(summary.Dimensions))
	for dim := range summary.Dimensions {
		dims = append(dims, string(dim))
	}
	sort.Strings(dims)

	b.WriteString("Dimension scores:\n")
	for _, dim := range dims {
		fmt.Fprintf(&b, "- %s: %.1f", dim, summary.Dimensions[core.Dimension(dim)])
		if note, ok := summary.AgentNotes[core.Dimension(dim)]; ok && note != "" {
			fmt.Fprintf(&b, " (%s)", note)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
