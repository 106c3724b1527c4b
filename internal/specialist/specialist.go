// Package specialist configures the six evaluator agents. Each
// specialist owns a system prompt, a tool subset and a typed verdict
// schema; the generic engine drives all of them identically.
package specialist

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/factmesh/factmesh/internal/core"
	"github.com/factmesh/factmesh/internal/engine"
	"github.com/factmesh/factmesh/internal/tooling"
)

// Specialist is one configured evaluator.
type Specialist struct {
	Dimension    core.Dimension
	SystemPrompt string
	Registry     *tooling.Registry
	Schema       engine.OutputSchema
}

// Spec builds the engine run spec for one claim.
func (s *Specialist) Spec(claim *core.ClaimMetadata) engine.RunSpec {
	return engine.RunSpec{
		Specialist:   s.Dimension,
		SystemPrompt: s.SystemPrompt,
		UserPrompt:   ClaimPrompt(claim),
		Registry:     s.Registry,
		Schema:       s.Schema,
	}
}

// All returns the six specialists in their canonical dimension order.
// regOpts apply to every specialist's tool registry.
func All(logger *slog.Logger, regOpts ...tooling.Option) []*Specialist {
	return []*Specialist{
		NewLogic(logger, regOpts...),
		NewCredibility(logger, regOpts...),
		NewCitation(logger, regOpts...),
		NewSocial(logger, regOpts...),
		NewMedia(logger, regOpts...),
		NewPropagation(logger, regOpts...),
	}
}

// registryOptions prepends the specialist logger to caller options.
func registryOptions(logger *slog.Logger, regOpts []tooling.Option) []tooling.Option {
	return append([]tooling.Option{tooling.WithLogger(logger)}, regOpts...)
}

// ClaimPrompt renders the claim metadata into the user prompt every
// specialist receives.
func ClaimPrompt(claim *core.ClaimMetadata) string {
	if claim == nil {
		return "Claim: (none provided)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\n", claim.Text)
	if len(claim.Platforms) > 0 {
		platforms := make([]string, len(claim.Platforms))
		for i, p := range claim.Platforms {
			platforms[i] = string(p)
		}
		fmt.Fprintf(&b, "Observed on: %s\n", strings.Join(platforms, ", "))
	}
	if claim.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", claim.Topic)
	}
	if claim.Severity != "" {
		fmt.Fprintf(&b, "Severity: %s\n", claim.Severity)
	}
	if claim.TimeSensitive || claim.Breaking {
		b.WriteString("Time-sensitive: yes\n")
	}
	for _, u := range claim.URLs {
		fmt.Fprintf(&b, "URL: %s\n", u)
	}
	for _, m := range claim.MediaRefs {
		fmt.Fprintf(&b, "Media: %s\n", m)
	}
	return strings.TrimRight(b.String(), "\n")
}

// neutralFallback is the conservative default every specialist degrades
// to when the model call fails or no verdict can be parsed.
func neutralFallback(flag string) *core.AgentOutput {
	return &core.AgentOutput{
		Score:      0.5,
		Confidence: 0.1,
		Verdict:    core.VerdictUnclear,
		RiskScore:  50,
		Flags:      []string{flag},
		Degraded:   true,
	}
}

// decodeSourceRefs converts a parsed JSON array of source objects.
func decodeSourceRefs(items []map[string]any) []core.SourceRef {
	if len(items) == 0 {
		return nil
	}
	refs := make([]core.SourceRef, 0, len(items))
	for _, item := range items {
		ref := core.SourceRef{
			URL:     engine.StringField(item, "url", ""),
			Title:   engine.StringField(item, "title", ""),
			Stance:  engine.StringField(item, "stance", ""),
			Quality: core.Clamp01(engine.FloatField(item, "quality", 0)),
		}
		if ref.URL == "" && ref.Title == "" {
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}
