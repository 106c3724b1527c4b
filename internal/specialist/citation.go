package specialist

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/factmesh/factmesh/internal/core"
	"github.com/factmesh/factmesh/internal/engine"
	"github.com/factmesh/factmesh/internal/tooling"
)

const citationPrompt = `You are an evidence analyst. Determine how well the claim is supported by citations and professional fact-checks.
Use fact_check_lookup with a few distinctive keywords from the claim, and citation_extract on the claim text to see what it actually cites.
A claim with zero citations is not automatically false, but flag it. Weigh contradicting fact-checks heavily.`

const citationSchema = `{
  "score": number (0-1, evidential support),
  "confidence": number (0-1),
  "supporting": [{"url": string, "title": string, "stance": string, "quality": number}],
  "contradicting": [{"url": string, "title": string, "stance": string, "quality": number}],
  "fact_check_count": integer,
  "missing_citations": boolean,
  "explanation": string
}`

// NewCitation builds the citation/evidence specialist.
func NewCitation(logger *slog.Logger, regOpts ...tooling.Option) *Specialist {
	return &Specialist{
		Dimension:    core.DimensionCitation,
		SystemPrompt: citationPrompt,
		Registry: tooling.NewRegistry([]core.Tool{
			&factCheckLookupTool{index: defaultFactCheckIndex},
			&citationExtractTool{},
		}, registryOptions(logger, regOpts)...),
		Schema: engine.OutputSchema{
			Description: citationSchema,
			Decode:      decodeCitationVerdict,
			Fallback:    neutralFallback,
		},
	}
}

func decodeCitationVerdict(fields map[string]any) *core.AgentOutput {
	out := &core.AgentOutput{
		Score:          engine.FloatField(fields, "score", 0.5),
		Confidence:     engine.FloatField(fields, "confidence", 0.5),
		Explanation:    engine.StringField(fields, "explanation", ""),
		Supporting:     decodeSourceRefs(engine.ObjectSliceField(fields, "supporting")),
		Contradicting:  decodeSourceRefs(engine.ObjectSliceField(fields, "contradicting")),
		FactCheckCount: engine.IntField(fields, "fact_check_count", 0),
	}
	if engine.BoolField(fields, "missing_citations", false) {
		out.Flags = append(out.Flags, core.FlagMissingCitations)
	}
	return out
}

// factCheckEntry is one indexed professional fact-check.
type factCheckEntry struct {
	Keywords []string `json:"-"`
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Outlet   string   `json:"outlet"`
	Rating   string   `json:"rating"` // supported, refuted, mixed
}

// defaultFactCheckIndex is the built-in fact-check lookup table keyed by
// claim keywords.
var defaultFactCheckIndex = []factCheckEntry{
	{Keywords: []string{"vaccine", "microchip"}, URL: "https://www.reuters.com/article/factcheck-vaccine-microchip", Title: "No microchips in vaccines", Outlet: "Reuters Fact Check", Rating: "refuted"},
	{Keywords: []string{"5g", "virus"}, URL: "https://fullfact.org/online/5g-virus", Title: "5G does not spread viruses", Outlet: "Full Fact", Rating: "refuted"},
	{Keywords: []string{"election", "dead", "voters"}, URL: "https://www.politifact.com/dead-voters", Title: "Claims of mass dead-voter fraud unsupported", Outlet: "PolitiFact", Rating: "refuted"},
	{Keywords: []string{"climate", "hoax"}, URL: "https://climatefeedback.org/claim-climate-hoax", Title: "Scientific consensus on climate change", Outlet: "Climate Feedback", Rating: "refuted"},
	{Keywords: []string{"boiling", "water", "100"}, URL: "https://www.snopes.com/fact-check/boiling-point", Title: "Water boils at 100C at sea level", Outlet: "Snopes", Rating: "supported"},
	{Keywords: []string{"minimum", "wage", "jobs"}, URL: "https://www.factcheck.org/minimum-wage-employment", Title: "Minimum wage employment effects are contested", Outlet: "FactCheck.org", Rating: "mixed"},
	{Keywords: []string{"drinking", "bleach"}, URL: "https://www.snopes.com/fact-check/bleach-cure", Title: "Bleach is not a cure for anything", Outlet: "Snopes", Rating: "refuted"},
	{Keywords: []string{"moon", "landing", "faked"}, URL: "https://www.reuters.com/article/factcheck-moon-landing", Title: "Moon landings were real", Outlet: "Reuters Fact Check", Rating: "refuted"},
}

type factCheckLookupArgs struct {
	Keywords []string `json:"keywords"`
}

// factCheckLookupTool searches the fact-check index by keyword overlap.
// An entry matches when at least two of its keywords appear in the
// query, or all of them for single-keyword entries.
type factCheckLookupTool struct {
	index []factCheckEntry
}

func (t *factCheckLookupTool) Name() string { return "fact_check_lookup" }

func (t *factCheckLookupTool) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        t.Name(),
		Description: "Search indexed professional fact-checks by claim keywords.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"keywords": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []string{"keywords"},
		},
	}
}

func (t *factCheckLookupTool) Timeout() time.Duration { return 3 * time.Second }

func (t *factCheckLookupTool) Run(_ context.Context, args json.RawMessage) (any, error) {
	var in factCheckLookupArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, core.NewValidationError("bad_tool_args", "fact_check_lookup expects {\"keywords\": [string]}")
	}

	query := make(map[string]bool, len(in.Keywords))
	for _, kw := range in.Keywords {
		query[strings.ToLower(strings.TrimSpace(kw))] = true
	}

	matches := []factCheckEntry{}
	for _, entry := range t.index {
		hits := 0
		for _, kw := range entry.Keywords {
			if query[kw] {
				hits++
			}
		}
		need := 2
		if len(entry.Keywords) < 2 {
			need = len(entry.Keywords)
		}
		if hits >= need {
			matches = append(matches, entry)
		}
	}
	return map[string]any{"fact_checks": matches, "count": len(matches)}, nil
}

type citationExtractArgs struct {
	Text string   `json:"text"`
	URLs []string `json:"urls,omitempty"`
}

// citationExtractTool reports what the claim itself cites: attached
// URLs plus in-text attribution markers.
type citationExtractTool struct{}

func (t *citationExtractTool) Name() string { return "citation_extract" }

func (t *citationExtractTool) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        t.Name(),
		Description: "List the citations and attribution markers present in the claim itself.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
				"urls": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []string{"text"},
		},
	}
}

func (t *citationExtractTool) Timeout() time.Duration { return 2 * time.Second }

func (t *citationExtractTool) Run(_ context.Context, args json.RawMessage) (any, error) {
	var in citationExtractArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, core.NewValidationError("bad_tool_args", "citation_extract expects {\"text\": string}")
	}

	lower := strings.ToLower(in.Text)
	var markers []string
	for _, m := range []string{"according to", "study", "report", "survey", "per ", "source:"} {
		if strings.Contains(lower, m) {
			markers = append(markers, strings.TrimSpace(m))
		}
	}

	return map[string]any{
		"attached_urls":       in.URLs,
		"attribution_markers": markers,
		"has_any_citation":    len(in.URLs) > 0 || len(markers) > 0,
	}, nil
}
