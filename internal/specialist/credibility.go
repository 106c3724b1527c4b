package specialist

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/factmesh/factmesh/internal/core"
	"github.com/factmesh/factmesh/internal/engine"
	"github.com/factmesh/factmesh/internal/tooling"
)

const credibilityPrompt = `You are a source-credibility analyst. Judge how trustworthy the outlets behind the claim are.
For every URL attached to the claim, look up its domain with the domain_reputation tool before judging. Unknown domains are not automatically bad, but they carry no weight.
Your score reflects the sources, not the claim content itself.`

const credibilitySchema = `{
  "score": number (0-1, overall source credibility),
  "confidence": number (0-1),
  "domains": [{"domain": string, "score": number, "category": string}],
  "explanation": string
}`

// NewCredibility builds the source-credibility specialist.
func NewCredibility(logger *slog.Logger, regOpts ...tooling.Option) *Specialist {
	return &Specialist{
		Dimension:    core.DimensionCredibility,
		SystemPrompt: credibilityPrompt,
		Registry: tooling.NewRegistry([]core.Tool{
			&domainReputationTool{table: defaultReputationTable},
		}, registryOptions(logger, regOpts)...),
		Schema: engine.OutputSchema{
			Description: credibilitySchema,
			Decode:      decodeCredibilityVerdict,
			Fallback:    neutralFallback,
		},
	}
}

func decodeCredibilityVerdict(fields map[string]any) *core.AgentOutput {
	out := &core.AgentOutput{
		Score:       engine.FloatField(fields, "score", 0.5),
		Confidence:  engine.FloatField(fields, "confidence", 0.5),
		Explanation: engine.StringField(fields, "explanation", ""),
	}
	for _, item := range engine.ObjectSliceField(fields, "domains") {
		domain := engine.StringField(item, "domain", "")
		if domain == "" {
			continue
		}
		out.Reputations = append(out.Reputations, core.DomainReputation{
			Domain:   domain,
			Score:    core.Clamp01(engine.FloatField(item, "score", 0.5)),
			Category: engine.StringField(item, "category", ""),
		})
	}
	return out
}

// defaultReputationTable is the built-in domain reputation lookup. The
// scores grade editorial rigor, not political lean.
var defaultReputationTable = map[string]core.DomainReputation{
	"reuters.com":        {Domain: "reuters.com", Score: 0.95, Category: "wire_service"},
	"apnews.com":         {Domain: "apnews.com", Score: 0.95, Category: "wire_service"},
	"bbc.com":            {Domain: "bbc.com", Score: 0.90, Category: "broadcaster"},
	"bbc.co.uk":          {Domain: "bbc.co.uk", Score: 0.90, Category: "broadcaster"},
	"nytimes.com":        {Domain: "nytimes.com", Score: 0.85, Category: "newspaper"},
	"washingtonpost.com": {Domain: "washingtonpost.com", Score: 0.85, Category: "newspaper"},
	"theguardian.com":    {Domain: "theguardian.com", Score: 0.82, Category: "newspaper"},
	"nature.com":         {Domain: "nature.com", Score: 0.97, Category: "journal"},
	"science.org":        {Domain: "science.org", Score: 0.97, Category: "journal"},
	"nih.gov":            {Domain: "nih.gov", Score: 0.95, Category: "government"},
	"who.int":            {Domain: "who.int", Score: 0.93, Category: "intergovernmental"},
	"cdc.gov":            {Domain: "cdc.gov", Score: 0.93, Category: "government"},
	"snopes.com":         {Domain: "snopes.com", Score: 0.85, Category: "fact_checker"},
	"politifact.com":     {Domain: "politifact.com", Score: 0.85, Category: "fact_checker"},
	"factcheck.org":      {Domain: "factcheck.org", Score: 0.85, Category: "fact_checker"},
	"wikipedia.org":      {Domain: "wikipedia.org", Score: 0.70, Category: "encyclopedia"},
	"medium.com":         {Domain: "medium.com", Score: 0.40, Category: "blog_platform"},
	"substack.com":       {Domain: "substack.com", Score: 0.40, Category: "blog_platform"},
	"twitter.com":        {Domain: "twitter.com", Score: 0.25, Category: "social"},
	"x.com":              {Domain: "x.com", Score: 0.25, Category: "social"},
	"reddit.com":         {Domain: "reddit.com", Score: 0.25, Category: "social"},
	"t.me":               {Domain: "t.me", Score: 0.15, Category: "messaging"},
	"beforeitsnews.com":  {Domain: "beforeitsnews.com", Score: 0.05, Category: "known_misinfo"},
	"naturalnews.com":    {Domain: "naturalnews.com", Score: 0.05, Category: "known_misinfo"},
	"infowars.com":       {Domain: "infowars.com", Score: 0.05, Category: "known_misinfo"},
}

type domainReputationArgs struct {
	URLs []string `json:"urls"`
}

type domainLookup struct {
	Domain   string  `json:"domain"`
	Known    bool    `json:"known"`
	Score    float64 `json:"score"`
	Category string  `json:"category,omitempty"`
}

// domainReputationTool resolves claim URLs to reputation-table entries.
type domainReputationTool struct {
	table map[string]core.DomainReputation
}

func (t *domainReputationTool) Name() string { return "domain_reputation" }

func (t *domainReputationTool) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        t.Name(),
		Description: "Look up the editorial reputation of the domains behind a list of URLs.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"urls": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []string{"urls"},
		},
	}
}

func (t *domainReputationTool) Timeout() time.Duration { return 3 * time.Second }

func (t *domainReputationTool) Run(_ context.Context, args json.RawMessage) (any, error) {
	var in domainReputationArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, core.NewValidationError("bad_tool_args", "domain_reputation expects {\"urls\": [string]}")
	}

	lookups := make([]domainLookup, 0, len(in.URLs))
	for _, raw := range in.URLs {
		domain := normalizeDomain(raw)
		if domain == "" {
			lookups = append(lookups, domainLookup{Domain: raw, Known: false, Score: 0.5})
			continue
		}
		if rep, ok := t.table[domain]; ok {
			lookups = append(lookups, domainLookup{Domain: domain, Known: true, Score: rep.Score, Category: rep.Category})
		} else {
			// Unknown domains read as neutral, slightly discounted.
			lookups = append(lookups, domainLookup{Domain: domain, Known: false, Score: 0.45})
		}
	}
	return map[string]any{"domains": lookups}, nil
}

// normalizeDomain extracts a bare registrable-ish host from a URL or
// host string, dropping a leading www.
func normalizeDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
