package specialist

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/factmesh/factmesh/internal/core"
	"github.com/factmesh/factmesh/internal/engine"
	"github.com/factmesh/factmesh/internal/tooling"
)

const logicPrompt = `You are a logic analyst. Assess whether the claim is internally consistent and logically sound, independent of external evidence.
Look for fallacies, self-contradiction, impossible quantifiers and category errors. Use the fallacy_scan and consistency_check tools on the claim text before judging.
You judge structure, not truth: a well-formed lie and a garbled fact both exist.`

const logicSchema = `{
  "verdict": "true" | "false" | "unclear",
  "confidence": number (0-1),
  "fallacies": [string],
  "contradictions": [string],
  "explanation": string (one or two sentences)
}`

// NewLogic builds the logical-consistency specialist.
func NewLogic(logger *slog.Logger, regOpts ...tooling.Option) *Specialist {
	return &Specialist{
		Dimension:    core.DimensionLogic,
		SystemPrompt: logicPrompt,
		Registry: tooling.NewRegistry([]core.Tool{
			&fallacyScanTool{},
			&consistencyCheckTool{},
		}, registryOptions(logger, regOpts)...),
		Schema: engine.OutputSchema{
			Description: logicSchema,
			Decode:      decodeLogicVerdict,
			Fallback:    neutralFallback,
		},
	}
}

func decodeLogicVerdict(fields map[string]any) *core.AgentOutput {
	out := &core.AgentOutput{
		Confidence:  engine.FloatField(fields, "confidence", 0.5),
		Explanation: engine.StringField(fields, "explanation", ""),
	}

	switch strings.ToLower(engine.StringField(fields, "verdict", "unclear")) {
	case "true":
		out.Verdict = core.VerdictTrue
	case "false":
		out.Verdict = core.VerdictFalse
	default:
		out.Verdict = core.VerdictUnclear
	}

	out.Flags = engine.StringSliceField(fields, "fallacies")
	if len(engine.StringSliceField(fields, "contradictions")) > 0 {
		out.Flags = append(out.Flags, core.FlagLogicalContradiction)
	}
	return out
}

// fallacyPatterns is the regex lookup table behind fallacy_scan. Each
// entry pairs a fallacy label with surface patterns that commonly signal
// it. A hit is a cue for the model to examine, not a verdict.
var fallacyPatterns = []struct {
	Label    string
	Pattern  *regexp.Regexp
	Evidence string
}{
	{"hasty_generalization", regexp.MustCompile(`(?i)\b(everyone|nobody|always|never|all \w+ are)\b`), "absolute quantifier"},
	{"appeal_to_authority", regexp.MustCompile(`(?i)\b(experts? (say|agree|confirm)|scientists? (say|agree|confirm))\b`), "unnamed authority"},
	{"appeal_to_fear", regexp.MustCompile(`(?i)\b(before it'?s too late|they don'?t want you to know|wake up)\b`), "fear or conspiracy framing"},
	{"false_dilemma", regexp.MustCompile(`(?i)\b(either .{1,40} or|the only (way|option|choice))\b`), "binary framing"},
	{"ad_hominem", regexp.MustCompile(`(?i)\b(shill|sheep|paid actor|corrupt (media|elite))\b`), "attack on the speaker"},
	{"appeal_to_popularity", regexp.MustCompile(`(?i)\b(everybody knows|millions (of people )?(agree|believe)|going viral)\b`), "popularity as proof"},
	{"slippery_slope", regexp.MustCompile(`(?i)\b(next they('ll| will)|this is (just|only) the (beginning|start)|where does it end)\b`), "chained escalation"},
}

type fallacyHit struct {
	Fallacy  string `json:"fallacy"`
	Match    string `json:"match"`
	Evidence string `json:"evidence"`
}

type fallacyScanArgs struct {
	Text string `json:"text"`
}

// fallacyScanTool matches the claim text against the fallacy pattern
// table.
type fallacyScanTool struct{}

func (t *fallacyScanTool) Name() string { return "fallacy_scan" }

func (t *fallacyScanTool) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        t.Name(),
		Description: "Scan text for surface patterns of common rhetorical fallacies. Returns labeled matches.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string", "description": "the claim text to scan"},
			},
			"required": []string{"text"},
		},
	}
}

func (t *fallacyScanTool) Timeout() time.Duration { return 2 * time.Second }

func (t *fallacyScanTool) Run(_ context.Context, args json.RawMessage) (any, error) {
	var in fallacyScanArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, core.NewValidationError("bad_tool_args", "fallacy_scan expects {\"text\": string}")
	}

	hits := []fallacyHit{}
	for _, fp := range fallacyPatterns {
		if m := fp.Pattern.FindString(in.Text); m != "" {
			hits = append(hits, fallacyHit{Fallacy: fp.Label, Match: m, Evidence: fp.Evidence})
		}
	}
	return map[string]any{"hits": hits, "patterns_checked": len(fallacyPatterns)}, nil
}

// contradictionMarkers flag sentence pairs that assert and retract in
// the same breath.
var contradictionMarkers = regexp.MustCompile(`(?i)\b(but (also|actually)|yet (somehow|also)|at the same time|despite (claiming|saying))\b`)

// impossibleFigures matches percentage claims outside 0-100.
var impossibleFigures = regexp.MustCompile(`\b(1[0-9]{2,}|[2-9][0-9]{2,})\s?%`)

type consistencyCheckArgs struct {
	Text string `json:"text"`
}

// consistencyCheckTool looks for self-contradiction markers and
// impossible figures inside a single claim.
type consistencyCheckTool struct{}

func (t *consistencyCheckTool) Name() string { return "consistency_check" }

func (t *consistencyCheckTool) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        t.Name(),
		Description: "Check a claim for internal contradictions and impossible quantities.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		},
	}
}

func (t *consistencyCheckTool) Timeout() time.Duration { return 2 * time.Second }

func (t *consistencyCheckTool) Run(_ context.Context, args json.RawMessage) (any, error) {
	var in consistencyCheckArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, core.NewValidationError("bad_tool_args", "consistency_check expects {\"text\": string}")
	}

	var issues []string
	if m := contradictionMarkers.FindString(in.Text); m != "" {
		issues = append(issues, "contradiction marker: "+strings.ToLower(m))
	}
	if m := impossibleFigures.FindString(in.Text); m != "" {
		issues = append(issues, "impossible percentage: "+m)
	}

	return map[string]any{
		"consistent": len(issues) == 0,
		"issues":     issues,
	}, nil
}
