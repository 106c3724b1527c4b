package specialist

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/factmesh/factmesh/internal/core"
	"github.com/factmesh/factmesh/internal/engine"
	"github.com/factmesh/factmesh/internal/tooling"
)

const propagationPrompt = `You are a propagation analyst. Judge whether the claim's spread pattern looks organic or engineered.
Call spread_profile with the platforms the claim was observed on, and burst_shape if you need the temporal signature. Organic spread is ragged and platform-by-platform; campaigns are synchronized, cross-platform and front-loaded.
Report suspicion 0-100: 0 is clearly organic, 100 is a coordinated operation.`

const propagationSchema = `{
  "suspicion": number (0-100, propagation suspicion),
  "confidence": number (0-1),
  "bot_activity": boolean,
  "coordinated_campaign": boolean,
  "explanation": string
}`

// NewPropagation builds the propagation-pattern specialist.
func NewPropagation(logger *slog.Logger, regOpts ...tooling.Option) *Specialist {
	return &Specialist{
		Dimension:    core.DimensionPropagation,
		SystemPrompt: propagationPrompt,
		Registry: tooling.NewRegistry([]core.Tool{
			&spreadProfileTool{},
			&burstShapeTool{},
		}, registryOptions(logger, regOpts)...),
		Schema: engine.OutputSchema{
			Description: propagationSchema,
			Decode:      decodePropagationVerdict,
			Fallback:    neutralFallback,
		},
	}
}

func decodePropagationVerdict(fields map[string]any) *core.AgentOutput {
	out := &core.AgentOutput{
		RiskScore:   engine.FloatField(fields, "suspicion", 50),
		Confidence:  engine.FloatField(fields, "confidence", 0.5),
		Explanation: engine.StringField(fields, "explanation", ""),
	}
	if engine.BoolField(fields, "bot_activity", false) {
		out.Flags = append(out.Flags, core.FlagBotActivity)
	}
	if engine.BoolField(fields, "coordinated_campaign", false) {
		out.Flags = append(out.Flags, core.FlagCoordinatedCampaign)
	}
	return out
}

type spreadProfileArgs struct {
	Platforms []string `json:"platforms"`
}

// spreadProfileTool grades the cross-platform footprint. Simultaneous
// presence on many platforms at intake is itself a coordination cue,
// since organic claims usually surface on one platform first.
type spreadProfileTool struct{}

func (t *spreadProfileTool) Name() string { return "spread_profile" }

func (t *spreadProfileTool) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        t.Name(),
		Description: "Profile the claim's cross-platform footprint and score its coordination likelihood.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"platforms": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []string{"platforms"},
		},
	}
}

func (t *spreadProfileTool) Timeout() time.Duration { return 3 * time.Second }

func (t *spreadProfileTool) Run(_ context.Context, args json.RawMessage) (any, error) {
	var in spreadProfileArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, core.NewValidationError("bad_tool_args", "spread_profile expects {\"platforms\": [string]}")
	}

	distinct := map[string]bool{}
	for _, p := range in.Platforms {
		distinct[p] = true
	}

	score := 10.0
	shape := "single_platform"
	switch {
	case len(distinct) >= 3:
		score = 65
		shape = "synchronized_multi_platform"
	case len(distinct) == 2:
		score = 35
		shape = "cross_posted"
	case len(distinct) == 0:
		score = 20
		shape = "unknown_origin"
	}

	return map[string]any{
		"platform_count":     len(distinct),
		"shape":              shape,
		"coordination_score": score,
	}, nil
}

type burstShapeArgs struct {
	HoursSinceFirstSeen float64 `json:"hours_since_first_seen"`
	PlatformCount       int     `json:"platform_count"`
}

// burstShapeTool classifies the temporal signature: how far the claim
// has spread relative to its age.
type burstShapeTool struct{}

func (t *burstShapeTool) Name() string { return "burst_shape" }

func (t *burstShapeTool) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        t.Name(),
		Description: "Classify the temporal spread signature from claim age and platform count.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"hours_since_first_seen": map[string]any{"type": "number"},
				"platform_count":         map[string]any{"type": "integer"},
			},
			"required": []string{"hours_since_first_seen", "platform_count"},
		},
	}
}

func (t *burstShapeTool) Timeout() time.Duration { return 2 * time.Second }

func (t *burstShapeTool) Run(_ context.Context, args json.RawMessage) (any, error) {
	var in burstShapeArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, core.NewValidationError("bad_tool_args", "burst_shape expects hours_since_first_seen and platform_count")
	}

	shape := "slow_burn"
	botLikelihood := 0.1
	switch {
	case in.HoursSinceFirstSeen <= 1 && in.PlatformCount >= 3:
		shape = "instant_everywhere"
		botLikelihood = 0.8
	case in.HoursSinceFirstSeen <= 6 && in.PlatformCount >= 2:
		shape = "front_loaded_burst"
		botLikelihood = 0.5
	case in.HoursSinceFirstSeen <= 24:
		shape = "fresh_single_origin"
		botLikelihood = 0.2
	}

	return map[string]any{
		"shape":          shape,
		"bot_likelihood": botLikelihood,
	}, nil
}
