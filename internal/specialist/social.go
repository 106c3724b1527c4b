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

const socialPrompt = `You are a social-evidence analyst. Gauge how the claim is being received on the platforms where it circulates: stance balance, account quality and amplification shape.
Call social_pulse for each platform the claim was observed on. Crowd agreement is weak evidence; crowd composition is stronger. Flag bot-heavy or astroturfed reception.`

const socialSchema = `{
  "score": number (0-1, organic support among credible accounts),
  "confidence": number (0-1),
  "bot_activity": boolean,
  "coordinated_campaign": boolean,
  "explanation": string
}`

// NewSocial builds the social-evidence specialist.
func NewSocial(logger *slog.Logger, regOpts ...tooling.Option) *Specialist {
	return &Specialist{
		Dimension:    core.DimensionSocial,
		SystemPrompt: socialPrompt,
		Registry: tooling.NewRegistry([]core.Tool{
			&socialPulseTool{profiles: defaultPlatformProfiles},
		}, registryOptions(logger, regOpts)...),
		Schema: engine.OutputSchema{
			Description: socialSchema,
			Decode:      decodeSocialVerdict,
			Fallback:    neutralFallback,
		},
	}
}

func decodeSocialVerdict(fields map[string]any) *core.AgentOutput {
	out := &core.AgentOutput{
		Score:       engine.FloatField(fields, "score", 0.5),
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

// platformProfile characterizes the baseline reception dynamics of one
// platform: how much of its engagement is typically automated and how
// much weight its crowd signal deserves.
type platformProfile struct {
	Platform        core.Platform `json:"platform"`
	BaselineBotRate float64       `json:"baseline_bot_rate"` // 0-1
	SignalWeight    float64       `json:"signal_weight"`     // 0-1
	Note            string        `json:"note"`
}

var defaultPlatformProfiles = map[core.Platform]platformProfile{
	core.PlatformTwitter:   {Platform: core.PlatformTwitter, BaselineBotRate: 0.20, SignalWeight: 0.5, Note: "high reach, high automation"},
	core.PlatformReddit:    {Platform: core.PlatformReddit, BaselineBotRate: 0.08, SignalWeight: 0.7, Note: "threaded discussion, moderated"},
	core.PlatformFarcaster: {Platform: core.PlatformFarcaster, BaselineBotRate: 0.05, SignalWeight: 0.6, Note: "small identity-linked network"},
	core.PlatformOther:     {Platform: core.PlatformOther, BaselineBotRate: 0.15, SignalWeight: 0.3, Note: "unknown provenance"},
}

type socialPulseArgs struct {
	Platform string `json:"platform"`
}

// socialPulseTool returns the reception profile for one platform.
type socialPulseTool struct {
	profiles map[core.Platform]platformProfile
}

func (t *socialPulseTool) Name() string { return "social_pulse" }

func (t *socialPulseTool) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        t.Name(),
		Description: "Get the reception profile for a platform: baseline bot rate and how much its crowd signal is worth.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"platform": map[string]any{
					"type": "string",
					"enum": []string{"twitter", "reddit", "farcaster", "other"},
				},
			},
			"required": []string{"platform"},
		},
	}
}

func (t *socialPulseTool) Timeout() time.Duration { return 3 * time.Second }

func (t *socialPulseTool) Run(_ context.Context, args json.RawMessage) (any, error) {
	var in socialPulseArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, core.NewValidationError("bad_tool_args", "social_pulse expects {\"platform\": string}")
	}

	profile, ok := t.profiles[core.Platform(in.Platform)]
	if !ok {
		profile = t.profiles[core.PlatformOther]
	}
	return profile, nil
}
