package specialist

import (
	"context"
	"encoding/json"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/factmesh/factmesh/internal/core"
	"github.com/factmesh/factmesh/internal/engine"
	"github.com/factmesh/factmesh/internal/tooling"
)

const mediaPrompt = `You are a media-forensics analyst. Estimate the manipulation risk of the images and videos attached to the claim.
Run media_scan on every media reference before judging. A claim with no media carries no media risk; report a low risk score and say so.
Risk is 0-100: 0 means the media shows no manipulation indicators, 100 means near-certain fabrication.`

const mediaSchema = `{
  "risk": number (0-100, manipulation risk),
  "confidence": number (0-1),
  "manipulation_types": [string],
  "explanation": string
}`

// NewMedia builds the media-forensics specialist.
func NewMedia(logger *slog.Logger, regOpts ...tooling.Option) *Specialist {
	return &Specialist{
		Dimension:    core.DimensionMedia,
		SystemPrompt: mediaPrompt,
		Registry: tooling.NewRegistry([]core.Tool{
			&mediaScanTool{},
		}, registryOptions(logger, regOpts)...),
		Schema: engine.OutputSchema{
			Description: mediaSchema,
			Decode:      decodeMediaVerdict,
			Fallback:    neutralFallback,
		},
	}
}

func decodeMediaVerdict(fields map[string]any) *core.AgentOutput {
	return &core.AgentOutput{
		RiskScore:         engine.FloatField(fields, "risk", 50),
		Confidence:        engine.FloatField(fields, "confidence", 0.5),
		ManipulationTypes: engine.StringSliceField(fields, "manipulation_types"),
		Explanation:       engine.StringField(fields, "explanation", ""),
	}
}

// mediaIndicator is one forensic cue readable from a media reference
// without fetching the asset.
type mediaIndicator struct {
	Indicator string  `json:"indicator"`
	RiskDelta float64 `json:"risk_delta"`
	Detail    string  `json:"detail"`
}

type mediaScanArgs struct {
	MediaRefs []string `json:"media_refs"`
}

type mediaScanResult struct {
	Ref        string           `json:"ref"`
	Kind       string           `json:"kind"`
	Indicators []mediaIndicator `json:"indicators"`
	RiskScore  float64          `json:"risk_score"`
}

// mediaScanTool grades media references against a static indicator
// table: container kind, re-encoding markers in the name, and known
// low-provenance hosts.
type mediaScanTool struct{}

func (t *mediaScanTool) Name() string { return "media_scan" }

func (t *mediaScanTool) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        t.Name(),
		Description: "Scan media references for manipulation indicators and return a per-asset risk score.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"media_refs": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []string{"media_refs"},
		},
	}
}

func (t *mediaScanTool) Timeout() time.Duration { return 5 * time.Second }

func (t *mediaScanTool) Run(_ context.Context, args json.RawMessage) (any, error) {
	var in mediaScanArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, core.NewValidationError("bad_tool_args", "media_scan expects {\"media_refs\": [string]}")
	}

	results := make([]mediaScanResult, 0, len(in.MediaRefs))
	for _, ref := range in.MediaRefs {
		results = append(results, scanMediaRef(ref))
	}
	return map[string]any{"assets": results, "scanned": len(results)}, nil
}

func scanMediaRef(ref string) mediaScanResult {
	lower := strings.ToLower(ref)
	ext := strings.TrimPrefix(path.Ext(lower), ".")

	result := mediaScanResult{Ref: ref, Kind: mediaKind(ext), RiskScore: 10}
	add := func(indicator string, delta float64, detail string) {
		result.Indicators = append(result.Indicators, mediaIndicator{Indicator: indicator, RiskDelta: delta, Detail: detail})
		result.RiskScore += delta
	}

	switch ext {
	case "gif", "webp":
		add("lossy_recompression_container", 10, "format commonly re-encoded through reposting chains")
	case "":
		add("no_extension", 5, "asset type not determinable from reference")
	}

	for _, marker := range []string{"screenshot", "screen_shot", "img_", "whatsapp", "telegram", "copy", "edited", "final"} {
		if strings.Contains(lower, marker) {
			add("provenance_break", 15, "filename marker suggests the asset left its original context: "+marker)
			break
		}
	}

	for _, host := range []string{"t.me/", "4chan", "anonfiles", "imgur.com"} {
		if strings.Contains(lower, host) {
			add("low_provenance_host", 20, "hosted where originals are rarely preserved: "+host)
			break
		}
	}

	if strings.Contains(lower, "deepfake") || strings.Contains(lower, "faceswap") || strings.Contains(lower, "ai_gen") {
		add("synthetic_generation_marker", 40, "reference names a synthesis technique")
	}

	result.RiskScore = core.Clamp100(result.RiskScore)
	return result
}

func mediaKind(ext string) string {
	switch ext {
	case "jpg", "jpeg", "png", "gif", "webp", "bmp":
		return "image"
	case "mp4", "mov", "webm", "avi", "mkv":
		return "video"
	case "mp3", "wav", "ogg", "m4a":
		return "audio"
	default:
		return "unknown"
	}
}
