package core

import "testing"

func TestClamp01(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "below range", in: -0.5, want: 0},
		{name: "in range", in: 0.42, want: 0.42},
		{name: "above range", in: 1.7, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp01(tt.in); got != tt.want {
				t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAgentOutputNormalize(t *testing.T) {
	o := &AgentOutput{
		Dimension:  DimensionMedia,
		Score:      1.9,
		Confidence: -0.2,
		RiskScore:  140,
		Verdict:    TernaryVerdict("maybe"),
	}
	o.Normalize()

	if o.Score != 1.0 {
		t.Errorf("Score = %v, want 1.0", o.Score)
	}
	if o.Confidence != 0.0 {
		t.Errorf("Confidence = %v, want 0.0", o.Confidence)
	}
	if o.RiskScore != 100 {
		t.Errorf("RiskScore = %v, want 100", o.RiskScore)
	}
	if o.Verdict != VerdictUnclear {
		t.Errorf("Verdict = %v, want UNCLEAR", o.Verdict)
	}
}

func TestAgentOutputsRan(t *testing.T) {
	outputs := AgentOutputs{
		DimensionLogic:       {Dimension: DimensionLogic},
		DimensionCredibility: nil,
	}
	if got := outputs.Ran(); got != 1 {
		t.Errorf("Ran() = %d, want 1", got)
	}
	if outputs.Get(DimensionMedia) != nil {
		t.Error("Get(absent) should return nil")
	}

	var none AgentOutputs
	if none.Ran() != 0 || none.Get(DimensionLogic) != nil {
		t.Error("nil map should behave as empty")
	}
}

func TestAgentFlagsCountAndLabels(t *testing.T) {
	f := AgentFlags{
		BotActivityDetected: true,
		CoordinatedCampaign: true,
		HighMediaRisk:       true,
	}
	if got := f.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}

	labels := f.Labels()
	if len(labels) != 3 {
		t.Fatalf("Labels() returned %d entries, want 3", len(labels))
	}
	// Fixed ordering: media risk before bot activity before campaign.
	if labels[0] != "High media manipulation risk" {
		t.Errorf("labels[0] = %q", labels[0])
	}
	if labels[2] != "Coordinated campaign indicators" {
		t.Errorf("labels[2] = %q", labels[2])
	}

	if got := (AgentFlags{}).Count(); got != 0 {
		t.Errorf("empty flags Count() = %d, want 0", got)
	}
	if labels := (AgentFlags{}).Labels(); len(labels) != 0 {
		t.Errorf("empty flags Labels() = %v, want empty", labels)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"high", SeverityHigh},
		{"  Medium ", SeverityMedium},
		{"low", SeverityLow},
		{"", SeverityLow},
		{"bogus", SeverityLow},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.in); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClaimMetadataHelpers(t *testing.T) {
	c := &ClaimMetadata{Platforms: []Platform{PlatformReddit}}
	if !c.HasPlatform(PlatformReddit) {
		t.Error("HasPlatform(reddit) = false, want true")
	}
	if c.HasPlatform(PlatformTwitter) {
		t.Error("HasPlatform(twitter) = true, want false")
	}
	if got := c.EffectiveSeverity(); got != SeverityLow {
		t.Errorf("EffectiveSeverity() = %v, want low", got)
	}
	c.Severity = SeverityHigh
	if got := c.EffectiveSeverity(); got != SeverityHigh {
		t.Errorf("EffectiveSeverity() = %v, want high", got)
	}
}
