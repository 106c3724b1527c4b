package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factmesh/factmesh/internal/adapters/model"
	"github.com/factmesh/factmesh/internal/adapters/state"
	"github.com/factmesh/factmesh/internal/aggregate"
	"github.com/factmesh/factmesh/internal/core"
	"github.com/factmesh/factmesh/internal/engine"
	"github.com/factmesh/factmesh/internal/logging"
)

// newPipeline wires a pipeline against the scripted model and a JSON
// store. Every specialist receives the same scripted verdict text and
// decodes the fields its schema knows about.
func newPipeline(t *testing.T, verdictJSON string) (*Pipeline, core.ClaimStore) {
	t.Helper()

	stub := model.NewStub([]model.Scenario{
		{Name: "all", Steps: []model.ScenarioStep{{Text: verdictJSON}}},
	})
	logger := logging.NewNop().Slog()

	store, err := state.NewJSONStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	p := New(Options{
		Engine:     engine.New(stub, engine.Config{MaxCycles: 4, ModelTimeout: 5 * time.Second}, logger),
		Aggregator: aggregate.New(nil, logger),
		Store:      store,
		Logger:     logger,
	})
	return p, store
}

func TestSubmitAssignsIdentity(t *testing.T) {
	p, store := newPipeline(t, `{}`)

	claim, err := p.Submit(context.Background(), &core.ClaimMetadata{Text: "the dam failed"})
	require.NoError(t, err)
	assert.NotEmpty(t, claim.ID)
	assert.False(t, claim.SubmittedAt.IsZero())
	assert.Equal(t, core.SeverityLow, claim.Severity)

	record, err := store.GetClaim(context.Background(), claim.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, core.ClaimStatusPendingAI, record.Status)
}

func TestSubmitRejectsEmptyText(t *testing.T) {
	p, _ := newPipeline(t, `{}`)

	_, err := p.Submit(context.Background(), &core.ClaimMetadata{})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))
}

func TestEvaluateConfidentClaimResolves(t *testing.T) {
	p, store := newPipeline(t,
		`{"verdict": "true", "score": 0.9, "confidence": 0.9, "risk": 10, "suspicion": 10, "fact_check_count": 3}`)
	ctx := context.Background()

	claim, err := p.Submit(ctx, &core.ClaimMetadata{Text: "water boils at 100C at sea level"})
	require.NoError(t, err)

	result, err := p.Evaluate(ctx, claim)
	require.NoError(t, err)

	assert.Equal(t, 6, result.Outputs.Ran())
	assert.Equal(t, core.VerdictTrue, result.Verdict.Verdict)
	assert.Greater(t, result.Verdict.OverallScore, 85.0)
	assert.Equal(t, core.RouteAIOnly, result.Routing.Route)
	assert.Equal(t, core.ClaimStatusResolved, result.Status)
	assert.Nil(t, result.Session)
	assert.Zero(t, result.Flags.Count())

	record, err := store.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, core.ClaimStatusResolved, record.Status)
	assert.Len(t, record.Outputs, 6)
	require.NotNil(t, record.Verdict)
	assert.Equal(t, core.VerdictTrue, record.Verdict.Verdict)
}

func TestEvaluateUnclearClaimOpensVote(t *testing.T) {
	p, store := newPipeline(t,
		`{"verdict": "unclear", "score": 0.5, "confidence": 0.5, "risk": 50, "suspicion": 50}`)
	ctx := context.Background()

	claim, err := p.Submit(ctx, &core.ClaimMetadata{
		Text:     "a new policy was announced",
		Severity: core.SeverityMedium,
	})
	require.NoError(t, err)

	result, err := p.Evaluate(ctx, claim)
	require.NoError(t, err)

	assert.Equal(t, core.VerdictUnclear, result.Verdict.Verdict)
	assert.Equal(t, core.RouteCommunityVote, result.Routing.Route)
	assert.Equal(t, core.ClaimStatusNeedsVote, result.Status)

	// No fact-check coverage raises one flag.
	assert.True(t, result.Flags.NoProfessionalFactCheck)

	require.NotNil(t, result.Session)
	assert.Equal(t, claim.ID, result.Session.ClaimID)
	assert.Equal(t, "open", result.Session.Status)
	assert.Equal(t, result.Routing.VotingWindowSeconds, result.Session.VotingWindowSecs)
	assert.True(t, result.Session.ClosesAt.After(result.Session.OpenedAt))

	record, err := store.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ClaimStatusNeedsVote, record.Status)
}

func TestEvaluateLowStakesUnclearDefers(t *testing.T) {
	p, store := newPipeline(t,
		`{"verdict": "unclear", "score": 0.5, "confidence": 0.3, "risk": 50, "suspicion": 50, "fact_check_count": 1}`)
	ctx := context.Background()

	claim, err := p.Submit(ctx, &core.ClaimMetadata{Text: "an old meme resurfaced"})
	require.NoError(t, err)

	result, err := p.Evaluate(ctx, claim)
	require.NoError(t, err)

	assert.Equal(t, core.RouteDeferArchived, result.Routing.Route)
	assert.Equal(t, core.ClaimStatusDeferred, result.Status)
	assert.Nil(t, result.Session)

	record, err := store.GetClaim(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ClaimStatusDeferred, record.Status)
}

func TestEvaluateByIDMissingClaim(t *testing.T) {
	p, _ := newPipeline(t, `{}`)

	_, err := p.EvaluateByID(context.Background(), "no-such-claim")
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
}

func TestEvaluateByIDRoundTrip(t *testing.T) {
	p, _ := newPipeline(t,
		`{"verdict": "true", "score": 0.9, "confidence": 0.9, "risk": 10, "suspicion": 10, "fact_check_count": 2}`)
	ctx := context.Background()

	claim, err := p.Submit(ctx, &core.ClaimMetadata{Text: "the bridge reopened yesterday"})
	require.NoError(t, err)

	result, err := p.EvaluateByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.ID, result.Verdict.ClaimID)
}

func TestEvaluateCanceledContext(t *testing.T) {
	p, _ := newPipeline(t, `{}`)
	ctx, cancel := context.WithCancel(context.Background())

	claim, err := p.Submit(ctx, &core.ClaimMetadata{Text: "anything"})
	require.NoError(t, err)

	cancel()
	_, err = p.Evaluate(ctx, claim)
	require.Error(t, err)
}

func TestSetWeightOverridesAppliesToNextEvaluation(t *testing.T) {
	p, _ := newPipeline(t,
		`{"verdict": "true", "score": 0.9, "confidence": 0.9, "risk": 10, "suspicion": 10, "fact_check_count": 2}`)
	ctx := context.Background()

	claim, err := p.Submit(ctx, &core.ClaimMetadata{Text: "claim under reweighting"})
	require.NoError(t, err)

	p.SetWeightOverrides(map[core.Dimension]float64{core.DimensionLogic: 0.5})

	result, err := p.Evaluate(ctx, claim)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, result.Verdict.Weights[core.DimensionLogic], 1e-9)
	// The remaining weights keep their defaults.
	assert.InDelta(t, 0.30, result.Verdict.Weights[core.DimensionCredibility], 1e-9)
}
