package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factmesh/factmesh/internal/config"
	"github.com/factmesh/factmesh/internal/core"
)

func testClaim(id string, submitted time.Time) *core.ClaimMetadata {
	return &core.ClaimMetadata{
		ID:          id,
		Text:        "the dam failed last night",
		Platforms:   []core.Platform{core.PlatformTwitter},
		Topic:       core.TopicPolitics,
		Severity:    core.SeverityMedium,
		SubmittedAt: submitted,
	}
}

func openStores(t *testing.T) map[string]core.ClaimStore {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := NewSQLiteStore(filepath.Join(dir, "sqlite", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	jsonStore, err := NewJSONStore(filepath.Join(dir, "json", "state.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = jsonStore.Close() })

	return map[string]core.ClaimStore{"sqlite": sqlite, "json": jsonStore}
}

func TestSaveAndGetClaim(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			claim := testClaim("claim-1", time.Now().UTC())
			require.NoError(t, store.SaveClaim(ctx, claim))

			record, err := store.GetClaim(ctx, "claim-1")
			require.NoError(t, err)
			require.NotNil(t, record)
			assert.Equal(t, core.ClaimStatusPendingAI, record.Status)
			assert.Equal(t, claim.Text, record.Claim.Text)
			assert.Equal(t, core.TopicPolitics, record.Claim.Topic)
		})
	}
}

func TestGetClaimMissingIsNil(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			record, err := store.GetClaim(ctx, "no-such-claim")
			require.NoError(t, err)
			assert.Nil(t, record)
		})
	}
}

func TestSaveAgentOutputAccumulates(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.SaveClaim(ctx, testClaim("claim-2", time.Now().UTC())))

			outputs := []*core.AgentOutput{
				{Dimension: core.DimensionLogic, Score: 0.8, Confidence: 0.9, Verdict: core.VerdictTrue, CompletedAt: time.Now().UTC()},
				{Dimension: core.DimensionMedia, RiskScore: 72, Confidence: 0.6, Flags: []string{"deepfake_suspected"}, CompletedAt: time.Now().UTC()},
			}
			for _, out := range outputs {
				require.NoError(t, store.SaveAgentOutput(ctx, "claim-2", out))
			}

			record, err := store.GetClaim(ctx, "claim-2")
			require.NoError(t, err)
			require.NotNil(t, record)
			require.Len(t, record.Outputs, 2)
			assert.Equal(t, core.VerdictTrue, record.Outputs.Get(core.DimensionLogic).Verdict)
			assert.InDelta(t, 72.0, record.Outputs.Get(core.DimensionMedia).RiskScore, 1e-9)
		})
	}
}

func TestSaveEvaluationUpdatesStatus(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.SaveClaim(ctx, testClaim("claim-3", time.Now().UTC())))

			verdict := &core.AggregatedVerdict{
				OverallScore: 82.5,
				Verdict:      core.VerdictTrue,
				Confidence:   0.78,
				Explanation:  "strongly supported",
			}
			routing := &core.RoutingDecision{
				Route:     core.RouteAIOnly,
				Urgency:   core.UrgencyNormal,
				Reasoning: "confident verdict",
				DecidedAt: time.Now().UTC(),
			}
			require.NoError(t, store.SaveEvaluation(ctx, "claim-3", verdict, routing, core.ClaimStatusResolved))

			record, err := store.GetClaim(ctx, "claim-3")
			require.NoError(t, err)
			require.NotNil(t, record)
			assert.Equal(t, core.ClaimStatusResolved, record.Status)
			require.NotNil(t, record.Verdict)
			assert.InDelta(t, 82.5, record.Verdict.OverallScore, 1e-9)
			require.NotNil(t, record.Routing)
			assert.Equal(t, core.RouteAIOnly, record.Routing.Route)
		})
	}
}

func TestUpdateClaimStatus(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.SaveClaim(ctx, testClaim("claim-s", time.Now().UTC())))
			require.NoError(t, store.UpdateClaimStatus(ctx, "claim-s", core.ClaimStatusAIEvaluated))

			record, err := store.GetClaim(ctx, "claim-s")
			require.NoError(t, err)
			require.NotNil(t, record)
			assert.Equal(t, core.ClaimStatusAIEvaluated, record.Status)

			err = store.UpdateClaimStatus(ctx, "missing", core.ClaimStatusResolved)
			require.Error(t, err)
			assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
		})
	}
}

func TestListClaimsNewestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for i, id := range []string{"old", "middle", "new"} {
				require.NoError(t, store.SaveClaim(ctx, testClaim(id, base.Add(time.Duration(i)*time.Hour))))
			}

			records, err := store.ListClaims(ctx, 2)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "new", records[0].Claim.ID)
			assert.Equal(t, "middle", records[1].Claim.ID)
		})
	}
}

func TestVotingSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	opened := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := &core.VotingSession{
		ClaimID:          "claim-4",
		RouteReason:      "verdict UNCLEAR",
		Urgency:          core.UrgencyHigh,
		VotingWindowSecs: 180,
		MinVotesRequired: 15,
		Status:           "open",
		OpenedAt:         opened,
		ClosesAt:         opened.Add(180 * time.Second),
	}

	t.Run("sqlite", func(t *testing.T) {
		store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
		require.NoError(t, err)
		defer store.Close()

		require.NoError(t, store.SaveClaim(ctx, testClaim("claim-4", opened)))
		require.NoError(t, store.OpenVotingSession(ctx, session))

		got, err := store.GetVotingSession(ctx, "claim-4")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, core.UrgencyHigh, got.Urgency)
		assert.Equal(t, 15, got.MinVotesRequired)
		assert.True(t, got.ClosesAt.Equal(session.ClosesAt))
	})

	t.Run("json", func(t *testing.T) {
		store, err := NewJSONStore(filepath.Join(t.TempDir(), "state.json"))
		require.NoError(t, err)

		require.NoError(t, store.SaveClaim(ctx, testClaim("claim-4", opened)))
		require.NoError(t, store.OpenVotingSession(ctx, session))

		got, err := store.GetVotingSession(ctx, "claim-4")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "open", got.Status)
	})
}

func TestJSONStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := NewJSONStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveClaim(ctx, testClaim("persisted", time.Now().UTC())))
	require.NoError(t, store.SaveAgentOutput(ctx, "persisted", &core.AgentOutput{
		Dimension: core.DimensionCredibility, Score: 0.9, Confidence: 0.8,
	}))

	reopened, err := NewJSONStore(path)
	require.NoError(t, err)

	record, err := reopened.GetClaim(ctx, "persisted")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.InDelta(t, 0.9, record.Outputs.Get(core.DimensionCredibility).Score, 1e-9)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveClaim(ctx, testClaim("persisted", time.Now().UTC())))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	record, err := reopened.GetClaim(ctx, "persisted")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "persisted", record.Claim.ID)
}

func TestSaveAgentOutputUnknownClaimJSON(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	err = store.SaveAgentOutput(context.Background(), "missing", &core.AgentOutput{Dimension: core.DimensionLogic})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatState))
}

func TestFactorySelectsBackend(t *testing.T) {
	dir := t.TempDir()

	sqlite, err := New(config.StateConfig{Backend: "sqlite", Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, sqlite)
	_ = sqlite.Close()

	jsonStore, err := New(config.StateConfig{Backend: "json", Path: filepath.Join(dir, "b.json")})
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, jsonStore)

	_, err = New(config.StateConfig{Backend: "redis", Path: "x"})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))
}
