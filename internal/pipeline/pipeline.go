// Package pipeline orchestrates the full claim evaluation: specialist
// fan-out, flag derivation, aggregation, routing and persistence.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/factmesh/factmesh/internal/aggregate"
	"github.com/factmesh/factmesh/internal/core"
	"github.com/factmesh/factmesh/internal/engine"
	"github.com/factmesh/factmesh/internal/route"
	"github.com/factmesh/factmesh/internal/specialist"
)

// DefaultSpecialistTimeout bounds one specialist's whole tool-calling
// run, model calls and tools included.
const DefaultSpecialistTimeout = 3 * time.Minute

// Options configures a Pipeline.
type Options struct {
	Engine            *engine.Engine
	Specialists       []*specialist.Specialist
	Aggregator        *aggregate.Aggregator
	Store             core.ClaimStore
	Logger            *slog.Logger
	SpecialistTimeout time.Duration
	WeightOverrides   map[core.Dimension]float64
}

// Pipeline runs claims through evaluation. Safe for concurrent use.
type Pipeline struct {
	engine            *engine.Engine
	specialists       []*specialist.Specialist
	aggregator        *aggregate.Aggregator
	store             core.ClaimStore
	logger            *slog.Logger
	specialistTimeout time.Duration

	mu        sync.RWMutex
	overrides map[core.Dimension]float64
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SpecialistTimeout <= 0 {
		opts.SpecialistTimeout = DefaultSpecialistTimeout
	}
	if len(opts.Specialists) == 0 {
		opts.Specialists = specialist.All(opts.Logger)
	}
	return &Pipeline{
		engine:            opts.Engine,
		specialists:       opts.Specialists,
		aggregator:        opts.Aggregator,
		store:             opts.Store,
		logger:            opts.Logger,
		specialistTimeout: opts.SpecialistTimeout,
		overrides:         opts.WeightOverrides,
	}
}

// SetWeightOverrides swaps the aggregation weight overrides. Called by
// the config watcher on hot reload; in-flight evaluations keep the
// vector they started with.
func (p *Pipeline) SetWeightOverrides(overrides map[core.Dimension]float64) {
	p.mu.Lock()
	p.overrides = overrides
	p.mu.Unlock()
	p.logger.Info("aggregation weight overrides updated", "dimensions", len(overrides))
}

func (p *Pipeline) weightOverrides() map[core.Dimension]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.overrides
}

// Result is the complete outcome of one evaluation.
type Result struct {
	Claim   *core.ClaimMetadata     `json:"claim"`
	Outputs core.AgentOutputs       `json:"outputs"`
	Flags   core.AgentFlags         `json:"flags"`
	Verdict *core.AggregatedVerdict `json:"verdict"`
	Routing *core.RoutingDecision   `json:"routing"`
	Status  core.ClaimStatus        `json:"status"`
	Session *core.VotingSession     `json:"voting_session,omitempty"`
}

// Submit registers a claim for evaluation, assigning an ID and
// submission time when the caller left them empty.
func (p *Pipeline) Submit(ctx context.Context, claim *core.ClaimMetadata) (*core.ClaimMetadata, error) {
	if claim == nil || claim.Text == "" {
		return nil, core.NewValidationError("empty_claim", "claim text is required")
	}
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	if claim.SubmittedAt.IsZero() {
		claim.SubmittedAt = time.Now().UTC()
	}
	claim.Severity = core.ParseSeverity(string(claim.Severity))

	if err := p.store.SaveClaim(ctx, claim); err != nil {
		return nil, err
	}
	p.logger.Info("claim submitted", "claim_id", claim.ID, "severity", claim.Severity)
	return claim, nil
}

// EvaluateByID loads a stored claim and evaluates it.
func (p *Pipeline) EvaluateByID(ctx context.Context, claimID string) (*Result, error) {
	record, err := p.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, core.NewNotFoundError("claim_not_found", "claim "+claimID+" does not exist")
	}
	return p.Evaluate(ctx, &record.Claim)
}

// Evaluate runs every specialist against the claim, merges their
// verdicts, routes the result and persists each stage. A specialist
// that times out or fails is treated as absent; only caller
// cancellation aborts the evaluation.
func (p *Pipeline) Evaluate(ctx context.Context, claim *core.ClaimMetadata) (*Result, error) {
	logger := p.logger.With("claim_id", claim.ID)
	logger.Info("evaluation started", "specialists", len(p.specialists))

	outputs, err := p.fanOut(ctx, claim, logger)
	if err != nil {
		return nil, err
	}

	for _, dim := range core.Dimensions {
		out := outputs.Get(dim)
		if out == nil {
			continue
		}
		if err := p.store.SaveAgentOutput(ctx, claim.ID, out); err != nil {
			return nil, err
		}
	}

	if err := p.store.UpdateClaimStatus(ctx, claim.ID, core.ClaimStatusAIEvaluated); err != nil {
		return nil, err
	}

	flags := route.DeriveFlags(outputs)
	verdict := p.aggregator.Aggregate(ctx, claim, outputs, p.weightOverrides())
	decision := route.Decide(claim, verdict, flags)
	status := statusFor(decision.Route)

	if err := p.store.SaveEvaluation(ctx, claim.ID, verdict, decision, status); err != nil {
		return nil, err
	}

	result := &Result{
		Claim:   claim,
		Outputs: outputs,
		Flags:   flags,
		Verdict: verdict,
		Routing: decision,
		Status:  status,
	}

	if decision.NeedsVote() {
		session := newVotingSession(claim.ID, decision)
		if err := p.store.OpenVotingSession(ctx, session); err != nil {
			return nil, err
		}
		result.Session = session
	}

	logger.Info("evaluation complete",
		"verdict", verdict.Verdict,
		"score", verdict.OverallScore,
		"confidence", verdict.Confidence,
		"route", decision.Route,
		"flags", flags.Count(),
		"specialists_ran", outputs.Ran())
	return result, nil
}

// fanOut runs all specialists concurrently, each under its own timeout.
func (p *Pipeline) fanOut(ctx context.Context, claim *core.ClaimMetadata, logger *slog.Logger) (core.AgentOutputs, error) {
	outputs := core.AgentOutputs{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, sp := range p.specialists {
		sp := sp
		g.Go(func() error {
			runCtx, cancel := context.WithTimeout(gctx, p.specialistTimeout)
			defer cancel()

			out, err := p.engine.Run(runCtx, sp.Spec(claim))
			if err != nil {
				// Caller cancellation aborts everything; a per-specialist
				// timeout just leaves this dimension absent.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if errors.Is(err, context.DeadlineExceeded) {
					logger.Warn("specialist timed out", "specialist", sp.Dimension)
					return nil
				}
				logger.Warn("specialist failed", "specialist", sp.Dimension, "error", err)
				return nil
			}

			mu.Lock()
			outputs[sp.Dimension] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func statusFor(r core.Route) core.ClaimStatus {
	switch r {
	case core.RouteCommunityVote:
		return core.ClaimStatusNeedsVote
	case core.RouteDeferArchived:
		return core.ClaimStatusDeferred
	default:
		return core.ClaimStatusResolved
	}
}

func newVotingSession(claimID string, decision *core.RoutingDecision) *core.VotingSession {
	now := time.Now().UTC()
	return &core.VotingSession{
		ClaimID:          claimID,
		RouteReason:      decision.Reasoning,
		Urgency:          decision.Urgency,
		VotingWindowSecs: decision.VotingWindowSeconds,
		MinVotesRequired: decision.MinVotesRequired,
		Status:           "open",
		OpenedAt:         now,
		ClosesAt:         now.Add(time.Duration(decision.VotingWindowSeconds) * time.Second),
	}
}
