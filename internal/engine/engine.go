package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/factmesh/factmesh/internal/core"
	"github.com/factmesh/factmesh/internal/tooling"
)

const (
	// DefaultMaxCycles bounds Reasoning/ToolDispatch round trips. The
	// loop also ends as soon as the model stops requesting tools; the
	// cap only guards against a model that never stops.
	DefaultMaxCycles = 8

	// MaxCyclesCeiling is the hard upper bound a config may request.
	MaxCyclesCeiling = 32
)

// OutputSchema describes the strict JSON shape a specialist expects and
// how to decode it with domain-neutral defaults.
type OutputSchema struct {
	// Description is the JSON shape shown to the model during verdict
	// extraction.
	Description string

	// Decode builds a typed output from parsed fields, filling every
	// missing field with the specialist's neutral default. It must not
	// fail: garbage fields decode to defaults.
	Decode func(fields map[string]any) *core.AgentOutput

	// Fallback builds the conservative default verdict used when the
	// model call fails or no JSON can be extracted. The flag argument
	// names the failure (e.g. "parsing_failed", "model_unavailable").
	Fallback func(flag string) *core.AgentOutput
}

// RunSpec is everything a specialist supplies for one engine run.
type RunSpec struct {
	Specialist   core.Dimension
	SystemPrompt string
	UserPrompt   string
	Registry     *tooling.Registry
	Schema       OutputSchema
}

// Config tunes engine behavior.
type Config struct {
	// MaxCycles caps Reasoning/ToolDispatch cycles; 0 means the default.
	MaxCycles int

	// ModelTimeout bounds each individual model invocation.
	ModelTimeout time.Duration
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxCycles:    DefaultMaxCycles,
		ModelTimeout: 60 * time.Second,
	}
}

// Engine runs specialist evaluations against an injected model service.
// It is safe for concurrent use; each run owns its ExecutionState.
type Engine struct {
	model  core.ModelService
	cfg    Config
	logger *slog.Logger
}

// New creates an engine.
func New(model core.ModelService, cfg Config, logger *slog.Logger) *Engine {
	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = DefaultMaxCycles
	}
	if cfg.MaxCycles > MaxCyclesCeiling {
		cfg.MaxCycles = MaxCyclesCeiling
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = DefaultConfig().ModelTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{model: model, cfg: cfg, logger: logger}
}

// Run drives one specialist evaluation to completion. It always returns
// a usable AgentOutput: model failures, runaway loops and malformed
// verdict text all degrade to the schema's fallback. The only error
// returned is caller context cancellation.
func (e *Engine) Run(ctx context.Context, spec RunSpec) (*core.AgentOutput, error) {
	logger := e.logger.With("specialist", string(spec.Specialist))
	state := NewExecutionState()

	for state.Phase != PhaseDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch state.Phase {
		case PhaseReasoning:
			state = e.reason(ctx, spec, state, logger)
		case PhaseToolDispatch:
			state = e.dispatch(ctx, spec, state, logger)
		case PhaseVerdictExtraction:
			state = e.extract(ctx, spec, state, logger)
		}
	}

	out := state.Verdict
	out.Dimension = spec.Specialist
	out.CompletedAt = time.Now().UTC()
	out.Normalize()
	return out, nil
}

// reason submits the prompt plus history and decides the next phase.
func (e *Engine) reason(ctx context.Context, spec RunSpec, state ExecutionState, logger *slog.Logger) ExecutionState {
	if state.Cycles >= e.cfg.MaxCycles {
		logger.Warn("cycle cap reached, forcing verdict extraction", "cycles", state.Cycles)
		return state.WithPhase(PhaseVerdictExtraction)
	}

	resp, err := e.invoke(ctx, spec.SystemPrompt, state.History(spec.UserPrompt), spec.Registry.Definitions())
	if err != nil {
		logger.Warn("model invocation failed, degrading run", "error", err)
		return state.WithVerdict(spec.Schema.Fallback("model_unavailable"))
	}

	if resp.HasToolCalls() {
		return state.
			WithTurn(ToolRequestTurn{Text: resp.Text, Calls: resp.ToolCalls}).
			WithPhase(PhaseToolDispatch)
	}

	// No further tool requests: record the reasoning and extract.
	return state.
		WithTurn(ReasoningTurn{Text: resp.Text}).
		WithPhase(PhaseVerdictExtraction)
}

// dispatch executes the pending tool request batch. Calls within one
// batch are independent and run concurrently; each failure is captured
// as an error payload in the batch's ToolResultTurn.
func (e *Engine) dispatch(ctx context.Context, spec RunSpec, state ExecutionState, logger *slog.Logger) ExecutionState {
	var calls []core.ToolCall
	if len(state.Turns) > 0 {
		if req, ok := state.Turns[len(state.Turns)-1].(ToolRequestTurn); ok {
			calls = req.Calls
		}
	}
	if len(calls) == 0 {
		return state.WithPhase(PhaseVerdictExtraction)
	}

	results := make([]core.ToolResult, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = spec.Registry.Invoke(gctx, call)
			return nil
		})
	}
	_ = g.Wait() // individual failures are already error payloads

	logger.Debug("tool batch dispatched", "tools", len(calls), "cycle", state.Cycles)

	return state.
		WithTurn(ToolResultTurn{Results: results}).
		NextCycle().
		WithPhase(PhaseReasoning)
}

// extract issues the final strict-JSON prompt and parses the verdict.
func (e *Engine) extract(ctx context.Context, spec RunSpec, state ExecutionState, logger *slog.Logger) ExecutionState {
	prompt := "Produce your final verdict as strict JSON matching exactly this schema, with no surrounding prose:\n" +
		spec.Schema.Description

	history := append(state.History(spec.UserPrompt), core.Message{Role: core.RoleUser, Content: prompt})

	// No tools are offered during extraction.
	resp, err := e.invoke(ctx, spec.SystemPrompt, history, nil)
	if err != nil {
		logger.Warn("verdict extraction call failed, degrading run", "error", err)
		return state.WithVerdict(spec.Schema.Fallback("model_unavailable"))
	}

	fields, parseErr := ExtractJSONObject(resp.Text)
	if parseErr != nil {
		logger.Warn("verdict parsing failed, using fallback", "error", parseErr)
		return state.
			WithTurn(FinalAnswerTurn{Text: resp.Text}).
			WithVerdict(spec.Schema.Fallback("parsing_failed"))
	}

	return state.
		WithTurn(FinalAnswerTurn{Text: resp.Text}).
		WithVerdict(spec.Schema.Decode(fields))
}

// invoke calls the model service under the configured timeout.
func (e *Engine) invoke(ctx context.Context, systemPrompt string, history []core.Message, tools []core.ToolDefinition) (*core.ModelResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.ModelTimeout)
	defer cancel()
	return e.model.Invoke(callCtx, systemPrompt, history, tools)
}
