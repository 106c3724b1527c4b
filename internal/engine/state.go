// Package engine drives a specialist evaluator through a bounded
// reasoning / tool-dispatch loop against an injected model service and
// extracts a typed verdict from free-form model output. The engine never
// surfaces model or parsing failures as errors: every failure path
// degrades to the specialist's neutral fallback output.
package engine

import "github.com/factmesh/factmesh/internal/core"

// Phase is the engine state-machine phase.
type Phase string

const (
	PhaseReasoning         Phase = "reasoning"
	PhaseToolDispatch      Phase = "tool_dispatch"
	PhaseVerdictExtraction Phase = "verdict_extraction"
	PhaseDone              Phase = "done"
)

// Turn is one entry of the run's conversation history. The concrete
// types form a closed tagged union: Reasoning, ToolRequest, ToolResult
// and FinalAnswer. Consumers switch exhaustively on the concrete type
// instead of probing for fields.
type Turn interface {
	isTurn()
}

// ReasoningTurn is a text-only assistant turn with no tool requests.
type ReasoningTurn struct {
	Text string
}

// ToolRequestTurn is an assistant turn requesting a batch of tool calls.
type ToolRequestTurn struct {
	Text  string // optional reasoning text accompanying the requests
	Calls []core.ToolCall
}

// ToolResultTurn carries the serialized results for one dispatch batch.
type ToolResultTurn struct {
	Results []core.ToolResult
}

// FinalAnswerTurn is the model's verdict-extraction response.
type FinalAnswerTurn struct {
	Text string
}

func (ReasoningTurn) isTurn()   {}
func (ToolRequestTurn) isTurn() {}
func (ToolResultTurn) isTurn()  {}
func (FinalAnswerTurn) isTurn() {}

// ExecutionState is the per-run state. It is only ever mutated by the
// transition methods below, each of which returns a new value; the engine
// never shares a state between runs.
type ExecutionState struct {
	Phase   Phase
	Turns   []Turn
	Cycles  int
	Verdict *core.AgentOutput
}

// NewExecutionState returns the initial Reasoning state.
func NewExecutionState() ExecutionState {
	return ExecutionState{Phase: PhaseReasoning}
}

// WithTurn returns a copy of the state with the turn appended.
func (s ExecutionState) WithTurn(t Turn) ExecutionState {
	turns := make([]Turn, len(s.Turns), len(s.Turns)+1)
	copy(turns, s.Turns)
	s.Turns = append(turns, t)
	return s
}

// WithPhase returns a copy of the state in the given phase.
func (s ExecutionState) WithPhase(p Phase) ExecutionState {
	s.Phase = p
	return s
}

// NextCycle returns a copy with the reasoning/tool cycle counter advanced.
func (s ExecutionState) NextCycle() ExecutionState {
	s.Cycles++
	return s
}

// WithVerdict returns the terminal state holding the final output.
func (s ExecutionState) WithVerdict(v *core.AgentOutput) ExecutionState {
	s.Verdict = v
	s.Phase = PhaseDone
	return s
}

// History converts the turn log into model-service messages. Tool
// requests and their results become assistant/user message pairs.
func (s ExecutionState) History(userPrompt string) []core.Message {
	msgs := make([]core.Message, 0, len(s.Turns)+1)
	msgs = append(msgs, core.Message{Role: core.RoleUser, Content: userPrompt})
	for _, turn := range s.Turns {
		switch t := turn.(type) {
		case ReasoningTurn:
			msgs = append(msgs, core.Message{Role: core.RoleAssistant, Content: t.Text})
		case ToolRequestTurn:
			msgs = append(msgs, core.Message{Role: core.RoleAssistant, Content: t.Text, ToolCalls: t.Calls})
		case ToolResultTurn:
			msgs = append(msgs, core.Message{Role: core.RoleUser, ToolResults: t.Results})
		case FinalAnswerTurn:
			msgs = append(msgs, core.Message{Role: core.RoleAssistant, Content: t.Text})
		}
	}
	return msgs
}
