package core

import (
	"context"
	"encoding/json"
	"time"
)

// =============================================================================
// Model Service Port
// =============================================================================

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is the serialized outcome of one tool invocation. Failures
// are carried in-band: IsError is set and Content holds the error payload.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// Message is one turn of model conversation history.
type Message struct {
	Role        Role         `json:"role"`
	Content     string       `json:"content,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolDefinition advertises a callable tool to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ModelResponse is what the model service returns for one invocation:
// either final text, a batch of requested tool calls, or both.
type ModelResponse struct {
	Text      string
	ToolCalls []ToolCall
	TokensIn  int
	TokensOut int
}

// HasToolCalls reports whether the model requested tool invocations.
func (r *ModelResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// ModelService is the injected boundary to the language model. Every
// implementation must honor ctx cancellation and its own request timeout;
// a failed or timed-out call returns an error and the caller degrades the
// specialist run to its fallback output.
type ModelService interface {
	// Invoke sends the system prompt, conversation history and available
	// tools to the model and returns its next turn.
	Invoke(ctx context.Context, systemPrompt string, history []Message, tools []ToolDefinition) (*ModelResponse, error)

	// Name returns the service identifier for logging.
	Name() string

	// Ping checks connectivity and credentials.
	Ping(ctx context.Context) error
}

// =============================================================================
// Tool Port
// =============================================================================

// Tool is one idempotent specialist tool. Run never panics; it returns
// either a JSON-marshalable result or an error, which the registry
// serializes into a ToolResult error payload.
type Tool interface {
	// Name returns the tool identifier exposed to the model.
	Name() string

	// Definition returns the schema advertised to the model.
	Definition() ToolDefinition

	// Run executes the tool with raw JSON arguments.
	Run(ctx context.Context, args json.RawMessage) (any, error)

	// Timeout bounds a single invocation. Zero means the registry default.
	Timeout() time.Duration
}

// =============================================================================
// Explanation Port
// =============================================================================

// ExplanationSummary is the structured input handed to the explanation
// collaborator.
type ExplanationSummary struct {
	ClaimText    string                `json:"claim_text"`
	Verdict      TernaryVerdict        `json:"verdict"`
	OverallScore float64               `json:"overall_score"`
	Dimensions   map[Dimension]float64 `json:"dimensions"`
	AgentNotes   map[Dimension]string  `json:"agent_notes,omitempty"`
}

// ExplanationGenerator turns a structured summary into prose. It may
// fail; callers must substitute a deterministic template.
type ExplanationGenerator interface {
	Generate(ctx context.Context, summary ExplanationSummary) (string, error)
}

// =============================================================================
// Claim Store Port
// =============================================================================

// ClaimStore persists claims and their evaluation artifacts.
type ClaimStore interface {
	// SaveClaim stores intake metadata with status pending_ai.
	SaveClaim(ctx context.Context, claim *ClaimMetadata) error

	// GetClaim loads a claim record. Returns nil and no error when the
	// claim does not exist.
	GetClaim(ctx context.Context, id string) (*ClaimRecord, error)

	// ListClaims returns claim records ordered by submission time,
	// newest first.
	ListClaims(ctx context.Context, limit int) ([]*ClaimRecord, error)

	// SaveAgentOutput stores one specialist result for a claim.
	SaveAgentOutput(ctx context.Context, claimID string, output *AgentOutput) error

	// UpdateClaimStatus advances the claim lifecycle.
	UpdateClaimStatus(ctx context.Context, claimID string, status ClaimStatus) error

	// SaveEvaluation stores the aggregated verdict, routing decision and
	// resulting claim status in one operation.
	SaveEvaluation(ctx context.Context, claimID string, verdict *AggregatedVerdict, routing *RoutingDecision, status ClaimStatus) error

	// OpenVotingSession records a voting session for a community_vote
	// routing decision.
	OpenVotingSession(ctx context.Context, session *VotingSession) error

	// Close releases store resources.
	Close() error
}
