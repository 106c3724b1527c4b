package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/factmesh/factmesh/internal/core"
)

// Scenario defines a sequence of scripted responses for one matching
// conversation, loaded from YAML.
type Scenario struct {
	// Name identifies the scenario.
	Name string `yaml:"name"`

	// Match is a substring the user prompt must contain for this
	// scenario to apply. Empty matches everything.
	Match string `yaml:"match,omitempty"`

	// Steps are replayed in order across successive Invoke calls; the
	// last step repeats once the script is exhausted.
	Steps []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one scripted model response.
type ScenarioStep struct {
	Text      string         `yaml:"text,omitempty"`
	ToolCalls []StubToolCall `yaml:"tool_calls,omitempty"`
}

// StubToolCall is a scripted tool request.
type StubToolCall struct {
	Name string         `yaml:"name"`
	Args map[string]any `yaml:"args,omitempty"`
}

// ScenarioFile is the YAML document shape.
type ScenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Stub is a deterministic core.ModelService that replays scripted
// scenarios. It drives tests and offline evaluation without a model
// endpoint.
type Stub struct {
	mu        sync.Mutex
	scenarios []Scenario
	cursor    map[string]int // scenario name -> next step
}

// NewStub creates a stub from in-memory scenarios.
func NewStub(scenarios []Scenario) *Stub {
	return &Stub{
		scenarios: scenarios,
		cursor:    make(map[string]int),
	}
}

// LoadStub reads a scenario YAML file.
func LoadStub(path string) (*Stub, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	var file ScenarioFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing scenario file: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("scenario file %s defines no scenarios", path)
	}
	return NewStub(file.Scenarios), nil
}

// Name returns the provider name.
func (s *Stub) Name() string { return "stub" }

// Ping always succeeds.
func (s *Stub) Ping(_ context.Context) error { return nil }

// Invoke replays the next step of the first scenario matching the
// conversation's user content. With no match it answers a neutral
// verdict so runs still terminate.
func (s *Stub) Invoke(ctx context.Context, _ string, history []core.Message, _ []core.ToolDefinition) (*core.ModelResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scenario := s.match(userContent(history))
	if scenario == nil || len(scenario.Steps) == 0 {
		return &core.ModelResponse{Text: `{"score": 0.5, "confidence": 0.5, "verdict": "unclear"}`}, nil
	}

	idx := s.cursor[scenario.Name]
	if idx >= len(scenario.Steps) {
		idx = len(scenario.Steps) - 1
	} else {
		s.cursor[scenario.Name] = idx + 1
	}

	return stepResponse(scenario.Steps[idx])
}

func (s *Stub) match(content string) *Scenario {
	for i := range s.scenarios {
		if s.scenarios[i].Match == "" || strings.Contains(content, s.scenarios[i].Match) {
			return &s.scenarios[i]
		}
	}
	return nil
}

func userContent(history []core.Message) string {
	var b strings.Builder
	for _, m := range history {
		if m.Role == core.RoleUser {
			b.WriteString(m.Content)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func stepResponse(step ScenarioStep) (*core.ModelResponse, error) {
	resp := &core.ModelResponse{Text: step.Text}
	for i, call := range step.ToolCalls {
		args, err := json.Marshal(call.Args)
		if err != nil {
			return nil, fmt.Errorf("scenario tool args for %s: %w", call.Name, err)
		}
		resp.ToolCalls = append(resp.ToolCalls, core.ToolCall{
			ID:        fmt.Sprintf("stub-%s-%d", call.Name, i),
			Name:      call.Name,
			Arguments: args,
		})
	}
	return resp, nil
}
