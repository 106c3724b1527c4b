package model

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factmesh/factmesh/internal/core"
)

func TestToChatMessages(t *testing.T) {
	history := []core.Message{
		{Role: core.RoleUser, Content: "Claim: the sky is green"},
		{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{
			{ID: "t1", Name: "fallacy_scan", Arguments: json.RawMessage(`{"text":"x"}`)},
		}},
		{Role: core.RoleUser, ToolResults: []core.ToolResult{
			{ToolCallID: "t1", Name: "fallacy_scan", Content: `{"hits":[]}`},
		}},
		{Role: core.RoleAssistant, Content: "No fallacies found."},
	}

	msgs := toChatMessages("system prompt", history)
	require.Len(t, msgs, 5)

	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)

	require.Len(t, msgs[2].ToolCalls, 1)
	assert.Equal(t, "fallacy_scan", msgs[2].ToolCalls[0].Function.Name)

	assert.Equal(t, openai.ChatMessageRoleTool, msgs[3].Role)
	assert.Equal(t, "t1", msgs[3].ToolCallID)

	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[4].Role)
}

func TestToChatTools(t *testing.T) {
	tools := toChatTools([]core.ToolDefinition{
		{Name: "media_scan", Description: "scan media", InputSchema: map[string]any{"type": "object"}},
	})
	require.Len(t, tools, 1)
	assert.Equal(t, openai.ToolTypeFunction, tools[0].Type)
	assert.Equal(t, "media_scan", tools[0].Function.Name)

	assert.Nil(t, toChatTools(nil))
}

func TestFromChatMessage(t *testing.T) {
	resp := fromChatMessage(openai.ChatCompletionMessage{
		Content: "checking",
		ToolCalls: []openai.ToolCall{
			{ID: "c1", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: "social_pulse", Arguments: `{"platform":"reddit"}`}},
		},
	})
	assert.Equal(t, "checking", resp.Text)
	require.True(t, resp.HasToolCalls())
	assert.Equal(t, "social_pulse", resp.ToolCalls[0].Name)
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{}, nil)
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))
}

func TestStubScenarioReplay(t *testing.T) {
	stub := NewStub([]Scenario{
		{
			Name:  "dam",
			Match: "dam failed",
			Steps: []ScenarioStep{
				{ToolCalls: []StubToolCall{{Name: "fact_check_lookup", Args: map[string]any{"keywords": []string{"dam"}}}}},
				{Text: `{"score": 0.1, "confidence": 0.9}`},
			},
		},
	})

	history := []core.Message{{Role: core.RoleUser, Content: "Claim: the dam failed last night"}}

	resp, err := stub.Invoke(context.Background(), "sys", history, nil)
	require.NoError(t, err)
	require.True(t, resp.HasToolCalls())
	assert.Equal(t, "fact_check_lookup", resp.ToolCalls[0].Name)

	resp, err = stub.Invoke(context.Background(), "sys", history, nil)
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "0.1")

	// The final step repeats once the script runs out.
	resp, err = stub.Invoke(context.Background(), "sys", history, nil)
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "0.1")
}

func TestStubUnmatchedPromptIsNeutral(t *testing.T) {
	stub := NewStub([]Scenario{{Name: "x", Match: "never-present", Steps: []ScenarioStep{{Text: "hi"}}}})

	resp, err := stub.Invoke(context.Background(), "sys",
		[]core.Message{{Role: core.RoleUser, Content: "something else"}}, nil)
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "unclear")
}

func TestLoadStub(t *testing.T) {
	yaml := `
scenarios:
  - name: basic
    match: boils
    steps:
      - text: "reasoning"
      - text: '{"verdict": "true", "confidence": 0.9}'
`
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	stub, err := LoadStub(path)
	require.NoError(t, err)

	resp, err := stub.Invoke(context.Background(), "sys",
		[]core.Message{{Role: core.RoleUser, Content: "water boils at 100C"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "reasoning", resp.Text)
}

func TestLoadStubRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenarios: []\n"), 0o644))

	_, err := LoadStub(path)
	require.Error(t, err)
}
