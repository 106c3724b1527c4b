package tooling

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/factmesh/factmesh/internal/core"
)

// fakeTool is a scriptable tool for registry tests.
type fakeTool struct {
	name    string
	timeout time.Duration
	calls   int
	run     func(ctx context.Context, args json.RawMessage) (any, error)
}

func (f *fakeTool) Name() string { return f.name }

func (f *fakeTool) Definition() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        f.name,
		Description: "fake tool",
		InputSchema: map[string]any{"type": "object"},
	}
}

func (f *fakeTool) Run(ctx context.Context, args json.RawMessage) (any, error) {
	f.calls++
	return f.run(ctx, args)
}

func (f *fakeTool) Timeout() time.Duration { return f.timeout }

func TestRegistryInvokeSuccess(t *testing.T) {
	tool := &fakeTool{
		name: "lookup",
		run: func(_ context.Context, _ json.RawMessage) (any, error) {
			return map[string]any{"score": 0.9}, nil
		},
	}
	reg := NewRegistry([]core.Tool{tool})

	res := reg.Invoke(context.Background(), core.ToolCall{ID: "c1", Name: "lookup", Arguments: json.RawMessage(`{}`)})
	if res.IsError {
		t.Fatalf("Invoke() returned error payload: %s", res.Content)
	}
	if !strings.Contains(res.Content, "0.9") {
		t.Errorf("Content = %s, want score 0.9", res.Content)
	}
	if res.ToolCallID != "c1" {
		t.Errorf("ToolCallID = %s, want c1", res.ToolCallID)
	}
}

func TestRegistryInvokeUnknownTool(t *testing.T) {
	reg := NewRegistry(nil)
	res := reg.Invoke(context.Background(), core.ToolCall{ID: "c1", Name: "nope"})
	if !res.IsError {
		t.Fatal("Invoke() should return error payload for unknown tool")
	}
	if !strings.Contains(res.Content, "unknown tool") {
		t.Errorf("Content = %s, want unknown tool message", res.Content)
	}
}

func TestRegistryInvokeToolError(t *testing.T) {
	tool := &fakeTool{
		name: "broken",
		run: func(_ context.Context, _ json.RawMessage) (any, error) {
			return nil, errors.New("backend unavailable")
		},
	}
	reg := NewRegistry([]core.Tool{tool})

	res := reg.Invoke(context.Background(), core.ToolCall{ID: "c2", Name: "broken", Arguments: json.RawMessage(`{}`)})
	if !res.IsError {
		t.Fatal("Invoke() should mark tool failure as error payload")
	}
	if !strings.Contains(res.Content, "backend unavailable") {
		t.Errorf("Content = %s, want wrapped error message", res.Content)
	}
}

func TestRegistryInvokePanicIsContained(t *testing.T) {
	tool := &fakeTool{
		name: "panicky",
		run: func(_ context.Context, _ json.RawMessage) (any, error) {
			panic("boom")
		},
	}
	reg := NewRegistry([]core.Tool{tool})

	res := reg.Invoke(context.Background(), core.ToolCall{ID: "c3", Name: "panicky", Arguments: json.RawMessage(`{}`)})
	if !res.IsError {
		t.Fatal("Invoke() should contain panics as error payloads")
	}
}

func TestRegistryInvokeTimeout(t *testing.T) {
	tool := &fakeTool{
		name:    "slow",
		timeout: 20 * time.Millisecond,
		run: func(ctx context.Context, _ json.RawMessage) (any, error) {
			select {
			case <-time.After(5 * time.Second):
				return "done", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	reg := NewRegistry([]core.Tool{tool})

	res := reg.Invoke(context.Background(), core.ToolCall{ID: "c4", Name: "slow", Arguments: json.RawMessage(`{}`)})
	if !res.IsError {
		t.Fatal("Invoke() should degrade a timed-out tool to an error payload")
	}
	if !strings.Contains(res.Content, "timed out") {
		t.Errorf("Content = %s, want timeout message", res.Content)
	}
}

func TestRegistryCachesIdempotentResults(t *testing.T) {
	tool := &fakeTool{
		name: "cached",
		run: func(_ context.Context, _ json.RawMessage) (any, error) {
			return "value", nil
		},
	}
	reg := NewRegistry([]core.Tool{tool})

	call := core.ToolCall{ID: "c5", Name: "cached", Arguments: json.RawMessage(`{"domain":"example.org"}`)}
	reg.Invoke(context.Background(), call)
	reg.Invoke(context.Background(), call)

	if tool.calls != 1 {
		t.Errorf("tool executed %d times, want 1 (second call served from cache)", tool.calls)
	}
}

func TestRegistryDefinitionsSorted(t *testing.T) {
	reg := NewRegistry([]core.Tool{
		&fakeTool{name: "zeta"},
		&fakeTool{name: "alpha"},
	})
	defs := reg.Definitions()
	if len(defs) != 2 || defs[0].Name != "alpha" || defs[1].Name != "zeta" {
		t.Errorf("Definitions() not sorted: %+v", defs)
	}
}
