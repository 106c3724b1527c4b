// Package tooling implements the specialist tool registry: a mapping from
// tool name to an idempotent, independently timed-out function. Tool
// failures never abort a specialist run; they are serialized into error
// payloads the model can reason about.
package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/factmesh/factmesh/internal/core"
)

// DefaultToolTimeout bounds a tool invocation when the tool does not
// declare its own timeout.
const DefaultToolTimeout = 10 * time.Second

// DefaultCacheTTL is how long idempotent tool results are reused.
const DefaultCacheTTL = 5 * time.Minute

// Registry maps tool names to tools and executes invocations with
// timeouts, result caching and error capture.
type Registry struct {
	tools  map[string]core.Tool
	cache  *gocache.Cache
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithCacheTTL overrides the tool result cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.cache = gocache.New(ttl, 2*ttl)
	}
}

// NewRegistry creates a registry holding the given tools.
func NewRegistry(tools []core.Tool, opts ...Option) *Registry {
	r := &Registry{
		tools:  make(map[string]core.Tool, len(tools)),
		cache:  gocache.New(DefaultCacheTTL, 2*DefaultCacheTTL),
		logger: slog.Default(),
	}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (core.Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the tool definitions advertised to the model,
// sorted by name for stable prompts.
func (r *Registry) Definitions() []core.ToolDefinition {
	defs := make([]core.ToolDefinition, 0, len(r.tools))
	for _, name := range r.Names() {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Invoke executes one tool call and always returns a result: failures,
// unknown tools and timeouts become error payloads, never Go errors.
func (r *Registry) Invoke(ctx context.Context, call core.ToolCall) core.ToolResult {
	tool, ok := r.tools[call.Name]
	if !ok {
		return core.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    fmt.Sprintf(`{"error":"unknown tool %q"}`, call.Name),
			IsError:    true,
		}
	}

	cacheKey := call.Name + ":" + string(call.Arguments)
	if cached, found := r.cache.Get(cacheKey); found {
		return core.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    cached.(string),
		}
	}

	timeout := tool.Timeout()
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	toolCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	result, err := runSafely(toolCtx, tool, call.Arguments)
	elapsed := time.Since(started)

	if err != nil {
		r.logger.Warn("tool failed",
			"tool", call.Name, "duration", elapsed, "error", err)
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		return core.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    string(payload),
			IsError:    true,
		}
	}

	content, err := json.Marshal(result)
	if err != nil {
		payload, _ := json.Marshal(map[string]string{"error": "unserializable tool result: " + err.Error()})
		return core.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    string(payload),
			IsError:    true,
		}
	}

	r.logger.Debug("tool completed", "tool", call.Name, "duration", elapsed)
	r.cache.Set(cacheKey, string(content), gocache.DefaultExpiration)

	return core.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    string(content),
	}
}

// runSafely executes the tool, converting panics and context expiry into
// plain errors.
func runSafely(ctx context.Context, tool core.Tool, args json.RawMessage) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool panicked: %v", rec)
		}
	}()

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, runErr := tool.Run(ctx, args)
		done <- outcome{res, runErr}
	}()

	select {
	case <-ctx.Done():
		return nil, core.NewTimeoutError("tool_timeout", tool.Name()+" timed out").WithCause(ctx.Err())
	case out := <-done:
		return out.result, out.err
	}
}
