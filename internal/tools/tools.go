// Package tools defines the tools available to the agent and dispatches
// model-requested tool calls.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/arpanb/emissary/internal/llm"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string                                                         `json:"name"`
	Description string                                                         `json:"description"`
	Parameters  map[string]any                                                 `json:"parameters"`
	Handler     func(ctx context.Context, args map[string]any) (string, error) `json:"-"`
}

// Registry holds available tools and resolves tool calls by name.
// The tool set is fixed at startup: no ambient-scope lookup.
type Registry struct {
	tools  map[string]*Tool
	logger *slog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger,
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Specs returns all tool declarations in the wire format the model
// expects, sorted by name for a stable prompt.
func (r *Registry) Specs() []map[string]any {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var specs []map[string]any
	for _, name := range names {
		t := r.tools[name]
		specs = append(specs, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return specs
}

// Dispatch executes the requested tool calls sequentially and returns one
// tool-role message per call, in call order, each tagged with the
// originating call id.
//
// An unknown tool name yields an empty-object result rather than failing
// the turn. Argument JSON that does not parse is fatal for the turn.
func (r *Registry) Dispatch(ctx context.Context, calls []llm.ToolCall) ([]llm.Message, error) {
	results := make([]llm.Message, 0, len(calls))

	for _, call := range calls {
		name := call.Function.Name
		tool := r.tools[name]
		if tool == nil {
			// Models occasionally hallucinate tool names. Degrade to an
			// empty result instead of aborting the whole turn.
			r.logger.Warn("unknown tool requested", "tool", name, "call_id", call.ID)
			results = append(results, llm.Message{
				Role:       llm.RoleTool,
				Content:    "{}",
				ToolCallID: call.ID,
			})
			continue
		}

		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("tool %s: invalid arguments: %w", name, err)
			}
		}

		r.logger.Info("tool called", "tool", name, "call_id", call.ID)

		result, err := tool.Handler(ctx, args)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", name, err)
		}

		results = append(results, llm.Message{
			Role:       llm.RoleTool,
			Content:    result,
			ToolCallID: call.ID,
		})
	}

	return results, nil
}
