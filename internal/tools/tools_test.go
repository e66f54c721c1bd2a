package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/arpanb/emissary/internal/llm"
)

func echoTool(name string) *Tool {
	return &Tool{
		Name:        name,
		Description: "echoes its input",
		Parameters:  map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			out, _ := json.Marshal(args)
			return string(out), nil
		},
	}
}

func TestDispatchOrderAndIDs(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(echoTool("first"))
	r.Register(echoTool("second"))

	calls := []llm.ToolCall{
		{ID: "call_1", Function: llm.FunctionCall{Name: "first", Arguments: `{"a":1}`}},
		{ID: "call_2", Function: llm.FunctionCall{Name: "second", Arguments: `{"b":2}`}},
		{ID: "call_3", Function: llm.FunctionCall{Name: "first", Arguments: `{}`}},
	}

	results, err := r.Dispatch(context.Background(), calls)
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	if len(results) != len(calls) {
		t.Fatalf("got %d results, want %d", len(results), len(calls))
	}
	for i, res := range results {
		if res.ToolCallID != calls[i].ID {
			t.Errorf("results[%d].ToolCallID = %q, want %q", i, res.ToolCallID, calls[i].ID)
		}
		if res.Role != llm.RoleTool {
			t.Errorf("results[%d].Role = %q, want tool", i, res.Role)
		}
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry(nil)

	results, err := r.Dispatch(context.Background(), []llm.ToolCall{
		{ID: "call_9", Function: llm.FunctionCall{Name: "does_not_exist", Arguments: `{"x":1}`}},
	})
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Content != "{}" {
		t.Errorf("Content = %q, want empty object", results[0].Content)
	}
	if results[0].ToolCallID != "call_9" {
		t.Errorf("ToolCallID = %q", results[0].ToolCallID)
	}
}

func TestDispatchMalformedArguments(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(echoTool("echo"))

	_, err := r.Dispatch(context.Background(), []llm.ToolCall{
		{ID: "call_1", Function: llm.FunctionCall{Name: "echo", Arguments: `{not json`}},
	})
	if err == nil {
		t.Fatal("expected error for malformed arguments")
	}
}

func TestDispatchHandlerError(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&Tool{
		Name:       "failing",
		Parameters: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "", fmt.Errorf("boom")
		},
	})

	_, err := r.Dispatch(context.Background(), []llm.ToolCall{
		{ID: "call_1", Function: llm.FunctionCall{Name: "failing", Arguments: `{}`}},
	})
	if err == nil {
		t.Fatal("expected handler error to propagate")
	}
}

func TestDispatchEmptyArguments(t *testing.T) {
	r := NewRegistry(nil)
	var gotArgs map[string]any
	r.Register(&Tool{
		Name:       "capture",
		Parameters: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			gotArgs = args
			return "{}", nil
		},
	})

	_, err := r.Dispatch(context.Background(), []llm.ToolCall{
		{ID: "call_1", Function: llm.FunctionCall{Name: "capture"}},
	})
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if gotArgs == nil || len(gotArgs) != 0 {
		t.Errorf("args = %v, want empty map", gotArgs)
	}
}

func TestSpecsStableOrder(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(echoTool("zeta"))
	r.Register(echoTool("alpha"))
	r.Register(echoTool("mid"))

	specs := r.Specs()
	if len(specs) != 3 {
		t.Fatalf("got %d specs, want 3", len(specs))
	}

	var names []string
	for _, s := range specs {
		if s["type"] != "function" {
			t.Errorf("spec type = %v, want function", s["type"])
		}
		fn := s["function"].(map[string]any)
		names = append(names, fn["name"].(string))
	}

	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("specs order = %v, want %v", names, want)
			break
		}
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(echoTool("echo"))

	if r.Get("echo") == nil {
		t.Error("Get(echo) = nil")
	}
	if r.Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}
}
