package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arpanb/emissary/internal/llm"
	"github.com/arpanb/emissary/internal/records"

	_ "github.com/mattn/go-sqlite3"
)

// captureNotifier records pushed messages for assertions.
type captureNotifier struct {
	pushed []string
	err    error
}

func (n *captureNotifier) Push(ctx context.Context, text string) error {
	n.pushed = append(n.pushed, text)
	return n.err
}

func builtinsFixture(t *testing.T) (*Registry, *records.Store, *captureNotifier) {
	t.Helper()
	store, err := records.NewStore(filepath.Join(t.TempDir(), "records.db"), nil)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	notifier := &captureNotifier{}
	r := NewRegistry(nil)
	RegisterBuiltins(r, store, notifier, nil)
	return r, store, notifier
}

func TestRecordUserDetails(t *testing.T) {
	r, store, notifier := builtinsFixture(t)
	ctx := context.Background()

	results, err := r.Dispatch(ctx, []llm.ToolCall{{
		ID: "call_1",
		Function: llm.FunctionCall{
			Name:      "record_user_details",
			Arguments: `{"email":"ada@example.com","name":"Ada","notes":"wants to collaborate"}`,
		},
	}})
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	if results[0].Content != `{"recorded": "ok"}` {
		t.Errorf("Content = %q", results[0].Content)
	}

	leads, err := store.ListLeads(ctx, 0)
	if err != nil {
		t.Fatalf("ListLeads() error: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("got %d leads, want 1", len(leads))
	}
	if leads[0].Email != "ada@example.com" || leads[0].Name != "Ada" {
		t.Errorf("lead = %+v", leads[0])
	}

	if len(notifier.pushed) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifier.pushed))
	}
	want := "Recording Ada with email ada@example.com and notes wants to collaborate"
	if notifier.pushed[0] != want {
		t.Errorf("notification = %q, want %q", notifier.pushed[0], want)
	}
}

func TestRecordUserDetailsDefaults(t *testing.T) {
	r, _, notifier := builtinsFixture(t)

	_, err := r.Dispatch(context.Background(), []llm.ToolCall{{
		ID:       "call_1",
		Function: llm.FunctionCall{Name: "record_user_details", Arguments: `{"email":"x@example.com"}`},
	}})
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}

	want := "Recording Name not provided with email x@example.com and notes not provided"
	if notifier.pushed[0] != want {
		t.Errorf("notification = %q, want %q", notifier.pushed[0], want)
	}
}

func TestRecordUserDetailsMissingEmail(t *testing.T) {
	r, _, _ := builtinsFixture(t)

	_, err := r.Dispatch(context.Background(), []llm.ToolCall{{
		ID:       "call_1",
		Function: llm.FunctionCall{Name: "record_user_details", Arguments: `{"name":"Ada"}`},
	}})
	if err == nil {
		t.Fatal("expected error for missing required email")
	}
}

func TestRecordUnknownQuestion(t *testing.T) {
	r, store, notifier := builtinsFixture(t)
	ctx := context.Background()

	results, err := r.Dispatch(ctx, []llm.ToolCall{{
		ID:       "call_1",
		Function: llm.FunctionCall{Name: "record_unknown_question", Arguments: `{"question":"What is your shoe size?"}`},
	}})
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if results[0].Content != `{"recorded": "ok"}` {
		t.Errorf("Content = %q", results[0].Content)
	}

	questions, err := store.ListUnknownQuestions(ctx, 0)
	if err != nil {
		t.Fatalf("ListUnknownQuestions() error: %v", err)
	}
	if len(questions) != 1 || questions[0].Question != "What is your shoe size?" {
		t.Errorf("questions = %+v", questions)
	}

	if len(notifier.pushed) != 1 || notifier.pushed[0] != "Recording What is your shoe size?" {
		t.Errorf("notifications = %v", notifier.pushed)
	}
}

func TestNotificationFailureDoesNotFailTool(t *testing.T) {
	store, err := records.NewStore(filepath.Join(t.TempDir(), "records.db"), nil)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	defer store.Close()

	notifier := &captureNotifier{err: context.DeadlineExceeded}
	r := NewRegistry(nil)
	RegisterBuiltins(r, store, notifier, nil)

	results, err := r.Dispatch(context.Background(), []llm.ToolCall{{
		ID:       "call_1",
		Function: llm.FunctionCall{Name: "record_unknown_question", Arguments: `{"question":"q"}`},
	}})
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if results[0].Content != `{"recorded": "ok"}` {
		t.Errorf("Content = %q", results[0].Content)
	}
}

func TestBuiltinsWithoutStore(t *testing.T) {
	notifier := &captureNotifier{}
	r := NewRegistry(nil)
	RegisterBuiltins(r, nil, notifier, nil)

	results, err := r.Dispatch(context.Background(), []llm.ToolCall{{
		ID:       "call_1",
		Function: llm.FunctionCall{Name: "record_unknown_question", Arguments: `{"question":"q"}`},
	}})
	if err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	if results[0].Content != `{"recorded": "ok"}` {
		t.Errorf("Content = %q", results[0].Content)
	}
}

func TestBuiltinSpecs(t *testing.T) {
	r, _, _ := builtinsFixture(t)

	specs := r.Specs()
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}

	fn := specs[0]["function"].(map[string]any)
	if fn["name"] != "record_unknown_question" {
		t.Errorf("specs[0] = %v", fn["name"])
	}
	params := fn["parameters"].(map[string]any)
	if params["additionalProperties"] != false {
		t.Error("additionalProperties should be false")
	}

	fn = specs[1]["function"].(map[string]any)
	if fn["name"] != "record_user_details" {
		t.Errorf("specs[1] = %v", fn["name"])
	}
}
