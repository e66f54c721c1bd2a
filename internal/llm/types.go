package llm

import "log/slog"

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Finish reasons reported by the provider.
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"
)

// Message represents a chat message.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool responses
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type,omitempty"` // always "function"
	Function FunctionCall `json:"function"`
}

// FunctionCall names the tool and carries its arguments. Arguments is the
// raw JSON string from the wire; parsing it is the dispatcher's job.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatResponse is the unified response from a provider.
type ChatResponse struct {
	Model        string
	Message      Message
	FinishReason string

	// Token usage (provider-neutral)
	InputTokens  int
	OutputTokens int
}

// ResponseSchema constrains a ChatStructured response to a JSON schema.
// Schema is a plain JSON-schema object; Strict requests exact conformance
// from providers that support it.
type ResponseSchema struct {
	Name   string
	Schema map[string]any
	Strict bool
}
