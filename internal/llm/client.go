// Package llm provides chat completion client implementations.
package llm

import "context"

// Client is the interface all chat completion providers implement.
// Primary, evaluator, and rerun calls are made through separate Client
// values so each can use a different endpoint and credentials.
type Client interface {
	// Chat sends a chat completion request. tools may be nil.
	Chat(ctx context.Context, model string, messages []Message, tools []map[string]any) (*ChatResponse, error)

	// ChatStructured sends a chat completion request whose response must
	// conform to the given JSON schema. No tools are offered.
	ChatStructured(ctx context.Context, model string, messages []Message, schema ResponseSchema) (*ChatResponse, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
