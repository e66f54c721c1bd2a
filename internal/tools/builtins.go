package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arpanb/emissary/internal/notify"
	"github.com/arpanb/emissary/internal/records"
)

// recordedOK is the fixed acknowledgement every builtin returns to the model.
const recordedOK = `{"recorded": "ok"}`

// RegisterBuiltins adds the agent's two tools: recording contact details
// from interested visitors and recording questions the agent couldn't
// answer. Both persist to store (when non-nil) and push a notification.
// Notification delivery is best-effort; failures are logged, never
// surfaced to the model.
func RegisterBuiltins(r *Registry, store *records.Store, notifier notify.Notifier, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}

	r.Register(&Tool{
		Name:        "record_user_details",
		Description: "Use this tool to record that a user is interested in being in touch and provided an email address",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"email": map[string]any{
					"type":        "string",
					"description": "The email address of this user",
				},
				"name": map[string]any{
					"type":        "string",
					"description": "The user's name, if they provided it",
				},
				"notes": map[string]any{
					"type":        "string",
					"description": "Any additional information about the conversation that's worth recording to give context",
				},
			},
			"required":             []string{"email"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			email, _ := args["email"].(string)
			if email == "" {
				return "", fmt.Errorf("email is required")
			}
			name := stringArg(args, "name", "Name not provided")
			notes := stringArg(args, "notes", "not provided")

			if store != nil {
				if _, err := store.AddLead(ctx, email, name, notes); err != nil {
					return "", fmt.Errorf("record lead: %w", err)
				}
			}

			text := fmt.Sprintf("Recording %s with email %s and notes %s", name, email, notes)
			if err := notifier.Push(ctx, text); err != nil {
				logger.Warn("notification failed", "tool", "record_user_details", "error", err)
			}

			return recordedOK, nil
		},
	})

	r.Register(&Tool{
		Name:        "record_unknown_question",
		Description: "Always use this tool to record any question that couldn't be answered as you didn't know the answer",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question": map[string]any{
					"type":        "string",
					"description": "The question that couldn't be answered",
				},
			},
			"required":             []string{"question"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			question, _ := args["question"].(string)
			if question == "" {
				return "", fmt.Errorf("question is required")
			}

			if store != nil {
				if _, err := store.AddUnknownQuestion(ctx, question); err != nil {
					return "", fmt.Errorf("record question: %w", err)
				}
			}

			if err := notifier.Push(ctx, fmt.Sprintf("Recording %s", question)); err != nil {
				logger.Warn("notification failed", "tool", "record_unknown_question", "error", err)
			}

			return recordedOK, nil
		},
	})
}

// stringArg returns the named string argument, or fallback when absent
// or empty.
func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
