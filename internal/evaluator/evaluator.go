// Package evaluator implements the quality gate over candidate replies.
package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arpanb/emissary/internal/llm"
	"github.com/arpanb/emissary/internal/persona"
	"github.com/arpanb/emissary/internal/prompts"
)

// ErrMalformedEvaluation indicates the model returned a payload that does
// not conform to the Evaluation shape. This is a fatal integration error
// for the turn — never silently defaulted.
var ErrMalformedEvaluation = errors.New("malformed evaluation payload")

// Evaluation is the evaluator's structured judgement of a candidate reply.
type Evaluation struct {
	IsAcceptable bool   `json:"is_acceptable"`
	Feedback     string `json:"feedback"`
}

// Schema is the JSON schema the evaluator model must conform to.
var Schema = llm.ResponseSchema{
	Name: "evaluation",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_acceptable": map[string]any{
				"type":        "boolean",
				"description": "Whether the agent's latest response is acceptable quality",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Feedback on the response",
			},
		},
		"required":             []string{"is_acceptable", "feedback"},
		"additionalProperties": false,
	},
	Strict: true,
}

// Evaluator judges candidate replies against the agent's persona.
// It has no side effects and never retries.
type Evaluator struct {
	client   llm.Client
	model    string
	identity *persona.Identity
	logger   *slog.Logger
}

// New creates an evaluator using the given client and model.
func New(client llm.Client, model string, identity *persona.Identity, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		client:   client,
		model:    model,
		identity: identity,
		logger:   logger.With("component", "evaluator"),
	}
}

// Evaluate judges reply, given the user's triggering message and the
// prior conversation history (without tool scaffolding).
func (e *Evaluator) Evaluate(ctx context.Context, history []llm.Message, message, reply string) (*Evaluation, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.EvaluatorSystem(e.identity)},
		{Role: llm.RoleUser, Content: prompts.EvaluatorUser(history, message, reply)},
	}

	resp, err := e.client.ChatStructured(ctx, e.model, messages, Schema)
	if err != nil {
		return nil, fmt.Errorf("evaluator call: %w", err)
	}

	eval, err := parseEvaluation(resp.Message.Content)
	if err != nil {
		return nil, err
	}

	e.logger.Info("reply evaluated", "acceptable", eval.IsAcceptable)
	return eval, nil
}

// parseEvaluation validates the payload against the two-field shape
// explicitly rather than trusting the backend's schema guarantee.
// Unknown fields, missing fields, and trailing data are all rejected.
func parseEvaluation(content string) (*Evaluation, error) {
	var raw struct {
		IsAcceptable *bool   `json:"is_acceptable"`
		Feedback     *string `json:"feedback"`
	}

	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvaluation, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after evaluation object", ErrMalformedEvaluation)
	}
	if raw.IsAcceptable == nil {
		return nil, fmt.Errorf("%w: missing is_acceptable", ErrMalformedEvaluation)
	}
	if raw.Feedback == nil {
		return nil, fmt.Errorf("%w: missing feedback", ErrMalformedEvaluation)
	}

	return &Evaluation{
		IsAcceptable: *raw.IsAcceptable,
		Feedback:     *raw.Feedback,
	}, nil
}
