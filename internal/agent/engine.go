// Package agent implements the conversation engine: the tool-call loop
// and the evaluate-then-maybe-regenerate quality gate.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arpanb/emissary/internal/evaluator"
	"github.com/arpanb/emissary/internal/llm"
	"github.com/arpanb/emissary/internal/persona"
	"github.com/arpanb/emissary/internal/prompts"
	"github.com/arpanb/emissary/internal/tools"
)

// DefaultMaxToolRounds bounds the tool-call loop when Config leaves
// MaxToolRounds unset.
const DefaultMaxToolRounds = 10

// Config wires an Engine. Primary and Rerun are separate clients so the
// two calls can use different endpoints and credentials.
type Config struct {
	Primary      llm.Client
	PrimaryModel string

	Rerun      llm.Client
	RerunModel string

	Evaluator *evaluator.Evaluator
	Registry  *tools.Registry
	Identity  *persona.Identity
	Logger    *slog.Logger

	// MaxToolRounds caps tool-execution rounds per turn. Once reached,
	// the model is re-invoked without tools to force a plain answer.
	MaxToolRounds int
}

// Engine processes one user turn at a time, synchronously. The only
// shared state between turns is the read-only identity.
type Engine struct {
	primary       llm.Client
	primaryModel  string
	rerun         llm.Client
	rerunModel    string
	eval          *evaluator.Evaluator
	registry      *tools.Registry
	identity      *persona.Identity
	logger        *slog.Logger
	maxToolRounds int
}

// New creates a conversation engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxRounds := cfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	return &Engine{
		primary:       cfg.Primary,
		primaryModel:  cfg.PrimaryModel,
		rerun:         cfg.Rerun,
		rerunModel:    cfg.RerunModel,
		eval:          cfg.Evaluator,
		registry:      cfg.Registry,
		identity:      cfg.Identity,
		logger:        logger.With("component", "engine"),
		maxToolRounds: maxRounds,
	}
}

// Reply answers one user message given the caller-supplied prior
// history, and returns the final reply text.
//
// The model may request tool execution any number of rounds (up to the
// configured cap) before producing a candidate reply. The candidate is
// then evaluated; a rejected candidate triggers exactly one regeneration
// through the rerun client, whose output is returned without further
// evaluation.
func (e *Engine) Reply(ctx context.Context, history []llm.Message, userMessage string) (string, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: prompts.System(e.identity)})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})

	candidate, err := e.generate(ctx, messages)
	if err != nil {
		return "", err
	}

	eval, err := e.eval.Evaluate(ctx, history, userMessage, candidate)
	if err != nil {
		return "", err
	}

	if eval.IsAcceptable {
		e.logger.Info("reply accepted")
		return candidate, nil
	}

	e.logger.Info("reply rejected, regenerating", "feedback", eval.Feedback)
	return e.regenerate(ctx, history, userMessage, candidate, eval.Feedback)
}

// generate drives the tool-call loop until the model produces a plain
// answer. Every requested tool call is resolved, in order, before the
// next model invocation.
func (e *Engine) generate(ctx context.Context, messages []llm.Message) (string, error) {
	specs := e.registry.Specs()

	for round := 0; round < e.maxToolRounds; round++ {
		resp, err := e.primary.Chat(ctx, e.primaryModel, messages, specs)
		if err != nil {
			return "", fmt.Errorf("primary model: %w", err)
		}

		if resp.FinishReason != llm.FinishToolCalls || len(resp.Message.ToolCalls) == 0 {
			return resp.Message.Content, nil
		}

		e.logger.Debug("tool round", "round", round, "calls", len(resp.Message.ToolCalls))

		results, err := e.registry.Dispatch(ctx, resp.Message.ToolCalls)
		if err != nil {
			return "", err
		}

		messages = append(messages, resp.Message)
		messages = append(messages, results...)
	}

	// Round cap reached: ask once more without tools so the model has to
	// answer in plain text with whatever tool results it already has.
	e.logger.Warn("tool round cap reached, forcing plain answer", "cap", e.maxToolRounds)
	resp, err := e.primary.Chat(ctx, e.primaryModel, messages, nil)
	if err != nil {
		return "", fmt.Errorf("primary model: %w", err)
	}
	return resp.Message.Content, nil
}

// regenerate retries a rejected reply exactly once through the rerun
// client. The annotated system prompt carries the rejected text and the
// evaluator's feedback; no tools are offered, and the result is returned
// without re-evaluation.
func (e *Engine) regenerate(ctx context.Context, history []llm.Message, userMessage, rejected, feedback string) (string, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: prompts.Rerun(e.identity, rejected, feedback)})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})

	resp, err := e.rerun.Chat(ctx, e.rerunModel, messages, nil)
	if err != nil {
		return "", fmt.Errorf("rerun model: %w", err)
	}
	return resp.Message.Content, nil
}
