// Package prompts assembles the system and evaluator prompts.
//
// Prompts are plain string concatenation over the loaded persona —
// deliberately no template engine and no provider-specific formatting.
package prompts

import (
	"fmt"
	"strings"

	"github.com/arpanb/emissary/internal/llm"
	"github.com/arpanb/emissary/internal/persona"
)

// System returns the main agent system prompt: persona instructions
// followed by the grounding context.
func System(id *persona.Identity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are acting as %s. You are answering questions on %s's website, "+
		"particularly questions related to %s's career, background, skills and experience. "+
		"Your responsibility is to represent %s for interactions on the website as faithfully as possible. "+
		"You are given a summary of %s's background and profile which you can use to answer questions. "+
		"Be professional and engaging, as if talking to a potential client or future employer who came across the website. "+
		"If you don't know the answer to any question, use your record_unknown_question tool to record the question that you couldn't answer, "+
		"even if it's about something trivial or unrelated to career. "+
		"If the user is engaging in discussion, try to steer them towards getting in touch via email; "+
		"ask for their email and record it using your record_user_details tool.",
		id.Name, id.Name, id.Name, id.Name, id.Name)

	writeContext(&b, id)
	fmt.Fprintf(&b, "With this context, please chat with the user, always staying in character as %s.", id.Name)

	return b.String()
}

// Rerun returns the regeneration system prompt: the original grounding
// prompt annotated with the rejected reply and the evaluator's feedback.
func Rerun(id *persona.Identity, rejected, feedback string) string {
	var b strings.Builder

	b.WriteString(System(id))
	b.WriteString("\n\n## Previous answer rejected\nYou just tried to reply, but the quality control rejected your reply\n")
	fmt.Fprintf(&b, "## Your attempted answer:\n%s\n\n", rejected)
	fmt.Fprintf(&b, "## Reason for rejection:\n%s\n\n", feedback)

	return b.String()
}

// EvaluatorSystem returns the evaluator's system prompt: the judging task
// plus the same grounding context the agent was given.
func EvaluatorSystem(id *persona.Identity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an evaluator that decides whether a response to a question is acceptable. "+
		"You are provided with a conversation between a User and an Agent. "+
		"Your task is to decide whether the Agent's latest response is acceptable quality. "+
		"The Agent is playing the role of %s and is representing %s on their website. "+
		"The Agent has been instructed to be professional and engaging, as if talking to a potential client or future employer who came across the website. "+
		"The Agent has been provided with context on %s in the form of their summary and profile. Here's the information:",
		id.Name, id.Name, id.Name)

	writeContext(&b, id)
	b.WriteString("With this context, please evaluate the latest response, replying with whether the response is acceptable and your feedback.")

	return b.String()
}

// EvaluatorUser returns the evaluator's user prompt embedding the prior
// conversation, the triggering user message, and the candidate reply.
func EvaluatorUser(history []llm.Message, message, reply string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Here's the conversation between the User and the Agent:\n\n%s\n\n", FormatHistory(history))
	fmt.Fprintf(&b, "Here's the latest message from the User:\n\n%s\n\n", message)
	fmt.Fprintf(&b, "Here's the latest response from the Agent:\n\n%s\n\n", reply)
	b.WriteString("Please evaluate the response, replying with whether it is acceptable and your feedback.")

	return b.String()
}

// FormatHistory renders a conversation as role-prefixed lines. Tool
// scaffolding (tool requests and results) is skipped — the evaluator
// judges only what the user saw.
func FormatHistory(history []llm.Message) string {
	if len(history) == 0 {
		return "(no prior conversation)"
	}

	var b strings.Builder
	for _, m := range history {
		if m.Role == llm.RoleTool || len(m.ToolCalls) > 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(m.Role[:1])+m.Role[1:], m.Content)
	}
	return strings.TrimSpace(b.String())
}

func writeContext(b *strings.Builder, id *persona.Identity) {
	fmt.Fprintf(b, "\n\n## Summary:\n%s\n\n## Profile:\n%s\n\n", id.Summary, id.Profile)
}
