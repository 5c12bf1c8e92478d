// Package assistant runs a bounded agent loop: the model proposes tool calls,
// the registry executes them, and results feed back until the model answers
// in plain text or the turn budget runs out.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/omnihq/omnicrm/internal/apperr"
	"github.com/omnihq/omnicrm/internal/llm"
	"github.com/omnihq/omnicrm/internal/logger"
	"github.com/omnihq/omnicrm/internal/tools"
)

const defaultMaxTurns = 10

const systemPrompt = `You are the assistant for a wellness practitioner's client CRM.
You manage contacts, session notes, tasks, goals, habits, calendar events and
daily mood logs through the tools provided. Prefer tools over guessing; when a
tool fails, report the error code to the user instead of retrying blindly.
Dates are YYYY-MM-DD and timestamps are RFC 3339.`

// Assistant drives conversations against the tool registry.
type Assistant struct {
	provider llm.Provider
	registry *tools.Registry
	caller   tools.Caller
	maxTurns int
	log      *logger.Entry

	history []llm.Message
}

// Options configures an Assistant.
type Options struct {
	Provider llm.Provider
	Registry *tools.Registry
	Caller   tools.Caller
	MaxTurns int
}

// New builds an assistant with a fresh conversation.
func New(opts Options) *Assistant {
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &Assistant{
		provider: opts.Provider,
		registry: opts.Registry,
		caller:   opts.Caller,
		maxTurns: maxTurns,
		log:      logger.Named("assistant"),
		history:  []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}},
	}
}

// Send appends a user message, runs the loop and returns the assistant's
// final text reply. History is kept so follow-up messages share context.
func (a *Assistant) Send(ctx context.Context, userMessage string) (string, error) {
	a.history = append(a.history, llm.Message{Role: llm.RoleUser, Content: userMessage})

	specs, err := toolSpecs(a.registry)
	if err != nil {
		return "", err
	}

	for turn := 0; turn < a.maxTurns; turn++ {
		completion, err := a.provider.Complete(ctx, llm.Request{
			Messages: a.history,
			Tools:    specs,
		})
		if err != nil {
			return "", err
		}

		if len(completion.ToolCalls) == 0 {
			a.history = append(a.history, llm.Message{Role: llm.RoleAssistant, Content: completion.Text})
			return completion.Text, nil
		}

		a.history = append(a.history, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   completion.Text,
			ToolCalls: completion.ToolCalls,
		})
		for _, call := range completion.ToolCalls {
			result := a.dispatch(ctx, call)
			a.history = append(a.history, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}
	return "", fmt.Errorf("assistant: no final answer after %d turns", a.maxTurns)
}

// dispatch runs one tool call and serializes the outcome for the model.
// Failures become a structured error object rather than a loop abort, so the
// model can recover or explain.
func (a *Assistant) dispatch(ctx context.Context, call llm.ToolCall) string {
	a.log.WithFields(logger.Fields{"tool": call.Name}).Debug("dispatching tool call")

	payload, err := a.registry.Invoke(ctx, a.caller, call.Name, json.RawMessage(call.Arguments))
	if err != nil {
		ae, ok := apperr.As(err)
		if !ok {
			ae = apperr.Internal("TOOL_FAILED", err)
		}
		body, merr := json.Marshal(map[string]any{"error": ae})
		if merr != nil {
			return fmt.Sprintf(`{"error":{"code":%q}}`, ae.Code)
		}
		return string(body)
	}
	return string(payload)
}

// toolSpecs converts registry definitions into provider tool specs.
func toolSpecs(r *tools.Registry) ([]llm.ToolSpec, error) {
	defs := r.Definitions()
	specs := make([]llm.ToolSpec, 0, len(defs))
	for _, def := range defs {
		var params map[string]any
		if err := json.Unmarshal(def.InputSchema, &params); err != nil {
			return nil, fmt.Errorf("assistant: schema for %s: %w", def.Name, err)
		}
		specs = append(specs, llm.ToolSpec{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  params,
		})
	}
	return specs, nil
}
