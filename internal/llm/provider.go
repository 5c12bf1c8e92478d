// Package llm abstracts the chat model behind a small provider interface so
// the assistant loop does not depend on a vendor SDK.
package llm

import "context"

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the conversation. Tool result messages carry the
// ToolCallID they answer; assistant messages may carry the calls they issued.
type Message struct {
	Role       Role
	Content    string
	ToolCallID string
	ToolCalls  []ToolCall
}

// ToolSpec describes a callable tool for the model. Parameters is a JSON
// Schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a function invocation requested by the model. Arguments is the
// raw JSON argument string as produced by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Completion is one model turn: assistant text, tool calls, or both.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Request carries one completion call.
type Request struct {
	Messages []Message
	Tools    []ToolSpec
}

// Provider produces completions.
type Provider interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}
