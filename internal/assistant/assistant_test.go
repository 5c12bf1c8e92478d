package assistant

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omnihq/omnicrm/internal/apperr"
	"github.com/omnihq/omnicrm/internal/llm"
	"github.com/omnihq/omnicrm/internal/tools"
)

// scriptedProvider returns one canned completion per Complete call and
// records every request it sees.
type scriptedProvider struct {
	script   []llm.Completion
	requests []llm.Request
	calls    atomic.Int64
}

func (p *scriptedProvider) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	p.requests = append(p.requests, req)
	n := int(p.calls.Add(1)) - 1
	if n >= len(p.script) {
		return p.script[len(p.script)-1], nil
	}
	return p.script[n], nil
}

func pingRegistry(t *testing.T, handlerErr error) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry(tools.Options{})
	r.MustRegister(tools.ToolDefinition{
		Name:        "ping",
		Description: "Reply with pong.",
		Permission:  tools.PermissionRead,
		InputSchema: tools.GenerateSchema[struct{}](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			if handlerErr != nil {
				return nil, handlerErr
			}
			return map[string]string{"reply": "pong"}, nil
		},
	})
	return r
}

func TestSendPlainAnswer(t *testing.T) {
	t.Parallel()
	provider := &scriptedProvider{script: []llm.Completion{{Text: "All set."}}}
	a := New(Options{
		Provider: provider,
		Registry: pingRegistry(t, nil),
		Caller:   tools.Caller{ID: "u", Permission: tools.PermissionRead},
	})

	reply, err := a.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "All set.", reply)

	// the request carries the system prompt, the user turn and the tool specs
	req := provider.requests[0]
	require.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	require.Equal(t, llm.RoleUser, req.Messages[1].Role)
	require.Equal(t, "hello", req.Messages[1].Content)
	require.Len(t, req.Tools, 1)
	require.Equal(t, "ping", req.Tools[0].Name)
	require.Equal(t, "object", req.Tools[0].Parameters["type"])
}

func TestSendDispatchesToolCallAndFeedsResultBack(t *testing.T) {
	t.Parallel()
	provider := &scriptedProvider{script: []llm.Completion{
		{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "ping", Arguments: "{}"}}},
		{Text: "pong received"},
	}}
	a := New(Options{
		Provider: provider,
		Registry: pingRegistry(t, nil),
		Caller:   tools.Caller{ID: "u", Permission: tools.PermissionRead},
	})

	reply, err := a.Send(context.Background(), "ping please")
	require.NoError(t, err)
	require.Equal(t, "pong received", reply)
	require.EqualValues(t, 2, provider.calls.Load())

	// the second request ends with the tool result answering call_1
	second := provider.requests[1]
	last := second.Messages[len(second.Messages)-1]
	require.Equal(t, llm.RoleTool, last.Role)
	require.Equal(t, "call_1", last.ToolCallID)
	require.JSONEq(t, `{"reply":"pong"}`, last.Content)
}

func TestSendSerializesToolErrorsForTheModel(t *testing.T) {
	t.Parallel()
	provider := &scriptedProvider{script: []llm.Completion{
		{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "ping", Arguments: "{}"}}},
		{Text: "that contact does not exist"},
	}}
	a := New(Options{
		Provider: provider,
		Registry: pingRegistry(t, apperr.NotFound("CONTACT_NOT_FOUND", "contact x not found")),
		Caller:   tools.Caller{ID: "u", Permission: tools.PermissionRead},
	})

	reply, err := a.Send(context.Background(), "find x")
	require.NoError(t, err, "tool failures must not abort the loop")
	require.Equal(t, "that contact does not exist", reply)

	second := provider.requests[1]
	last := second.Messages[len(second.Messages)-1]
	require.Equal(t, llm.RoleTool, last.Role)

	var wrapped struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(last.Content), &wrapped))
	require.Equal(t, "CONTACT_NOT_FOUND", wrapped.Error.Code)
}

func TestSendUnknownToolIsReportedNotFatal(t *testing.T) {
	t.Parallel()
	provider := &scriptedProvider{script: []llm.Completion{
		{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "no_such_tool", Arguments: "{}"}}},
		{Text: "no such tool"},
	}}
	a := New(Options{
		Provider: provider,
		Registry: pingRegistry(t, nil),
		Caller:   tools.Caller{ID: "u", Permission: tools.PermissionRead},
	})

	reply, err := a.Send(context.Background(), "do the thing")
	require.NoError(t, err)
	require.Equal(t, "no such tool", reply)

	last := provider.requests[1].Messages[len(provider.requests[1].Messages)-1]
	require.Contains(t, last.Content, "TOOL_NOT_FOUND")
}

func TestSendTurnBudgetExhausted(t *testing.T) {
	t.Parallel()
	// the model keeps calling tools and never answers
	provider := &scriptedProvider{script: []llm.Completion{
		{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "ping", Arguments: "{}"}}},
	}}
	a := New(Options{
		Provider: provider,
		Registry: pingRegistry(t, nil),
		Caller:   tools.Caller{ID: "u", Permission: tools.PermissionRead},
		MaxTurns: 3,
	})

	_, err := a.Send(context.Background(), "loop forever")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no final answer after 3 turns")
	require.EqualValues(t, 3, provider.calls.Load())
}

func TestSendKeepsHistoryAcrossMessages(t *testing.T) {
	t.Parallel()
	provider := &scriptedProvider{script: []llm.Completion{
		{Text: "first"},
		{Text: "second"},
	}}
	a := New(Options{
		Provider: provider,
		Registry: pingRegistry(t, nil),
		Caller:   tools.Caller{ID: "u", Permission: tools.PermissionRead},
	})

	_, err := a.Send(context.Background(), "one")
	require.NoError(t, err)
	_, err = a.Send(context.Background(), "two")
	require.NoError(t, err)

	// system, user, assistant, user
	second := provider.requests[1]
	require.Len(t, second.Messages, 4)
	require.Equal(t, "one", second.Messages[1].Content)
	require.Equal(t, "first", second.Messages[2].Content)
	require.Equal(t, "two", second.Messages[3].Content)
}
