package tools

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omnihq/omnicrm/internal/apperr"
)

type echoInput struct {
	Value string `json:"value"`
}

func echoTool(name string, calls *atomic.Int64, mutate func(*ToolDefinition)) ToolDefinition {
	def := ToolDefinition{
		Name:        name,
		Description: "echo the value back",
		Permission:  PermissionRead,
		CreditCost:  1,
		InputSchema: GenerateSchema[echoInput](),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			if calls != nil {
				calls.Add(1)
			}
			var in echoInput
			if err := json.Unmarshal(raw, &in); err != nil {
				return nil, err
			}
			return map[string]string{"value": in.Value}, nil
		},
	}
	if mutate != nil {
		mutate(&def)
	}
	return def
}

func TestRegistryUnknownTool(t *testing.T) {
	t.Parallel()
	r := NewRegistry(Options{})
	_, err := r.Invoke(context.Background(), Caller{ID: "u", Permission: PermissionAdmin}, "nope", nil)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "TOOL_NOT_FOUND", ae.Code)
	require.Equal(t, 404, ae.Status)
}

func TestRegistryPermissionDenied(t *testing.T) {
	t.Parallel()
	r := NewRegistry(Options{})
	r.MustRegister(echoTool("wipe", nil, func(d *ToolDefinition) { d.Permission = PermissionAdmin }))

	_, err := r.Invoke(context.Background(), Caller{ID: "u", Permission: PermissionWrite}, "wipe", json.RawMessage(`{"value":"x"}`))
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "PERMISSION_DENIED", ae.Code)
	require.Equal(t, 403, ae.Status)
	require.False(t, ae.Retryable)
}

func TestRegistryValidatesBeforeHandler(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	r := NewRegistry(Options{})
	r.MustRegister(echoTool("echo", &calls, nil))
	caller := Caller{ID: "u", Permission: PermissionRead}

	// missing required field
	_, err := r.Invoke(context.Background(), caller, "echo", json.RawMessage(`{}`))
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "INVALID_PARAMS", ae.Code)

	// unknown field is rejected by the closed schema
	_, err = r.Invoke(context.Background(), caller, "echo", json.RawMessage(`{"value":"x","extra":1}`))
	ae, ok = apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "INVALID_PARAMS", ae.Code)

	// wrong type
	_, err = r.Invoke(context.Background(), caller, "echo", json.RawMessage(`{"value":7}`))
	_, ok = apperr.As(err)
	require.True(t, ok)

	require.EqualValues(t, 0, calls.Load(), "handler must not run on invalid input")

	// rejected calls are not billed
	require.EqualValues(t, 500, r.Balance(caller))
}

func TestRegistryRateLimit(t *testing.T) {
	t.Parallel()
	r := NewRegistry(Options{})
	r.MustRegister(echoTool("echo", nil, func(d *ToolDefinition) {
		d.RateLimit = &RateLimit{PerMinute: 1, Burst: 1}
	}))
	caller := Caller{ID: "u", Permission: PermissionRead}
	input := json.RawMessage(`{"value":"x"}`)

	_, err := r.Invoke(context.Background(), caller, "echo", input)
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), caller, "echo", input)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "RATE_LIMITED", ae.Code)
	require.Equal(t, 429, ae.Status)
	require.True(t, ae.Retryable)
}

func TestRegistryCreditExhaustion(t *testing.T) {
	t.Parallel()
	r := NewRegistry(Options{StartingCredits: 3})
	r.MustRegister(echoTool("echo", nil, func(d *ToolDefinition) { d.CreditCost = 2 }))
	caller := Caller{ID: "u", Permission: PermissionRead}
	input := json.RawMessage(`{"value":"x"}`)

	_, err := r.Invoke(context.Background(), caller, "echo", input)
	require.NoError(t, err)
	require.EqualValues(t, 1, r.Balance(caller))

	_, err = r.Invoke(context.Background(), caller, "echo", input)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "INSUFFICIENT_CREDITS", ae.Code)
	require.Equal(t, 402, ae.Status)
	require.EqualValues(t, 1, r.Balance(caller), "failed call must not be billed")
}

func TestRegistryCacheHitIsFree(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	r := NewRegistry(Options{StartingCredits: 100})
	r.MustRegister(echoTool("echo", &calls, func(d *ToolDefinition) { d.CacheTTL = time.Minute }))
	caller := Caller{ID: "u", Permission: PermissionRead}
	input := json.RawMessage(`{"value":"x"}`)

	first, err := r.Invoke(context.Background(), caller, "echo", input)
	require.NoError(t, err)
	second, err := r.Invoke(context.Background(), caller, "echo", input)
	require.NoError(t, err)

	require.JSONEq(t, string(first), string(second))
	require.EqualValues(t, 1, calls.Load(), "second call must be served from cache")
	require.EqualValues(t, 99, r.Balance(caller), "cache hits are not billed")

	// a different input misses the cache
	_, err = r.Invoke(context.Background(), caller, "echo", json.RawMessage(`{"value":"y"}`))
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())
}

func TestRegistryWriteToolsAreNeverCached(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	r := NewRegistry(Options{})
	r.MustRegister(echoTool("mutate", &calls, func(d *ToolDefinition) {
		d.Permission = PermissionWrite
		d.CacheTTL = time.Minute
	}))
	caller := Caller{ID: "u", Permission: PermissionWrite}
	input := json.RawMessage(`{"value":"x"}`)

	_, err := r.Invoke(context.Background(), caller, "mutate", input)
	require.NoError(t, err)
	_, err = r.Invoke(context.Background(), caller, "mutate", input)
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())
}

func TestRegistryWrapsHandlerErrors(t *testing.T) {
	t.Parallel()
	r := NewRegistry(Options{})
	def := echoTool("echo", nil, nil)
	def.Handler = func(ctx context.Context, raw json.RawMessage) (any, error) {
		return nil, context.DeadlineExceeded
	}
	r.MustRegister(def)

	_, err := r.Invoke(context.Background(), Caller{ID: "u", Permission: PermissionRead}, "echo", json.RawMessage(`{"value":"x"}`))
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "ECHO_FAILED", ae.Code)
	require.Equal(t, 500, ae.Status)
}

func TestRegistryPassesThroughAppErrors(t *testing.T) {
	t.Parallel()
	r := NewRegistry(Options{})
	def := echoTool("echo", nil, nil)
	def.Handler = func(ctx context.Context, raw json.RawMessage) (any, error) {
		return nil, apperr.NotFound("CONTACT_NOT_FOUND", "contact x not found")
	}
	r.MustRegister(def)

	_, err := r.Invoke(context.Background(), Caller{ID: "u", Permission: PermissionRead}, "echo", json.RawMessage(`{"value":"x"}`))
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, "CONTACT_NOT_FOUND", ae.Code)
	require.True(t, ae.Retryable)
}

func TestRegistryRejectsDuplicateRegistration(t *testing.T) {
	t.Parallel()
	r := NewRegistry(Options{})
	require.NoError(t, r.Register(echoTool("echo", nil, nil)))
	require.Error(t, r.Register(echoTool("echo", nil, nil)))
}

func TestDefinitionsExposeMetadata(t *testing.T) {
	t.Parallel()
	r := NewRegistry(Options{})
	r.MustRegister(echoTool("echo", nil, func(d *ToolDefinition) {
		d.CacheTTL = 30 * time.Second
		d.Idempotent = true
		d.RateLimit = &RateLimit{PerMinute: 60}
	}))

	defs := r.Definitions()
	require.Len(t, defs, 1)
	require.Equal(t, "echo", defs[0].Name)
	require.Equal(t, "read", defs[0].Permission)
	require.EqualValues(t, 30, defs[0].CacheTTLSec)
	require.True(t, defs[0].Idempotent)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(defs[0].InputSchema, &schema))
	require.Equal(t, "object", schema["type"])
	require.Equal(t, false, schema["additionalProperties"])
}
