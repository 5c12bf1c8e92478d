package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/invopop/jsonschema"
)

// Permission is the capability level a tool requires and a caller holds.
type Permission int

const (
	PermissionRead Permission = iota
	PermissionWrite
	PermissionAdmin
)

func (p Permission) String() string {
	switch p {
	case PermissionWrite:
		return "write"
	case PermissionAdmin:
		return "admin"
	default:
		return "read"
	}
}

// ParsePermission maps a permission name to its level. Unknown values
// default to read.
func ParsePermission(s string) Permission {
	switch s {
	case "admin":
		return PermissionAdmin
	case "write":
		return PermissionWrite
	default:
		return PermissionRead
	}
}

// Allows reports whether a caller at this level may use a tool requiring need.
func (p Permission) Allows(need Permission) bool { return p >= need }

// RateLimit declares a per-tool invocation budget.
type RateLimit struct {
	PerMinute int `json:"per_minute"`
	Burst     int `json:"burst"`
}

// Handler executes a tool. Input is the raw JSON argument object, already
// validated against the tool's schema.
type Handler func(ctx context.Context, input json.RawMessage) (any, error)

// ToolDefinition pairs a tool's contract and metering metadata with its
// handler. The registry enforces the metadata at invoke time.
type ToolDefinition struct {
	Name        string
	Description string
	Permission  Permission
	CreditCost  int64
	RateLimit   *RateLimit
	CacheTTL    time.Duration
	Idempotent  bool
	InputSchema *jsonschema.Schema
	Handler     Handler
}

// Info is the externally visible description of a registered tool.
type Info struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Permission  string          `json:"permission"`
	CreditCost  int64           `json:"credit_cost"`
	RateLimit   *RateLimit      `json:"rate_limit,omitempty"`
	CacheTTLSec int64           `json:"cache_ttl_seconds,omitempty"`
	Idempotent  bool            `json:"idempotent"`
	InputSchema json.RawMessage `json:"input_schema"`
}
