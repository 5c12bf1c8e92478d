package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	santhosh "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/time/rate"

	"github.com/omnihq/omnicrm/internal/apperr"
	"github.com/omnihq/omnicrm/internal/logger"
	"github.com/omnihq/omnicrm/internal/metering"
)

// Caller identifies who is invoking a tool and with what capability level.
type Caller struct {
	ID         string
	Permission Permission
}

// Options configures the registry's metering runtime.
type Options struct {
	StartingCredits int64
	CacheSize       int
}

// Registry holds tool definitions and enforces their permission, rate-limit,
// credit and cache metadata on every invocation.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*registeredTool
	order  []string
	ledger *metering.Ledger
	cache  *metering.ResultCache
	log    *logger.Entry
}

type registeredTool struct {
	def        ToolDefinition
	validator  *santhosh.Schema
	schemaJSON json.RawMessage
	limiter    *rate.Limiter
}

// NewRegistry creates an empty registry with the given budgets.
func NewRegistry(opts Options) *Registry {
	if opts.StartingCredits <= 0 {
		opts.StartingCredits = 500
	}
	return &Registry{
		tools:  make(map[string]*registeredTool),
		ledger: metering.NewLedger(opts.StartingCredits),
		cache:  metering.NewResultCache(opts.CacheSize),
		log:    logger.Named("tools"),
	}
}

// Register compiles the tool's schema and adds it to the registry.
func (r *Registry) Register(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %s: handler is required", def.Name)
	}
	if def.InputSchema == nil {
		return fmt.Errorf("tool %s: input schema is required", def.Name)
	}

	validator, raw, err := compileValidator(def.InputSchema)
	if err != nil {
		return fmt.Errorf("tool %s: %w", def.Name, err)
	}

	rt := &registeredTool{def: def, validator: validator, schemaJSON: raw}
	if rl := def.RateLimit; rl != nil && rl.PerMinute > 0 {
		burst := rl.Burst
		if burst <= 0 {
			burst = rl.PerMinute
		}
		rt.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.PerMinute)), burst)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("tool %s: already registered", def.Name)
	}
	r.tools[def.Name] = rt
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister panics on registration failure; definitions are static, so a
// failure is a programming error.
func (r *Registry) MustRegister(def ToolDefinition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Definitions lists registered tools in registration order.
func (r *Registry) Definitions() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		rt := r.tools[name]
		info := Info{
			Name:        rt.def.Name,
			Description: rt.def.Description,
			Permission:  rt.def.Permission.String(),
			CreditCost:  rt.def.CreditCost,
			RateLimit:   rt.def.RateLimit,
			Idempotent:  rt.def.Idempotent,
			InputSchema: rt.schemaJSON,
		}
		if rt.def.CacheTTL > 0 {
			info.CacheTTLSec = int64(rt.def.CacheTTL / time.Second)
		}
		out = append(out, info)
	}
	return out
}

// Balance exposes the caller's remaining credits.
func (r *Registry) Balance(caller Caller) int64 {
	return r.ledger.Balance(caller.ID)
}

// Invoke runs a tool through the full pipeline: lookup, permission, schema
// validation, rate limit, credits, cache, handler. Validation runs before
// any repository access and before the call is billed.
func (r *Registry) Invoke(ctx context.Context, caller Caller, name string, input json.RawMessage) (json.RawMessage, error) {
	r.mu.RLock()
	rt, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("TOOL_NOT_FOUND", "tool %s is not registered", name)
	}
	def := rt.def

	if !caller.Permission.Allows(def.Permission) {
		return nil, &apperr.AppError{
			Code:      "PERMISSION_DENIED",
			Message:   fmt.Sprintf("tool %s requires %s permission", name, def.Permission),
			Category:  apperr.CategoryValidation,
			Retryable: false,
			Status:    403,
		}
	}

	if err := validateInput(rt.validator, input); err != nil {
		return nil, apperr.Invalid("INVALID_PARAMS", "tool %s: %v", name, err)
	}

	cacheable := def.CacheTTL > 0 && def.Permission == PermissionRead
	cacheKey := ""
	if cacheable {
		cacheKey = metering.Key(name, input)
		if payload, hit := r.cache.Get(cacheKey); hit {
			r.log.WithFields(logger.Fields{"tool": name, "caller": caller.ID}).Debug("cache hit")
			return payload, nil
		}
	}

	if rt.limiter != nil && !rt.limiter.Allow() {
		return nil, apperr.Metering("RATE_LIMITED",
			fmt.Sprintf("tool %s exceeded %d calls/minute", name, def.RateLimit.PerMinute), 429, true)
	}

	if !r.ledger.Debit(caller.ID, def.CreditCost) {
		return nil, apperr.Metering("INSUFFICIENT_CREDITS",
			fmt.Sprintf("tool %s costs %d credits, balance is %d", name, def.CreditCost, r.ledger.Balance(caller.ID)), 402, false)
	}

	started := time.Now()
	result, err := rt.def.Handler(ctx, input)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Internal(failureCode(name), err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, apperr.Internal(failureCode(name), err)
	}

	if cacheable {
		r.cache.Put(cacheKey, payload, def.CacheTTL)
	}

	r.log.WithFields(logger.Fields{
		"tool":    name,
		"caller":  caller.ID,
		"elapsed": time.Since(started).String(),
	}).Debug("tool invoked")
	return payload, nil
}

func failureCode(tool string) string {
	return strings.ToUpper(tool) + "_FAILED"
}
