// Package metering enforces the credit, rate-limit and cache metadata that
// tool definitions declare.
package metering

import (
	"sync"
)

// Ledger tracks per-caller credit balances in memory. Balances reset on
// process restart; persistence is a non-goal for the tool runtime.
type Ledger struct {
	mu       sync.Mutex
	starting int64
	balances map[string]int64
}

// NewLedger creates a ledger granting each new caller the starting balance.
func NewLedger(starting int64) *Ledger {
	return &Ledger{starting: starting, balances: make(map[string]int64)}
}

// Balance returns the caller's remaining credits.
func (l *Ledger) Balance(caller string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(caller)
}

// Debit deducts cost from the caller's balance. It reports false, leaving the
// balance untouched, when credits are insufficient.
func (l *Ledger) Debit(caller string, cost int64) bool {
	if cost <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balance(caller)
	if bal < cost {
		return false
	}
	l.balances[caller] = bal - cost
	return true
}

// Refund returns credits to the caller, e.g. when a debited call was served
// from cache.
func (l *Ledger) Refund(caller string, amount int64) {
	if amount <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[caller] = l.balance(caller) + amount
}

func (l *Ledger) balance(caller string) int64 {
	if bal, ok := l.balances[caller]; ok {
		return bal
	}
	l.balances[caller] = l.starting
	return l.starting
}
