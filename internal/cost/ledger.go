package cost

import (
	"context"
	"sync/atomic"
)

// Tier distinguishes free provider endpoints from credit-consuming ones.
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// Ledger counts provider invocations and credits. Safe for concurrent use.
type Ledger struct {
	free    atomic.Int64
	paid    atomic.Int64
	credits atomic.Int64
}

// Snapshot is a point-in-time copy of a Ledger.
type Snapshot struct {
	FreeCalls int `json:"free_calls"`
	PaidCalls int `json:"paid_calls"`
	Credits   int `json:"credits"`
}

// Record counts one successful invocation of an endpoint in the given tier.
// Free-tier calls never consume credits.
func (l *Ledger) Record(tier Tier, credits int) {
	if l == nil {
		return
	}
	if tier == TierFree {
		l.free.Add(1)
		return
	}
	l.paid.Add(1)
	l.credits.Add(int64(credits))
}

// Snapshot returns the current counter values.
func (l *Ledger) Snapshot() Snapshot {
	if l == nil {
		return Snapshot{}
	}
	return Snapshot{
		FreeCalls: int(l.free.Load()),
		PaidCalls: int(l.paid.Load()),
		Credits:   int(l.credits.Load()),
	}
}

type ledgerKey struct{}

// WithLedger returns a context carrying a per-call ledger. Callers that run
// several companies concurrently use it to attribute spend to one company.
func WithLedger(ctx context.Context, l *Ledger) context.Context {
	return context.WithValue(ctx, ledgerKey{}, l)
}

// FromContext returns the scoped ledger in ctx, or nil.
func FromContext(ctx context.Context) *Ledger {
	l, _ := ctx.Value(ledgerKey{}).(*Ledger)
	return l
}
