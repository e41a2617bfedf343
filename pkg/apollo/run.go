package apollo

import (
	"context"
	"sync/atomic"
)

// runScope remembers a credential rejection for the lifetime of one run.
type runScope struct {
	rejected atomic.Bool
}

type runScopeKey struct{}

// WithRunScope marks ctx as one unit of work: a single company, a batch or a
// transfer. After the provider rejects the API key inside a scope, later
// calls in that scope fail fast without a request. A new scope sends
// requests again, so a long-lived process recovers once the key is fixed.
// If ctx already carries a scope it is returned unchanged, so a batch and
// the companies inside it share one.
func WithRunScope(ctx context.Context) context.Context {
	if scopeFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, runScopeKey{}, &runScope{})
}

func scopeFrom(ctx context.Context) *runScope {
	s, _ := ctx.Value(runScopeKey{}).(*runScope)
	return s
}

// halted reports whether credentials were already rejected in this scope.
func (s *runScope) halted() bool {
	return s != nil && s.rejected.Load()
}

// halt records a rejection and reports whether it is the first in the scope.
// Calls outside any scope always report true.
func (s *runScope) halt() bool {
	if s == nil {
		return true
	}
	return s.rejected.CompareAndSwap(false, true)
}
