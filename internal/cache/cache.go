// Package cache implements the contact cache consulted before any provider call.
package cache

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/filter"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// ContactCache returns previously enriched contacts for a company.
// An empty result is a miss.
type ContactCache interface {
	Lookup(ctx context.Context, company model.CompanyRef, designation model.DesignationFilter) ([]model.Contact, error)
	Store(ctx context.Context, company model.CompanyRef, contacts []model.Contact) error
}

// applyDesignation keeps contacts whose title matches the designation filter.
func applyDesignation(contacts []model.Contact, designation model.DesignationFilter) []model.Contact {
	if designation.Empty() {
		return contacts
	}
	out := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		if filter.MatchesDesignation(c.Title, designation) {
			out = append(out, c)
		}
	}
	return out
}

// StoreCache backs the cache with a durable store.
type StoreCache struct {
	store store.Store
	ttl   time.Duration
}

// NewStoreCache wraps st. A ttl of zero stores rows that never expire.
func NewStoreCache(st store.Store, ttl time.Duration) *StoreCache {
	return &StoreCache{store: st, ttl: ttl}
}

func (c *StoreCache) Lookup(ctx context.Context, company model.CompanyRef, designation model.DesignationFilter) ([]model.Contact, error) {
	rows, err := c.store.LookupContacts(ctx, company.Key())
	if err != nil {
		return nil, eris.Wrap(err, "cache: store lookup")
	}
	return applyDesignation(rows, designation), nil
}

func (c *StoreCache) Store(ctx context.Context, company model.CompanyRef, contacts []model.Contact) error {
	return eris.Wrap(c.store.SaveContacts(ctx, company, contacts, c.ttl), "cache: store save")
}

// Tiered reads tiers in order and back-fills the faster tiers on a hit
// further down. Store writes every tier.
type Tiered struct {
	tiers []ContactCache
}

// NewTiered builds a tiered cache. Nil tiers are skipped.
func NewTiered(tiers ...ContactCache) *Tiered {
	t := &Tiered{}
	for _, c := range tiers {
		if c != nil {
			t.tiers = append(t.tiers, c)
		}
	}
	return t
}

func (t *Tiered) Lookup(ctx context.Context, company model.CompanyRef, designation model.DesignationFilter) ([]model.Contact, error) {
	for i, tier := range t.tiers {
		got, err := tier.Lookup(ctx, company, nil)
		if err != nil {
			zap.L().Warn("cache: tier lookup failed",
				zap.Int("tier", i),
				zap.String("company", company.Name),
				zap.Error(err),
			)
			continue
		}
		if len(got) == 0 {
			continue
		}
		for _, faster := range t.tiers[:i] {
			if err := faster.Store(ctx, company, got); err != nil {
				zap.L().Warn("cache: back-fill failed", zap.String("company", company.Name), zap.Error(err))
			}
		}
		return applyDesignation(got, designation), nil
	}
	return nil, nil
}

func (t *Tiered) Store(ctx context.Context, company model.CompanyRef, contacts []model.Contact) error {
	var firstErr error
	for _, tier := range t.tiers {
		if err := tier.Store(ctx, company, contacts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
