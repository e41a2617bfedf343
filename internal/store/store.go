package store

import (
	"context"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// RunRecord is one completed discover-and-enrich call.
type RunRecord struct {
	ID           string    `json:"id"`
	CompanyKey   string    `json:"company_key"`
	CompanyName  string    `json:"company_name"`
	Domain       string    `json:"domain"`
	StrategyUsed string    `json:"strategy_used"`
	Contacts     int       `json:"contacts"`
	CreditsSpent int       `json:"credits_spent"`
	CacheHit     bool      `json:"cache_hit"`
	Truncated    bool      `json:"truncated"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	CompanyKey string `json:"company_key,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for discovered contacts.
type Store interface {
	// Contacts cache
	SaveContacts(ctx context.Context, company model.CompanyRef, contacts []model.Contact, ttl time.Duration) error
	LookupContacts(ctx context.Context, companyKey string) ([]model.Contact, error)
	PurgeContacts(ctx context.Context, companyKey string) (int, error)
	DeleteExpiredContacts(ctx context.Context) (int, error)

	// Run history
	RecordRun(ctx context.Context, result *model.EnrichmentResult) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// contactColumns is the column order shared by both backends.
var contactColumns = []string{
	"id", "company_key", "company_name", "domain",
	"name", "first_name", "last_name", "email", "phone", "title",
	"linkedin_url", "source", "provider_id", "verdict", "contact_type",
	"created_at", "expires_at",
}

// expiry returns the absolute expiry for ttl, or nil when ttl is not positive.
func expiry(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := now.Add(ttl)
	return &t
}

func newRunRecord(id string, now time.Time, r *model.EnrichmentResult) *RunRecord {
	return &RunRecord{
		ID:           id,
		CompanyKey:   r.Company.Key(),
		CompanyName:  r.Company.Name,
		Domain:       r.Company.Domain(),
		StrategyUsed: r.StrategyUsed,
		Contacts:     len(r.Contacts),
		CreditsSpent: r.CreditsSpent,
		CacheHit:     r.CacheHit,
		Truncated:    r.Truncated,
		CreatedAt:    now,
	}
}

func listLimit(f RunFilter) int {
	if f.Limit <= 0 {
		return 50
	}
	return f.Limit
}
