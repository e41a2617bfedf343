package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/cache"
	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/filter"
	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
)

// RunRecorder persists a summary of each completed run.
type RunRecorder interface {
	RecordRun(ctx context.Context, result *model.EnrichmentResult) (*store.RunRecord, error)
}

// Config configures an Orchestrator.
type Config struct {
	Chain    ChainConfig
	Enricher EnricherConfig
	// CompanyMetrics resolves the company's headcount through an
	// organization search, which may cost a credit.
	CompanyMetrics bool
	// Headcount skips companies whose headcount falls outside these ranges
	// before any people search. Implies CompanyMetrics.
	Headcount filter.EmployeeRangeFilter
}

func (c Config) wantsHeadcount() bool {
	return c.CompanyMetrics || len(c.Headcount) > 0
}

// Orchestrator turns a company into a validated, filtered contact list.
type Orchestrator struct {
	client   apollo.Client
	cache    cache.ContactCache
	runs     RunRecorder
	chain    *Chain
	enricher *Enricher
	cfg      Config
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCache consults c before any provider call and stores fresh results in it.
func WithCache(c cache.ContactCache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithRunRecorder records a history row for every run.
func WithRunRecorder(r RunRecorder) Option {
	return func(o *Orchestrator) { o.runs = r }
}

// NewOrchestrator wires the chain and enricher over client.
func NewOrchestrator(client apollo.Client, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		chain:    NewChain(client, cfg.Chain),
		enricher: NewEnricher(client, cfg.Enricher),
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DiscoverAndEnrich returns the contacts for company that pass the title
// rules and the designation filter. Provider and cache failures degrade to
// fewer contacts; only invalid input, a configuration error or cancellation
// is returned as an error.
//
// Only runs without a designation populate the cache. A designated search
// asks the provider for those titles alone, so its contacts are not the
// company's full set. Lookups narrow the cached set by designation.
func (o *Orchestrator) DiscoverAndEnrich(ctx context.Context, company model.CompanyRef, designation model.DesignationFilter) (*model.EnrichmentResult, error) {
	if err := company.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	log := zap.L().With(zap.String("company", company.Name), zap.String("domain", company.Domain()))

	// Scope a ledger to this call so concurrent runs report their own spend.
	ledger := &cost.Ledger{}
	ctx = cost.WithLedger(apollo.WithRunScope(ctx), ledger)
	orgs := NewOrgCache()

	result := &model.EnrichmentResult{
		Company:  company,
		Contacts: []model.Contact{},
	}

	if o.cfg.wantsHeadcount() {
		employees, err := o.totalEmployees(ctx, company, orgs)
		if err != nil {
			return nil, err
		}
		result.Metrics.TotalEmployees = employees
		if !o.cfg.Headcount.Matches(employees) {
			result.StrategyUsed = model.StrategyNone
			result.OutOfRange = true
			o.settle(result, ledger)
			o.finish(ctx, result, start)
			log.Info("enrich: headcount outside requested ranges",
				zap.String("employees", employees),
				zap.Strings("ranges", o.cfg.Headcount),
			)
			return result, nil
		}
	}

	if cached := o.lookupCache(ctx, company, designation); cached != nil {
		result.Contacts = cached
		result.StrategyUsed = model.StrategyCache
		result.CacheHit = true
		o.settle(result, ledger)
		o.finish(ctx, result, start)
		return result, nil
	}

	chain, err := o.chain.Run(ctx, company, designation, orgs)
	if err != nil {
		return nil, err
	}
	result.StrategyUsed = chain.Strategy
	result.Stubs = len(chain.Stubs)

	if len(chain.Stubs) > 0 {
		target := chain.Domain
		if target == "" {
			target = company.Domain()
		}
		outcome, err := o.enricher.Enrich(ctx, chain.Stubs, target)
		if err != nil {
			return nil, err
		}
		result.Truncated = outcome.Truncated
		result.Failed = outcome.Failed
		result.Contacts = categorize(filter.Finalize(outcome.Contacts, designation))
	}
	o.settle(result, ledger)

	if o.cache != nil && designation.Empty() && len(result.Contacts) > 0 {
		if err := o.cache.Store(ctx, company, result.Contacts); err != nil {
			log.Warn("enrich: cache store failed", zap.Error(err))
		}
	}

	o.finish(ctx, result, start)
	log.Info("enrich: run complete",
		zap.String("strategy", result.StrategyUsed),
		zap.Int("stubs", result.Stubs),
		zap.Int("contacts", len(result.Contacts)),
		zap.Int("failed", result.Failed),
		zap.Int("credits", result.CreditsSpent),
	)
	return result, nil
}

// lookupCache returns the finalized cached contacts matching designation,
// or nil on a miss.
func (o *Orchestrator) lookupCache(ctx context.Context, company model.CompanyRef, designation model.DesignationFilter) []model.Contact {
	if o.cache == nil {
		return nil
	}
	cached, err := o.cache.Lookup(ctx, company, designation)
	if err != nil {
		zap.L().Warn("enrich: cache lookup failed", zap.String("company", company.Name), zap.Error(err))
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return nil
	}
	contacts := filter.Finalize(cached, designation)
	if len(contacts) == 0 {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return categorize(contacts)
}

// settle copies the run's spend and member counts into r.
func (o *Orchestrator) settle(r *model.EnrichmentResult, ledger *cost.Ledger) {
	snap := ledger.Snapshot()
	r.CreditsSpent = snap.Credits
	r.FreeCalls = snap.FreeCalls
	r.PaidCalls = snap.PaidCalls
	r.Metrics.ActiveMembers, r.Metrics.ActiveMembersWithEmail = countMembers(r.Contacts)
}

// finish publishes metrics and records run history.
func (o *Orchestrator) finish(ctx context.Context, r *model.EnrichmentResult, start time.Time) {
	metrics.EnrichRunsTotal.WithLabelValues(r.StrategyUsed).Inc()
	metrics.EnrichRunDuration.WithLabelValues(r.StrategyUsed).Observe(time.Since(start).Seconds())
	metrics.ContactsReturned.Observe(float64(len(r.Contacts)))
	metrics.CreditsSpentTotal.Add(float64(r.CreditsSpent))
	metrics.ProviderCallsTotal.WithLabelValues(string(cost.TierFree)).Add(float64(r.FreeCalls))
	metrics.ProviderCallsTotal.WithLabelValues(string(cost.TierPaid)).Add(float64(r.PaidCalls))
	metrics.EnrichFailuresTotal.Add(float64(r.Failed))
	if r.Truncated {
		metrics.TruncatedRunsTotal.Inc()
	}

	if o.runs == nil {
		return
	}
	if _, err := o.runs.RecordRun(ctx, r); err != nil {
		zap.L().Warn("enrich: record run failed", zap.String("company", r.Company.Name), zap.Error(eris.Wrap(err, "record run")))
	}
}

// totalEmployees reads the headcount from the organization record. The
// lookup is shared with the chain through orgs. Provider failures yield an
// empty count; credential errors and cancellation are returned.
func (o *Orchestrator) totalEmployees(ctx context.Context, company model.CompanyRef, orgs *OrgCache) (string, error) {
	org, err := orgs.Resolve(ctx, o.client, company)
	if err != nil {
		if resilience.IsConfigError(err) || ctx.Err() != nil {
			return "", err
		}
		zap.L().Warn("enrich: headcount lookup failed", zap.String("company", company.Name), zap.Error(err))
		return "", nil
	}
	if org == nil {
		return "", nil
	}
	return org.EmployeeCount, nil
}

func categorize(contacts []model.Contact) []model.Contact {
	for i := range contacts {
		contacts[i].ContactType = filter.Categorize(contacts[i].Title)
	}
	return contacts
}

func countMembers(contacts []model.Contact) (total, withEmail int) {
	for _, c := range contacts {
		if c.Email != "" {
			withEmail++
		}
	}
	return len(contacts), withEmail
}
