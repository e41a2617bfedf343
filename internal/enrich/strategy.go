package enrich

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
)

// Default title and seniority filters for the search strategies.
var (
	DefaultFreeTitles = []string{
		"Founder", "HR Director", "HR Manager", "CHRO", "Director", "HR", "Manager",
		"VP", "Vice President", "Head", "Chief", "Owner", "CEO", "CTO", "CFO", "COO",
	}
	DefaultSeniorities = []string{
		"owner", "founder", "c_suite", "vp", "head", "director", "manager", "senior", "lead",
	}
	DefaultPaidTitles = []string{"Founder", "HR Director", "HR Manager", "CHRO", "Director", "HR"}
)

// ChainConfig configures the search strategies.
type ChainConfig struct {
	FreeTitles  []string
	Seniorities []string
	PaidTitles  []string
}

func (c ChainConfig) withDefaults() ChainConfig {
	if len(c.FreeTitles) == 0 {
		c.FreeTitles = DefaultFreeTitles
	}
	if len(c.Seniorities) == 0 {
		c.Seniorities = DefaultSeniorities
	}
	if len(c.PaidTitles) == 0 {
		c.PaidTitles = DefaultPaidTitles
	}
	return c
}

type chainState int

const (
	stateFreeDomain chainState = iota
	statePaidDomain
	stateCompanyName
	stateOrganizationID
	stateDone
)

// ChainResult is the outcome of running the strategy chain.
type ChainResult struct {
	Stubs    []model.ContactStub
	Strategy string
	// Domain is the company domain the winning strategy searched, if any.
	Domain string
}

// Chain runs the search strategies in order and stops at the first one
// that yields stubs.
type Chain struct {
	client apollo.Client
	cfg    ChainConfig
}

// NewChain creates a strategy chain over client.
func NewChain(client apollo.Client, cfg ChainConfig) *Chain {
	return &Chain{client: client, cfg: cfg.withDefaults()}
}

// Run executes the chain for company. A company without a website starts at
// the name search. Exhausting every strategy yields an empty result, not an
// error; only a configuration error aborts.
func (c *Chain) Run(ctx context.Context, company model.CompanyRef, designation model.DesignationFilter, orgs *OrgCache) (ChainResult, error) {
	log := zap.L().With(zap.String("company", company.Name))
	domain := company.Domain()

	var (
		stubs []model.ContactStub
		err   error
		org   *apollo.Organization
	)
	searched := domain

	state := stateFreeDomain
	if domain == "" {
		state = stateCompanyName
	}

	for state != stateDone {
		next := stateDone
		strategy := ""

		switch state {
		case stateFreeDomain:
			strategy = model.StrategyFreeDomain
			stubs, err = c.freeSearch(ctx, apollo.PeopleQuery{Domains: []string{domain}}, designation, strategy)
			next = statePaidDomain
		case statePaidDomain:
			strategy = model.StrategyPaidDomain
			stubs, err = c.paidSearch(ctx, domain, designation, strategy)
			next = stateCompanyName
		case stateCompanyName:
			strategy = model.StrategyCompanyName
			org, err = orgs.Resolve(ctx, c.client, company)
			if err != nil || org == nil {
				break
			}
			d := model.NormalizeDomain(org.Domain)
			if d != "" {
				searched = d
			}
			if d != "" && d != domain {
				stubs, err = c.freeSearch(ctx, apollo.PeopleQuery{Domains: []string{d}}, designation, strategy)
				if err == nil && len(stubs) == 0 {
					stubs, err = c.paidSearch(ctx, d, designation, strategy)
				}
			}
			if org.ID != "" {
				next = stateOrganizationID
			}
		case stateOrganizationID:
			strategy = model.StrategyOrganization
			stubs, err = c.freeSearch(ctx, apollo.PeopleQuery{OrganizationIDs: []string{org.ID}}, designation, strategy)
		}

		if resilience.IsConfigError(err) {
			return ChainResult{}, eris.Wrapf(err, "enrich: %s", strategy)
		}
		if err != nil {
			log.Warn("enrich: strategy failed", zap.String("strategy", strategy), zap.Error(err))
			stubs = nil
		}
		if len(stubs) > 0 {
			log.Info("enrich: strategy found stubs",
				zap.String("strategy", strategy),
				zap.Int("stubs", len(stubs)),
			)
			return ChainResult{Stubs: stubs, Strategy: strategy, Domain: searched}, nil
		}
		log.Debug("enrich: strategy empty, falling through", zap.String("strategy", strategy))
		state = next
	}

	return ChainResult{Strategy: model.StrategyNone}, nil
}

func (c *Chain) freeSearch(ctx context.Context, q apollo.PeopleQuery, designation model.DesignationFilter, strategy string) ([]model.ContactStub, error) {
	q.Titles, q.Seniorities = c.cfg.FreeTitles, c.cfg.Seniorities
	if !designation.Empty() {
		q.Titles, q.Seniorities = []string(designation), nil
	}
	people, err := c.client.PeopleAPISearch(ctx, q)
	if err != nil {
		return nil, err
	}
	return toStubs(people, strategy), nil
}

// paidSearch issues one paid search per title and dedupes stubs by provider id.
func (c *Chain) paidSearch(ctx context.Context, domain string, designation model.DesignationFilter, strategy string) ([]model.ContactStub, error) {
	titles := c.cfg.PaidTitles
	if !designation.Empty() {
		titles = []string(designation)
	}

	var out []model.ContactStub
	seen := make(map[string]bool)
	for _, title := range titles {
		people, err := c.client.PeopleSearch(ctx, apollo.PeopleQuery{
			Domains: []string{domain},
			Titles:  []string{title},
		})
		if resilience.IsConfigError(err) {
			return nil, err
		}
		if err != nil {
			zap.L().Warn("enrich: paid title search failed",
				zap.String("domain", domain),
				zap.String("title", title),
				zap.Error(err),
			)
			continue
		}
		for _, s := range toStubs(people, strategy) {
			if s.ProviderID != "" {
				if seen[s.ProviderID] {
					continue
				}
				seen[s.ProviderID] = true
			}
			out = append(out, s)
		}
	}
	return out, nil
}

func toStubs(people []apollo.Person, strategy string) []model.ContactStub {
	stubs := make([]model.ContactStub, 0, len(people))
	for _, p := range people {
		name := p.Name
		if name == "" {
			name = model.FullName(p.FirstName, p.LastName)
		}
		stubs = append(stubs, model.ContactStub{
			ProviderID:         p.ID,
			Name:               name,
			FirstName:          p.FirstName,
			LastName:           p.LastName,
			Title:              p.Title,
			LinkedInURL:        p.LinkedInURL,
			OrganizationDomain: p.OrganizationDomain,
			OrganizationID:     p.OrganizationID,
			Source:             strategy,
		})
	}
	return stubs
}

// OrgCache memoizes organization lookups by company name for one run.
type OrgCache struct {
	mu   sync.Mutex
	orgs map[string]*apollo.Organization
}

// NewOrgCache returns an empty organization cache.
func NewOrgCache() *OrgCache {
	return &OrgCache{orgs: make(map[string]*apollo.Organization)}
}

// Resolve returns the best organization match for company, or nil. Misses
// are cached too so one run never pays for the same lookup twice.
func (o *OrgCache) Resolve(ctx context.Context, client apollo.Client, company model.CompanyRef) (*apollo.Organization, error) {
	name := strings.TrimSpace(company.Name)
	key := strings.ToLower(name)

	o.mu.Lock()
	org, ok := o.orgs[key]
	o.mu.Unlock()
	if ok {
		return org, nil
	}

	orgs, err := client.OrganizationSearch(ctx, apollo.OrganizationQuery{Name: name})
	if err != nil {
		return nil, err
	}
	if len(orgs) > 0 {
		org = &orgs[0]
	}

	o.mu.Lock()
	o.orgs[key] = org
	o.mu.Unlock()
	return org, nil
}
