package enrich

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/cache"
	"github.com/sells-group/leadgen-cli/internal/filter"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/apollo/mocks"
)

var acme = model.CompanyRef{Name: "Acme", Website: "https://www.acme.com/about"}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// expectAcme wires the two-stub free search with one verified and one
// unverified reveal.
func expectAcme(client *mocks.MockClient) {
	client.On("PeopleAPISearch", mock.Anything, byDomain("acme.com")).Return(freeSearch(
		apollo.Person{ID: "p1", Name: "Alice Smith", Title: "CEO"},
		apollo.Person{ID: "p2", Name: "Bob Jones", Title: "CTO"},
	)).Once()
	client.On("PeopleMatch", mock.Anything, "p1").
		Return(revealed(&apollo.Person{ID: "p1", Name: "Alice Smith", Title: "CEO", Email: "alice@acme.com"})).Once()
	client.On("PeopleMatch", mock.Anything, "p2").
		Return(revealed(&apollo.Person{ID: "p2", Name: "Bob Jones", Title: "CTO", Email: "bob@other.com"})).Once()
}

func TestOrchestrator_EndToEnd(t *testing.T) {
	client := mocks.NewMockClient(t)
	expectAcme(client)

	o := NewOrchestrator(client, Config{})
	res, err := o.DiscoverAndEnrich(context.Background(), acme, model.ParseDesignation("CEO"))
	require.NoError(t, err)

	assert.Equal(t, model.StrategyFreeDomain, res.StrategyUsed)
	require.Len(t, res.Contacts, 1)
	assert.Equal(t, "alice@acme.com", res.Contacts[0].Email)
	assert.Equal(t, "CEO", res.Contacts[0].Title)
	assert.Equal(t, model.VerdictVerified, res.Contacts[0].Verdict)
	assert.Equal(t, model.ContactTypeFounder, res.Contacts[0].ContactType)
	assert.Equal(t, 2, res.Stubs)
	assert.Equal(t, 2, res.CreditsSpent)
	assert.Equal(t, 1, res.FreeCalls)
	assert.Equal(t, 2, res.PaidCalls)
	assert.False(t, res.CacheHit)
	assert.Equal(t, 1, res.Metrics.ActiveMembers)
	assert.Equal(t, 1, res.Metrics.ActiveMembersWithEmail)
}

func TestOrchestrator_KeepsUnverifiedWithoutDesignation(t *testing.T) {
	client := mocks.NewMockClient(t)
	expectAcme(client)

	res, err := NewOrchestrator(client, Config{}).DiscoverAndEnrich(context.Background(), acme, nil)
	require.NoError(t, err)
	require.Len(t, res.Contacts, 2)

	verdicts := map[string]model.Verdict{}
	for _, c := range res.Contacts {
		verdicts[c.Email] = c.Verdict
	}
	assert.Equal(t, model.VerdictVerified, verdicts["alice@acme.com"])
	assert.Equal(t, model.VerdictUnverified, verdicts["bob@other.com"])
}

func TestOrchestrator_CacheHitSpendsNothing(t *testing.T) {
	client := mocks.NewMockClient(t)
	expectAcme(client)

	st := newTestStore(t)
	o := NewOrchestrator(client, Config{}, WithCache(cache.NewStoreCache(st, 0)), WithRunRecorder(st))
	ctx := context.Background()

	first, err := o.DiscoverAndEnrich(ctx, acme, nil)
	require.NoError(t, err)
	require.Len(t, first.Contacts, 2)

	// Mock expectations are Once, so any provider call here fails the test.
	second, err := o.DiscoverAndEnrich(ctx, acme, model.ParseDesignation("ceo"))
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, model.StrategyCache, second.StrategyUsed)
	assert.Zero(t, second.CreditsSpent)
	require.Len(t, second.Contacts, 1)
	assert.Equal(t, "alice@acme.com", second.Contacts[0].Email)

	runs, err := st.ListRuns(ctx, store.RunFilter{CompanyKey: acme.Key()})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, model.StrategyCache, runs[0].StrategyUsed)
	assert.Equal(t, 2, runs[1].CreditsSpent)
}

func TestOrchestrator_NarrowCacheMissFallsThrough(t *testing.T) {
	client := mocks.NewMockClient(t)
	st := newTestStore(t)
	c := cache.NewStoreCache(st, 0)
	require.NoError(t, c.Store(context.Background(), acme, []model.Contact{
		{Name: "Alice Smith", Email: "alice@acme.com", Title: "CEO"},
	}))

	client.On("PeopleAPISearch", mock.Anything, mock.Anything).Return(freeSearch(
		apollo.Person{ID: "p3", Name: "Hana Lee", Title: "HR Manager"},
	)).Once()
	client.On("PeopleMatch", mock.Anything, "p3").
		Return(revealed(&apollo.Person{ID: "p3", Email: "hana@acme.com"})).Once()

	res, err := NewOrchestrator(client, Config{}, WithCache(c)).
		DiscoverAndEnrich(context.Background(), acme, model.ParseDesignation("hr"))
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	require.Len(t, res.Contacts, 1)
	assert.Equal(t, model.ContactTypeHR, res.Contacts[0].ContactType)
}

func TestOrchestrator_DesignatedRunDoesNotNarrowLaterBroadRun(t *testing.T) {
	client := mocks.NewMockClient(t)
	// The designated search only returns the titles it asked for.
	client.On("PeopleAPISearch", mock.Anything, byDomain("acme.com")).Return(freeSearch(
		apollo.Person{ID: "p1", Name: "Alice Smith", Title: "CEO"},
	)).Once()
	client.On("PeopleMatch", mock.Anything, "p1").
		Return(revealed(&apollo.Person{ID: "p1", Name: "Alice Smith", Title: "CEO", Email: "alice@acme.com"})).Once()
	expectAcme(client)

	st := newTestStore(t)
	o := NewOrchestrator(client, Config{}, WithCache(cache.NewStoreCache(st, 0)))
	ctx := context.Background()

	narrow, err := o.DiscoverAndEnrich(ctx, acme, model.ParseDesignation("ceo"))
	require.NoError(t, err)
	require.Len(t, narrow.Contacts, 1)

	cached, err := st.LookupContacts(ctx, acme.Key())
	require.NoError(t, err)
	assert.Empty(t, cached, "designated runs are not cached")

	broad, err := o.DiscoverAndEnrich(ctx, acme, nil)
	require.NoError(t, err)
	assert.False(t, broad.CacheHit)
	assert.Len(t, broad.Contacts, 2)

	again, err := o.DiscoverAndEnrich(ctx, acme, model.ParseDesignation("ceo"))
	require.NoError(t, err)
	assert.True(t, again.CacheHit)
	require.Len(t, again.Contacts, 1)
	assert.Equal(t, "alice@acme.com", again.Contacts[0].Email)
}

func TestOrchestrator_HeadcountOutOfRangeSkipsSearch(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("OrganizationSearch", mock.Anything, apollo.OrganizationQuery{Name: "Acme"}).
		Return([]apollo.Organization{{ID: "org-1", Name: "Acme", EmployeeCount: "8"}}, nil).Once()

	st := newTestStore(t)
	o := NewOrchestrator(client, Config{Headcount: filter.EmployeeRangeFilter{"50-200"}}, WithRunRecorder(st))

	// No people search or reveal is expected.
	res, err := o.DiscoverAndEnrich(context.Background(), acme, nil)
	require.NoError(t, err)
	assert.True(t, res.OutOfRange)
	assert.Equal(t, model.StrategyNone, res.StrategyUsed)
	assert.Equal(t, "8", res.Metrics.TotalEmployees)
	assert.NotNil(t, res.Contacts)
	assert.Empty(t, res.Contacts)
	assert.Zero(t, res.CreditsSpent)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestOrchestrator_HeadcountInRangeEnriches(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("OrganizationSearch", mock.Anything, apollo.OrganizationQuery{Name: "Acme"}).
		Return([]apollo.Organization{{ID: "org-1", Name: "Acme", EmployeeCount: "51-200"}}, nil).Once()
	expectAcme(client)

	res, err := NewOrchestrator(client, Config{Headcount: filter.EmployeeRangeFilter{"50-200"}}).
		DiscoverAndEnrich(context.Background(), acme, nil)
	require.NoError(t, err)
	assert.False(t, res.OutOfRange)
	assert.Equal(t, model.StrategyFreeDomain, res.StrategyUsed)
	assert.Equal(t, "51-200", res.Metrics.TotalEmployees)
	assert.Len(t, res.Contacts, 2)
}

func TestOrchestrator_CacheHitReportsHeadcount(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("OrganizationSearch", mock.Anything, apollo.OrganizationQuery{Name: "Acme"}).
		Return([]apollo.Organization{{ID: "org-1", Name: "Acme", EmployeeCount: "120"}}, nil).Once()

	st := newTestStore(t)
	c := cache.NewStoreCache(st, 0)
	require.NoError(t, c.Store(context.Background(), acme, []model.Contact{
		{Name: "Alice Smith", Email: "alice@acme.com", Title: "CEO", Verdict: model.VerdictVerified},
	}))

	res, err := NewOrchestrator(client, Config{CompanyMetrics: true}, WithCache(c)).
		DiscoverAndEnrich(context.Background(), acme, nil)
	require.NoError(t, err)
	assert.True(t, res.CacheHit)
	assert.Equal(t, "120", res.Metrics.TotalEmployees)
	assert.Equal(t, 1, res.Metrics.ActiveMembers)
}

func TestOrchestrator_HeadcountConfigErrorReturned(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("OrganizationSearch", mock.Anything, mock.Anything).Return(nil, errConfig()).Once()

	_, err := NewOrchestrator(client, Config{Headcount: filter.EmployeeRangeFilter{"10-50"}}).
		DiscoverAndEnrich(context.Background(), acme, nil)
	require.Error(t, err)
	assert.True(t, resilience.IsConfigError(err))
}

func TestOrchestrator_EmptyWebsiteUsesCompanyName(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("OrganizationSearch", mock.Anything, apollo.OrganizationQuery{Name: "Acme"}).
		Return([]apollo.Organization{{ID: "org-1", Name: "Acme", Domain: "acme.io", EmployeeCount: "51-200"}}, nil).Once()
	client.On("PeopleAPISearch", mock.Anything, byDomain("acme.io")).Return(freeSearch(
		apollo.Person{ID: "p1", Name: "Alice", Title: "Founder"},
	)).Once()
	client.On("PeopleMatch", mock.Anything, "p1").
		Return(revealed(&apollo.Person{ID: "p1", Email: "alice@acme.io"})).Once()

	o := NewOrchestrator(client, Config{CompanyMetrics: true})
	res, err := o.DiscoverAndEnrich(context.Background(), model.CompanyRef{Name: "Acme"}, nil)
	require.NoError(t, err)

	assert.Equal(t, model.StrategyCompanyName, res.StrategyUsed)
	require.Len(t, res.Contacts, 1)
	assert.Equal(t, model.VerdictVerified, res.Contacts[0].Verdict)
	// The organization lookup is shared with headcount metrics.
	assert.Equal(t, "51-200", res.Metrics.TotalEmployees)
}

func TestOrchestrator_SomeStubsNotFound(t *testing.T) {
	client := mocks.NewMockClient(t)
	people := make([]apollo.Person, 0, 5)
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		people = append(people, apollo.Person{ID: id, Name: "Person " + id, Title: "Director " + id})
	}
	client.On("PeopleAPISearch", mock.Anything, mock.Anything).Return(freeSearch(people...)).Once()
	for _, id := range []string{"p1", "p2", "p4", "p5"} {
		client.On("PeopleMatch", mock.Anything, id).
			Return(revealed(&apollo.Person{ID: id, Email: id + "@acme.com"})).Once()
	}
	client.On("PeopleMatch", mock.Anything, "p3").Return(nil, errNotFound()).Once()
	client.On("GetPerson", mock.Anything, "p3").Return(nil, errNotFound()).Once()

	res, err := NewOrchestrator(client, Config{}).DiscoverAndEnrich(context.Background(), acme, nil)
	require.NoError(t, err)
	assert.Len(t, res.Contacts, 4)
	assert.Zero(t, res.Failed)
	assert.Equal(t, 4, res.CreditsSpent)
}

func TestOrchestrator_ConfigErrorReturned(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("PeopleAPISearch", mock.Anything, mock.Anything).Return(nil, errConfig()).Once()

	st := newTestStore(t)
	_, err := NewOrchestrator(client, Config{}, WithCache(cache.NewStoreCache(st, 0))).
		DiscoverAndEnrich(context.Background(), acme, nil)
	require.Error(t, err)
	assert.True(t, resilience.IsConfigError(err))
}

func TestOrchestrator_NothingFound(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("PeopleAPISearch", mock.Anything, mock.Anything).Return(nil, nil)
	client.On("PeopleSearch", mock.Anything, mock.Anything).Return(nil, nil)
	client.On("OrganizationSearch", mock.Anything, mock.Anything).Return(nil, nil).Once()

	st := newTestStore(t)
	res, err := NewOrchestrator(client, Config{Chain: ChainConfig{PaidTitles: []string{"CEO"}}}, WithCache(cache.NewStoreCache(st, 0))).
		DiscoverAndEnrich(context.Background(), acme, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StrategyNone, res.StrategyUsed)
	assert.NotNil(t, res.Contacts)
	assert.Empty(t, res.Contacts)

	cached, err := st.LookupContacts(context.Background(), acme.Key())
	require.NoError(t, err)
	assert.Empty(t, cached)
}

func TestOrchestrator_InvalidCompany(t *testing.T) {
	client := mocks.NewMockClient(t)
	_, err := NewOrchestrator(client, Config{}).DiscoverAndEnrich(context.Background(), model.CompanyRef{Website: "acme.com"}, nil)
	assert.Error(t, err)
}

func TestOrchestrator_ConcurrentRunsReportOwnCredits(t *testing.T) {
	client := mocks.NewMockClient(t)
	companies := map[string]int{"alpha.com": 1, "beta.com": 3}
	for domain, n := range companies {
		people := make([]apollo.Person, 0, n)
		for i := range n {
			id := domain + "-" + string(rune('a'+i))
			people = append(people, apollo.Person{ID: id, Name: "Person " + id, Title: "Director"})
			client.On("PeopleMatch", mock.Anything, id).
				Return(revealed(&apollo.Person{ID: id, Email: id + "@" + domain})).Once()
		}
		client.On("PeopleAPISearch", mock.Anything, byDomain(domain)).Return(freeSearch(people...)).Once()
	}

	o := NewOrchestrator(client, Config{})
	var wg sync.WaitGroup
	results := make(map[string]*model.EnrichmentResult)
	var mu sync.Mutex
	for domain := range companies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := o.DiscoverAndEnrich(context.Background(), model.CompanyRef{Name: domain, Website: domain}, nil)
			assert.NoError(t, err)
			mu.Lock()
			results[domain] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	for domain, n := range companies {
		require.NotNil(t, results[domain])
		assert.Equal(t, n, results[domain].CreditsSpent, domain)
	}
}
