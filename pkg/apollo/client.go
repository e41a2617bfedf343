// Package apollo provides a rate-limited, credit-metered client for the
// Apollo.io people and organization API.
package apollo

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const (
	defaultBaseURL    = "https://api.apollo.io/v1"
	defaultAPIBaseURL = "https://api.apollo.io/api/v1"
	defaultRegion     = "IN"

	searchTimeout = 30 * time.Second
	detailTimeout = 15 * time.Second
	orgTimeout    = 10 * time.Second
)

// Client defines the Apollo operations used for discovery, enrichment and
// outreach transfer.
type Client interface {
	// PeopleAPISearch runs the free bulk people search. Results carry no email.
	PeopleAPISearch(ctx context.Context, q PeopleQuery) ([]Person, error)
	// PeopleSearch runs the legacy credit-consuming people search.
	PeopleSearch(ctx context.Context, q PeopleQuery) ([]Person, error)
	// OrganizationSearch resolves organizations by name or domain.
	OrganizationSearch(ctx context.Context, q OrganizationQuery) ([]Organization, error)
	// PeopleMatch reveals a person's email by provider id. Phones are not revealed.
	PeopleMatch(ctx context.Context, personID string) (*Person, error)
	// GetPerson fetches a person by provider id.
	GetPerson(ctx context.Context, personID string) (*Person, error)
	// CreateContact creates an outreach contact and returns its id.
	CreateContact(ctx context.Context, in ContactInput) (string, error)
	// FindContactByEmail returns the id of an existing contact, or "".
	FindContactByEmail(ctx context.Context, email string) (string, error)
	// CreateContactList creates a contact list and returns its id.
	CreateContactList(ctx context.Context, name string) (string, error)
	// AddContactsToList adds existing contacts to a list.
	AddContactsToList(ctx context.Context, listID string, contactIDs []string) error
}

// Option configures the Apollo client.
type Option func(*httpClient)

// WithBaseURL points both API bases at url (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
		c.apiBaseURL = url
	}
}

// WithAPIBaseURL overrides the base used by the free search endpoint.
func WithAPIBaseURL(url string) Option {
	return func(c *httpClient) {
		c.apiBaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests across all callers of the client.
// A non-positive perSecond disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *httpClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetryConfig replaces the retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithLedger records every successful call in l.
func WithLedger(l *cost.Ledger) Option {
	return func(c *httpClient) {
		c.ledger = l
	}
}

// WithDefaultRegion sets the region used to normalize phone numbers.
func WithDefaultRegion(region string) Option {
	return func(c *httpClient) {
		if region != "" {
			c.region = region
		}
	}
}

// WithTimeouts overrides per-class request timeouts. Zero values keep the default.
func WithTimeouts(search, detail, org time.Duration) Option {
	return func(c *httpClient) {
		if search > 0 {
			c.timeouts.search = search
		}
		if detail > 0 {
			c.timeouts.detail = detail
		}
		if org > 0 {
			c.timeouts.org = org
		}
	}
}

type timeouts struct {
	search time.Duration
	detail time.Duration
	org    time.Duration
}

type httpClient struct {
	apiKey     string
	baseURL    string
	apiBaseURL string
	region     string
	http       *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
	ledger     *cost.Ledger
	timeouts   timeouts
}

// NewClient creates a new Apollo client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		apiBaseURL: defaultAPIBaseURL,
		region:     defaultRegion,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:  rate.NewLimiter(rate.Limit(2), 5),
		retry:    resilience.DefaultRetryConfig(),
		timeouts: timeouts{search: searchTimeout, detail: detailTimeout, org: orgTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) PeopleAPISearch(ctx context.Context, q PeopleQuery) ([]Person, error) {
	payload := map[string]any{
		"person_titles":          q.Titles,
		"person_seniorities":     q.Seniorities,
		"include_similar_titles": true,
		"page":                   pageOr(q.Page, 1),
		"per_page":               pageOr(q.PerPage, 50),
	}
	if len(q.Domains) > 0 {
		payload["q_organization_domains_list"] = q.Domains
	}
	if len(q.OrganizationIDs) > 0 {
		payload["organization_ids"] = q.OrganizationIDs
	}
	ep := endpoint{
		name: "mixed_people/api_search", method: http.MethodPost, path: "/mixed_people/api_search",
		apiBase: true, tier: cost.TierFree, timeout: c.timeouts.search,
	}
	return c.searchPeople(ctx, ep, payload)
}

func (c *httpClient) PeopleSearch(ctx context.Context, q PeopleQuery) ([]Person, error) {
	payload := map[string]any{
		"person_titles": q.Titles,
		"page":          pageOr(q.Page, 1),
		"per_page":      pageOr(q.PerPage, 5),
	}
	if len(q.Seniorities) > 0 {
		payload["person_seniorities"] = q.Seniorities
	}
	if len(q.Domains) > 0 {
		payload["organization_domains"] = q.Domains
	}
	if len(q.OrganizationIDs) > 0 {
		payload["organization_ids"] = q.OrganizationIDs
	}
	ep := endpoint{
		name: "mixed_people/search", method: http.MethodPost, path: "/mixed_people/search",
		tier: cost.TierPaid, credits: 1, timeout: c.timeouts.search,
	}
	return c.searchPeople(ctx, ep, payload)
}

// searchPeople asks for current employees only, and repeats the search
// without that filter when the provider rejects the extra keys.
func (c *httpClient) searchPeople(ctx context.Context, ep endpoint, payload map[string]any) ([]Person, error) {
	var env peopleEnvelope
	err := c.call(ctx, ep, ep.path, nil, withCurrentEmployeeFilter(payload), &env)
	if isRejected(err) {
		env = peopleEnvelope{}
		err = c.call(ctx, ep, ep.path, nil, payload, &env)
	}
	if resilience.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	records := env.People
	if len(records) == 0 {
		records = env.Contacts
	}
	people := make([]Person, 0, len(records))
	for _, r := range records {
		people = append(people, parsePerson(r, c.region))
	}
	return people, nil
}

func (c *httpClient) OrganizationSearch(ctx context.Context, q OrganizationQuery) ([]Organization, error) {
	payload := map[string]any{"page": 1, "per_page": 1}
	if q.Domain != "" {
		payload["q_organization_domains_list"] = []string{q.Domain}
	}
	if q.Name != "" {
		payload["q_organization_name"] = q.Name
	}
	ep := endpoint{
		name: "organizations/search", method: http.MethodPost, path: "/organizations/search",
		tier: cost.TierPaid, credits: 1, timeout: c.timeouts.org,
	}

	var env organizationsEnvelope
	err := c.call(ctx, ep, ep.path, nil, payload, &env)
	if resilience.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	records := env.Organizations
	if len(records) == 0 {
		records = env.Accounts
	}
	orgs := make([]Organization, 0, len(records))
	for _, r := range records {
		orgs = append(orgs, parseOrganization(r, c.region))
	}
	return orgs, nil
}

func (c *httpClient) PeopleMatch(ctx context.Context, personID string) (*Person, error) {
	payload := map[string]any{
		"id":                     personID,
		"reveal_personal_emails": true,
	}
	ep := endpoint{
		name: "people/match", method: http.MethodPost, path: "/people/match",
		tier: cost.TierPaid, credits: 1, timeout: c.timeouts.detail,
	}
	return c.fetchPerson(ctx, ep, ep.path, nil, payload)
}

func (c *httpClient) GetPerson(ctx context.Context, personID string) (*Person, error) {
	query := url.Values{"reveal_personal_emails": {"true"}}
	ep := endpoint{
		name: "people/get", method: http.MethodGet,
		tier: cost.TierPaid, credits: 1, timeout: c.timeouts.detail,
	}
	return c.fetchPerson(ctx, ep, "/people/"+url.PathEscape(personID), query, nil)
}

func (c *httpClient) fetchPerson(ctx context.Context, ep endpoint, path string, query url.Values, payload any) (*Person, error) {
	var env personEnvelope
	if err := c.call(ctx, ep, path, query, payload, &env); err != nil {
		return nil, err
	}
	if len(env.Person) == 0 {
		return nil, resilience.NewCallError(resilience.KindNotFound, http.StatusOK, ep.name+": empty person", nil)
	}
	p := parsePerson(env.Person, c.region)
	return &p, nil
}

func (c *httpClient) CreateContact(ctx context.Context, in ContactInput) (string, error) {
	if in.Email == "" {
		return "", resilience.NewCallError(resilience.KindProvider, 0, "contacts: email is required", nil)
	}
	paths := []string{"/contacts", "/people/add"}

	var lastErr error
	for _, path := range paths {
		ep := endpoint{
			name: "contacts/create" + path, method: http.MethodPost,
			tier: cost.TierFree, timeout: c.timeouts.detail,
		}
		var env idEnvelope
		err := c.call(ctx, ep, path, nil, in, &env)
		if err == nil {
			return env.contactID(), nil
		}
		if resilience.IsConfigError(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (c *httpClient) FindContactByEmail(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", nil
	}
	payload := map[string]any{"q_keywords": email, "page": 1, "per_page": 1}
	ep := endpoint{
		name: "contacts/search", method: http.MethodPost, path: "/contacts/search",
		tier: cost.TierFree, timeout: c.timeouts.search,
	}
	var env peopleEnvelope
	err := c.call(ctx, ep, ep.path, nil, payload, &env)
	if resilience.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	records := env.Contacts
	if len(records) == 0 {
		records = env.People
	}
	if len(records) == 0 {
		return "", nil
	}
	return records[0].Str("id"), nil
}

func (c *httpClient) CreateContactList(ctx context.Context, name string) (string, error) {
	ep := endpoint{
		name: "contact_lists/create", method: http.MethodPost, path: "/contact_lists",
		tier: cost.TierFree, timeout: c.timeouts.detail,
	}
	var env idEnvelope
	if err := c.call(ctx, ep, ep.path, nil, map[string]any{"name": name}, &env); err != nil {
		return "", err
	}
	if id := env.ContactList.Str("id"); id != "" {
		return id, nil
	}
	return env.ID, nil
}

func (c *httpClient) AddContactsToList(ctx context.Context, listID string, contactIDs []string) error {
	if listID == "" || len(contactIDs) == 0 {
		return nil
	}
	refs := make([]map[string]string, len(contactIDs))
	for i, id := range contactIDs {
		refs[i] = map[string]string{"id": id}
	}
	payloads := []any{
		map[string]any{"contact_ids": contactIDs},
		map[string]any{"contacts": refs},
	}
	path := "/contact_lists/" + url.PathEscape(listID) + "/contacts"
	ep := endpoint{
		name: "contact_lists/add", method: http.MethodPost,
		tier: cost.TierFree, timeout: c.timeouts.detail,
	}

	var lastErr error
	for _, payload := range payloads {
		err := c.call(ctx, ep, path, nil, payload, nil)
		if err == nil {
			return nil
		}
		if resilience.IsConfigError(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (e idEnvelope) contactID() string {
	if id := e.Contact.Str("id"); id != "" {
		return id
	}
	if id := e.Person.Str("id"); id != "" {
		return id
	}
	return e.ID
}

func withCurrentEmployeeFilter(payload map[string]any) map[string]any {
	p := make(map[string]any, len(payload)+3)
	for k, v := range payload {
		p[k] = v
	}
	p["currently_employed"] = true
	p["person_employment_status"] = "current"
	p["q_person_employment_statuses"] = []string{"current"}
	return p
}

// isRejected reports a non-retryable 4xx that is neither auth nor 404.
func isRejected(err error) bool {
	var ce *resilience.CallError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Kind == resilience.KindProvider && ce.StatusCode >= 400 && ce.StatusCode < 500
}

func pageOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
