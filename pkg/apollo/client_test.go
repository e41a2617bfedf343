package apollo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

type testEnv struct {
	client Client
	ledger *cost.Ledger
	delays *[]time.Duration
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) testEnv {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var delays []time.Duration
	retry := resilience.DefaultRetryConfig()
	retry.Sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	ledger := &cost.Ledger{}

	base := []Option{
		WithBaseURL(srv.URL),
		WithRateLimit(0, 0),
		WithRetryConfig(retry),
		WithLedger(ledger),
	}
	return testEnv{
		client: NewClient("test-key", append(base, opts...)...),
		ledger: ledger,
		delays: &delays,
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if r.Body != nil && r.ContentLength != 0 {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestPeopleMatch_RetriesRateLimitThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	env := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/people/match", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		if attempts.Add(1) <= 2 {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": "rate limited"})
			return
		}
		body := decodeBody(t, r)
		assert.Equal(t, "p1", body["id"])
		assert.Equal(t, true, body["reveal_personal_emails"])
		_, phoneRevealed := body["reveal_phone_number"]
		assert.False(t, phoneRevealed)
		writeJSON(w, http.StatusOK, map[string]any{
			"person": map[string]any{
				"id": "p1", "first_name": "Alice", "last_name": "Smith",
				"title": "CEO", "email": "alice@acme.com",
			},
		})
	})

	p, err := env.client.PeopleMatch(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "alice@acme.com", p.Email)
	assert.Equal(t, "Alice Smith", p.Name)
	assert.Equal(t, int32(3), attempts.Load())

	var total time.Duration
	for _, d := range *env.delays {
		total += d
	}
	assert.GreaterOrEqual(t, total, 6*time.Second)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *env.delays)

	snap := env.ledger.Snapshot()
	assert.Equal(t, 1, snap.PaidCalls)
	assert.Equal(t, 1, snap.Credits)
}

func TestPeopleMatch_RateLimitExhausted(t *testing.T) {
	var attempts atomic.Int32
	env := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := env.client.PeopleMatch(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, resilience.KindRateLimited, resilience.KindOf(err))
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, 0, env.ledger.Snapshot().Credits)
}

func TestUnauthorized_HaltsRunScope(t *testing.T) {
	var attempts atomic.Int32
	env := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid api key"})
	})
	ctx := WithRunScope(context.Background())

	_, err := env.client.PeopleMatch(ctx, "p1")
	require.Error(t, err)
	assert.True(t, resilience.IsConfigError(err))
	assert.Equal(t, int32(1), attempts.Load())

	_, err = env.client.PeopleAPISearch(ctx, PeopleQuery{Domains: []string{"acme.com"}})
	require.Error(t, err)
	assert.True(t, resilience.IsConfigError(err))
	assert.Equal(t, int32(1), attempts.Load(), "no request after credentials were rejected")
	assert.Empty(t, *env.delays)
}

func TestUnauthorized_NextRunRecovers(t *testing.T) {
	var rejected atomic.Bool
	rejected.Store(true)
	var attempts atomic.Int32
	env := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		if rejected.Load() {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid api key"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"person": map[string]any{"id": "p1", "name": "Alice Smith"}})
	})

	_, err := env.client.PeopleMatch(WithRunScope(context.Background()), "p1")
	require.Error(t, err)
	assert.True(t, resilience.IsConfigError(err))

	// Key rotated between runs.
	rejected.Store(false)
	p, err := env.client.PeopleMatch(WithRunScope(context.Background()), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestUnauthorized_WithoutScopeDoesNotLatch(t *testing.T) {
	var attempts atomic.Int32
	env := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	for range 2 {
		_, err := env.client.PeopleMatch(context.Background(), "p1")
		require.Error(t, err)
		assert.True(t, resilience.IsConfigError(err))
	}
	assert.Equal(t, int32(2), attempts.Load())
}

func TestWithRunScope_Nested(t *testing.T) {
	outer := WithRunScope(context.Background())
	assert.Equal(t, outer, WithRunScope(outer))
}

func TestPeopleMatch_NotFound(t *testing.T) {
	var attempts atomic.Int32
	env := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := env.client.PeopleMatch(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, resilience.IsNotFound(err))
	assert.Equal(t, int32(1), attempts.Load())
}

func TestNetworkError_Retried(t *testing.T) {
	var delays []time.Duration
	retry := resilience.DefaultRetryConfig()
	retry.Sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	c := NewClient("k",
		WithBaseURL("http://127.0.0.1:1"),
		WithRateLimit(0, 0),
		WithRetryConfig(retry),
	)

	_, err := c.GetPerson(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, resilience.KindNetwork, resilience.KindOf(err))
	assert.Equal(t, []time.Duration{4 * time.Second, 8 * time.Second}, delays)
}

func TestPeopleAPISearch_FallsBackWithoutEmploymentFilter(t *testing.T) {
	var calls atomic.Int32
	env := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mixed_people/api_search", r.URL.Path)
		body := decodeBody(t, r)
		calls.Add(1)
		if _, ok := body["currently_employed"]; ok {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "unknown key"})
			return
		}
		assert.Equal(t, []any{"acme.com"}, body["q_organization_domains_list"])
		writeJSON(w, http.StatusOK, map[string]any{
			"people": []any{
				map[string]any{
					"id": "p1", "first_name": "Alice", "last_name_obfuscated": "S***h",
					"title": "CEO",
					"organization": map[string]any{"id": "o1", "primary_domain": "acme.com"},
				},
				map[string]any{"id": "p2", "first_name": "Bob", "title": "CTO"},
			},
		})
	})

	people, err := env.client.PeopleAPISearch(context.Background(), PeopleQuery{
		Domains: []string{"acme.com"},
		Titles:  []string{"CEO"},
	})
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "Alice S***h", people[0].Name)
	assert.Equal(t, "acme.com", people[0].OrganizationDomain)
	assert.Equal(t, "o1", people[0].OrganizationID)

	snap := env.ledger.Snapshot()
	assert.Equal(t, 1, snap.FreeCalls)
	assert.Equal(t, 0, snap.Credits)
}

func TestPeopleSearch_ScopedLedger(t *testing.T) {
	env := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mixed_people/search", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, float64(5), body["per_page"])
		writeJSON(w, http.StatusOK, map[string]any{"people": []any{}})
	})

	scoped := &cost.Ledger{}
	ctx := cost.WithLedger(context.Background(), scoped)
	people, err := env.client.PeopleSearch(ctx, PeopleQuery{Domains: []string{"acme.com"}, Titles: []string{"HR"}})
	require.NoError(t, err)
	assert.Empty(t, people)
	assert.Equal(t, 1, scoped.Snapshot().Credits)
	assert.Equal(t, 1, env.ledger.Snapshot().Credits)
}

func TestSearch_NotFoundIsEmpty(t *testing.T) {
	env := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	people, err := env.client.PeopleSearch(context.Background(), PeopleQuery{Domains: []string{"x.com"}})
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestOrganizationSearch(t *testing.T) {
	env := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/organizations/search", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "Acme", body["q_organization_name"])
		writeJSON(w, http.StatusOK, map[string]any{
			"organizations": []any{
				map[string]any{
					"id": "o1", "name": "Acme", "website_url": "http://www.acme.com/",
					"estimated_num_employees": 120,
				},
			},
		})
	})

	orgs, err := env.client.OrganizationSearch(context.Background(), OrganizationQuery{Name: "Acme"})
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "acme.com", orgs[0].Domain)
	assert.Equal(t, "120", orgs[0].EmployeeCount)
}

func TestGetPerson_Query(t *testing.T) {
	env := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/people/p9", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("reveal_personal_emails"))
		writeJSON(w, http.StatusOK, map[string]any{
			"person": map[string]any{"id": "p9", "first_name": "Cara", "email": "cara@acme.com"},
		})
	})
	p, err := env.client.GetPerson(context.Background(), "p9")
	require.NoError(t, err)
	assert.Equal(t, "cara@acme.com", p.Email)
}

func TestCreateContact_FallsBackToPeopleAdd(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	env := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/contacts" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "nope"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"person": map[string]any{"id": "c42"}})
	})

	id, err := env.client.CreateContact(context.Background(), ContactInput{Email: "a@acme.com", FirstName: "A"})
	require.NoError(t, err)
	assert.Equal(t, "c42", id)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/contacts", "/people/add"}, paths)
}

func TestFindContactByEmail(t *testing.T) {
	env := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if body["q_keywords"] == "known@acme.com" {
			writeJSON(w, http.StatusOK, map[string]any{"contacts": []any{map[string]any{"id": "c1"}}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"contacts": []any{}})
	})

	id, err := env.client.FindContactByEmail(context.Background(), "known@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "c1", id)

	id, err = env.client.FindContactByEmail(context.Background(), "new@acme.com")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestContactLists(t *testing.T) {
	var addCalls atomic.Int32
	env := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contact_lists":
			writeJSON(w, http.StatusCreated, map[string]any{"contact_list": map[string]any{"id": "L1"}})
		case "/contact_lists/L1/contacts":
			addCalls.Add(1)
			body := decodeBody(t, r)
			if _, ok := body["contact_ids"]; ok {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "use contacts"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	listID, err := env.client.CreateContactList(context.Background(), "Q3 leads")
	require.NoError(t, err)
	assert.Equal(t, "L1", listID)

	require.NoError(t, env.client.AddContactsToList(context.Background(), listID, []string{"c1", "c2"}))
	assert.Equal(t, int32(2), addCalls.Load())
}
