package main

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/cache"
	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/discovery"
	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/filter"
	"github.com/sells-group/leadgen-cli/internal/outreach"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/google"
)

// enrichEnv holds the initialized store, clients and orchestrator needed by
// the enrich, batch, transfer and serve commands.
type enrichEnv struct {
	Store        store.Store
	Redis        *redis.Client // nil when no redis tier is configured
	RedisCache   *cache.RedisCache
	Apollo       apollo.Client
	Orchestrator *enrich.Orchestrator
	Transferrer  *outreach.Transferrer
	Calculator   *cost.Calculator
}

// Close releases resources held by the environment.
func (e *enrichEnv) Close() {
	if e.Redis != nil {
		_ = e.Redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadgen.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func newCalculator(p config.PricingConfig) *cost.Calculator {
	rates := cost.DefaultRates()
	if p.Apollo.USDPerCredit > 0 {
		rates.Apollo.USDPerCredit = p.Apollo.USDPerCredit
	}
	if p.Apollo.PlanMonthly > 0 {
		rates.Apollo.PlanMonthly = p.Apollo.PlanMonthly
	}
	if p.Apollo.CreditsIncluded > 0 {
		rates.Apollo.CreditsIncluded = p.Apollo.CreditsIncluded
	}
	if p.Google.PerTextSearch > 0 {
		rates.Google.PerTextSearch = p.Google.PerTextSearch
	}
	return cost.NewCalculator(rates)
}

func newApolloClient(c config.ApolloConfig) apollo.Client {
	secs := func(n int) time.Duration { return time.Duration(n) * time.Second }
	var opts []apollo.Option
	if c.BaseURL != "" {
		opts = append(opts, apollo.WithBaseURL(c.BaseURL))
	}
	if c.APIBaseURL != "" {
		opts = append(opts, apollo.WithAPIBaseURL(c.APIBaseURL))
	}
	opts = append(opts,
		apollo.WithRateLimit(c.RatePerSec, c.Burst),
		apollo.WithDefaultRegion(c.DefaultRegion),
		apollo.WithTimeouts(secs(c.SearchTimeoutSecs), secs(c.DetailTimeoutSecs), secs(c.OrgTimeoutSecs)),
		apollo.WithRetryConfig(resilience.FromRetryConfig(
			c.Retry.MaxAttempts, c.Retry.RateLimitBaseMs, c.Retry.NetworkBaseMs, c.Retry.ServerBaseMs,
		)),
	)
	return apollo.NewClient(c.Key, opts...)
}

func orchestratorConfig(c config.EnrichConfig) (enrich.Config, error) {
	headcount, err := filter.ParseEmployeeRanges(strings.Join(c.EmployeeRanges, ","))
	if err != nil {
		return enrich.Config{}, eris.Wrap(err, "enrich.employee_ranges")
	}
	return enrich.Config{
		Chain: enrich.ChainConfig{
			FreeTitles:  c.DefaultTitles,
			Seniorities: c.DefaultSeniorities,
			PaidTitles:  c.PaidTitles,
		},
		Enricher: enrich.EnricherConfig{
			Workers:  c.Workers,
			MaxStubs: c.MaxStubs,
		},
		CompanyMetrics: c.CompanyMetrics,
		Headcount:      headcount,
	}, nil
}

// newRedis connects to the configured redis tier, or returns nil when none
// is configured.
func newRedis(ctx context.Context, c config.CacheConfig) (*redis.Client, error) {
	if c.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, eris.Wrapf(err, "redis: ping %s", c.RedisAddr)
	}
	return rdb, nil
}

// buildCache layers redis in front of the store. Returns nil when caching
// is disabled.
func buildCache(c config.CacheConfig, st store.Store, rc *cache.RedisCache) cache.ContactCache {
	if !c.Enabled {
		return nil
	}
	storeTier := cache.NewStoreCache(st, c.TTL())
	if rc == nil {
		return storeTier
	}
	return cache.NewTiered(rc, storeTier)
}

// initEnrich validates the config for mode and builds the enrichment
// environment. Callers should defer env.Close().
func initEnrich(ctx context.Context, mode string) (*enrichEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	ocfg, err := orchestratorConfig(cfg.Enrich)
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &enrichEnv{Store: st, Calculator: newCalculator(cfg.Pricing)}

	if cfg.Cache.Enabled {
		rdb, err := newRedis(ctx, cfg.Cache)
		if err != nil {
			env.Close()
			return nil, err
		}
		if rdb != nil {
			env.Redis = rdb
			env.RedisCache = cache.NewRedisCache(rdb, cfg.Cache.TTL())
		}
	}

	env.Apollo = newApolloClient(cfg.Apollo)

	opts := []enrich.Option{enrich.WithRunRecorder(st)}
	if c := buildCache(cfg.Cache, st, env.RedisCache); c != nil {
		opts = append(opts, enrich.WithCache(c))
	}
	env.Orchestrator = enrich.NewOrchestrator(env.Apollo, ocfg, opts...)
	env.Transferrer = outreach.NewTransferrer(env.Apollo)

	zap.L().Debug("enrichment environment ready",
		zap.String("store", cfg.Store.Driver),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Bool("redis", env.Redis != nil),
	)
	return env, nil
}

// newPlacesSearch builds the Places-backed company discoverer.
func newPlacesSearch(c *config.Config) *discovery.PlacesSearch {
	opts := []google.Option{
		google.WithRetryConfig(resilience.FromRetryConfig(
			c.Apollo.Retry.MaxAttempts, c.Apollo.Retry.RateLimitBaseMs, c.Apollo.Retry.NetworkBaseMs, c.Apollo.Retry.ServerBaseMs,
		)),
	}
	if c.Google.BaseURL != "" {
		opts = append(opts, google.WithBaseURL(c.Google.BaseURL))
	}
	g := google.NewClient(c.Google.Key, opts...)
	return discovery.NewPlacesSearch(g, &c.Discovery, c.Google.RegionCode, newCalculator(c.Pricing))
}
