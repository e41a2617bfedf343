package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/db"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"lookup_contacts": `SELECT name, first_name, last_name, email, phone, title, linkedin_url, source, provider_id, verdict, contact_type
		FROM contacts WHERE company_key = $1 AND (expires_at IS NULL OR expires_at > now()) ORDER BY created_at, seq`,
	"insert_run": `INSERT INTO runs (id, company_key, company_name, domain, strategy_used, contacts, credits_spent, cache_hit, truncated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// seq keeps insertion order stable when rows share a created_at.
const postgresMigration = `
CREATE TABLE IF NOT EXISTS contacts (
	id           TEXT PRIMARY KEY,
	seq          BIGSERIAL,
	company_key  TEXT NOT NULL,
	company_name TEXT NOT NULL,
	domain       TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL DEFAULT '',
	first_name   TEXT NOT NULL DEFAULT '',
	last_name    TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	linkedin_url TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	provider_id  TEXT NOT NULL DEFAULT '',
	verdict      TEXT NOT NULL DEFAULT '',
	contact_type TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_key   TEXT NOT NULL,
	company_name  TEXT NOT NULL,
	domain        TEXT NOT NULL DEFAULT '',
	strategy_used TEXT NOT NULL,
	contacts      INTEGER NOT NULL DEFAULT 0,
	credits_spent INTEGER NOT NULL DEFAULT 0,
	cache_hit     BOOLEAN NOT NULL DEFAULT false,
	truncated     BOOLEAN NOT NULL DEFAULT false,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_contacts_company_key ON contacts(company_key);
CREATE INDEX IF NOT EXISTS idx_contacts_expires_at ON contacts(expires_at);
CREATE INDEX IF NOT EXISTS idx_runs_company_key ON runs(company_key);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveContacts(ctx context.Context, company model.CompanyRef, contacts []model.Contact, ttl time.Duration) error {
	if len(contacts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	expiresAt := expiry(now, ttl)
	key, domain := company.Key(), company.Domain()

	rows := make([][]any, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []any{
			uuid.New().String(), key, company.Name, domain,
			c.Name, c.FirstName, c.LastName, c.Email, c.Phone, c.Title,
			c.LinkedInURL, c.Source, c.ProviderID, string(c.Verdict), string(c.ContactType),
			now, expiresAt,
		})
	}

	if _, err := db.CopyFrom(ctx, s.pool, "contacts", contactColumns, rows); err != nil {
		return eris.Wrapf(err, "postgres: save contacts for %s", key)
	}
	return nil
}

func (s *PostgresStore) LookupContacts(ctx context.Context, companyKey string) ([]model.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, first_name, last_name, email, phone, title, linkedin_url, source, provider_id, verdict, contact_type
		 FROM contacts WHERE company_key = $1 AND (expires_at IS NULL OR expires_at > now()) ORDER BY created_at, seq`,
		companyKey,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: lookup contacts")
	}
	defer rows.Close()

	var out []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: lookup contacts iterate")
}

func (s *PostgresStore) PurgeContacts(ctx context.Context, companyKey string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contacts WHERE company_key = $1`, companyKey)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: purge contacts %s", companyKey)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) DeleteExpiredContacts(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM contacts WHERE expires_at IS NOT NULL AND expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired contacts")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) RecordRun(ctx context.Context, result *model.EnrichmentResult) (*RunRecord, error) {
	rec := newRunRecord(uuid.New().String(), time.Now().UTC(), result)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, company_key, company_name, domain, strategy_used, contacts, credits_spent, cache_hit, truncated, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.CompanyKey, rec.CompanyName, rec.Domain, rec.StrategyUsed,
		rec.Contacts, rec.CreditsSpent, rec.CacheHit, rec.Truncated, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return rec, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	query := `SELECT id, company_key, company_name, domain, strategy_used, contacts, credits_spent, cache_hit, truncated, created_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.CompanyKey != "" {
		query += fmt.Sprintf(` AND company_key = $%d`, argIdx)
		args = append(args, filter.CompanyKey)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.CompanyKey, &r.CompanyName, &r.Domain, &r.StrategyUsed,
			&r.Contacts, &r.CreditsSpent, &r.CacheHit, &r.Truncated, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
