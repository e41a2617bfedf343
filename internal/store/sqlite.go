package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// expires_at holds unix seconds; NULL means the row never expires.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS contacts (
	id           TEXT PRIMARY KEY,
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
	created_at   INTEGER NOT NULL,
	expires_at   INTEGER
);

CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	company_key   TEXT NOT NULL,
	company_name  TEXT NOT NULL,
	domain        TEXT NOT NULL DEFAULT '',
	strategy_used TEXT NOT NULL,
	contacts      INTEGER NOT NULL DEFAULT 0,
	credits_spent INTEGER NOT NULL DEFAULT 0,
	cache_hit     INTEGER NOT NULL DEFAULT 0,
	truncated     INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_company_key ON contacts(company_key);
CREATE INDEX IF NOT EXISTS idx_contacts_expires_at ON contacts(expires_at);
CREATE INDEX IF NOT EXISTS idx_runs_company_key ON runs(company_key);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveContacts(ctx context.Context, company model.CompanyRef, contacts []model.Contact, ttl time.Duration) error {
	if len(contacts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	var expiresAt sql.NullInt64
	if exp := expiry(now, ttl); exp != nil {
		expiresAt = sql.NullInt64{Int64: exp.Unix(), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save contacts")
	}
	defer tx.Rollback() //nolint:errcheck

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(contactColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO contacts (`+strings.Join(contactColumns, ", ")+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert contact")
	}
	defer stmt.Close() //nolint:errcheck

	key, domain := company.Key(), company.Domain()
	for _, c := range contacts {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), key, company.Name, domain,
			c.Name, c.FirstName, c.LastName, c.Email, c.Phone, c.Title,
			c.LinkedInURL, c.Source, c.ProviderID, string(c.Verdict), string(c.ContactType),
			now.Unix(), expiresAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert contact for %s", key)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit save contacts")
}

func (s *SQLiteStore) LookupContacts(ctx context.Context, companyKey string) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, first_name, last_name, email, phone, title, linkedin_url, source, provider_id, verdict, contact_type
		 FROM contacts
		 WHERE company_key = ? AND (expires_at IS NULL OR expires_at > ?)
		 ORDER BY created_at, rowid`,
		companyKey, time.Now().UTC().Unix(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: lookup contacts")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate contacts")
}

func (s *SQLiteStore) PurgeContacts(ctx context.Context, companyKey string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE company_key = ?`, companyKey)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: purge contacts %s", companyKey)
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) DeleteExpiredContacts(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		time.Now().UTC().Unix(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired contacts")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) RecordRun(ctx context.Context, result *model.EnrichmentResult) (*RunRecord, error) {
	rec := newRunRecord(uuid.New().String(), time.Now().UTC(), result)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, company_key, company_name, domain, strategy_used, contacts, credits_spent, cache_hit, truncated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CompanyKey, rec.CompanyName, rec.Domain, rec.StrategyUsed,
		rec.Contacts, rec.CreditsSpent, rec.CacheHit, rec.Truncated, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return rec, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	query := `SELECT id, company_key, company_name, domain, strategy_used, contacts, credits_spent, cache_hit, truncated, created_at FROM runs`
	var args []any
	if filter.CompanyKey != "" {
		query += ` WHERE company_key = ?`
		args = append(args, filter.CompanyKey)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	args = append(args, listLimit(filter), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var created int64
		if err := rows.Scan(&r.ID, &r.CompanyKey, &r.CompanyName, &r.Domain, &r.StrategyUsed,
			&r.Contacts, &r.CreditsSpent, &r.CacheHit, &r.Truncated, &created); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanContact(row scannable) (model.Contact, error) {
	var c model.Contact
	var verdict, contactType string
	err := row.Scan(&c.Name, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Title,
		&c.LinkedInURL, &c.Source, &c.ProviderID, &verdict, &contactType)
	c.Verdict = model.Verdict(verdict)
	c.ContactType = model.ContactType(contactType)
	return c, err
}
