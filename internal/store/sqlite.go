package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sitepulse/compete-cli/internal/model"
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id                TEXT PRIMARY KEY,
	owner_id          TEXT NOT NULL,
	your_domain       TEXT NOT NULL,
	competitor_domain TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'queued',
	result            TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS metric_cache (
	id         TEXT NOT NULL,
	cache_key  TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	owner_id         TEXT PRIMARY KEY,
	domain           TEXT NOT NULL,
	declared_handles TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS connections (
	owner_id  TEXT NOT NULL,
	platform  TEXT NOT NULL,
	username  TEXT NOT NULL,
	connected INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (owner_id, platform)
);

CREATE INDEX IF NOT EXISTS idx_runs_owner ON runs(owner_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_metric_cache_expires_at ON metric_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, ownerID, yourDomain, competitorDomain string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, owner_id, your_domain, competitor_domain, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, yourDomain, competitorDomain, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:               id,
		OwnerID:          ownerID,
		YourDomain:       yourDomain,
		CompetitorDomain: competitorDomain,
		Status:           model.RunStatusQueued,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) UpdateRunResult(ctx context.Context, runID string, result *model.AnalyzeResponse) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run result %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, your_domain, competitor_domain, status, result, created_at, updated_at
		 FROM runs WHERE id = ?`,
		runID,
	)

	var r model.Run
	var status string
	var resultJSON sql.NullString
	err := row.Scan(&r.ID, &r.OwnerID, &r.YourDomain, &r.CompetitorDomain, &status, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get run")
	}
	r.Status = model.RunStatus(status)
	if resultJSON.Valid && resultJSON.String != "" {
		if err := json.Unmarshal([]byte(resultJSON.String), &r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal run result")
		}
	}
	return &r, nil
}

func (s *SQLiteStore) GetCachedMetric(ctx context.Context, key string) (*model.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, cache_key, payload, source, created_at, expires_at FROM metric_cache WHERE cache_key = ?`,
		key,
	)

	var e model.CacheEntry
	var payload string
	err := row.Scan(&e.ID, &e.Key, &payload, &e.Source, &e.CreatedAt, &e.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached metric")
	}
	e.Payload = []byte(payload)
	return &e, nil
}

func (s *SQLiteStore) SetCachedMetric(ctx context.Context, entry *model.CacheEntry) error {
	// Upsert keyed by the composite cache key: last writer wins.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metric_cache (id, cache_key, payload, source, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
			id = excluded.id,
			payload = excluded.payload,
			source = excluded.source,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		entry.ID, entry.Key, string(entry.Payload), entry.Source, entry.CreatedAt, entry.ExpiresAt,
	)
	return eris.Wrap(err, "sqlite: set cached metric")
}

func (s *SQLiteStore) DeleteCachedMetric(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM metric_cache WHERE cache_key = ?`, key)
	return eris.Wrap(err, "sqlite: delete cached metric")
}

func (s *SQLiteStore) DeleteExpiredMetrics(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM metric_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired metrics")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) GetProfile(ctx context.Context, ownerID string) (*model.BusinessProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT owner_id, domain, declared_handles FROM profiles WHERE owner_id = ?`,
		ownerID,
	)

	var p model.BusinessProfile
	var handlesJSON string
	err := row.Scan(&p.OwnerID, &p.Domain, &handlesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get profile")
	}
	if err := json.Unmarshal([]byte(handlesJSON), &p.DeclaredHandles); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal declared handles")
	}
	return &p, nil
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *model.BusinessProfile) error {
	handlesJSON, err := json.Marshal(profile.DeclaredHandles)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal declared handles")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (owner_id, domain, declared_handles) VALUES (?, ?, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET
			domain = excluded.domain,
			declared_handles = excluded.declared_handles`,
		profile.OwnerID, profile.Domain, string(handlesJSON),
	)
	return eris.Wrap(err, "sqlite: upsert profile")
}

func (s *SQLiteStore) ListConnections(ctx context.Context, ownerID string) ([]model.SocialHandle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT platform, username, connected FROM connections WHERE owner_id = ? ORDER BY platform`,
		ownerID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list connections")
	}
	defer rows.Close()

	var handles []model.SocialHandle
	for rows.Next() {
		var h model.SocialHandle
		var connected int
		if err := rows.Scan(&h.Platform, &h.Username, &connected); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan connection")
		}
		h.Source = model.HandleSourceOAuth
		h.Connected = connected != 0
		handles = append(handles, h)
	}
	return handles, eris.Wrap(rows.Err(), "sqlite: iterate connections")
}

func (s *SQLiteStore) UpsertConnection(ctx context.Context, ownerID string, handle model.SocialHandle) error {
	connected := 0
	if handle.Connected {
		connected = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO connections (owner_id, platform, username, connected) VALUES (?, ?, ?, ?)
		 ON CONFLICT(owner_id, platform) DO UPDATE SET
			username = excluded.username,
			connected = excluded.connected`,
		ownerID, handle.Platform, handle.Username, connected,
	)
	return eris.Wrap(err, "sqlite: upsert connection")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s not found: %s", entity, id)
	}
	return nil
}
