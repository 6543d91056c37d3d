package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sitepulse/compete-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hot path: cache reads and writes run once per provider per analysis.
var preparedStatements = map[string]string{
	"get_cached_metric":    `SELECT id, cache_key, payload, source, created_at, expires_at FROM metric_cache WHERE cache_key = $1`,
	"set_cached_metric":    `INSERT INTO metric_cache (id, cache_key, payload, source, created_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (cache_key) DO UPDATE SET id = EXCLUDED.id, payload = EXCLUDED.payload, source = EXCLUDED.source, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`,
	"delete_cached_metric": `DELETE FROM metric_cache WHERE cache_key = $1`,
	"insert_run":           `INSERT INTO runs (id, owner_id, your_domain, competitor_domain, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"update_run_status":    `UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
	"update_run_result":    `UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"get_run":              `SELECT id, owner_id, your_domain, competitor_domain, status, result, created_at, updated_at FROM runs WHERE id = $1`,
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
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	owner_id          TEXT NOT NULL,
	your_domain       TEXT NOT NULL,
	competitor_domain TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'queued',
	result            JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS metric_cache (
	id         TEXT NOT NULL,
	cache_key  TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	owner_id         TEXT PRIMARY KEY,
	domain           TEXT NOT NULL,
	declared_handles JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS connections (
	owner_id  TEXT NOT NULL,
	platform  TEXT NOT NULL,
	username  TEXT NOT NULL,
	connected BOOLEAN NOT NULL DEFAULT true,
	PRIMARY KEY (owner_id, platform)
);

CREATE INDEX IF NOT EXISTS idx_runs_owner ON runs(owner_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_metric_cache_expires_at ON metric_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) CreateRun(ctx context.Context, ownerID, yourDomain, competitorDomain string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, owner_id, your_domain, competitor_domain, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, ownerID, yourDomain, competitorDomain, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, result *model.AnalyzeResponse) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, your_domain, competitor_domain, status, result, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)

	var r model.Run
	var status string
	var resultJSON []byte
	err := row.Scan(&r.ID, &r.OwnerID, &r.YourDomain, &r.CompetitorDomain, &status, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	r.Status = model.RunStatus(status)
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal run result")
		}
	}
	return &r, nil
}

func (s *PostgresStore) GetCachedMetric(ctx context.Context, key string) (*model.CacheEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, cache_key, payload, source, created_at, expires_at FROM metric_cache WHERE cache_key = $1`,
		key,
	)

	var e model.CacheEntry
	err := row.Scan(&e.ID, &e.Key, &e.Payload, &e.Source, &e.CreatedAt, &e.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached metric")
	}
	return &e, nil
}

func (s *PostgresStore) SetCachedMetric(ctx context.Context, entry *model.CacheEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO metric_cache (id, cache_key, payload, source, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (cache_key) DO UPDATE SET
			id = EXCLUDED.id,
			payload = EXCLUDED.payload,
			source = EXCLUDED.source,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`,
		entry.ID, entry.Key, entry.Payload, entry.Source, entry.CreatedAt, entry.ExpiresAt,
	)
	return eris.Wrap(err, "postgres: set cached metric")
}

func (s *PostgresStore) DeleteCachedMetric(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM metric_cache WHERE cache_key = $1`, key)
	return eris.Wrap(err, "postgres: delete cached metric")
}

func (s *PostgresStore) DeleteExpiredMetrics(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM metric_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired metrics")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, ownerID string) (*model.BusinessProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT owner_id, domain, declared_handles FROM profiles WHERE owner_id = $1`,
		ownerID,
	)

	var p model.BusinessProfile
	var handlesJSON []byte
	err := row.Scan(&p.OwnerID, &p.Domain, &handlesJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get profile")
	}
	if err := json.Unmarshal(handlesJSON, &p.DeclaredHandles); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal declared handles")
	}
	return &p, nil
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, profile *model.BusinessProfile) error {
	handlesJSON, err := json.Marshal(profile.DeclaredHandles)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal declared handles")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO profiles (owner_id, domain, declared_handles) VALUES ($1, $2, $3)
		 ON CONFLICT (owner_id) DO UPDATE SET
			domain = EXCLUDED.domain,
			declared_handles = EXCLUDED.declared_handles`,
		profile.OwnerID, profile.Domain, handlesJSON,
	)
	return eris.Wrap(err, "postgres: upsert profile")
}

func (s *PostgresStore) ListConnections(ctx context.Context, ownerID string) ([]model.SocialHandle, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT platform, username, connected FROM connections WHERE owner_id = $1 ORDER BY platform`,
		ownerID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list connections")
	}
	defer rows.Close()

	var handles []model.SocialHandle
	for rows.Next() {
		var h model.SocialHandle
		if err := rows.Scan(&h.Platform, &h.Username, &h.Connected); err != nil {
			return nil, eris.Wrap(err, "postgres: scan connection")
		}
		h.Source = model.HandleSourceOAuth
		handles = append(handles, h)
	}
	return handles, eris.Wrap(rows.Err(), "postgres: iterate connections")
}

func (s *PostgresStore) UpsertConnection(ctx context.Context, ownerID string, handle model.SocialHandle) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO connections (owner_id, platform, username, connected) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (owner_id, platform) DO UPDATE SET
			username = EXCLUDED.username,
			connected = EXCLUDED.connected`,
		ownerID, handle.Platform, handle.Username, handle.Connected,
	)
	return eris.Wrap(err, "postgres: upsert connection")
}
