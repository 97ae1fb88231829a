package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/integrity-cli/internal/db"
)

// PostgresStore implements History using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	keep    int
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":  `INSERT INTO run_history (id, run_at, target_name, source_name, total_records, match_rate, field_count, quality_score, grade, summary) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
	"recent_runs": `SELECT id, run_at, target_name, source_name, total_records, match_rate, field_count, quality_score, grade, summary FROM run_history ORDER BY run_at DESC, id LIMIT $1`,
}

// NewPostgres creates a PostgresStore with a connection pool. keep bounds
// the retained history; values <= 0 fall back to DefaultHistoryLimit.
func NewPostgres(ctx context.Context, connString string, keep int, poolCfg *PoolConfig) (*PostgresStore, error) {
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
	if keep <= 0 {
		keep = DefaultHistoryLimit
	}
	return &PostgresStore{pool: pool, keep: keep, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS run_history (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_at        TIMESTAMPTZ NOT NULL,
	target_name   TEXT NOT NULL,
	source_name   TEXT NOT NULL,
	total_records INTEGER NOT NULL,
	match_rate    DOUBLE PRECISION NOT NULL,
	field_count   INTEGER NOT NULL,
	quality_score DOUBLE PRECISION NOT NULL,
	grade         TEXT NOT NULL,
	summary       JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS run_fields (
	run_id     TEXT NOT NULL REFERENCES run_history(id) ON DELETE CASCADE,
	field      TEXT NOT NULL,
	matches    INTEGER NOT NULL,
	mismatches INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_history_run_at ON run_history(run_at DESC);
CREATE INDEX IF NOT EXISTS idx_run_fields_run_id ON run_fields(run_id);
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

// Append stores one run and prunes history beyond the retention limit.
// Per-field stats go through COPY since wide comparisons can carry hundreds
// of fields.
func (s *PostgresStore) Append(ctx context.Context, rec RunRecord) (*RunRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_history (id, run_at, target_name, source_name, total_records, match_rate, field_count, quality_score, grade, summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.RunAt.UTC(), rec.TargetName, rec.SourceName,
		rec.TotalRecords, rec.MatchRate, rec.FieldCount, rec.QualityScore, rec.Grade, rec.Summary,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	if len(rec.Fields) > 0 {
		rows := make([][]any, 0, len(rec.Fields))
		for _, f := range rec.Fields {
			rows = append(rows, []any{rec.ID, f.Field, f.Matches, f.Mismatches})
		}
		if _, err := db.CopyFrom(ctx, s.pool, "run_fields",
			[]string{"run_id", "field", "matches", "mismatches"}, rows); err != nil {
			return nil, eris.Wrap(err, "postgres: copy fields")
		}
	}

	_, err = s.pool.Exec(ctx,
		`DELETE FROM run_history WHERE id NOT IN
		 (SELECT id FROM run_history ORDER BY run_at DESC, id LIMIT $1)`,
		s.keep,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: prune runs")
	}

	return &rec, nil
}

// Recent returns the newest runs first, at most limit of them.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = s.keep
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, run_at, target_name, source_name, total_records, match_rate, field_count, quality_score, grade, summary
		 FROM run_history ORDER BY run_at DESC, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		err := rows.Scan(&rec.ID, &rec.RunAt, &rec.TargetName, &rec.SourceName,
			&rec.TotalRecords, &rec.MatchRate, &rec.FieldCount, &rec.QualityScore, &rec.Grade, &rec.Summary)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: recent iterate")
}
