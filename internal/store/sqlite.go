package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements History using modernc.org/sqlite.
type SQLiteStore struct {
	db   *sql.DB
	keep int
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. keep bounds the retained history; values <= 0 fall back to
// DefaultHistoryLimit.
func NewSQLite(dsn string, keep int) (*SQLiteStore, error) {
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
	if keep <= 0 {
		keep = DefaultHistoryLimit
	}
	return &SQLiteStore{db: db, keep: keep}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS run_history (
	id            TEXT PRIMARY KEY,
	run_at        DATETIME NOT NULL,
	target_name   TEXT NOT NULL,
	source_name   TEXT NOT NULL,
	total_records INTEGER NOT NULL,
	match_rate    REAL NOT NULL,
	field_count   INTEGER NOT NULL,
	quality_score REAL NOT NULL,
	grade         TEXT NOT NULL,
	summary       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_fields (
	run_id     TEXT NOT NULL REFERENCES run_history(id),
	field      TEXT NOT NULL,
	matches    INTEGER NOT NULL,
	mismatches INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_history_run_at ON run_history(run_at DESC);
CREATE INDEX IF NOT EXISTS idx_run_fields_run_id ON run_fields(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append stores one run and prunes history beyond the retention limit.
func (s *SQLiteStore) Append(ctx context.Context, rec RunRecord) (*RunRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO run_history (id, run_at, target_name, source_name, total_records, match_rate, field_count, quality_score, grade, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RunAt.UTC(), rec.TargetName, rec.SourceName,
		rec.TotalRecords, rec.MatchRate, rec.FieldCount, rec.QualityScore, rec.Grade, string(rec.Summary),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	for _, f := range rec.Fields {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_fields (run_id, field, matches, mismatches) VALUES (?, ?, ?, ?)`,
			rec.ID, f.Field, f.Matches, f.Mismatches,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert field %s", f.Field)
		}
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM run_history WHERE id NOT IN
		 (SELECT id FROM run_history ORDER BY run_at DESC, id LIMIT ?)`,
		s.keep,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prune runs")
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM run_fields WHERE run_id NOT IN (SELECT id FROM run_history)`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prune fields")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}
	return &rec, nil
}

// Recent returns the newest runs first, at most limit of them.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = s.keep
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_at, target_name, source_name, total_records, match_rate, field_count, quality_score, grade, summary
		 FROM run_history ORDER BY run_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var summary string
		err := rows.Scan(&rec.ID, &rec.RunAt, &rec.TargetName, &rec.SourceName,
			&rec.TotalRecords, &rec.MatchRate, &rec.FieldCount, &rec.QualityScore, &rec.Grade, &summary)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		rec.Summary = []byte(summary)
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: recent iterate")
}
