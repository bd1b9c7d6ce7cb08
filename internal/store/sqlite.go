package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/shop-dedupe/internal/model"
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
		"PRAGMA foreign_keys=ON",
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
	id              TEXT PRIMARY KEY,
	source          TEXT NOT NULL,
	mode            TEXT NOT NULL,
	threshold_km    REAL NOT NULL,
	min_name_length INTEGER NOT NULL,
	total_records   INTEGER NOT NULL,
	secured         INTEGER NOT NULL,
	unsecured       INTEGER NOT NULL,
	pair_count      INTEGER NOT NULL,
	status          TEXT NOT NULL DEFAULT 'complete',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_pairs (
	run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	pair_key        TEXT NOT NULL,
	customer_id_a   TEXT NOT NULL,
	shop_name_a     TEXT NOT NULL,
	prospect_code_a TEXT NOT NULL,
	latitude_a      REAL NOT NULL,
	longitude_a     REAL NOT NULL,
	customer_id_b   TEXT NOT NULL,
	shop_name_b     TEXT NOT NULL,
	prospect_code_b TEXT NOT NULL,
	latitude_b      REAL NOT NULL,
	longitude_b     REAL NOT NULL,
	distance_km     REAL NOT NULL,
	names_similar   INTEGER NOT NULL,
	suspicious      INTEGER NOT NULL,
	comparison_type TEXT NOT NULL,
	PRIMARY KEY (run_id, pair_key)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_run_pairs_run_id ON run_pairs(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts the run and all its pairs in one transaction so a
// partially written run never appears in history. Assigns run.ID and
// run.CreatedAt when unset.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run, pairs []model.CandidatePair) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.PairCount = len(pairs)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, mode, threshold_km, min_name_length, total_records, secured, unsecured, pair_count, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, string(run.Mode), run.ThresholdKm, run.MinNameLength,
		run.TotalRecords, run.Secured, run.Unsecured, run.PairCount, string(run.Status), run.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert run")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_pairs (run_id, pair_key, customer_id_a, shop_name_a, prospect_code_a, latitude_a, longitude_a,
		 customer_id_b, shop_name_b, prospect_code_b, latitude_b, longitude_b, distance_km, names_similar, suspicious, comparison_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert pair")
	}
	defer stmt.Close()

	for _, p := range pairs {
		_, err = stmt.ExecContext(ctx,
			run.ID, p.Key(), p.CustomerIDA, p.ShopNameA, p.ProspectCodeA, p.LatitudeA, p.LongitudeA,
			p.CustomerIDB, p.ShopNameB, p.ProspectCodeB, p.LatitudeB, p.LongitudeB,
			p.DistanceKm, boolToInt(p.NamesSimilar), boolToInt(p.Suspicious), string(p.ComparisonType),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert pair %s", p.Key())
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var mode, status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, mode, threshold_km, min_name_length, total_records, secured, unsecured, pair_count, status, created_at
		 FROM runs WHERE id = ?`,
		runID,
	).Scan(&r.ID, &r.Source, &mode, &r.ThresholdKm, &r.MinNameLength,
		&r.TotalRecords, &r.Secured, &r.Unsecured, &r.PairCount, &status, &r.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	r.Mode = model.Mode(mode)
	r.Status = model.RunStatus(status)
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, mode, threshold_km, min_name_length, total_records, secured, unsecured, pair_count, status, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var mode, status string
		if err := rows.Scan(&r.ID, &r.Source, &mode, &r.ThresholdKm, &r.MinNameLength,
			&r.TotalRecords, &r.Secured, &r.Unsecured, &r.PairCount, &status, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Mode = model.Mode(mode)
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) GetRunPairs(ctx context.Context, runID string) ([]model.CandidatePair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT customer_id_a, shop_name_a, prospect_code_a, latitude_a, longitude_a,
		        customer_id_b, shop_name_b, prospect_code_b, latitude_b, longitude_b,
		        distance_km, names_similar, suspicious, comparison_type
		 FROM run_pairs WHERE run_id = ? ORDER BY distance_km ASC, pair_key ASC`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get pairs for run %s", runID)
	}
	defer rows.Close()

	var pairs []model.CandidatePair
	for rows.Next() {
		var p model.CandidatePair
		var namesSimilar, suspicious int
		var comparison string
		if err := rows.Scan(&p.CustomerIDA, &p.ShopNameA, &p.ProspectCodeA, &p.LatitudeA, &p.LongitudeA,
			&p.CustomerIDB, &p.ShopNameB, &p.ProspectCodeB, &p.LatitudeB, &p.LongitudeB,
			&p.DistanceKm, &namesSimilar, &suspicious, &comparison); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pair")
		}
		p.NamesSimilar = namesSimilar != 0
		p.Suspicious = suspicious != 0
		p.ComparisonType = model.ComparisonType(comparison)
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "sqlite: get pairs iterate")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
