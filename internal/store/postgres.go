package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/shop-dedupe/internal/db"
	"github.com/sells-group/shop-dedupe/internal/model"
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

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run": `INSERT INTO runs (id, source, mode, threshold_km, min_name_length, total_records, secured, unsecured, pair_count, status, created_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
	"get_run": `SELECT id, source, mode, threshold_km, min_name_length, total_records, secured, unsecured, pair_count, status, created_at
	 FROM runs WHERE id = $1`,
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

	// Prepare frequently-used statements on each new connection.
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

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source          TEXT NOT NULL,
	mode            TEXT NOT NULL,
	threshold_km    DOUBLE PRECISION NOT NULL,
	min_name_length INTEGER NOT NULL,
	total_records   INTEGER NOT NULL,
	secured         INTEGER NOT NULL,
	unsecured       INTEGER NOT NULL,
	pair_count      INTEGER NOT NULL,
	status          TEXT NOT NULL DEFAULT 'complete',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_pairs (
	run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	pair_key        TEXT NOT NULL,
	customer_id_a   TEXT NOT NULL,
	shop_name_a     TEXT NOT NULL,
	prospect_code_a TEXT NOT NULL,
	latitude_a      DOUBLE PRECISION NOT NULL,
	longitude_a     DOUBLE PRECISION NOT NULL,
	customer_id_b   TEXT NOT NULL,
	shop_name_b     TEXT NOT NULL,
	prospect_code_b TEXT NOT NULL,
	latitude_b      DOUBLE PRECISION NOT NULL,
	longitude_b     DOUBLE PRECISION NOT NULL,
	distance_km     DOUBLE PRECISION NOT NULL,
	names_similar   BOOLEAN NOT NULL,
	suspicious      BOOLEAN NOT NULL,
	comparison_type TEXT NOT NULL,
	PRIMARY KEY (run_id, pair_key)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_run_pairs_run_id ON run_pairs(run_id);
`

// runPairColumns is the run_pairs column order used for bulk COPY.
var runPairColumns = []string{
	"run_id", "pair_key",
	"customer_id_a", "shop_name_a", "prospect_code_a", "latitude_a", "longitude_a",
	"customer_id_b", "shop_name_b", "prospect_code_b", "latitude_b", "longitude_b",
	"distance_km", "names_similar", "suspicious", "comparison_type",
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

// SaveRun inserts the run row and bulk-copies its pairs. Assigns run.ID
// and run.CreatedAt when unset.
func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run, pairs []model.CandidatePair) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.PairCount = len(pairs)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, source, mode, threshold_km, min_name_length, total_records, secured, unsecured, pair_count, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.Source, string(run.Mode), run.ThresholdKm, run.MinNameLength,
		run.TotalRecords, run.Secured, run.Unsecured, run.PairCount, string(run.Status), run.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert run")
	}

	rows := make([][]any, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []any{
			run.ID, p.Key(),
			p.CustomerIDA, p.ShopNameA, p.ProspectCodeA, p.LatitudeA, p.LongitudeA,
			p.CustomerIDB, p.ShopNameB, p.ProspectCodeB, p.LatitudeB, p.LongitudeB,
			p.DistanceKm, p.NamesSimilar, p.Suspicious, string(p.ComparisonType),
		})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "run_pairs", runPairColumns, rows); err != nil {
		return eris.Wrapf(err, "postgres: copy pairs for run %s", run.ID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var mode, status string
	err := s.pool.QueryRow(ctx,
		`SELECT id, source, mode, threshold_km, min_name_length, total_records, secured, unsecured, pair_count, status, created_at
		 FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Source, &mode, &r.ThresholdKm, &r.MinNameLength,
		&r.TotalRecords, &r.Secured, &r.Unsecured, &r.PairCount, &status, &r.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	r.Mode = model.Mode(mode)
	r.Status = model.RunStatus(status)
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, mode, threshold_km, min_name_length, total_records, secured, unsecured, pair_count, status, created_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var mode, status string
		if err := rows.Scan(&r.ID, &r.Source, &mode, &r.ThresholdKm, &r.MinNameLength,
			&r.TotalRecords, &r.Secured, &r.Unsecured, &r.PairCount, &status, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Mode = model.Mode(mode)
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) GetRunPairs(ctx context.Context, runID string) ([]model.CandidatePair, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT customer_id_a, shop_name_a, prospect_code_a, latitude_a, longitude_a,
		        customer_id_b, shop_name_b, prospect_code_b, latitude_b, longitude_b,
		        distance_km, names_similar, suspicious, comparison_type
		 FROM run_pairs WHERE run_id = $1 ORDER BY distance_km ASC, pair_key ASC`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get pairs for run %s", runID)
	}
	defer rows.Close()

	var pairs []model.CandidatePair
	for rows.Next() {
		var p model.CandidatePair
		var comparison string
		if err := rows.Scan(&p.CustomerIDA, &p.ShopNameA, &p.ProspectCodeA, &p.LatitudeA, &p.LongitudeA,
			&p.CustomerIDB, &p.ShopNameB, &p.ProspectCodeB, &p.LatitudeB, &p.LongitudeB,
			&p.DistanceKm, &p.NamesSimilar, &p.Suspicious, &comparison); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pair")
		}
		p.ComparisonType = model.ComparisonType(comparison)
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "postgres: get pairs iterate")
}
