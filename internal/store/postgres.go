package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Garsondee/Ward-Sense/internal/batch"
)

// pgConn is the subset of *pgxpool.Pool the Postgres sink uses.
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresSink stores batch results in PostgreSQL using COPY.
type PostgresSink struct {
	conn pgConn
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and creates the tables if needed.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse database URL: %w", err)
	}
	config.MaxConns = 4
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: database unreachable: %w", err)
	}

	s := &PostgresSink{conn: pool, pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}

// Close closes the connection pool, if the sink owns one.
func (s *PostgresSink) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func pgColumnType(metric string) string {
	if columnType(metric) == "REAL" {
		return "DOUBLE PRECISION"
	}
	return "BIGINT"
}

func (s *PostgresSink) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id UUID PRIMARY KEY,
		variant TEXT NOT NULL,
		iteration INTEGER NOT NULL,
		seed TEXT NOT NULL,
		steps INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS step_metrics (
		run_id UUID NOT NULL REFERENCES runs(run_id),
		step INTEGER NOT NULL` + metricColumnsDDL(pgColumnType) + `,
		PRIMARY KEY (run_id, step)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_variant ON runs(variant, iteration);
	`
	_, err := s.conn.Exec(ctx, schema)
	return err
}

// Write copies the runs and rows of res into the database in one
// transaction.
func (s *PostgresSink) Write(ctx context.Context, res *batch.Result) error {
	var runs [][]any
	now := time.Now().UTC()
	for i, row := range res.Rows {
		if i == 0 || res.Rows[i-1].RunID != row.RunID {
			runs = append(runs, []any{row.RunID, res.Variant.String(), row.Iteration,
				strconv.FormatUint(row.Seed, 10), res.Steps, now})
		}
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"runs"},
		[]string{"run_id", "variant", "iteration", "seed", "steps", "created_at"},
		pgx.CopyFromRows(runs))
	if err != nil {
		return fmt.Errorf("postgres: copy runs: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"step_metrics"}, stepColumns(),
		pgx.CopyFromSlice(len(res.Rows), func(i int) ([]any, error) {
			args := stepArgs(res.Rows[i])
			args[0] = res.Rows[i].RunID
			return args, nil
		}))
	if err != nil {
		return fmt.Errorf("postgres: copy step_metrics: %w", err)
	}
	if int(n) != len(res.Rows) {
		return fmt.Errorf("postgres: copied %d of %d step rows", n, len(res.Rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}
