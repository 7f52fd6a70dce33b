package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Garsondee/Ward-Sense/internal/batch"
	"github.com/Garsondee/Ward-Sense/internal/sim"
)

// SchemaVersion is the latest SQLite schema version supported by Migrate.
const SchemaVersion = 1

// columnName maps a metric column to its SQL column.
func columnName(metric string) string {
	return strings.ToLower(metric)
}

func columnType(metric string) string {
	if metric == "Average_Nurse_Workload_Factor" {
		return "REAL"
	}
	return "INTEGER"
}

func metricColumnsDDL(types func(string) string) string {
	var b strings.Builder
	for _, c := range sim.MetricColumns {
		fmt.Fprintf(&b, ",\n\t\t\t%s %s NOT NULL", columnName(c), types(c))
	}
	return b.String()
}

// Migrate ensures the SQLite schema exists and is upgraded to SchemaVersion.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			variant TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			seed TEXT NOT NULL,
			steps INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create runs table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS step_metrics (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL` + metricColumnsDDL(columnType) + `,
			PRIMARY KEY(run_id, step),
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create step_metrics table: %w", err)
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_variant ON runs(variant, iteration);`)
	if err != nil {
		return fmt.Errorf("migrate: create idx_runs_variant: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}
	return nil
}

// SQLiteSink stores batch results in a SQLite database.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: %s: %w", path, err)
	}
	return &SQLiteSink{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// stepColumns lists the step_metrics columns in stepArgs order.
func stepColumns() []string {
	cols := []string{"run_id", "step"}
	for _, c := range sim.MetricColumns {
		cols = append(cols, columnName(c))
	}
	return cols
}

func insertStepSQL() string {
	cols := stepColumns()
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return "INSERT INTO step_metrics (" + strings.Join(cols, ", ") + ") VALUES (" + marks + ")"
}

// Write inserts every run and row of res in one transaction.
func (s *SQLiteSink) Write(ctx context.Context, res *batch.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	runStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO runs (run_id, variant, iteration, seed, steps, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare runs: %w", err)
	}
	defer runStmt.Close()

	stepStmt, err := tx.PrepareContext(ctx, insertStepSQL())
	if err != nil {
		return fmt.Errorf("sqlite: prepare step_metrics: %w", err)
	}
	defer stepStmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i, row := range res.Rows {
		if i == 0 || res.Rows[i-1].RunID != row.RunID {
			_, err := runStmt.ExecContext(ctx, row.RunID.String(), res.Variant.String(),
				row.Iteration, strconv.FormatUint(row.Seed, 10), res.Steps, now)
			if err != nil {
				return fmt.Errorf("sqlite: insert run %d: %w", row.Iteration, err)
			}
		}
		if _, err := stepStmt.ExecContext(ctx, stepArgs(row)...); err != nil {
			return fmt.Errorf("sqlite: insert step %d/%d: %w", row.Iteration, row.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func stepArgs(row batch.Row) []any {
	vals := row.Metrics.Values()
	args := make([]any, 0, 2+len(vals))
	args = append(args, row.RunID.String(), row.Step)
	for i, v := range vals {
		if columnType(sim.MetricColumns[i]) == "INTEGER" {
			args = append(args, int64(v))
		} else {
			args = append(args, v)
		}
	}
	return args
}

// RunCount returns the number of stored runs of v.
func (s *SQLiteSink) RunCount(ctx context.Context, v sim.Variant) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE variant = ?`, v.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count runs: %w", err)
	}
	return n, nil
}

// MeanColumn averages one metric column per step across the stored runs of v.
func (s *SQLiteSink) MeanColumn(ctx context.Context, v sim.Variant, metric string) ([]float64, error) {
	if sim.ColumnIndex(metric) < 0 {
		return nil, fmt.Errorf("sqlite: unknown metric column %q", metric)
	}
	q := `SELECT m.step, AVG(m.` + columnName(metric) + `)
		FROM step_metrics m JOIN runs r ON r.run_id = m.run_id
		WHERE r.variant = ?
		GROUP BY m.step ORDER BY m.step`
	rows, err := s.db.QueryContext(ctx, q, v.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: mean %s: %w", metric, err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var step int
		var mean float64
		if err := rows.Scan(&step, &mean); err != nil {
			return nil, fmt.Errorf("sqlite: mean %s: scan: %w", metric, err)
		}
		out = append(out, mean)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: mean %s: %w", metric, err)
	}
	return out, nil
}
