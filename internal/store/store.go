// Package store keeps a history of completed search runs in MySQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dbsmedya/starsift/internal/finder"
	"github.com/dbsmedya/starsift/internal/logger"
	"github.com/dbsmedya/starsift/internal/sqlutil"
)

const createRunTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	run_id CHAR(36) PRIMARY KEY,
	coordinate VARCHAR(255) NOT NULL,
	ra DOUBLE NOT NULL,
	dec_deg DOUBLE NOT NULL,
	radius DOUBLE NOT NULL,
	catalogs VARCHAR(1024) NOT NULL,
	ruwe_filter TINYINT NOT NULL,
	ruwe_max DOUBLE NOT NULL,
	mag_high DOUBLE NOT NULL,
	mag_low DOUBLE NOT NULL,
	candidates INT NOT NULL,
	filtered INT NOT NULL,
	excluded INT NOT NULL,
	kept INT NOT NULL,
	output_path VARCHAR(1024) NOT NULL,
	started_at DATETIME(3) NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	INDEX idx_started (started_at)
) ENGINE=InnoDB;
`

const createRecordTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	run_id CHAR(36) NOT NULL,
	position INT NOT NULL,
	object_name VARCHAR(255) NOT NULL,
	source_id VARCHAR(64) NOT NULL,
	ra DOUBLE NULL,
	dec_deg DOUBLE NULL,
	mean_gmag DOUBLE NOT NULL,
	ruwe DOUBLE NULL,
	UNIQUE KEY uk_run_position (run_id, position),
	FOREIGN KEY (run_id) REFERENCES %s(run_id) ON DELETE CASCADE
) ENGINE=InnoDB;
`

// RunSummary is one row of the run history.
type RunSummary struct {
	RunID      string
	Coordinate string
	Radius     float64
	Catalogs   []string
	Candidates int
	Filtered   int
	Excluded   int
	Kept       int
	OutputPath string
	StartedAt  time.Time
	Duration   time.Duration
}

// RunStore persists finder results.
type RunStore struct {
	db          *sql.DB
	runTable    string
	recordTable string
	logger      *logger.Logger
}

// NewRunStore creates a store whose tables are named <prefix>run and
// <prefix>run_record.
func NewRunStore(db *sql.DB, prefix string, log *logger.Logger) (*RunStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	runTable, err := sqlutil.QuoteIdentifierSafe(prefix + "run")
	if err != nil {
		return nil, fmt.Errorf("invalid table prefix: %w", err)
	}
	recordTable, err := sqlutil.QuoteIdentifierSafe(prefix + "run_record")
	if err != nil {
		return nil, fmt.Errorf("invalid table prefix: %w", err)
	}

	return &RunStore{
		db:          db,
		runTable:    runTable,
		recordTable: recordTable,
		logger:      log,
	}, nil
}

// InitializeTables creates the history tables if they don't exist.
func (s *RunStore) InitializeTables(ctx context.Context) error {
	s.logger.Debug("Initializing run history tables")

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createRunTableSQL, s.runTable)); err != nil {
		return fmt.Errorf("failed to create %s table: %w", s.runTable, err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createRecordTableSQL, s.recordTable, s.runTable)); err != nil {
		return fmt.Errorf("failed to create %s table: %w", s.recordTable, err)
	}

	s.logger.Debug("Run history tables initialized")
	return nil
}

// SaveRun stores r and its records in one transaction.
func (s *RunStore) SaveRun(ctx context.Context, r *finder.Result) error {
	if r == nil {
		return fmt.Errorf("result is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	th := r.Params.Thresholds
	_, err = tx.ExecContext(ctx,
		"INSERT INTO "+s.runTable+" (run_id, coordinate, ra, dec_deg, radius, catalogs, ruwe_filter, ruwe_max, mag_high, mag_low, "+
			"candidates, filtered, excluded, kept, output_path, started_at, duration_ms) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.RunID, r.Coordinate.Raw, r.Coordinate.RA, r.Coordinate.Dec, r.Params.Radius,
		strings.Join(r.Params.Catalogs, ","), th.RUWEFilter, th.RUWEMax, th.MagHigh, th.MagLow,
		r.Candidates, r.Filtered, r.Excluded, r.Kept, r.OutputPath,
		r.StartedAt.UTC(), r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(r.Records) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO "+s.recordTable+" (run_id, position, object_name, source_id, ra, dec_deg, mean_gmag, ruwe) "+
				"VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare record insert: %w", err)
		}
		defer stmt.Close()

		for i, rec := range r.Records {
			if _, err := stmt.ExecContext(ctx, r.RunID, i, rec.Name, rec.SourceID, nullFloat(rec.RA), nullFloat(rec.Dec), rec.MeanGmag, nullFloat(rec.RUWE)); err != nil {
				return fmt.Errorf("failed to insert record %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	s.logger.Infow("Run archived", "run", r.RunID, "records", len(r.Records))
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, coordinate, radius, catalogs, candidates, filtered, excluded, kept, output_path, started_at, duration_ms "+
			"FROM "+s.runTable+" ORDER BY started_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r          RunSummary
			catalogs   string
			durationMS int64
		)
		if err := rows.Scan(&r.RunID, &r.Coordinate, &r.Radius, &catalogs, &r.Candidates, &r.Filtered,
			&r.Excluded, &r.Kept, &r.OutputPath, &r.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if catalogs != "" {
			r.Catalogs = strings.Split(catalogs, ",")
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRunRecords returns the records of runID in table order.
func (s *RunStore) GetRunRecords(ctx context.Context, runID string) ([]finder.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT object_name, source_id, ra, dec_deg, mean_gmag, ruwe FROM "+s.recordTable+
			" WHERE run_id = ? ORDER BY position",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get records for run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []finder.Record
	for rows.Next() {
		var (
			rec           finder.Record
			ra, dec, ruwe sql.NullFloat64
		)
		if err := rows.Scan(&rec.Name, &rec.SourceID, &ra, &dec, &rec.MeanGmag, &ruwe); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.RA = floatOrNaN(ra)
		rec.Dec = floatOrNaN(dec)
		rec.RUWE = floatOrNaN(ruwe)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get records for run %s: %w", runID, err)
	}
	return records, nil
}

func floatOrNaN(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}

// nullFloat maps blank catalog values (NaN) to NULL.
func nullFloat(f float64) sql.NullFloat64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
