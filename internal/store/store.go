// Package store persists built risk models and their predictions.
// Models round-trip through versioned gob files; models and predictions
// are also kept in a queryable DuckDB database, where writing a model or
// an individual's prediction again replaces the earlier rows.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/prism-risk/prism/internal/risk"
)

// Store manages a DuckDB connection for model and prediction storage.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path. Use an
// empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS models (
			name VARCHAR PRIMARY KEY,
			snp_count INTEGER,
			time_count INTEGER,
			use_exact BOOLEAN,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS model_snps (
			model VARCHAR,
			idx INTEGER,
			rsid VARCHAR,
			source_ref VARCHAR,
			allele1 VARCHAR,
			allele2 VARCHAR,
			orient VARCHAR,
			freq2 DOUBLE,
			ln_hr2 DOUBLE,
			PRIMARY KEY (model, rsid)
		)`,
		`CREATE TABLE IF NOT EXISTS model_survival (
			model VARCHAR,
			idx INTEGER,
			time DOUBLE,
			marg_surv DOUBLE,
			base_surv DOUBLE,
			PRIMARY KEY (model, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			model VARCHAR,
			indiv_id VARCHAR,
			pi DOUBLE,
			pi_pctl DOUBLE,
			created_at TIMESTAMP,
			PRIMARY KEY (model, indiv_id)
		)`,
		`CREATE TABLE IF NOT EXISTS prediction_risks (
			model VARCHAR,
			indiv_id VARCHAR,
			idx INTEGER,
			time DOUBLE,
			cum_risk DOUBLE,
			PRIMARY KEY (model, indiv_id, idx)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// WriteModel inserts a built model, replacing any previous rows with the
// same name.
func (s *Store) WriteModel(m *risk.Model) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	name := m.Name()
	for _, stmt := range []string{
		`DELETE FROM models WHERE name = ?`,
		`DELETE FROM model_snps WHERE model = ?`,
		`DELETE FROM model_survival WHERE model = ?`,
	} {
		if _, err := tx.Exec(stmt, name); err != nil {
			return fmt.Errorf("clear model %s: %w", name, err)
		}
	}

	snps := m.SNPs()
	times := m.Times()
	marg := m.MarginalSurvival()
	base := m.BaselineSurvival()

	if _, err := tx.Exec(
		`INSERT INTO models (name, snp_count, time_count, use_exact, created_at) VALUES (?, ?, ?, ?, ?)`,
		name, len(snps), len(times), m.Exact(), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("insert model %s: %w", name, err)
	}

	for i, snp := range snps {
		if _, err := tx.Exec(
			`INSERT INTO model_snps (model, idx, rsid, source_ref, allele1, allele2, orient, freq2, ln_hr2)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			name, i, snp.RsID(), snp.SourceRef(), snp.Allele1(), snp.Allele2(),
			snp.Orient().String(), snp.Freq2(), snp.LnHR2(),
		); err != nil {
			return fmt.Errorf("insert SNP %s of model %s: %w", snp.RsID(), name, err)
		}
	}

	for i := range times {
		if _, err := tx.Exec(
			`INSERT INTO model_survival (model, idx, time, marg_surv, base_surv) VALUES (?, ?, ?, ?, ?)`,
			name, i, times[i], marg[i], base[i],
		); err != nil {
			return fmt.Errorf("insert survival row %d of model %s: %w", i, name, err)
		}
	}

	return tx.Commit()
}

// WritePredictions batch-inserts predictions using the DuckDB Appender
// API. Existing rows for the same (model, individual) are replaced.
func (s *Store) WritePredictions(preds []*risk.Prediction) error {
	if len(preds) == 0 {
		return nil
	}

	now := time.Now().UTC()
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, p := range preds {
		if _, err := tx.Exec(`DELETE FROM predictions WHERE model = ? AND indiv_id = ?`, p.ModelName, p.IndivID); err != nil {
			tx.Rollback()
			return fmt.Errorf("clear prediction %s/%s: %w", p.ModelName, p.IndivID, err)
		}
		if _, err := tx.Exec(`DELETE FROM prediction_risks WHERE model = ? AND indiv_id = ?`, p.ModelName, p.IndivID); err != nil {
			tx.Rollback()
			return fmt.Errorf("clear prediction risks %s/%s: %w", p.ModelName, p.IndivID, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO predictions (model, indiv_id, pi, pi_pctl, created_at) VALUES (?, ?, ?, ?, ?)`,
			p.ModelName, p.IndivID, p.PI, p.PIPercentile, now,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert prediction %s/%s: %w", p.ModelName, p.IndivID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit predictions: %w", err)
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "prediction_risks")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, p := range preds {
		for i := range p.Times {
			if err := appender.AppendRow(p.ModelName, p.IndivID, int32(i), p.Times[i], p.CumulativeRisk[i]); err != nil {
				return fmt.Errorf("append risk row for %s/%s: %w", p.ModelName, p.IndivID, err)
			}
		}
	}
	if err := appender.Flush(); err != nil {
		return fmt.Errorf("flush appender: %w", err)
	}
	return nil
}

// CountPredictions returns the number of stored predictions for a model.
func (s *Store) CountPredictions(model string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM predictions WHERE model = ?`, model).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count predictions: %w", err)
	}
	return n, nil
}
