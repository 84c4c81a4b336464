// internal/store/store.go

// Package store persists RFPs, per-test prices and finished proposals in
// PostgreSQL. Structured documents are kept as JSONB; the relational columns
// exist for lookup and reporting.
package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"rfp-proposal-engine/internal/common/errors"
	"rfp-proposal-engine/internal/common/logger"
	"rfp-proposal-engine/internal/models"
)

// Store is the PostgreSQL persistence layer for the pipeline.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "store"}),
	}
}

// LoadRFP fetches a structured RFP document by id.
func (s *Store) LoadRFP(ctx context.Context, rfpID string) (*models.RFP, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM rfps WHERE rfp_id = $1`, rfpID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, errors.NewRFPNotFoundError(rfpID)
	}
	if err != nil {
		return nil, errors.NewPersistenceFailedError("load_rfp", err)
	}

	var rfp models.RFP
	if err := json.Unmarshal(raw, &rfp); err != nil {
		return nil, errors.NewValidationError("malformed RFP document: " + err.Error())
	}
	return &rfp, nil
}

// TestPrices returns the unit price for each named test. Tests without a
// price row are absent from the result; the pricing engine decides how to
// treat them.
func (s *Store) TestPrices(ctx context.Context, names []string) (map[string]float64, error) {
	if len(names) == 0 {
		return map[string]float64{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT test_name, price FROM test_prices WHERE test_name = ANY($1)`,
		pq.Array(names),
	)
	if err != nil {
		return nil, errors.NewPersistenceFailedError("test_prices", err)
	}
	defer rows.Close()

	prices := make(map[string]float64, len(names))
	for rows.Next() {
		var name string
		var price float64
		if err := rows.Scan(&name, &price); err != nil {
			return nil, errors.NewPersistenceFailedError("test_prices", err)
		}
		prices[name] = price
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceFailedError("test_prices", err)
	}
	return prices, nil
}

// StoreProposal writes the terminal run result. Called exactly once per run,
// for failed runs included.
func (s *Store) StoreProposal(ctx context.Context, result *models.ProposalResult) error {
	doc, err := json.Marshal(result)
	if err != nil {
		return errors.NewPersistenceFailedError("store_proposal", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO proposals (run_id, rfp_id, status, degraded, grand_total, document, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		result.RunID, result.RFPID, string(result.Status), result.Degraded,
		result.GrandTotal, doc,
	)
	if err != nil {
		return errors.NewPersistenceFailedError("store_proposal", err)
	}

	s.logger.Info("proposal stored", map[string]interface{}{
		"runId":  result.RunID,
		"rfpId":  result.RFPID,
		"status": string(result.Status),
	})
	return nil
}
