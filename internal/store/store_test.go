// internal/store/store_test.go
package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfp-proposal-engine/internal/common/errors"
	"rfp-proposal-engine/internal/common/logger"
	"rfp-proposal-engine/internal/models"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, logger.NewTestLogger(t)), mock
}

func TestLoadRFP_Success(t *testing.T) {
	st, mock := newTestStore(t)

	rfp := models.RFP{
		RFPID: "RFP-2024-001",
		Title: "11kV Cable Supply",
		Items: []models.RequestItem{
			{ItemID: "ITEM-1", Description: "XLPE cable", Quantity: 500, Unit: "m"},
		},
	}
	doc, _ := json.Marshal(rfp)

	mock.ExpectQuery(`SELECT document FROM rfps`).
		WithArgs("RFP-2024-001").
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(doc))

	got, err := st.LoadRFP(context.Background(), "RFP-2024-001")
	require.NoError(t, err)
	assert.Equal(t, "11kV Cable Supply", got.Title)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "ITEM-1", got.Items[0].ItemID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadRFP_NotFound(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT document FROM rfps`).
		WithArgs("RFP-MISSING").
		WillReturnRows(sqlmock.NewRows([]string{"document"}))

	_, err := st.LoadRFP(context.Background(), "RFP-MISSING")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRFPNotFound, errors.CodeOf(err))
	assert.False(t, errors.IsRetryable(err))
}

func TestLoadRFP_MalformedDocument(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT document FROM rfps`).
		WithArgs("RFP-BAD").
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow([]byte(`{not json`)))

	_, err := st.LoadRFP(context.Background(), "RFP-BAD")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
}

func TestTestPrices(t *testing.T) {
	st, mock := newTestStore(t)

	names := []string{"Routine Test", "Type Test"}
	mock.ExpectQuery(`SELECT test_name, price FROM test_prices`).
		WithArgs(pq.Array(names)).
		WillReturnRows(sqlmock.NewRows([]string{"test_name", "price"}).
			AddRow("Routine Test", 1500.0).
			AddRow("Type Test", 4500.0))

	prices, err := st.TestPrices(context.Background(), names)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"Routine Test": 1500.0,
		"Type Test":    4500.0,
	}, prices)
}

func TestTestPrices_EmptyNames(t *testing.T) {
	st, _ := newTestStore(t)

	prices, err := st.TestPrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestStoreProposal(t *testing.T) {
	st, mock := newTestStore(t)

	result := &models.ProposalResult{
		RunID:      "run-123",
		RFPID:      "RFP-2024-001",
		Status:     models.RunStatusComplete,
		GrandTotal: 61560.0,
	}

	mock.ExpectExec(`INSERT INTO proposals`).
		WithArgs("run-123", "RFP-2024-001", "Complete", false, 61560.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := st.StoreProposal(context.Background(), result)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreProposal_DBError(t *testing.T) {
	st, mock := newTestStore(t)

	mock.ExpectExec(`INSERT INTO proposals`).
		WillReturnError(assert.AnError)

	err := st.StoreProposal(context.Background(), &models.ProposalResult{RunID: "run-err"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePersistenceFailed, errors.CodeOf(err))
	assert.True(t, errors.IsRetryable(err))
}
