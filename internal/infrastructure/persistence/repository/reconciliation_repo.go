package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nbrain-team/paycile/internal/application/port"
	"github.com/nbrain-team/paycile/internal/domain/entity"
)

// ReconciliationRepository implements port.ReconciliationRepository on SQLite.
// The advisory suggestions blob is stored as JSON text.
type ReconciliationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReconciliationRepository creates a new reconciliation repository
func NewReconciliationRepository(db *sql.DB, logger *zap.Logger) port.ReconciliationRepository {
	return &ReconciliationRepository{
		db:     db,
		logger: logger,
	}
}

const reconciliationColumns = `id, payment_id, invoice_id, status, confidence_score, suggestions,
	suggested_invoice_id, matched_amount, manual_notes, reconciled_by, reconciled_at, created_at, updated_at`

// Create inserts a new reconciliation record
func (r *ReconciliationRepository) Create(ctx context.Context, rec *entity.Reconciliation) error {
	query := `
		INSERT INTO reconciliations (` + reconciliationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	suggestions, err := json.Marshal(rec.Suggestions)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.PaymentID,
		rec.InvoiceID,
		rec.Status,
		rec.ConfidenceScore,
		string(suggestions),
		rec.SuggestedInvoiceID,
		nullDecimal(rec.MatchedAmount),
		rec.ManualNotes,
		nullReconciledBy(rec.ReconciledBy),
		rec.ReconciledAt,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create reconciliation", zap.String("id", rec.ID), zap.Error(err))
		return fmt.Errorf("failed to create reconciliation: %w", err)
	}

	return nil
}

// GetByID retrieves a record by ID
func (r *ReconciliationRepository) GetByID(ctx context.Context, id string) (*entity.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations WHERE id = ?`

	rec, err := scanReconciliation(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get reconciliation by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get reconciliation: %w", err)
	}

	return rec, nil
}

// GetByPaymentID retrieves the record owning a payment
func (r *ReconciliationRepository) GetByPaymentID(ctx context.Context, paymentID string) (*entity.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations WHERE payment_id = ?`

	rec, err := scanReconciliation(r.db.QueryRowContext(ctx, query, paymentID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get reconciliation by payment ID", zap.String("payment_id", paymentID), zap.Error(err))
		return nil, fmt.Errorf("failed to get reconciliation: %w", err)
	}

	return rec, nil
}

// GetAll retrieves all records in creation order
func (r *ReconciliationRepository) GetAll(ctx context.Context) ([]*entity.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations ORDER BY created_at, id`
	return r.queryMany(ctx, query)
}

// List retrieves a page of records in creation order
func (r *ReconciliationRepository) List(ctx context.Context, limit, offset int) ([]*entity.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations ORDER BY created_at, id LIMIT ? OFFSET ?`
	return r.queryMany(ctx, query, limit, offset)
}

// Update persists all mutable fields of a record
func (r *ReconciliationRepository) Update(ctx context.Context, rec *entity.Reconciliation) error {
	query := `
		UPDATE reconciliations
		SET invoice_id = ?, status = ?, confidence_score = ?, suggestions = ?,
			suggested_invoice_id = ?, matched_amount = ?, manual_notes = ?,
			reconciled_by = ?, reconciled_at = ?, updated_at = ?
		WHERE id = ?
	`

	suggestions, err := json.Marshal(rec.Suggestions)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query,
		rec.InvoiceID,
		rec.Status,
		rec.ConfidenceScore,
		string(suggestions),
		rec.SuggestedInvoiceID,
		nullDecimal(rec.MatchedAmount),
		rec.ManualNotes,
		nullReconciledBy(rec.ReconciledBy),
		rec.ReconciledAt,
		rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update reconciliation", zap.String("id", rec.ID), zap.Error(err))
		return fmt.Errorf("failed to update reconciliation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: reconciliation %s", entity.ErrNotFound, rec.ID)
	}

	return nil
}

func (r *ReconciliationRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Reconciliation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list reconciliations", zap.Error(err))
		return nil, fmt.Errorf("failed to list reconciliations: %w", err)
	}
	defer rows.Close()

	var records []*entity.Reconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func scanReconciliation(row rowScanner) (*entity.Reconciliation, error) {
	var rec entity.Reconciliation
	var invoiceID, suggestedInvoiceID, matchedAmount, reconciledBy sql.NullString
	var reconciledAt sql.NullTime
	var suggestions string

	err := row.Scan(
		&rec.ID,
		&rec.PaymentID,
		&invoiceID,
		&rec.Status,
		&rec.ConfidenceScore,
		&suggestions,
		&suggestedInvoiceID,
		&matchedAmount,
		&rec.ManualNotes,
		&reconciledBy,
		&reconciledAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if suggestions != "" {
		if err := json.Unmarshal([]byte(suggestions), &rec.Suggestions); err != nil {
			return nil, fmt.Errorf("invalid suggestions payload: %w", err)
		}
	}

	if invoiceID.Valid {
		rec.InvoiceID = &invoiceID.String
	}
	if suggestedInvoiceID.Valid {
		rec.SuggestedInvoiceID = &suggestedInvoiceID.String
	}
	if matchedAmount.Valid {
		amount, err := decimal.NewFromString(matchedAmount.String)
		if err != nil {
			return nil, fmt.Errorf("invalid matched amount %q: %w", matchedAmount.String, err)
		}
		rec.MatchedAmount = &amount
	}
	if reconciledBy.Valid {
		by := entity.ReconciledBy(reconciledBy.String)
		rec.ReconciledBy = &by
	}
	if reconciledAt.Valid {
		t := reconciledAt.Time
		rec.ReconciledAt = &t
	}

	return &rec, nil
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.StringFixed(2)
}

func nullReconciledBy(by *entity.ReconciledBy) interface{} {
	if by == nil {
		return nil
	}
	return string(*by)
}
