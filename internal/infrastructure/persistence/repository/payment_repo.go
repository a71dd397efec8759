package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nbrain-team/paycile/internal/application/port"
	"github.com/nbrain-team/paycile/internal/domain/entity"
)

// PaymentRepository implements port.PaymentRepository on SQLite
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) port.PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

const paymentColumns = `id, payment_reference, client_id, insurer_id, amount, method, status, payment_date, created_at`

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get payment by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return payment, nil
}

// GetAll retrieves the full payment set in creation order
func (r *PaymentRepository) GetAll(ctx context.Context) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list payments", zap.Error(err))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row rowScanner) (*entity.Payment, error) {
	var payment entity.Payment
	var amount string

	err := row.Scan(
		&payment.ID,
		&payment.PaymentReference,
		&payment.ClientID,
		&payment.InsurerID,
		&amount,
		&payment.Method,
		&payment.Status,
		&payment.PaymentDate,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	payment.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid payment amount %q: %w", amount, err)
	}

	return &payment, nil
}
