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

// InvoiceRepository implements port.InvoiceRepository on SQLite
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

const invoiceColumns = `id, invoice_number, client_id, insurer_id, amount, due_date,
	billing_period_start, billing_period_end, status, created_at`

// GetByID retrieves an invoice with its line items
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if err := r.attachLineItems(ctx, invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

// GetByClientID retrieves all invoices for a client in creation order, line
// items included. Creation order matters: it is the tie-break for equal
// suggestion scores.
func (r *InvoiceRepository) GetByClientID(ctx context.Context, clientID string) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE client_id = ? ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, clientID)
	if err != nil {
		r.logger.Error("Failed to get invoices by client ID", zap.String("client_id", clientID), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, invoice := range invoices {
		if err := r.attachLineItems(ctx, invoice); err != nil {
			return nil, err
		}
	}

	return invoices, nil
}

// attachLineItems loads an invoice's line items in stable order
func (r *InvoiceRepository) attachLineItems(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		SELECT id, invoice_id, type, description, amount
		FROM invoice_line_items
		WHERE invoice_id = ?
		ORDER BY rowid
	`

	rows, err := r.db.QueryContext(ctx, query, invoice.ID)
	if err != nil {
		r.logger.Error("Failed to get line items", zap.String("invoice_id", invoice.ID), zap.Error(err))
		return fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entity.LineItem
		var amount string

		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Type, &item.Description, &amount); err != nil {
			return fmt.Errorf("failed to scan line item: %w", err)
		}

		item.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("invalid line item amount %q: %w", amount, err)
		}

		invoice.LineItems = append(invoice.LineItems, item)
	}

	return rows.Err()
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var invoice entity.Invoice
	var amount string

	err := row.Scan(
		&invoice.ID,
		&invoice.InvoiceNumber,
		&invoice.ClientID,
		&invoice.InsurerID,
		&amount,
		&invoice.DueDate,
		&invoice.BillingPeriodStart,
		&invoice.BillingPeriodEnd,
		&invoice.Status,
		&invoice.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice amount %q: %w", amount, err)
	}

	return &invoice, nil
}
