// Package port defines the interfaces the application layer depends on.
// Implementations live in internal/infrastructure. The engine never owns the
// storage lifecycle; it treats persistence as a synchronous read/write
// dependency behind these narrow interfaces.
package port

import (
	"context"

	"github.com/nbrain-team/paycile/internal/domain/entity"
)

// PaymentRepository provides read access to payment records
type PaymentRepository interface {
	// GetByID retrieves a payment by ID. Returns nil, nil when not found.
	GetByID(ctx context.Context, id string) (*entity.Payment, error)

	// GetAll retrieves the full payment set. Used to build the read-consistent
	// duplicate-payment snapshot at the start of a matching pass.
	GetAll(ctx context.Context) ([]*entity.Payment, error)
}

// InvoiceRepository provides read access to invoices with their line items
type InvoiceRepository interface {
	// GetByID retrieves an invoice by ID, line items included, ordered by
	// creation. Returns nil, nil when not found.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)

	// GetByClientID retrieves all invoices for a client in creation order.
	// This is the candidate set for suggestion building.
	GetByClientID(ctx context.Context, clientID string) ([]*entity.Invoice, error)
}

// ReconciliationRepository persists reconciliation records
type ReconciliationRepository interface {
	// Create inserts a new reconciliation record
	Create(ctx context.Context, rec *entity.Reconciliation) error

	// GetByID retrieves a record by ID. Returns nil, nil when not found.
	GetByID(ctx context.Context, id string) (*entity.Reconciliation, error)

	// GetByPaymentID retrieves the record owning a payment. Returns nil, nil
	// when not found.
	GetByPaymentID(ctx context.Context, paymentID string) (*entity.Reconciliation, error)

	// GetAll retrieves all records in creation order
	GetAll(ctx context.Context) ([]*entity.Reconciliation, error)

	// List retrieves a page of records in creation order
	List(ctx context.Context, limit, offset int) ([]*entity.Reconciliation, error)

	// Update persists all mutable fields of a record
	Update(ctx context.Context, rec *entity.Reconciliation) error
}

// WaterfallRepository persists per-insurer waterfall configurations
type WaterfallRepository interface {
	// GetByInsurerID retrieves an insurer's waterfall ordered by priority
	GetByInsurerID(ctx context.Context, insurerID string) ([]entity.WaterfallItem, error)

	// ReplaceForInsurer atomically replaces an insurer's waterfall
	ReplaceForInsurer(ctx context.Context, insurerID string, items []entity.WaterfallItem) error
}
