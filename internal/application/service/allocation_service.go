package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nbrain-team/paycile/internal/allocation"
	"github.com/nbrain-team/paycile/internal/application/port"
	"github.com/nbrain-team/paycile/internal/domain/entity"
)

// AllocationBreakdown is the full waterfall view for one payment: ordered
// per-category rows, per-line-item splits, and the payment remainder not
// absorbed by any category.
type AllocationBreakdown struct {
	PaymentID     string                      `json:"payment_id"`
	InvoiceID     string                      `json:"invoice_id"`
	PaymentAmount decimal.Decimal             `json:"payment_amount"`
	Allocations   []entity.Allocation         `json:"allocations"`
	LineItems     []entity.LineItemAllocation `json:"line_items"`
	Unallocated   decimal.Decimal             `json:"unallocated"`
}

// AllocationService computes waterfall breakdowns for matched payments
type AllocationService interface {
	// BreakdownForPayment derives the allocation breakdown for a payment's
	// matched invoice. Always computed fresh from the current payment amount
	// and waterfall; never cached.
	BreakdownForPayment(ctx context.Context, paymentID string) (*AllocationBreakdown, error)
}

type allocationServiceImpl struct {
	paymentRepo   port.PaymentRepository
	invoiceRepo   port.InvoiceRepository
	reconRepo     port.ReconciliationRepository
	waterfallRepo port.WaterfallRepository
	logger        Logger
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	paymentRepo port.PaymentRepository,
	invoiceRepo port.InvoiceRepository,
	reconRepo port.ReconciliationRepository,
	waterfallRepo port.WaterfallRepository,
	logger Logger,
) AllocationService {
	return &allocationServiceImpl{
		paymentRepo:   paymentRepo,
		invoiceRepo:   invoiceRepo,
		reconRepo:     reconRepo,
		waterfallRepo: waterfallRepo,
		logger:        logger,
	}
}

// BreakdownForPayment runs the payment through its insurer's waterfall
func (s *allocationServiceImpl) BreakdownForPayment(ctx context.Context, paymentID string) (*AllocationBreakdown, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: payment %s", entity.ErrNotFound, paymentID)
	}

	rec, err := s.reconRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("load reconciliation: %w", err)
	}
	if rec == nil || rec.InvoiceID == nil {
		return nil, fmt.Errorf("%w: payment %s has no matched invoice", entity.ErrNotFound, paymentID)
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, *rec.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: invoice %s", entity.ErrNotFound, *rec.InvoiceID)
	}

	waterfall, err := s.waterfallRepo.GetByInsurerID(ctx, invoice.InsurerID)
	if err != nil {
		return nil, fmt.Errorf("load waterfall: %w", err)
	}

	allocations, err := allocation.Allocate(payment.Amount, invoice.LineItems, waterfall)
	if err != nil {
		return nil, err
	}

	return &AllocationBreakdown{
		PaymentID:     payment.ID,
		InvoiceID:     invoice.ID,
		PaymentAmount: payment.Amount,
		Allocations:   allocations,
		LineItems:     allocation.SplitByLineItem(allocations, invoice.LineItems),
		Unallocated:   allocation.Unallocated(payment.Amount, allocations),
	}, nil
}
