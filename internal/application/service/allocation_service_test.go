package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbrain-team/paycile/internal/domain/entity"
)

func allocationFixture(paymentAmount string) (*memPaymentRepo, *memInvoiceRepo, *memReconRepo, *memWaterfallRepo) {
	due := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)

	invoice := fixtureInvoice("inv-1", "client-1", "1000.00", due)
	invoice.LineItems = []entity.LineItem{
		{ID: "li-1", InvoiceID: "inv-1", Type: entity.LineItemTypePremium, Description: "Monthly premium", Amount: decimal.RequireFromString("800")},
		{ID: "li-2", InvoiceID: "inv-1", Type: entity.LineItemTypeTax, Description: "State tax", Amount: decimal.RequireFromString("150")},
		{ID: "li-3", InvoiceID: "inv-1", Type: entity.LineItemTypeFee, Description: "Service fee", Amount: decimal.RequireFromString("50")},
	}

	invoiceID := "inv-1"
	payments := &memPaymentRepo{payments: []*entity.Payment{
		fixturePayment("pay-1", "client-1", paymentAmount, due),
	}}
	invoices := &memInvoiceRepo{invoices: []*entity.Invoice{invoice}}
	recons := &memReconRepo{records: []*entity.Reconciliation{
		{ID: "rec-1", PaymentID: "pay-1", InvoiceID: &invoiceID, Status: entity.ReconciliationStatusMatched},
	}}
	waterfalls := &memWaterfallRepo{items: map[string][]entity.WaterfallItem{
		"ins-1": {
			{ID: "wf-1", InsurerID: "ins-1", Type: entity.LineItemTypePremium, Priority: 1, Description: "Premium"},
			{ID: "wf-2", InsurerID: "ins-1", Type: entity.LineItemTypeTax, Priority: 2, Description: "Taxes"},
			{ID: "wf-3", InsurerID: "ins-1", Type: entity.LineItemTypeFee, Priority: 3, Description: "Fees"},
		},
	}}

	return payments, invoices, recons, waterfalls
}

func TestBreakdownForPayment_PartialPayment(t *testing.T) {
	payments, invoices, recons, waterfalls := allocationFixture("900.00")
	svc := NewAllocationService(payments, invoices, recons, waterfalls, nopLogger{})

	breakdown, err := svc.BreakdownForPayment(context.Background(), "pay-1")
	require.NoError(t, err)

	assert.Equal(t, "pay-1", breakdown.PaymentID)
	assert.Equal(t, "inv-1", breakdown.InvoiceID)
	require.Len(t, breakdown.Allocations, 3)

	assert.True(t, breakdown.Allocations[0].Allocated.Equal(decimal.RequireFromString("800")))
	assert.True(t, breakdown.Allocations[1].Allocated.Equal(decimal.RequireFromString("100")))
	assert.True(t, breakdown.Allocations[2].Allocated.IsZero())
	assert.True(t, breakdown.Unallocated.IsZero())

	require.Len(t, breakdown.LineItems, 3)
	assert.True(t, breakdown.LineItems[0].PaidAmount.Equal(decimal.RequireFromString("800")))
	assert.InDelta(t, 100.0, breakdown.LineItems[0].ProgressPercent, 1e-9)
}

func TestBreakdownForPayment_OverpaymentSurfacesUnallocated(t *testing.T) {
	payments, invoices, recons, waterfalls := allocationFixture("1200.00")
	svc := NewAllocationService(payments, invoices, recons, waterfalls, nopLogger{})

	breakdown, err := svc.BreakdownForPayment(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.True(t, breakdown.Unallocated.Equal(decimal.RequireFromString("200")))
}

func TestBreakdownForPayment_UnknownPayment(t *testing.T) {
	svc := NewAllocationService(&memPaymentRepo{}, &memInvoiceRepo{}, &memReconRepo{}, &memWaterfallRepo{}, nopLogger{})

	_, err := svc.BreakdownForPayment(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestBreakdownForPayment_UnmatchedPayment(t *testing.T) {
	payments := &memPaymentRepo{payments: []*entity.Payment{
		fixturePayment("pay-1", "client-1", "500.00", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
	}}
	recons := &memReconRepo{records: []*entity.Reconciliation{
		{ID: "rec-1", PaymentID: "pay-1", Status: entity.ReconciliationStatusUnmatched},
	}}

	svc := NewAllocationService(payments, &memInvoiceRepo{}, recons, &memWaterfallRepo{}, nopLogger{})

	_, err := svc.BreakdownForPayment(context.Background(), "pay-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestBreakdownForPayment_ReflectsReorderedWaterfall(t *testing.T) {
	payments, invoices, recons, waterfalls := allocationFixture("120.00")

	// fees first
	waterfalls.items["ins-1"] = []entity.WaterfallItem{
		{ID: "wf-3", InsurerID: "ins-1", Type: entity.LineItemTypeFee, Priority: 1, Description: "Fees"},
		{ID: "wf-2", InsurerID: "ins-1", Type: entity.LineItemTypeTax, Priority: 2, Description: "Taxes"},
		{ID: "wf-1", InsurerID: "ins-1", Type: entity.LineItemTypePremium, Priority: 3, Description: "Premium"},
	}

	svc := NewAllocationService(payments, invoices, recons, waterfalls, nopLogger{})

	breakdown, err := svc.BreakdownForPayment(context.Background(), "pay-1")
	require.NoError(t, err)
	require.Len(t, breakdown.Allocations, 3)

	assert.Equal(t, entity.LineItemTypeFee, breakdown.Allocations[0].Type)
	assert.True(t, breakdown.Allocations[0].Allocated.Equal(decimal.RequireFromString("50")))
	assert.Equal(t, entity.LineItemTypeTax, breakdown.Allocations[1].Type)
	assert.True(t, breakdown.Allocations[1].Allocated.Equal(decimal.RequireFromString("70")))
}
