// Package allocation computes how a payment amount is applied across an
// invoice's line-item categories per an insurer's waterfall configuration.
// Allocation is a pure, idempotent derivation: it is re-run on every view and
// never cached, because the payment amount can be corrected after the fact
// and the waterfall reordered.
package allocation

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/nbrain-team/paycile/internal/domain/entity"
)

// Allocate applies paymentAmount across the waterfall categories in priority
// order. Each category requires the sum of its matching line items; it
// receives min(remaining payment, required). Output rows preserve waterfall
// order (priority 1 first).
//
// Payment in excess of the total required is left unallocated: there is no
// overflow category. Callers that need the leftover amount derive it as
// paymentAmount minus the sum of allocated.
func Allocate(paymentAmount decimal.Decimal, lineItems []entity.LineItem, waterfall []entity.WaterfallItem) ([]entity.Allocation, error) {
	if paymentAmount.IsNegative() {
		return nil, fmt.Errorf("%w: payment amount must not be negative, got %s", entity.ErrInvalidArgument, paymentAmount)
	}

	ordered := make([]entity.WaterfallItem, len(waterfall))
	copy(ordered, waterfall)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	remainingPayment := paymentAmount
	allocations := make([]entity.Allocation, 0, len(ordered))

	for _, category := range ordered {
		required := decimal.Zero
		for _, item := range lineItems {
			if item.Type == category.Type {
				required = required.Add(item.Amount)
			}
		}

		allocated := decimal.Min(remainingPayment, required)
		remainingPayment = remainingPayment.Sub(allocated)

		allocations = append(allocations, entity.Allocation{
			Type:        category.Type,
			Description: category.Description,
			Required:    required,
			Allocated:   allocated,
			Remaining:   required.Sub(allocated),
		})
	}

	return allocations, nil
}

// Unallocated returns the portion of paymentAmount not absorbed by any
// category.
func Unallocated(paymentAmount decimal.Decimal, allocations []entity.Allocation) decimal.Decimal {
	leftover := paymentAmount
	for _, a := range allocations {
		leftover = leftover.Sub(a.Allocated)
	}
	return leftover
}

// SplitByLineItem derives per-line-item paid amounts by splitting each
// category's allocation across its constituent line items proportionally to
// their share of the category total. Progress is the paid share of the item
// amount as a percentage.
func SplitByLineItem(allocations []entity.Allocation, lineItems []entity.LineItem) []entity.LineItemAllocation {
	allocatedByType := make(map[entity.LineItemType]decimal.Decimal, len(allocations))
	requiredByType := make(map[entity.LineItemType]decimal.Decimal, len(allocations))
	for _, a := range allocations {
		allocatedByType[a.Type] = a.Allocated
		requiredByType[a.Type] = a.Required
	}

	splits := make([]entity.LineItemAllocation, 0, len(lineItems))
	for _, item := range lineItems {
		paid := decimal.Zero
		required := requiredByType[item.Type]
		if required.IsPositive() {
			share := item.Amount.Div(required)
			paid = allocatedByType[item.Type].Mul(share).Round(2)
		}

		progress := 0.0
		if item.Amount.IsPositive() {
			progress, _ = paid.Div(item.Amount).Mul(decimal.NewFromInt(100)).Float64()
		}

		splits = append(splits, entity.LineItemAllocation{
			LineItemID:      item.ID,
			Type:            item.Type,
			Description:     item.Description,
			Amount:          item.Amount,
			PaidAmount:      paid,
			ProgressPercent: progress,
		})
	}

	return splits
}
