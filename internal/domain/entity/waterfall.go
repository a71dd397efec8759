package entity

import "github.com/shopspring/decimal"

// WaterfallItem is one ordered category in an insurer's payment waterfall.
// Priorities are 1-based, unique and dense; reordering re-derives them from
// array position.
type WaterfallItem struct {
	ID          string       `json:"id"`
	InsurerID   string       `json:"insurer_id"`
	Type        LineItemType `json:"type"`
	Priority    int          `json:"priority"`
	Description string       `json:"description"`
}

// Allocation is the derived per-category result of running a payment through
// the waterfall. It is computed fresh on every request and never persisted.
type Allocation struct {
	Type        LineItemType    `json:"type"`
	Description string          `json:"description"`
	Required    decimal.Decimal `json:"required"`
	Allocated   decimal.Decimal `json:"allocated"`
	Remaining   decimal.Decimal `json:"remaining"`
}

// LineItemAllocation is the per-line-item share of a category's allocation,
// split proportionally by each item's share of the category total.
type LineItemAllocation struct {
	LineItemID      string          `json:"line_item_id"`
	Type            LineItemType    `json:"type"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	ProgressPercent float64         `json:"progress_percent"`
}
