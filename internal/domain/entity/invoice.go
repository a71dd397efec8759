package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the billing status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
)

// LineItemType classifies a charge component on an invoice
type LineItemType string

const (
	LineItemTypePremium LineItemType = "premium"
	LineItemTypeTax     LineItemType = "tax"
	LineItemTypeFee     LineItemType = "fee"
)

// IsValid returns true if the line item type is a known category
func (t LineItemType) IsValid() bool {
	switch t {
	case LineItemTypePremium, LineItemTypeTax, LineItemTypeFee:
		return true
	}
	return false
}

// LineItem is a single charge component making up an invoice's total
type LineItem struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	Type        LineItemType    `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Invoice represents an outstanding billing fact. Invoice.Amount is
// authoritative for anomaly comparisons; LineItems are authoritative for
// waterfall allocation. The two need not agree exactly.
type Invoice struct {
	ID                 string          `json:"id"`
	InvoiceNumber      string          `json:"invoice_number"`
	ClientID           string          `json:"client_id"`
	InsurerID          string          `json:"insurer_id"`
	Amount             decimal.Decimal `json:"amount"`
	DueDate            time.Time       `json:"due_date"`
	BillingPeriodStart time.Time       `json:"billing_period_start"`
	BillingPeriodEnd   time.Time       `json:"billing_period_end"`
	Status             InvoiceStatus   `json:"status"`
	LineItems          []LineItem      `json:"line_items"`
	CreatedAt          time.Time       `json:"created_at"`
}

// LineItemTotal returns the sum of all line item amounts on the invoice
func (i *Invoice) LineItemTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range i.LineItems {
		total = total.Add(item.Amount)
	}
	return total
}
