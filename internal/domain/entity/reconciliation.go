package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus represents the lifecycle state of a reconciliation record
type ReconciliationStatus string

const (
	ReconciliationStatusUnmatched ReconciliationStatus = "unmatched"
	ReconciliationStatusMatched   ReconciliationStatus = "matched"
	ReconciliationStatusDisputed  ReconciliationStatus = "disputed"
)

// ReconciledBy identifies who confirmed a match
type ReconciledBy string

const (
	ReconciledByAI     ReconciledBy = "AI"
	ReconciledByManual ReconciledBy = "Manual"
)

// SuggestedMatch is a single ranked candidate invoice for a payment.
// Confidence is an integer percent in [0, 100].
type SuggestedMatch struct {
	InvoiceID  string `json:"invoice_id"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}

// Suggestions holds the advisory output of a matching pass. It is attached to
// a reconciliation record for operator review and is never authoritative.
type Suggestions struct {
	SuggestedMatches []SuggestedMatch `json:"suggested_matches"`
	Anomalies        []string         `json:"anomalies"`
}

// HasSuggestion returns true if the given invoice appears in the current
// suggestion list.
func (s Suggestions) HasSuggestion(invoiceID string) bool {
	for _, m := range s.SuggestedMatches {
		if m.InvoiceID == invoiceID {
			return true
		}
	}
	return false
}

// Reconciliation binds a payment to zero-or-one invoice and tracks the
// match/dispute lifecycle. PaymentID is immutable once created. A disputed
// record retains its prior InvoiceID until resolved or reassigned.
type Reconciliation struct {
	ID                 string               `json:"id"`
	PaymentID          string               `json:"payment_id"`
	InvoiceID          *string              `json:"invoice_id,omitempty"`
	Status             ReconciliationStatus `json:"status"`
	ConfidenceScore    float64              `json:"confidence_score"`
	Suggestions        Suggestions          `json:"ai_suggestions"`
	SuggestedInvoiceID *string              `json:"suggested_invoice_id,omitempty"`
	MatchedAmount      *decimal.Decimal     `json:"matched_amount,omitempty"`
	ManualNotes        string               `json:"manual_notes,omitempty"`
	ReconciledBy       *ReconciledBy        `json:"reconciled_by,omitempty"`
	ReconciledAt       *time.Time           `json:"reconciled_at,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// ConfidencePercent returns the record confidence as a 0-100 integer for
// display and export.
func (r *Reconciliation) ConfidencePercent() int {
	return int(r.ConfidenceScore*100 + 0.5)
}
