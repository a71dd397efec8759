package matching

import (
	"github.com/shopspring/decimal"

	"github.com/nbrain-team/paycile/internal/domain/entity"
)

// Anomaly flag strings. These are operator-facing and consumed verbatim by
// the review UI; do not reword them.
const (
	AnomalyOverpayment      = "Overpayment vs invoice amount"
	AnomalyUnderpayment     = "Underpayment vs invoice amount"
	AnomalyOutsidePeriod    = "Payment date outside billing period"
	AnomalyAlreadyPaid      = "Invoice already marked paid (possible duplicate)"
	AnomalyNoMatchedInvoice = "No matched invoice"
	AnomalyDuplicatePayment = "Possible duplicate payment detected"
)

// DuplicateIndex counts payments per (client, amount) pair across the full
// payment set. Build it once per matching pass so every record sees the same
// snapshot.
type DuplicateIndex map[string]int

func duplicateKey(clientID string, amount decimal.Decimal) string {
	return clientID + "|" + amount.StringFixed(2)
}

// BuildDuplicateIndex indexes all payments by (client, amount)
func BuildDuplicateIndex(payments []*entity.Payment) DuplicateIndex {
	index := make(DuplicateIndex, len(payments))
	for _, p := range payments {
		index[duplicateKey(p.ClientID, p.Amount)]++
	}
	return index
}

// IsDuplicate reports whether more than one payment shares the given
// payment's (client, amount) pair.
func (d DuplicateIndex) IsDuplicate(payment *entity.Payment) bool {
	return d[duplicateKey(payment.ClientID, payment.Amount)] > 1
}

// DetectAnomalies flags irregularities on a reconciliation record for
// operator review. The matched invoice may be nil for unmatched records.
// Flags are appended in a stable order for display; anomalies are advisory
// data, never errors.
func (e *Engine) DetectAnomalies(payment *entity.Payment, matched *entity.Invoice, duplicates DuplicateIndex) []string {
	var anomalies []string

	if matched != nil {
		over := payment.Amount.Sub(matched.Amount)
		if over.GreaterThanOrEqual(e.cfg.AmountTolerance) {
			anomalies = append(anomalies, AnomalyOverpayment)
		}
		under := matched.Amount.Sub(payment.Amount)
		if under.GreaterThanOrEqual(e.cfg.AmountTolerance) {
			anomalies = append(anomalies, AnomalyUnderpayment)
		}

		if payment.PaymentDate.Before(matched.BillingPeriodStart) || payment.PaymentDate.After(matched.BillingPeriodEnd) {
			anomalies = append(anomalies, AnomalyOutsidePeriod)
		}

		if matched.Status == entity.InvoiceStatusPaid {
			anomalies = append(anomalies, AnomalyAlreadyPaid)
		}
	} else {
		anomalies = append(anomalies, AnomalyNoMatchedInvoice)
	}

	if duplicates.IsDuplicate(payment) {
		anomalies = append(anomalies, AnomalyDuplicatePayment)
	}

	return anomalies
}
