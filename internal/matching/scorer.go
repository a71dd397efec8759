package matching

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nbrain-team/paycile/internal/domain/entity"
)

// Engine scores candidate invoices against payments, ranks suggestions and
// flags anomalies. All methods are pure functions over their inputs.
type Engine struct {
	cfg *Config
}

// NewEngine creates a matching engine with the given configuration. A nil
// configuration falls back to the production defaults.
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine's configuration
func (e *Engine) Config() *Config {
	return e.cfg
}

// Score rates how well an invoice matches a payment, in [0, 1]. The score
// blends amount closeness and due-date proximity; it is deterministic and
// never errors, including for zero or negative invoice amounts.
func (e *Engine) Score(payment *entity.Payment, invoice *entity.Invoice) float64 {
	amountScore := e.amountScore(payment.Amount, invoice.Amount)
	dateScore := e.dateScore(payment.PaymentDate, invoice.DueDate)
	return e.cfg.AmountWeight*amountScore + e.cfg.DateWeight*dateScore
}

// amountScore decays linearly with the relative amount difference. Invoice
// amounts at or below 1 use a denominator of 1 so tiny or zero invoices
// cannot blow up the ratio.
func (e *Engine) amountScore(paymentAmount, invoiceAmount decimal.Decimal) float64 {
	one := decimal.NewFromInt(1)
	denominator := invoiceAmount
	if denominator.LessThan(one) {
		denominator = one
	}

	diff := paymentAmount.Sub(invoiceAmount).Abs()
	ratio, _ := diff.Div(denominator).Float64()
	return math.Max(0, 1-ratio)
}

// dateScore decays linearly with the gap between payment date and due date,
// reaching zero once the gap exceeds the configured window.
func (e *Engine) dateScore(paymentDate, dueDate time.Time) float64 {
	gapDays := math.Abs(paymentDate.Sub(dueDate).Hours() / 24)
	return math.Max(0, 1-gapDays/e.cfg.DateWindowDays)
}

// ClampConfidence maps a best-suggestion confidence onto the record
// confidence range so no record reads as zero confidence even when it has no
// good candidates.
func (e *Engine) ClampConfidence(confidence float64) float64 {
	if confidence < e.cfg.MinConfidence {
		return e.cfg.MinConfidence
	}
	if confidence > e.cfg.MaxConfidence {
		return e.cfg.MaxConfidence
	}
	return confidence
}
