package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the processing status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodACH        PaymentMethod = "ach"
	PaymentMethodCheck      PaymentMethod = "check"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodWire       PaymentMethod = "wire"
)

// Payment represents an incoming payment. Payments are immutable financial
// facts created by payment processing; the engine only associates them with
// invoices through a Reconciliation record.
type Payment struct {
	ID               string          `json:"id"`
	PaymentReference string          `json:"payment_reference"`
	ClientID         string          `json:"client_id"`
	InsurerID        string          `json:"insurer_id"`
	Amount           decimal.Decimal `json:"amount"`
	Method           PaymentMethod   `json:"method"`
	Status           PaymentStatus   `json:"status"`
	PaymentDate      time.Time       `json:"payment_date"`
	CreatedAt        time.Time       `json:"created_at"`
}
