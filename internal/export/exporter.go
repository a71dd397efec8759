// Package export serializes reconciliation records to the flat row formats
// consumed downstream. The CSV header and column order are a compatibility
// contract; preserve them bit-for-bit.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nbrain-team/paycile/internal/application/port"
	"github.com/nbrain-team/paycile/internal/domain/entity"
)

// Header is the CSV column contract, in order
var Header = []string{
	"id",
	"paymentReference",
	"paymentAmount",
	"paymentDate",
	"invoiceNumber",
	"invoiceAmount",
	"invoiceDueDate",
	"status",
	"confidence",
}

const dateLayout = "2006-01-02"

// Row is one reconciliation record flattened for export
type Row struct {
	ID               string
	PaymentReference string
	PaymentAmount    decimal.Decimal
	PaymentDate      time.Time
	InvoiceNumber    string
	InvoiceAmount    decimal.Decimal
	InvoiceDueDate   *time.Time
	Status           entity.ReconciliationStatus
	Confidence       int
}

// Exporter builds export rows by joining reconciliation records with their
// payment and invoice sides.
type Exporter struct {
	reconRepo   port.ReconciliationRepository
	paymentRepo port.PaymentRepository
	invoiceRepo port.InvoiceRepository
}

// NewExporter creates a new Exporter
func NewExporter(
	reconRepo port.ReconciliationRepository,
	paymentRepo port.PaymentRepository,
	invoiceRepo port.InvoiceRepository,
) *Exporter {
	return &Exporter{
		reconRepo:   reconRepo,
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
	}
}

// BuildRows flattens all reconciliation records in creation order. Records
// without a matched invoice export with empty invoice columns.
func (e *Exporter) BuildRows(ctx context.Context) ([]Row, error) {
	records, err := e.reconRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reconciliations: %w", err)
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		payment, err := e.paymentRepo.GetByID(ctx, rec.PaymentID)
		if err != nil {
			return nil, fmt.Errorf("load payment %s: %w", rec.PaymentID, err)
		}
		if payment == nil {
			return nil, fmt.Errorf("%w: payment %s", entity.ErrNotFound, rec.PaymentID)
		}

		row := Row{
			ID:               rec.ID,
			PaymentReference: payment.PaymentReference,
			PaymentAmount:    payment.Amount,
			PaymentDate:      payment.PaymentDate,
			Status:           rec.Status,
			Confidence:       rec.ConfidencePercent(),
		}

		if rec.InvoiceID != nil {
			invoice, err := e.invoiceRepo.GetByID(ctx, *rec.InvoiceID)
			if err != nil {
				return nil, fmt.Errorf("load invoice %s: %w", *rec.InvoiceID, err)
			}
			if invoice != nil {
				row.InvoiceNumber = invoice.InvoiceNumber
				row.InvoiceAmount = invoice.Amount
				dueDate := invoice.DueDate
				row.InvoiceDueDate = &dueDate
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// fields renders a row as CSV/XLSX cell values in Header order
func (r Row) fields() []string {
	invoiceAmount := ""
	if r.InvoiceNumber != "" {
		invoiceAmount = r.InvoiceAmount.StringFixed(2)
	}
	invoiceDueDate := ""
	if r.InvoiceDueDate != nil {
		invoiceDueDate = r.InvoiceDueDate.Format(dateLayout)
	}

	return []string{
		r.ID,
		r.PaymentReference,
		r.PaymentAmount.StringFixed(2),
		r.PaymentDate.Format(dateLayout),
		r.InvoiceNumber,
		invoiceAmount,
		invoiceDueDate,
		string(r.Status),
		fmt.Sprintf("%d", r.Confidence),
	}
}
