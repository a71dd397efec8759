package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nbrain-team/paycile/internal/application/port"
	"github.com/nbrain-team/paycile/internal/domain/entity"
	"github.com/nbrain-team/paycile/internal/domain/workflow"
	"github.com/nbrain-team/paycile/internal/matching"
)

// Confidence values stamped by the lifecycle transitions. A manual match is
// definitionally certain; an accepted suggestion carries a small discount.
const (
	acceptedSuggestionConfidence = 0.95
	manualMatchConfidence        = 1.0
)

// ReconciliationService drives reconciliation records through the
// match/dispute lifecycle and runs the batch matching pass.
type ReconciliationService interface {
	// RunMatchingPass scores suggestions and detects anomalies for every
	// unmatched record, returning the count actually updated. Matched and
	// disputed records are skipped so the pass never reverts an operator
	// decision. Cancellation is honored between records.
	RunMatchingPass(ctx context.Context) (int, error)

	// AcceptSuggestion matches an unmatched record to one of its suggested
	// invoices.
	AcceptSuggestion(ctx context.Context, reconciliationID, invoiceID string) (*entity.Reconciliation, error)

	// ManualMatch matches a record to any invoice, from any prior state.
	// This is an explicit operator override path.
	ManualMatch(ctx context.Context, reconciliationID, invoiceID string) (*entity.Reconciliation, error)

	// Dispute marks a matched record as disputed, retaining the disputed
	// invoice linkage.
	Dispute(ctx context.Context, reconciliationID, notes string) (*entity.Reconciliation, error)

	// ResolveDispute returns a disputed record to matched.
	ResolveDispute(ctx context.Context, reconciliationID, notes string) (*entity.Reconciliation, error)

	// Get retrieves a single record
	Get(ctx context.Context, reconciliationID string) (*entity.Reconciliation, error)

	// List retrieves a page of records in creation order
	List(ctx context.Context, limit, offset int) ([]*entity.Reconciliation, error)
}

type reconciliationServiceImpl struct {
	reconRepo   port.ReconciliationRepository
	paymentRepo port.PaymentRepository
	invoiceRepo port.InvoiceRepository
	engine      *matching.Engine
	logger      Logger
	now         func() time.Time

	// mu serializes transitions and the batch pass. Records are independent,
	// but a pass must never observe a transition in flight for the record it
	// is scoring.
	mu sync.Mutex
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	reconRepo port.ReconciliationRepository,
	paymentRepo port.PaymentRepository,
	invoiceRepo port.InvoiceRepository,
	engine *matching.Engine,
	logger Logger,
) ReconciliationService {
	return &reconciliationServiceImpl{
		reconRepo:   reconRepo,
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		engine:      engine,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RunMatchingPass re-derives suggestions and anomalies for all unmatched
// records. The full payment set is snapshotted once at the start so the
// duplicate-payment check is read-consistent across the pass. Individual
// record failures are logged and skipped, never aborting the pass.
func (s *reconciliationServiceImpl) RunMatchingPass(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payments, err := s.paymentRepo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load payments: %w", err)
	}

	paymentsByID := make(map[string]*entity.Payment, len(payments))
	for _, p := range payments {
		paymentsByID[p.ID] = p
	}
	duplicates := matching.BuildDuplicateIndex(payments)

	if err := s.ensureRecords(ctx, payments); err != nil {
		return 0, err
	}

	records, err := s.reconRepo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load reconciliations: %w", err)
	}

	updated := 0
	for _, rec := range records {
		// Cooperative cancellation between records; a single record's
		// scoring and anomaly detection is one atomic unit of work.
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		if rec.Status != entity.ReconciliationStatusUnmatched {
			continue
		}

		payment, ok := paymentsByID[rec.PaymentID]
		if !ok {
			s.logger.Warn("Skipping record with unknown payment",
				"reconciliation_id", rec.ID, "payment_id", rec.PaymentID)
			continue
		}

		candidates, err := s.invoiceRepo.GetByClientID(ctx, payment.ClientID)
		if err != nil {
			s.logger.Error("Failed to load candidate invoices",
				"error", err, "reconciliation_id", rec.ID, "client_id", payment.ClientID)
			continue
		}

		suggestions := s.engine.BuildSuggestions(payment, candidates)
		anomalies := s.engine.DetectAnomalies(payment, nil, duplicates)

		rec.Suggestions = entity.Suggestions{
			SuggestedMatches: suggestions,
			Anomalies:        anomalies,
		}

		best := 0.0
		rec.SuggestedInvoiceID = nil
		if len(suggestions) > 0 {
			top := suggestions[0]
			rec.SuggestedInvoiceID = &top.InvoiceID
			best = float64(top.Confidence) / 100
		}
		rec.ConfidenceScore = s.engine.ClampConfidence(best)
		rec.UpdatedAt = s.now()

		if err := s.reconRepo.Update(ctx, rec); err != nil {
			s.logger.Error("Failed to save record during matching pass",
				"error", err, "reconciliation_id", rec.ID)
			continue
		}
		updated++
	}

	s.logger.Info("Matching pass completed", "records_updated", updated)
	return updated, nil
}

// ensureRecords creates an unmatched reconciliation record for every payment
// that does not have one yet. One record per payment. A failure on one
// payment is logged and the pass moves on to the next.
func (s *reconciliationServiceImpl) ensureRecords(ctx context.Context, payments []*entity.Payment) error {
	for _, p := range payments {
		if err := ctx.Err(); err != nil {
			return err
		}

		existing, err := s.reconRepo.GetByPaymentID(ctx, p.ID)
		if err != nil {
			s.logger.Error("Failed to check reconciliation for payment",
				"error", err, "payment_id", p.ID)
			continue
		}
		if existing != nil {
			continue
		}

		now := s.now()
		rec := &entity.Reconciliation{
			ID:        uuid.NewString(),
			PaymentID: p.ID,
			Status:    entity.ReconciliationStatusUnmatched,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.reconRepo.Create(ctx, rec); err != nil {
			s.logger.Error("Failed to create reconciliation for payment",
				"error", err, "payment_id", p.ID)
			continue
		}
	}
	return nil
}

// AcceptSuggestion matches a record to a suggested invoice. Accepting an
// invoice that is not in the record's current suggestion list is rejected
// without mutation.
func (s *reconciliationServiceImpl) AcceptSuggestion(ctx context.Context, reconciliationID, invoiceID string) (*entity.Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadRecord(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}

	if err := s.fire(ctx, rec, workflow.TriggerAcceptSuggestion); err != nil {
		return nil, err
	}

	if !rec.Suggestions.HasSuggestion(invoiceID) {
		return nil, fmt.Errorf("%w: no suggestion for invoice %s on reconciliation %s", entity.ErrNotFound, invoiceID, reconciliationID)
	}

	payment, invoice, err := s.loadMatchPair(ctx, rec.PaymentID, invoiceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	matchedAmount := decimal.Min(payment.Amount, invoice.Amount)
	reconciledBy := entity.ReconciledByAI

	rec.Status = entity.ReconciliationStatusMatched
	rec.InvoiceID = &invoiceID
	rec.ConfidenceScore = acceptedSuggestionConfidence
	rec.ReconciledBy = &reconciledBy
	rec.ReconciledAt = &now
	rec.MatchedAmount = &matchedAmount
	rec.SuggestedInvoiceID = nil
	rec.UpdatedAt = now

	if err := s.refreshAnomalies(ctx, rec, payment, invoice); err != nil {
		return nil, err
	}

	if err := s.reconRepo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("save reconciliation: %w", err)
	}

	s.logger.Info("Suggestion accepted",
		"reconciliation_id", rec.ID, "invoice_id", invoiceID, "matched_amount", matchedAmount.StringFixed(2))
	return rec, nil
}

// ManualMatch matches a record to any invoice. Permitted from every state,
// including disputed; this is the operator override path.
func (s *reconciliationServiceImpl) ManualMatch(ctx context.Context, reconciliationID, invoiceID string) (*entity.Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadRecord(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}

	if err := s.fire(ctx, rec, workflow.TriggerManualMatch); err != nil {
		return nil, err
	}

	payment, invoice, err := s.loadMatchPair(ctx, rec.PaymentID, invoiceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	matchedAmount := decimal.Min(payment.Amount, invoice.Amount)
	reconciledBy := entity.ReconciledByManual

	rec.Status = entity.ReconciliationStatusMatched
	rec.InvoiceID = &invoiceID
	rec.ConfidenceScore = manualMatchConfidence
	rec.ReconciledBy = &reconciledBy
	rec.ReconciledAt = &now
	rec.MatchedAmount = &matchedAmount
	rec.SuggestedInvoiceID = nil
	rec.UpdatedAt = now

	if err := s.refreshAnomalies(ctx, rec, payment, invoice); err != nil {
		return nil, err
	}

	if err := s.reconRepo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("save reconciliation: %w", err)
	}

	s.logger.Info("Record manually matched",
		"reconciliation_id", rec.ID, "invoice_id", invoiceID)
	return rec, nil
}

// Dispute marks a matched record as disputed. The disputed invoice linkage is
// retained until the dispute is resolved or the record reassigned.
func (s *reconciliationServiceImpl) Dispute(ctx context.Context, reconciliationID, notes string) (*entity.Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadRecord(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}

	if err := s.fire(ctx, rec, workflow.TriggerDispute); err != nil {
		return nil, err
	}

	rec.Status = entity.ReconciliationStatusDisputed
	rec.ManualNotes = notes
	rec.ReconciledBy = nil
	rec.ReconciledAt = nil
	rec.UpdatedAt = s.now()

	if err := s.reconRepo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("save reconciliation: %w", err)
	}

	s.logger.Info("Record disputed", "reconciliation_id", rec.ID)
	return rec, nil
}

// ResolveDispute returns a disputed record to matched
func (s *reconciliationServiceImpl) ResolveDispute(ctx context.Context, reconciliationID, notes string) (*entity.Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadRecord(ctx, reconciliationID)
	if err != nil {
		return nil, err
	}

	if err := s.fire(ctx, rec, workflow.TriggerResolveDispute); err != nil {
		return nil, err
	}

	now := s.now()
	reconciledBy := entity.ReconciledByManual

	rec.Status = entity.ReconciliationStatusMatched
	rec.ManualNotes = notes
	rec.ReconciledBy = &reconciledBy
	rec.ReconciledAt = &now
	rec.UpdatedAt = now

	if err := s.reconRepo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("save reconciliation: %w", err)
	}

	s.logger.Info("Dispute resolved", "reconciliation_id", rec.ID)
	return rec, nil
}

// Get retrieves a single record
func (s *reconciliationServiceImpl) Get(ctx context.Context, reconciliationID string) (*entity.Reconciliation, error) {
	return s.loadRecord(ctx, reconciliationID)
}

// List retrieves a page of records
func (s *reconciliationServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Reconciliation, error) {
	return s.reconRepo.List(ctx, limit, offset)
}

// loadRecord retrieves a record, mapping absence to ErrNotFound
func (s *reconciliationServiceImpl) loadRecord(ctx context.Context, id string) (*entity.Reconciliation, error) {
	rec, err := s.reconRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reconciliation: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: reconciliation %s", entity.ErrNotFound, id)
	}
	return rec, nil
}

// loadMatchPair retrieves the payment and invoice sides of a match
func (s *reconciliationServiceImpl) loadMatchPair(ctx context.Context, paymentID, invoiceID string) (*entity.Payment, *entity.Invoice, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load payment: %w", err)
	}
	if payment == nil {
		return nil, nil, fmt.Errorf("%w: payment %s", entity.ErrNotFound, paymentID)
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, fmt.Errorf("load invoice: %w", err)
	}
	if invoice == nil {
		return nil, nil, fmt.Errorf("%w: invoice %s", entity.ErrNotFound, invoiceID)
	}

	return payment, invoice, nil
}

// fire validates the transition against the lifecycle machine without
// mutating the record; illegal transitions map to ErrInvalidState.
func (s *reconciliationServiceImpl) fire(ctx context.Context, rec *entity.Reconciliation, trigger workflow.Trigger) error {
	machine := workflow.NewReconciliationMachine(workflow.State(rec.Status))
	if err := machine.Fire(ctx, trigger); err != nil {
		return fmt.Errorf("%w: cannot %s a %s record", entity.ErrInvalidState, trigger, rec.Status)
	}
	return nil
}

// refreshAnomalies re-derives the anomaly flags against the newly matched
// invoice, using a fresh snapshot of all payments for the duplicate check.
func (s *reconciliationServiceImpl) refreshAnomalies(ctx context.Context, rec *entity.Reconciliation, payment *entity.Payment, invoice *entity.Invoice) error {
	payments, err := s.paymentRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load payments: %w", err)
	}
	duplicates := matching.BuildDuplicateIndex(payments)
	rec.Suggestions.Anomalies = s.engine.DetectAnomalies(payment, invoice, duplicates)
	return nil
}
