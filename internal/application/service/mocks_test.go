package service

import (
	"context"
	"errors"
	"sort"

	"github.com/nbrain-team/paycile/internal/domain/entity"
)

// In-memory repository fakes backing the service tests.

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type memPaymentRepo struct {
	payments  []*entity.Payment
	getAllErr error
}

func (m *memPaymentRepo) GetByID(_ context.Context, id string) (*entity.Payment, error) {
	for _, p := range m.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *memPaymentRepo) GetAll(_ context.Context) ([]*entity.Payment, error) {
	if m.getAllErr != nil {
		return nil, m.getAllErr
	}
	return m.payments, nil
}

type memInvoiceRepo struct {
	invoices []*entity.Invoice
}

func (m *memInvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, nil
}

func (m *memInvoiceRepo) GetByClientID(_ context.Context, clientID string) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, inv := range m.invoices {
		if inv.ClientID == clientID {
			out = append(out, inv)
		}
	}
	return out, nil
}

type memReconRepo struct {
	records      []*entity.Reconciliation
	updateErr    error
	createErrFor map[string]error
}

func (m *memReconRepo) Create(_ context.Context, rec *entity.Reconciliation) error {
	if err := m.createErrFor[rec.PaymentID]; err != nil {
		return err
	}
	clone := *rec
	m.records = append(m.records, &clone)
	return nil
}

func (m *memReconRepo) GetByID(_ context.Context, id string) (*entity.Reconciliation, error) {
	for _, r := range m.records {
		if r.ID == id {
			clone := *r
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memReconRepo) GetByPaymentID(_ context.Context, paymentID string) (*entity.Reconciliation, error) {
	for _, r := range m.records {
		if r.PaymentID == paymentID {
			clone := *r
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memReconRepo) GetAll(_ context.Context) ([]*entity.Reconciliation, error) {
	out := make([]*entity.Reconciliation, 0, len(m.records))
	for _, r := range m.records {
		clone := *r
		out = append(out, &clone)
	}
	return out, nil
}

func (m *memReconRepo) List(_ context.Context, limit, offset int) ([]*entity.Reconciliation, error) {
	all, _ := m.GetAll(context.Background())
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memReconRepo) Update(_ context.Context, rec *entity.Reconciliation) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	for i, r := range m.records {
		if r.ID == rec.ID {
			clone := *rec
			m.records[i] = &clone
			return nil
		}
	}
	return errors.New("record not found")
}

type memWaterfallRepo struct {
	items map[string][]entity.WaterfallItem
}

func (m *memWaterfallRepo) GetByInsurerID(_ context.Context, insurerID string) ([]entity.WaterfallItem, error) {
	items := append([]entity.WaterfallItem(nil), m.items[insurerID]...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Priority < items[j].Priority })
	return items, nil
}

func (m *memWaterfallRepo) ReplaceForInsurer(_ context.Context, insurerID string, items []entity.WaterfallItem) error {
	if m.items == nil {
		m.items = make(map[string][]entity.WaterfallItem)
	}
	m.items[insurerID] = append([]entity.WaterfallItem(nil), items...)
	return nil
}
