package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbrain-team/paycile/internal/application/service"
	"github.com/nbrain-team/paycile/internal/domain/entity"
	"github.com/nbrain-team/paycile/internal/export"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// mockReconService lets each test script the service behavior per method
type mockReconService struct {
	runMatchingPass func(ctx context.Context) (int, error)
	accept          func(ctx context.Context, id, invoiceID string) (*entity.Reconciliation, error)
	manualMatch     func(ctx context.Context, id, invoiceID string) (*entity.Reconciliation, error)
	dispute         func(ctx context.Context, id, notes string) (*entity.Reconciliation, error)
	resolve         func(ctx context.Context, id, notes string) (*entity.Reconciliation, error)
	get             func(ctx context.Context, id string) (*entity.Reconciliation, error)
	list            func(ctx context.Context, limit, offset int) ([]*entity.Reconciliation, error)
}

func (m *mockReconService) RunMatchingPass(ctx context.Context) (int, error) {
	return m.runMatchingPass(ctx)
}

func (m *mockReconService) AcceptSuggestion(ctx context.Context, id, invoiceID string) (*entity.Reconciliation, error) {
	return m.accept(ctx, id, invoiceID)
}

func (m *mockReconService) ManualMatch(ctx context.Context, id, invoiceID string) (*entity.Reconciliation, error) {
	return m.manualMatch(ctx, id, invoiceID)
}

func (m *mockReconService) Dispute(ctx context.Context, id, notes string) (*entity.Reconciliation, error) {
	return m.dispute(ctx, id, notes)
}

func (m *mockReconService) ResolveDispute(ctx context.Context, id, notes string) (*entity.Reconciliation, error) {
	return m.resolve(ctx, id, notes)
}

func (m *mockReconService) Get(ctx context.Context, id string) (*entity.Reconciliation, error) {
	return m.get(ctx, id)
}

func (m *mockReconService) List(ctx context.Context, limit, offset int) ([]*entity.Reconciliation, error) {
	return m.list(ctx, limit, offset)
}

type mockAllocationService struct {
	breakdown func(ctx context.Context, paymentID string) (*service.AllocationBreakdown, error)
}

func (m *mockAllocationService) BreakdownForPayment(ctx context.Context, paymentID string) (*service.AllocationBreakdown, error) {
	return m.breakdown(ctx, paymentID)
}

type mockWaterfallService struct {
	get     func(ctx context.Context, insurerID string) ([]entity.WaterfallItem, error)
	reorder func(ctx context.Context, insurerID string, ids []string) ([]entity.WaterfallItem, error)
}

func (m *mockWaterfallService) Get(ctx context.Context, insurerID string) ([]entity.WaterfallItem, error) {
	return m.get(ctx, insurerID)
}

func (m *mockWaterfallService) Reorder(ctx context.Context, insurerID string, ids []string) ([]entity.WaterfallItem, error) {
	return m.reorder(ctx, insurerID, ids)
}

type stubPaymentRepo struct{}

func (stubPaymentRepo) GetByID(context.Context, string) (*entity.Payment, error) { return nil, nil }
func (stubPaymentRepo) GetAll(context.Context) ([]*entity.Payment, error)        { return nil, nil }

type stubInvoiceRepo struct{}

func (stubInvoiceRepo) GetByID(context.Context, string) (*entity.Invoice, error) { return nil, nil }
func (stubInvoiceRepo) GetByClientID(context.Context, string) ([]*entity.Invoice, error) {
	return nil, nil
}

type stubReconRepo struct{}

func (stubReconRepo) Create(context.Context, *entity.Reconciliation) error { return nil }
func (stubReconRepo) GetByID(context.Context, string) (*entity.Reconciliation, error) {
	return nil, nil
}
func (stubReconRepo) GetByPaymentID(context.Context, string) (*entity.Reconciliation, error) {
	return nil, nil
}
func (stubReconRepo) GetAll(context.Context) ([]*entity.Reconciliation, error) { return nil, nil }
func (stubReconRepo) List(context.Context, int, int) ([]*entity.Reconciliation, error) {
	return nil, nil
}
func (stubReconRepo) Update(context.Context, *entity.Reconciliation) error { return nil }

func newTestRouter(recon service.ReconciliationService, alloc service.AllocationService, waterfall service.WaterfallService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	exporter := export.NewExporter(stubReconRepo{}, stubPaymentRepo{}, stubInvoiceRepo{})
	server := NewServer(ServerConfig{}, recon, alloc, waterfall, exporter, nopLogger{})
	return server.router
}

func matchedRecord(id string) *entity.Reconciliation {
	invoiceID := "inv-1"
	amount := decimal.RequireFromString("1000.00")
	reconciledBy := entity.ReconciledByManual
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &entity.Reconciliation{
		ID:              id,
		PaymentID:       "pay-1",
		InvoiceID:       &invoiceID,
		Status:          entity.ReconciliationStatusMatched,
		ConfidenceScore: 1.0,
		MatchedAmount:   &amount,
		ReconciledBy:    &reconciledBy,
		ReconciledAt:    &now,
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&mockReconService{}, &mockAllocationService{}, &mockWaterfallService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestRunMatchingPassEndpoint(t *testing.T) {
	recon := &mockReconService{
		runMatchingPass: func(ctx context.Context) (int, error) { return 7, nil },
	}
	router := newTestRouter(recon, &mockAllocationService{}, &mockWaterfallService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconciliations/ai-suggestions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":7`)
}

func TestGetReconciliation_NotFoundMapsTo404(t *testing.T) {
	recon := &mockReconService{
		get: func(ctx context.Context, id string) (*entity.Reconciliation, error) {
			return nil, fmt.Errorf("%w: reconciliation %s", entity.ErrNotFound, id)
		},
	}
	router := newTestRouter(recon, &mockAllocationService{}, &mockWaterfallService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reconciliations/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "missing")
}

func TestAcceptSuggestion_Success(t *testing.T) {
	recon := &mockReconService{
		accept: func(ctx context.Context, id, invoiceID string) (*entity.Reconciliation, error) {
			assert.Equal(t, "rec-1", id)
			assert.Equal(t, "inv-1", invoiceID)
			return matchedRecord(id), nil
		},
	}
	router := newTestRouter(recon, &mockAllocationService{}, &mockWaterfallService{})

	body := bytes.NewBufferString(`{"invoiceId":"inv-1"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconciliations/rec-1/accept-suggestion", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"matched"`)
}

func TestAcceptSuggestion_MissingInvoiceID(t *testing.T) {
	router := newTestRouter(&mockReconService{}, &mockAllocationService{}, &mockWaterfallService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconciliations/rec-1/accept-suggestion", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispute_InvalidStateMapsTo409(t *testing.T) {
	recon := &mockReconService{
		dispute: func(ctx context.Context, id, notes string) (*entity.Reconciliation, error) {
			return nil, fmt.Errorf("%w: cannot DISPUTE a unmatched record", entity.ErrInvalidState)
		},
	}
	router := newTestRouter(recon, &mockAllocationService{}, &mockWaterfallService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconciliations/rec-1/dispute", bytes.NewBufferString(`{"notes":"wrong amount"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestManualMatch_PassesInvoiceIDThrough(t *testing.T) {
	var gotInvoice string
	recon := &mockReconService{
		manualMatch: func(ctx context.Context, id, invoiceID string) (*entity.Reconciliation, error) {
			gotInvoice = invoiceID
			return matchedRecord(id), nil
		},
	}
	router := newTestRouter(recon, &mockAllocationService{}, &mockWaterfallService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconciliations/rec-1/match", bytes.NewBufferString(`{"invoiceId":"inv-9"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inv-9", gotInvoice)
}

func TestResolveDispute_Success(t *testing.T) {
	recon := &mockReconService{
		resolve: func(ctx context.Context, id, notes string) (*entity.Reconciliation, error) {
			assert.Equal(t, "resolved with client", notes)
			return matchedRecord(id), nil
		},
	}
	router := newTestRouter(recon, &mockAllocationService{}, &mockWaterfallService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconciliations/rec-1/resolve", bytes.NewBufferString(`{"notes":"resolved with client"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListReconciliations_DefaultsPagination(t *testing.T) {
	var gotLimit, gotOffset int
	recon := &mockReconService{
		list: func(ctx context.Context, limit, offset int) ([]*entity.Reconciliation, error) {
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
	}
	router := newTestRouter(recon, &mockAllocationService{}, &mockWaterfallService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reconciliations?limit=500&offset=-3", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, gotLimit)
	assert.Equal(t, 0, gotOffset)
}

func TestGetAllocations_Success(t *testing.T) {
	alloc := &mockAllocationService{
		breakdown: func(ctx context.Context, paymentID string) (*service.AllocationBreakdown, error) {
			return &service.AllocationBreakdown{
				PaymentID:     paymentID,
				InvoiceID:     "inv-1",
				PaymentAmount: decimal.RequireFromString("900.00"),
				Unallocated:   decimal.Zero,
			}, nil
		},
	}
	router := newTestRouter(&mockReconService{}, alloc, &mockWaterfallService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/payments/pay-1/allocations", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"payment_id":"pay-1"`)
}

func TestReorderWaterfall_BadRequestOnInvalidArgument(t *testing.T) {
	waterfall := &mockWaterfallService{
		reorder: func(ctx context.Context, insurerID string, ids []string) ([]entity.WaterfallItem, error) {
			return nil, fmt.Errorf("%w: expected 3 waterfall items, got 2", entity.ErrInvalidArgument)
		},
	}
	router := newTestRouter(&mockReconService{}, &mockAllocationService{}, waterfall)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/insurers/ins-1/waterfall", bytes.NewBufferString(`{"itemIds":["wf-1","wf-2"]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReorderWaterfall_Success(t *testing.T) {
	waterfall := &mockWaterfallService{
		reorder: func(ctx context.Context, insurerID string, ids []string) ([]entity.WaterfallItem, error) {
			assert.Equal(t, "ins-1", insurerID)
			assert.Equal(t, []string{"wf-2", "wf-1"}, ids)
			return []entity.WaterfallItem{
				{ID: "wf-2", InsurerID: insurerID, Type: entity.LineItemTypeTax, Priority: 1},
				{ID: "wf-1", InsurerID: insurerID, Type: entity.LineItemTypePremium, Priority: 2},
			}, nil
		},
	}
	router := newTestRouter(&mockReconService{}, &mockAllocationService{}, waterfall)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/insurers/ins-1/waterfall", bytes.NewBufferString(`{"itemIds":["wf-2","wf-1"]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"priority":1`)
}

func TestExportReconciliations_CSVHeaders(t *testing.T) {
	router := newTestRouter(&mockReconService{}, &mockAllocationService{}, &mockWaterfallService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reconciliations/export", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "reconciliations.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "id,paymentReference,paymentAmount"))
}

func TestExportReconciliations_XLSXFormat(t *testing.T) {
	router := newTestRouter(&mockReconService{}, &mockAllocationService{}, &mockWaterfallService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/reconciliations/export?format=xlsx", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "reconciliations.xlsx")
	// XLSX is a zip container
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}
