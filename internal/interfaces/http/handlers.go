package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nbrain-team/paycile/internal/application/service"
	"github.com/nbrain-team/paycile/internal/domain/entity"
	"github.com/nbrain-team/paycile/internal/export"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	reconService      service.ReconciliationService
	allocationService service.AllocationService
	waterfallService  service.WaterfallService
	exporter          *export.Exporter
	logger            Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	reconService service.ReconciliationService,
	allocationService service.AllocationService,
	waterfallService service.WaterfallService,
	exporter *export.Exporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		reconService:      reconService,
		allocationService: allocationService,
		waterfallService:  waterfallService,
		exporter:          exporter,
		logger:            logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// MatchRequest carries the invoice to accept or match against
type MatchRequest struct {
	InvoiceID string `json:"invoiceId" binding:"required"`
}

// NotesRequest carries operator notes for dispute transitions
type NotesRequest struct {
	Notes string `json:"notes"`
}

// ReorderWaterfallRequest carries the new category order
type ReorderWaterfallRequest struct {
	ItemIDs []string `json:"itemIds" binding:"required"`
}

// ListReconciliationsRequest represents query parameters for listing records
type ListReconciliationsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// MatchingPassResponse reports how many records a batch pass updated
type MatchingPassResponse struct {
	Updated int `json:"updated"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// RunMatchingPass handles POST /api/reconciliations/ai-suggestions
func (h *Handlers) RunMatchingPass(c *gin.Context) {
	updated, err := h.reconService.RunMatchingPass(c.Request.Context())
	if err != nil {
		h.logger.Error("Matching pass failed", "error", err)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    MatchingPassResponse{Updated: updated},
	})
}

// ListReconciliations handles GET /api/reconciliations
func (h *Handlers) ListReconciliations(c *gin.Context) {
	var req ListReconciliationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	records, err := h.reconService.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.logger.Error("Failed to list reconciliations", "error", err)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    records,
	})
}

// GetReconciliation handles GET /api/reconciliations/:id
func (h *Handlers) GetReconciliation(c *gin.Context) {
	record, err := h.reconService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    record,
	})
}

// AcceptSuggestion handles POST /api/reconciliations/:id/accept-suggestion
func (h *Handlers) AcceptSuggestion(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invoiceId is required",
		})
		return
	}

	record, err := h.reconService.AcceptSuggestion(c.Request.Context(), c.Param("id"), req.InvoiceID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    record,
	})
}

// ManualMatch handles POST /api/reconciliations/:id/match
func (h *Handlers) ManualMatch(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invoiceId is required",
		})
		return
	}

	record, err := h.reconService.ManualMatch(c.Request.Context(), c.Param("id"), req.InvoiceID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    record,
	})
}

// Dispute handles POST /api/reconciliations/:id/dispute
func (h *Handlers) Dispute(c *gin.Context) {
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	record, err := h.reconService.Dispute(c.Request.Context(), c.Param("id"), req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    record,
	})
}

// ResolveDispute handles POST /api/reconciliations/:id/resolve
func (h *Handlers) ResolveDispute(c *gin.Context) {
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	record, err := h.reconService.ResolveDispute(c.Request.Context(), c.Param("id"), req.Notes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    record,
	})
}

// GetAllocations handles GET /api/payments/:id/allocations
func (h *Handlers) GetAllocations(c *gin.Context) {
	breakdown, err := h.allocationService.BreakdownForPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    breakdown,
	})
}

// GetWaterfall handles GET /api/insurers/:id/waterfall
func (h *Handlers) GetWaterfall(c *gin.Context) {
	items, err := h.waterfallService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    items,
	})
}

// ReorderWaterfall handles PUT /api/insurers/:id/waterfall
func (h *Handlers) ReorderWaterfall(c *gin.Context) {
	var req ReorderWaterfallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "itemIds is required",
		})
		return
	}

	items, err := h.waterfallService.Reorder(c.Request.Context(), c.Param("id"), req.ItemIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    items,
	})
}

// ExportReconciliations handles GET /api/reconciliations/export.
// format=xlsx returns a workbook; the default is the CSV wire format.
func (h *Handlers) ExportReconciliations(c *gin.Context) {
	rows, err := h.exporter.BuildRows(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build export rows", "error", err)
		h.respondError(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		c.Header("Content-Disposition", `attachment; filename="reconciliations.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := export.WriteXLSX(c.Writer, rows); err != nil {
			h.logger.Error("Failed to write XLSX export", "error", err)
		}
		return
	}

	c.Header("Content-Disposition", `attachment; filename="reconciliations.csv"`)
	c.Header("Content-Type", "text/csv")
	if err := export.WriteCSV(c.Writer, rows); err != nil {
		h.logger.Error("Failed to write CSV export", "error", err)
	}
}

// respondError maps typed domain failures onto HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, entity.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, entity.ErrInvalidState):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, entity.ErrInvalidArgument):
		status = http.StatusBadRequest
		message = err.Error()
	}

	c.JSON(status, Response{
		Success: false,
		Error:   message,
	})
}
