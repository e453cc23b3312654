package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/scribemart/internal/server/http/dto"
)

// AdminHandler serves withdrawal review and refunds.
type AdminHandler struct {
	facade SettlementFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade SettlementFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

// Withdrawals handles GET /api/admin/withdrawals.
func (h *AdminHandler) Withdrawals(c *gin.Context) {
	records, err := h.facade.PendingWithdrawals(c.Request.Context(), CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentList(records))
}

// Approve handles POST /api/admin/withdrawals/:id/approve.
func (h *AdminHandler) Approve(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.facade.ApproveWithdrawal(c.Request.Context(), CurrentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(rec))
}

// Reject handles POST /api/admin/withdrawals/:id/reject.
func (h *AdminHandler) Reject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.RejectRequest
	if !bindJSON(c, &req, true) {
		return
	}
	rec, err := h.facade.RejectWithdrawal(c.Request.Context(), CurrentActor(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(rec))
}

// Refund handles POST /api/admin/payments/:id/refund.
func (h *AdminHandler) Refund(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.RefundRequest
	if !bindJSON(c, &req, false) {
		return
	}
	rec, err := h.facade.Refund(c.Request.Context(), CurrentActor(c), id, req.Amount, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResponse(rec))
}
