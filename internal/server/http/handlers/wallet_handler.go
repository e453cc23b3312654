package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/scribemart/internal/server/http/dto"
	"github.com/polkiloo/scribemart/internal/usecase"
)

// WalletHandler manages writer money and the payment history.
type WalletHandler struct {
	facade SettlementFacade
}

// NewWalletHandler constructs WalletHandler.
func NewWalletHandler(facade SettlementFacade) *WalletHandler {
	return &WalletHandler{facade: facade}
}

// Balance handles GET /api/wallet/balance.
func (h *WalletHandler) Balance(c *gin.Context) {
	balance, err := h.facade.Balance(c.Request.Context(), CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{
		Earned:    balance.Earned,
		Withdrawn: balance.Withdrawn,
		Pending:   balance.Pending,
		Available: balance.Available,
	})
}

// Withdraw handles POST /api/wallet/withdrawals.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req dto.WithdrawalRequest
	if !bindJSON(c, &req, false) {
		return
	}
	rec, err := h.facade.RequestWithdrawal(c.Request.Context(), CurrentActor(c), req.Amount,
		usecase.PaymentInput{Method: req.Method, Details: req.Details})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResponse(rec))
}

// Payments handles GET /api/wallet/payments.
func (h *WalletHandler) Payments(c *gin.Context) {
	records, err := h.facade.Payments(c.Request.Context(), CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentList(records))
}

// Stats handles GET /api/writers/:id/stats.
func (h *WalletHandler) Stats(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	stats, err := h.facade.WriterStats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatsResponse{
		WriterID:        stats.WriterID,
		CompletedOrders: stats.CompletedOrders,
		OnTimeOrders:    stats.OnTimeOrders,
		RatedOrders:     stats.RatedOrders,
		AverageRating:   stats.AverageRating.Round(2),
	})
}
