package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/server/http/dto"
	"github.com/polkiloo/scribemart/internal/usecase"
)

// OrderHandler manages order lifecycle endpoints.
type OrderHandler struct {
	facade   MarketplaceFacade
	currency string
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade MarketplaceFacade, currency string) *OrderHandler {
	return &OrderHandler{facade: facade, currency: currency}
}

func toCreateInput(req dto.CreateOrderRequest) usecase.CreateOrderInput {
	return usecase.CreateOrderInput{
		Title:         req.Title,
		Subject:       req.Subject,
		AcademicLevel: req.AcademicLevel,
		PaperType:     req.PaperType,
		Instructions:  req.Instructions,
		WordCount:     req.WordCount,
		Deadline:      req.Deadline,
		Urgency:       req.Urgency,
		Requirements: model.Requirements{
			CitationStyle: req.Requirements.CitationStyle,
			Spacing:       req.Requirements.Spacing,
			Language:      req.Requirements.Language,
			Sources:       req.Requirements.Sources,
		},
	}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindJSON(c, &req, false) {
		return
	}
	actor := CurrentActor(c)
	order, err := h.facade.CreateOrder(c.Request.Context(), &actor, toCreateInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order, &actor, h.facade.Now()))
}

// CreateGuest handles POST /api/orders/guest.
func (h *OrderHandler) CreateGuest(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindJSON(c, &req, false) {
		return
	}
	in := toCreateInput(req)
	in.GuestEmail = req.GuestEmail
	in.GuestName = req.GuestName

	order, err := h.facade.CreateOrder(c.Request.Context(), nil, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order, nil, h.facade.Now()))
}

// GuestLookup handles GET /api/orders/guest?number=&email=.
func (h *OrderHandler) GuestLookup(c *gin.Context) {
	order, err := h.facade.GuestOrder(c.Request.Context(), c.Query("number"), c.Query("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order, nil, h.facade.Now()))
}

// Quote handles GET /api/pricing/quote.
func (h *OrderHandler) Quote(c *gin.Context) {
	words, err := strconv.Atoi(c.Query("word_count"))
	if err != nil {
		badRequest(c, "invalid word_count")
		return
	}
	var deadline *time.Time
	if raw := c.Query("deadline"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "invalid deadline")
			return
		}
		deadline = &parsed
	}

	quote, urgency, err := h.facade.Quote(words, c.Query("urgency"), c.Query("academic_level"), deadline)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.QuoteResponse{
		Urgency:      urgency,
		Pages:        quote.Pages,
		PricePerPage: quote.PricePerPage,
		TotalPrice:   quote.TotalPrice,
		Currency:     h.currency,
		Defaulted:    quote.Defaulted,
	})
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	actor := CurrentActor(c)
	orders, err := h.facade.Orders(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderList(orders, actor, h.facade.Now()))
}

// Available handles GET /api/orders/available.
func (h *OrderHandler) Available(c *gin.Context) {
	actor := CurrentActor(c)
	orders, err := h.facade.AvailableOrders(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderList(orders, actor, h.facade.Now()))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	h.orderAction(c, func(actor model.Actor, id int64) (*model.Order, error) {
		return h.facade.Order(c.Request.Context(), actor, id)
	}, http.StatusOK)
}

// Timeline handles GET /api/orders/:id/timeline.
func (h *OrderHandler) Timeline(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	entries, err := h.facade.Timeline(c.Request.Context(), CurrentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimelineList(entries))
}

// Link handles POST /api/orders/link.
func (h *OrderHandler) Link(c *gin.Context) {
	var req dto.LinkRequest
	if !bindJSON(c, &req, false) {
		return
	}
	actor := CurrentActor(c)
	order, err := h.facade.LinkGuestOrder(c.Request.Context(), actor, req.Number, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order, &actor, h.facade.Now()))
}

// Bid handles POST /api/orders/:id/bids.
func (h *OrderHandler) Bid(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.BidRequest
	if !bindJSON(c, &req, false) {
		return
	}
	bid, err := h.facade.ApplyBid(c.Request.Context(), CurrentActor(c), id, req.Amount, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.BidResponse{
		ID:        bid.ID,
		WriterID:  bid.WriterID,
		Amount:    bid.Amount,
		Message:   bid.Message,
		Status:    string(bid.Status),
		CreatedAt: bid.CreatedAt,
	})
}

// WithdrawBid handles DELETE /api/orders/:id/bids.
func (h *OrderHandler) WithdrawBid(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.facade.WithdrawBid(c.Request.Context(), CurrentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Assign handles POST /api/orders/:id/assign.
func (h *OrderHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	h.orderAction(c, func(actor model.Actor, id int64) (*model.Order, error) {
		if !bindJSON(c, &req, false) {
			return nil, errBound
		}
		return h.facade.AssignWriter(c.Request.Context(), actor, id, req.WriterID)
	}, http.StatusOK)
}

// Take handles POST /api/orders/:id/take.
func (h *OrderHandler) Take(c *gin.Context) {
	h.orderAction(c, func(actor model.Actor, id int64) (*model.Order, error) {
		return h.facade.TakeOrder(c.Request.Context(), actor, id)
	}, http.StatusOK)
}

// Start handles POST /api/orders/:id/start.
func (h *OrderHandler) Start(c *gin.Context) {
	h.orderAction(c, func(actor model.Actor, id int64) (*model.Order, error) {
		return h.facade.StartWork(c.Request.Context(), actor, id)
	}, http.StatusOK)
}

// Submit handles POST /api/orders/:id/submissions.
func (h *OrderHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequest
	h.orderAction(c, func(actor model.Actor, id int64) (*model.Order, error) {
		if !bindJSON(c, &req, false) {
			return nil, errBound
		}
		return h.facade.SubmitWork(c.Request.Context(), actor, id, req.FileRef, req.Note)
	}, http.StatusCreated)
}

// Revision handles POST /api/orders/:id/revision.
func (h *OrderHandler) Revision(c *gin.Context) {
	var req dto.RevisionRequest
	h.orderAction(c, func(actor model.Actor, id int64) (*model.Order, error) {
		if !bindJSON(c, &req, false) {
			return nil, errBound
		}
		return h.facade.RequestRevision(c.Request.Context(), actor, id, usecase.RevisionInput{
			Reason:       req.Reason,
			Instructions: req.Instructions,
			Deadline:     req.Deadline,
		})
	}, http.StatusOK)
}

// Cancel handles POST /api/orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	var req dto.CancelRequest
	h.orderAction(c, func(actor model.Actor, id int64) (*model.Order, error) {
		if !bindJSON(c, &req, true) {
			return nil, errBound
		}
		return h.facade.CancelOrder(c.Request.Context(), actor, id, req.Reason)
	}, http.StatusOK)
}

// Complete handles POST /api/orders/:id/complete.
func (h *OrderHandler) Complete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.CompleteRequest
	if !bindJSON(c, &req, true) {
		return
	}
	var rating *model.Rating
	if req.Rating != nil {
		rating = &model.Rating{Score: req.Rating.Score, Review: req.Rating.Review}
	}

	actor := CurrentActor(c)
	order, payment, err := h.facade.CompleteOrder(c.Request.Context(), actor, id, rating)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CompleteResponse{
		Order:   toOrderResponse(order, &actor, h.facade.Now()),
		Payment: toPaymentResponse(payment),
	})
}

// Pay handles POST /api/orders/:id/pay.
func (h *OrderHandler) Pay(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !bindJSON(c, &req, false) {
		return
	}
	rec, err := h.facade.PayOrder(c.Request.Context(), CurrentActor(c), id, usecase.PaymentInput{Method: req.Method, Details: req.Details})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResponse(rec))
}

// Recheck handles POST /api/orders/:id/submissions/:sid/recheck.
func (h *OrderHandler) Recheck(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sid, ok := idParam(c, "sid")
	if !ok {
		return
	}
	if err := h.facade.RetryOriginalityCheck(c.Request.Context(), CurrentActor(c), id, sid); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// orderAction runs a state change on the :id order and renders the result.
func (h *OrderHandler) orderAction(c *gin.Context, action func(model.Actor, int64) (*model.Order, error), status int) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	actor := CurrentActor(c)
	order, err := action(actor, id)
	if err == errBound {
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, toOrderResponse(order, &actor, h.facade.Now()))
}
