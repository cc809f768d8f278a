package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/dto"
	"github.com/prohmpiriya/ringside/internal/service"
	"github.com/prohmpiriya/ringside/pkg/response"
	"github.com/prohmpiriya/ringside/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// PurchaseHandler serves event browsing and ticket checkout
type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// GetEvent handles GET /events/:id
func (h *PurchaseHandler) GetEvent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.purchase.get_event")
	defer span.End()

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := h.purchaseService.GetEvent(ctx, eventID)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.NewEventResponse(event)))
}

// GetDates handles GET /events/:id/dates
func (h *PurchaseHandler) GetDates(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.purchase.get_dates")
	defer span.End()

	eventID := c.Param("id")
	dates, err := h.purchaseService.PurchasableDates(ctx, eventID)
	if err != nil {
		fail(c, span, err)
		return
	}
	if dates == nil {
		dates = []domain.Date{}
	}
	c.JSON(http.StatusOK, response.Success(dto.DatesResponse{EventID: eventID, Dates: dates}))
}

// GetMatches handles GET /events/:id/matches?date=YYYY-MM-DD
func (h *PurchaseHandler) GetMatches(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.purchase.get_matches")
	defer span.End()

	eventID := c.Param("id")
	date := domain.Date(c.Query("date"))
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("date", string(date)),
	)

	matches, err := h.purchaseService.MatchesOnDate(ctx, eventID, date)
	if err != nil {
		fail(c, span, err)
		return
	}
	if matches == nil {
		matches = []domain.Match{}
	}
	c.JSON(http.StatusOK, response.Success(dto.MatchesResponse{EventID: eventID, Date: date, Matches: matches}))
}

// GetAvailability handles GET /events/:id/availability
func (h *PurchaseHandler) GetAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.purchase.get_availability")
	defer span.End()

	eventID := c.Param("id")
	event, err := h.purchaseService.GetEvent(ctx, eventID)
	if err != nil {
		fail(c, span, err)
		return
	}
	left, err := h.purchaseService.Availability(ctx, eventID)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.NewAvailabilityResponse(event, left)))
}

// Checkout handles POST /events/:id/orders
func (h *PurchaseHandler) Checkout(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.purchase.checkout")
	defer span.End()

	buyerID, ok := requireUser(c)
	if !ok {
		return
	}
	eventID := c.Param("id")

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		bindError(c, err)
		return
	}
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("buyer_id", buyerID),
		attribute.String("date", string(req.Date)),
		attribute.Int("zones", len(req.Selections)),
	)

	result, err := h.purchaseService.Checkout(ctx, &service.CheckoutRequest{
		EventID:    eventID,
		BuyerID:    buyerID,
		Date:       req.Date,
		Selections: domain.Selection(req.Selections),
	})
	if err != nil {
		fail(c, span, err)
		return
	}
	span.SetAttributes(attribute.String("order_id", result.Order.ID))
	c.JSON(http.StatusCreated, response.Success(dto.CheckoutResponse{
		Order:  result.Order,
		HoldID: result.HoldID,
	}))
}

// GetOrder handles GET /orders/:id
func (h *PurchaseHandler) GetOrder(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.purchase.get_order")
	defer span.End()

	buyerID, ok := requireUser(c)
	if !ok {
		return
	}

	order, err := h.purchaseService.GetOrder(ctx, c.Param("id"), buyerID)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(order))
}
