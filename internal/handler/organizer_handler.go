package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/ringside/internal/draft"
	"github.com/prohmpiriya/ringside/internal/dto"
	"github.com/prohmpiriya/ringside/internal/service"
	"github.com/prohmpiriya/ringside/pkg/middleware"
	"github.com/prohmpiriya/ringside/pkg/response"
	"github.com/prohmpiriya/ringside/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OrganizerHandler handles the event creation wizard
type OrganizerHandler struct {
	organizerService service.OrganizerService
	resultService    service.ResultService
}

// NewOrganizerHandler creates a new OrganizerHandler
func NewOrganizerHandler(organizerService service.OrganizerService, resultService service.ResultService) *OrganizerHandler {
	return &OrganizerHandler{
		organizerService: organizerService,
		resultService:    resultService,
	}
}

// StartDraft handles POST /drafts
func (h *OrganizerHandler) StartDraft(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.start_draft")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("organizer_id", organizerID))

	d, err := h.organizerService.StartDraft(ctx, organizerID)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.NewDraftResponse(d)))
}

// GetDraft handles GET /drafts
func (h *OrganizerHandler) GetDraft(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.get_draft")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}

	d, err := h.organizerService.GetDraft(ctx, organizerID)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.NewDraftResponse(d)))
}

// DiscardDraft handles DELETE /drafts
func (h *OrganizerHandler) DiscardDraft(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.discard_draft")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.organizerService.DiscardDraft(ctx, organizerID); err != nil {
		fail(c, span, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Advance handles POST /drafts/advance
func (h *OrganizerHandler) Advance(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.advance")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.AdvanceDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		bindError(c, err)
		return
	}
	span.SetAttributes(
		attribute.String("organizer_id", organizerID),
		attribute.String("step", req.Step),
	)

	in, err := req.ToStepInput()
	if err != nil {
		fail(c, span, err)
		return
	}

	d, err := h.organizerService.Advance(ctx, organizerID, in)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.NewDraftResponse(d)))
}

// Back handles POST /drafts/back
func (h *OrganizerHandler) Back(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.back")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}

	d, err := h.organizerService.Back(ctx, organizerID)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.NewDraftResponse(d)))
}

// Finalize handles POST /drafts/finalize
func (h *OrganizerHandler) Finalize(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.finalize")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}

	eventID, err := h.organizerService.Finalize(ctx, organizerID)
	if err != nil {
		fail(c, span, err)
		return
	}
	span.SetAttributes(attribute.String("event_id", eventID))
	c.JSON(http.StatusCreated, response.Success(dto.FinalizeDraftResponse{
		EventID: eventID,
		Status:  draft.StateSubmitted.String(),
	}))
}

// AddZone handles POST /drafts/zones
func (h *OrganizerHandler) AddZone(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.add_zone")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.AddZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		bindError(c, err)
		return
	}

	zone, err := h.organizerService.AddZone(ctx, organizerID, req.ToInput())
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(zone))
}

// EditZone handles PUT /drafts/zones/:zoneId
func (h *OrganizerHandler) EditZone(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.edit_zone")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}
	zoneID := c.Param("zoneId")
	span.SetAttributes(attribute.String("zone_id", zoneID))

	var req dto.EditZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		bindError(c, err)
		return
	}

	zone, err := h.organizerService.EditZone(ctx, organizerID, zoneID, req.ToUpdate())
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(zone))
}

// RemoveZone handles DELETE /drafts/zones/:zoneId
func (h *OrganizerHandler) RemoveZone(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.remove_zone")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.organizerService.RemoveZone(ctx, organizerID, c.Param("zoneId")); err != nil {
		fail(c, span, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddMatch handles POST /drafts/matches
func (h *OrganizerHandler) AddMatch(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.add_match")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.AddMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		bindError(c, err)
		return
	}
	span.SetAttributes(attribute.String("weight_class", req.WeightClass))

	match, err := h.organizerService.AddMatch(ctx, organizerID, req.ToEntry())
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(match))
}

// EditMatch handles PUT /drafts/matches/:matchId
func (h *OrganizerHandler) EditMatch(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.edit_match")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}
	matchID := c.Param("matchId")

	var req dto.EditMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		bindError(c, err)
		return
	}

	match, err := h.organizerService.EditMatch(ctx, organizerID, matchID, req.ToInput())
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(match))
}

// RemoveMatch handles DELETE /drafts/matches/:matchId
func (h *OrganizerHandler) RemoveMatch(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.remove_match")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.organizerService.RemoveMatch(ctx, organizerID, c.Param("matchId")); err != nil {
		fail(c, span, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordResult handles PUT /events/:id/matches/:matchId/result
func (h *OrganizerHandler) RecordResult(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.organizer.record_result")
	defer span.End()

	organizerID, ok := requireUser(c)
	if !ok {
		return
	}
	eventID := c.Param("id")
	matchID := c.Param("matchId")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("match_id", matchID),
	)

	var req dto.RecordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		bindError(c, err)
		return
	}

	if err := h.resultService.RecordResult(ctx, organizerID, eventID, matchID, req.WinnerID); err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{
		"event_id":  eventID,
		"match_id":  matchID,
		"winner_id": req.WinnerID,
	}))
}

// requireUser reads the authenticated user ID set by JWTAuth
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("user not authenticated"))
		return "", false
	}
	return userID, true
}

func fail(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	handleError(c, err)
}
