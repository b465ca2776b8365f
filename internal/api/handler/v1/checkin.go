package v1

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/api/handler/v1/request"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/domain"
)

type CheckInService interface {
	Resolve(ctx context.Context, eventID, payload string) domain.CheckInOutcome
}

// ScanLogService reads recent audit entries back for the dashboard.
type ScanLogService interface {
	RecentScans(ctx context.Context, eventID string, limit int) ([]domain.ScanRecord, error)
}

// OutcomePublisher fans a resolved outcome out to feed subscribers.
type OutcomePublisher interface {
	Publish(eventID string, outcome domain.CheckInOutcome)
}

type CheckInHandler struct {
	svc  CheckInService
	log  ScanLogService
	uSvc UserService
	feed OutcomePublisher
}

func NewCheckInHandler(svc CheckInService, log ScanLogService, uSvc UserService, feed OutcomePublisher) *CheckInHandler {
	return &CheckInHandler{
		svc:  svc,
		log:  log,
		uSvc: uSvc,
		feed: feed,
	}
}

// HandleCheckIn godoc
// @Summary      Resolve a check-in payload
// @Description  Turns a scanned QR payload or manually typed identifier into an admission decision for the event.
// @Tags         checkin
// @Accept       json
// @Produce      json
// @Param        eventID  path      string                 true  "Event ID"
// @Param        request  body      request.CheckInRequest true  "request body"
// @Success      200      {object}  domain.CheckInOutcome
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  domain.CheckInOutcome
// @Router       /events/{eventID}/checkin [post]
// @Security BearerAuth
func (h *CheckInHandler) HandleCheckIn(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.uSvc); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID := ctx.Param("eventID")

	var req request.CheckInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	outcome := h.svc.Resolve(ctx.Request.Context(), eventID, req.Payload)

	if h.feed != nil {
		h.feed.Publish(eventID, outcome)
	}

	// Negative admissions (not found, wrong event, already checked in) are
	// expected outcomes, not errors; they go out as 200 like a success so
	// the scanner can keep its retry loop simple.
	status := http.StatusOK
	if outcome.Reason == domain.ReasonDirectoryError {
		status = http.StatusInternalServerError
	}

	ctx.JSON(status, outcome)
}

// HandleListScans godoc
// @Summary      List recent scan attempts for an event
// @Tags         checkin
// @Produce      json
// @Param        eventID  path   string true  "Event ID"
// @Param        limit    query  int    false "maximum rows, newest first"
// @Success      200  {array}   domain.ScanRecord
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/scans [get]
// @Security BearerAuth
func (h *CheckInHandler) HandleListScans(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.uSvc); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID := ctx.Param("eventID")
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	records, err := h.log.RecentScans(ctx.Request.Context(), eventID, limit)
	if err != nil {
		err = fmt.Errorf("v1.HandleListScans -> h.log.RecentScans -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, records)
}
