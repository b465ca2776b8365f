package v1

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/api/handler/v1/request"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/domain"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/service"
)

type RegistrationService interface {
	Register(ctx context.Context, attendee domain.Attendee) (domain.Attendee, []byte, error)
	Ticket(ctx context.Context, attendeeID string) ([]byte, error)
	ListAttendees(ctx context.Context, eventID string) ([]domain.Attendee, error)
	ResetCheckIn(ctx context.Context, attendeeID string) error
}

type AttendeeHandler struct {
	svc  RegistrationService
	uSvc UserService
}

func NewAttendeeHandler(svc RegistrationService, uSvc UserService) *AttendeeHandler {
	return &AttendeeHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleRegisterAttendee godoc
// @Summary      Register an attendee for an event
// @Description  Creates the attendee record and returns it with the QR ticket PNG (base64).
// @Tags         attendees
// @Accept       json
// @Produce      json
// @Param        eventID  path      string                          true "Event ID"
// @Param        request  body      request.RegisterAttendeeRequest true "request body"
// @Success      201      {object}  response.RegisterAttendeeResponse
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/attendees [post]
// @Security BearerAuth
func (h *AttendeeHandler) HandleRegisterAttendee(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.uSvc); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID := ctx.Param("eventID")

	var req request.RegisterAttendeeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	attendee, ticket, err := h.svc.Register(ctx.Request.Context(), domain.Attendee{
		EventID:              eventID,
		Name:                 req.Name,
		IdentificationNumber: req.IdentificationNumber,
		StaffID:              req.StaffID,
		TableNumber:          req.TableNumber,
		SeatNumber:           req.SeatNumber,
		TableAssignment:      req.TableAssignment,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "id", eventID))
		case errors.Is(err, service.ErrAttendeeExists):
			response.RenderErr(ctx, response.ErrConflict(service.ErrAttendeeExists))
		default:
			err = fmt.Errorf("v1.HandleRegisterAttendee -> h.svc.Register -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, response.RegisterAttendeeResponse{
		Attendee:  attendee,
		TicketPNG: base64.StdEncoding.EncodeToString(ticket),
	})
}

// HandleGetAttendees godoc
// @Summary      List attendees for an event
// @Tags         attendees
// @Produce      json
// @Param        eventID  path      string true "Event ID"
// @Success      200      {array}   domain.Attendee
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/attendees [get]
// @Security BearerAuth
func (h *AttendeeHandler) HandleGetAttendees(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.uSvc); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	eventID := ctx.Param("eventID")

	attendees, err := h.svc.ListAttendees(ctx.Request.Context(), eventID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetAttendees -> h.svc.ListAttendees -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, attendees)
}

// HandleGetTicket godoc
// @Summary      Render an attendee's QR ticket
// @Tags         attendees
// @Produce      png
// @Param        eventID     path  string true "Event ID"
// @Param        attendeeID  path  string true "Attendee ID"
// @Success      200  {string}  binary "PNG image"
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/attendees/{attendeeID}/ticket [get]
// @Security BearerAuth
func (h *AttendeeHandler) HandleGetTicket(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.uSvc); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	attendeeID := ctx.Param("attendeeID")

	png, err := h.svc.Ticket(ctx.Request.Context(), attendeeID)
	if err != nil {
		if errors.Is(err, service.ErrAttendeeNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("attendee", "id", attendeeID))
			return
		}

		err = fmt.Errorf("v1.HandleGetTicket -> h.svc.Ticket -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Data(http.StatusOK, "image/png", png)
}

// HandleResetCheckIn godoc
// @Summary      Reset an attendee's check-in (administrative override)
// @Tags         attendees
// @Produce      json
// @Param        eventID     path  string true "Event ID"
// @Param        attendeeID  path  string true "Attendee ID"
// @Success      204  "reset"
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /events/{eventID}/attendees/{attendeeID}/reset [post]
// @Security BearerAuth
func (h *AttendeeHandler) HandleResetCheckIn(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if user.Role != "admin" {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not an admin", user.ID)))
		return
	}

	attendeeID := ctx.Param("attendeeID")

	if err := h.svc.ResetCheckIn(ctx.Request.Context(), attendeeID); err != nil {
		if errors.Is(err, service.ErrAttendeeNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("attendee", "id", attendeeID))
			return
		}

		err = fmt.Errorf("v1.HandleResetCheckIn -> h.svc.ResetCheckIn -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
