package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nkraemer/slotgrab/internal/domain"
	"github.com/nkraemer/slotgrab/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	VenueID   int64  `json:"venue_id"`
	EventDate string `json:"event_date"`
	EventTime string `json:"event_time"`
	UserID    int64  `json:"user_id"`
}

type bookingResponse struct {
	Reference             string  `json:"reference"`
	VenueID               int64   `json:"venue_id"`
	UserID                int64   `json:"user_id"`
	EventAt               string  `json:"event_at"`
	EarliestAcquisitionAt string  `json:"earliest_acquisition_at"`
	ConfirmationCode      *string `json:"confirmation_code,omitempty"`
}

type scheduleResponse struct {
	Action         string `json:"action"`
	FireAt         string `json:"fire_at,omitempty"`
	AlreadyPending bool   `json:"already_pending,omitempty"`
}

type createBookingResponse struct {
	Booking  bookingResponse   `json:"booking"`
	Schedule *scheduleResponse `json:"schedule,omitempty"`
}

type ticketResponse struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:reference", h.get)
	router.GET("/:reference/tickets", h.tickets)
	router.POST("/:reference/acquisition", h.trigger)
	router.DELETE("/:reference/acquisition", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		VenueID:   req.VenueID,
		EventDate: req.EventDate,
		EventTime: req.EventTime,
		UserID:    req.UserID,
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	resp := createBookingResponse{Booking: toBookingResponse(result.Booking)}
	if result.Plan != nil {
		resp.Schedule = &scheduleResponse{
			Action:         string(result.Plan.Decision.Action),
			FireAt:         result.Plan.FireAt.Format(time.RFC3339),
			AlreadyPending: result.Plan.AlreadyPending,
		}
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) list(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("reference"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) tickets(c *gin.Context) {
	tickets, err := h.service.ListTickets(c.Request.Context(), c.Param("reference"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	resp := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		resp = append(resp, ticketResponse{
			ID:        t.ID,
			Status:    string(t.Status),
			Reason:    t.Reason,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
			UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) trigger(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	result, err := h.service.TriggerAcquisition(c.Request.Context(), c.Param("reference"), userID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, scheduleResponse{
		Action:         string(result.Decision.Action),
		FireAt:         result.FireAt.Format(time.RFC3339),
		AlreadyPending: result.AlreadyPending,
	})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	canceled, err := h.service.CancelAcquisition(c.Request.Context(), c.Param("reference"), userID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"canceled": canceled})
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		Reference:             b.Reference,
		VenueID:               b.VenueID,
		UserID:                b.UserID,
		EventAt:               b.EventAt.Format(time.RFC3339),
		EarliestAcquisitionAt: b.EarliestAcquisitionAt.Format(time.RFC3339),
		ConfirmationCode:      b.ConfirmationCode,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyInProgress):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
