package api

//go:generate mockgen -source=booking_handler.go -destination=mocks/mock_booking_handler.go -package=mocks

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	bk "github.com/hanksha/meeting-room-booking-backend/booking"
	"github.com/hanksha/meeting-room-booking-backend/identity"
)

type BookingService interface {
	CreateBooking(ctx context.Context, principal identity.Principal, request bk.NewBooking) (bk.Booking, error)
	UpdateBooking(ctx context.Context, principal identity.Principal, id string, patch bk.Patch) (bk.Booking, error)
	CancelBooking(ctx context.Context, principal identity.Principal, id string) (bool, error)
	FindBooking(ctx context.Context, principal identity.Principal, id string) (bk.Booking, error)
	ListBookings(ctx context.Context, principal identity.Principal, filter bk.Filter, skip, limit int) ([]bk.Booking, error)
	CheckAvailability(ctx context.Context, roomID string, start, end time.Time) (bool, error)
}

type createBookingRequest struct {
	UserID    string    `json:"userId"`
	RoomID    string    `json:"roomId" binding:"required"`
	StartTime Timestamp `json:"startTime"`
	EndTime   Timestamp `json:"endTime"`
}

type updateBookingRequest struct {
	StartTime optional[Timestamp] `json:"startTime"`
	EndTime   optional[Timestamp] `json:"endTime"`
	UserID    optional[string]    `json:"userId"`
	RoomID    optional[string]    `json:"roomId"`
}

func (r updateBookingRequest) patch() bk.Patch {
	return bk.Patch{
		StartTime: timeField(r.StartTime),
		EndTime:   timeField(r.EndTime),
		UserID:    bk.Optional[string](r.UserID),
		RoomID:    bk.Optional[string](r.RoomID),
	}
}

func timeField(field optional[Timestamp]) bk.Optional[time.Time] {
	return bk.Optional[time.Time]{Value: field.Value.Time, Present: field.Present, Null: field.Null}
}

type BookingHandler struct {
	service BookingService
}

func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.ListAll)
	rg.POST("", h.Create)
	rg.GET("/availability", h.Availability)
	rg.GET("/user/:userId", h.ListByUser)
	rg.GET("/room/:roomId", h.ListByRoom)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Cancel)
}

func (h *BookingHandler) Create(c *gin.Context) {
	principal := currentPrincipal(c)
	var request createBookingRequest

	if err := c.ShouldBindJSON(&request); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
		return
	}

	if request.StartTime.IsZero() || request.EndTime.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startTime and endTime are required"})
		return
	}

	if request.UserID == "" {
		request.UserID = principal.UserID
	}

	created, err := h.service.CreateBooking(c.Request.Context(), principal, bk.NewBooking{
		UserID:    request.UserID,
		RoomID:    request.RoomID,
		StartTime: request.StartTime.Time,
		EndTime:   request.EndTime.Time,
	})

	if err != nil {
		writeBookingError(c, err, "failed to create booking")
		return
	}

	c.IndentedJSON(http.StatusCreated, created)
}

func (h *BookingHandler) ListAll(c *gin.Context) {
	h.list(c, bk.AllBookings())
}

func (h *BookingHandler) ListByUser(c *gin.Context) {
	h.list(c, bk.ByUser(c.Param("userId")))
}

func (h *BookingHandler) ListByRoom(c *gin.Context) {
	h.list(c, bk.ByRoom(c.Param("roomId")))
}

func (h *BookingHandler) list(c *gin.Context, filter bk.Filter) {
	skip, limit, err := page(c)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), currentPrincipal(c), filter, skip, limit)

	if err != nil {
		writeBookingError(c, err, "failed to retrieve bookings")
		return
	}

	c.IndentedJSON(http.StatusOK, bookings)
}

func (h *BookingHandler) GetByID(c *gin.Context) {
	booking, err := h.service.FindBooking(c.Request.Context(), currentPrincipal(c), c.Param("id"))

	if err != nil {
		writeBookingError(c, err, "failed to fetch booking")
		return
	}

	c.IndentedJSON(http.StatusOK, booking)
}

func (h *BookingHandler) Update(c *gin.Context) {
	var request updateBookingRequest

	if err := c.ShouldBindJSON(&request); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
		return
	}

	updated, err := h.service.UpdateBooking(c.Request.Context(), currentPrincipal(c), c.Param("id"), request.patch())

	if err != nil {
		writeBookingError(c, err, "failed to update booking")
		return
	}

	c.IndentedJSON(http.StatusOK, updated)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	deleted, err := h.service.CancelBooking(c.Request.Context(), currentPrincipal(c), c.Param("id"))

	if err != nil {
		writeBookingError(c, err, "failed to cancel booking")
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"message": "booking canceled"})
}

func (h *BookingHandler) Availability(c *gin.Context) {
	roomID := c.Query("roomId")

	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
		return
	}

	start, err := parseTimestamp(c.Query("start"))

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse start"})
		return
	}

	end, err := parseTimestamp(c.Query("end"))

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse end"})
		return
	}

	available, err := h.service.CheckAvailability(c.Request.Context(), roomID, start, end)

	if err != nil {
		writeBookingError(c, err, "failed to check availability")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"available": available})
}

func writeBookingError(c *gin.Context, err error, fallback string) {
	c.Error(err)

	switch {
	case errors.Is(err, bk.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	case errors.Is(err, bk.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, bk.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, bk.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, bk.ErrInvalidInterval),
		errors.Is(err, bk.ErrPastBooking),
		errors.Is(err, bk.ErrImmutableField),
		errors.Is(err, bk.ErrNullField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, bk.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, bk.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "booking store unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
