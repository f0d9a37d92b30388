package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventify/internal/middleware"
	"eventify/internal/models"
)

// ListBookings - GET /api/bookings
// Получить историю бронирований пользователя
func (h *Handlers) ListBookings(c *gin.Context) {
	bookings, err := h.services.Bookings.ListUserBookings(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		handleServiceError(c, err, "Failed to list bookings")
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, models.ListBookingsResponse(bookings))
}

// GetBooking - GET /api/bookings/:id
func (h *Handlers) GetBooking(c *gin.Context) {
	booking, err := h.services.Bookings.Get(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		handleServiceError(c, err, "Failed to get booking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

// InitiatePayment - PATCH /api/bookings/initiatePayment
// Инициировать платеж для бронирования
func (h *Handlers) InitiatePayment(c *gin.Context) {
	var req models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.services.Bookings.InitiatePayment(c.Request.Context(), req.BookingID, middleware.CurrentUserID(c))
	if err != nil {
		handleServiceError(c, err, "Failed to initiate payment")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CancelBooking - PATCH /api/bookings/cancel
// Отменить бронирование
func (h *Handlers) CancelBooking(c *gin.Context) {
	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.services.Bookings.Cancel(c.Request.Context(), req.BookingID, middleware.CurrentUserID(c), "cancelled by user"); err != nil {
		handleServiceError(c, err, "Failed to cancel booking")
		return
	}
	c.Status(http.StatusOK)
}
