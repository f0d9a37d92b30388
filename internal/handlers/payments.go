package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventify/internal/logger"
	"eventify/internal/models"
)

// Payments handlers

// NotifyPaymentCompleted - GET /api/payments/success
// Редирект платежного шлюза после успешной оплаты. Статус меняет только webhook.
func (h *Handlers) NotifyPaymentCompleted(c *gin.Context) {
	orderID := c.Query("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "orderId is required"})
		return
	}

	logger.WithContext(c.Request.Context()).Info("Payment completed for order", "order_id", orderID)
	c.Status(http.StatusOK)
}

// NotifyPaymentFailed - GET /api/payments/fail
// Редирект платежного шлюза после неуспешной оплаты
func (h *Handlers) NotifyPaymentFailed(c *gin.Context) {
	orderID := c.Query("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "orderId is required"})
		return
	}

	logger.WithContext(c.Request.Context()).Warn("Payment failed for order", "order_id", orderID)
	c.Status(http.StatusOK)
}

// OnPaymentUpdates - POST /api/payments/notifications
// Принимать уведомления от платежного шлюза
func (h *Handlers) OnPaymentUpdates(c *gin.Context) {
	var notification models.PaymentNotificationPayload
	if err := c.ShouldBindJSON(&notification); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.services.Bookings.HandlePaymentNotification(c.Request.Context(), &notification); err != nil {
		handleServiceError(c, err, "Failed to handle payment notification")
		return
	}
	c.Status(http.StatusOK)
}
