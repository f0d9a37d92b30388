package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResetDatabase - POST /api/reset
// Сбросить бронирования, статусы мест и сессии в начальное состояние
func (h *Handlers) ResetDatabase(c *gin.Context) {
	result, err := h.services.Reset.ResetDatabase(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to reset database")
		return
	}
	c.JSON(http.StatusOK, result)
}
