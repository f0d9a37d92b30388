package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"eventify/internal/models"
	"eventify/internal/repository"
)

const maxPageSize = 100

// ListEvents - GET /api/events
// Получить список событий
func (h *Handlers) ListEvents(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		badRequest(c, fmt.Errorf("page must be >= 1"))
		return
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		badRequest(c, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize))
		return
	}

	date := c.Query("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			badRequest(c, fmt.Errorf("date must be YYYY-MM-DD"))
			return
		}
	}

	filter := repository.EventFilter{
		Query:    c.Query("query"),
		Date:     date,
		Category: c.Query("category"),
		Page:     page,
		PageSize: pageSize,
	}

	events, err := h.services.Events.List(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err, "Failed to list events")
		return
	}

	c.JSON(http.StatusOK, models.ListEventsResponse{
		Events:   events,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetEvent - GET /api/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	event, err := h.services.Events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to get event")
		return
	}
	c.JSON(http.StatusOK, event)
}

// GetEventSeatMap - GET /api/events/:id/seatmap
// Карта мест события без привязки к сессии
func (h *Handlers) GetEventSeatMap(c *gin.Context) {
	seatMap, err := h.services.SeatMaps.GetSeatMap(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to get seat map")
		return
	}
	c.JSON(http.StatusOK, seatMap)
}
