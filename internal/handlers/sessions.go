package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventify/internal/logger"
	"eventify/internal/middleware"
	"eventify/internal/models"
	"eventify/internal/reservation"
)

// CreateSession - POST /api/sessions
// Создать сессию бронирования, при наличии event_id сразу загрузить карту мест
func (h *Handlers) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	session := h.services.Sessions.Create(ctx, middleware.CurrentUserID(c))

	if req.EventID != "" {
		ctx = logger.ContextWithSession(ctx, session.ID())
		if err := session.LoadSeatMap(ctx, req.EventID); err != nil {
			logger.WithContext(ctx).Info("Initial seat map load failed", "error", err, "event_id", req.EventID)
		}
	}

	c.JSON(http.StatusCreated, sessionResponse(session))
}

// session достает сессию текущего пользователя или пишет ошибку в ответ
func (h *Handlers) session(c *gin.Context) (*reservation.Session, bool) {
	session, err := h.services.Sessions.Get(c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		handleServiceError(c, err, "Session lookup failed")
		return nil, false
	}
	c.Request = c.Request.WithContext(logger.ContextWithSession(c.Request.Context(), session.ID()))
	return session, true
}

// GetSession - GET /api/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// DeleteSession - DELETE /api/sessions/:id
func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.services.Sessions.Delete(c.Param("id"), middleware.CurrentUserID(c)); err != nil {
		handleServiceError(c, err, "Failed to delete session")
		return
	}
	c.Status(http.StatusNoContent)
}

// LoadSeatMap - POST /api/sessions/:id/seatmap
// Загрузить карту мест события в сессию
func (h *Handlers) LoadSeatMap(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req models.LoadSeatMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := session.LoadSeatMap(c.Request.Context(), req.EventID); err != nil {
		handleServiceError(c, err, "Failed to load seat map")
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// SelectSeat - POST /api/sessions/:id/seats/select
// Выбрать место
func (h *Handlers) SelectSeat(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req models.SelectSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, seatOperation(session, session.SelectSeat(req.SeatID)))
}

// DeselectSeat - POST /api/sessions/:id/seats/deselect
// Снять выбор места
func (h *Handlers) DeselectSeat(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req models.DeselectSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, seatOperation(session, session.DeselectSeat(req.SeatID)))
}

// ClearSelection - DELETE /api/sessions/:id/seats
// Снять выбор со всех мест
func (h *Handlers) ClearSelection(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	applied := session.ClearSelection()
	c.JSON(http.StatusOK, models.SeatOperationResponse{Applied: applied, Total: session.State().Total})
}

func seatOperation(session *reservation.Session, applied bool) models.SeatOperationResponse {
	resp := models.SeatOperationResponse{Applied: applied, Total: session.State().Total}
	if !applied {
		if r, ok := session.LastRejection(); ok {
			resp.Reason = string(r.Reason)
		}
	}
	return resp
}

// CreateBooking - POST /api/sessions/:id/booking
// Создать бронирование из выбранных мест
func (h *Handlers) CreateBooking(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	booking, err := session.CreateBooking(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to create booking")
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// SetStep - PUT /api/sessions/:id/step
// Перейти на шаг оформления
func (h *Handlers) SetStep(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req models.SetStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := session.SetStep(reservation.Step(req.Step)); err != nil {
		handleServiceError(c, err, "Failed to set step")
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// ClearError - DELETE /api/sessions/:id/error
func (h *Handlers) ClearError(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.ClearError()
	c.Status(http.StatusNoContent)
}

// FetchUserBookings - GET /api/sessions/:id/bookings
// Загрузить историю бронирований пользователя в сессию
func (h *Handlers) FetchUserBookings(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	bookings, err := session.FetchUserBookings(c.Request.Context(), session.UserID())
	if err != nil {
		handleServiceError(c, err, "Failed to fetch user bookings")
		return
	}
	c.JSON(http.StatusOK, models.ListBookingsResponse(bookings))
}
