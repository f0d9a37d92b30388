package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "eventify/internal/errors"
	"eventify/internal/logger"
	"eventify/internal/models"
	"eventify/internal/reservation"
	"eventify/internal/service"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		services: services,
	}
}

// Health - GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Sessions:  h.services.Sessions.Count(),
		Timestamp: time.Now().UTC(),
	})
}

// handleServiceError переводит ошибки сервисов в HTTP статусы
func handleServiceError(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound),
		errors.Is(err, apperrors.ErrBookingNotFound),
		errors.Is(err, apperrors.ErrEventNotFound),
		errors.Is(err, apperrors.ErrMapUnavailable):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrEmptySelection),
		errors.Is(err, apperrors.ErrUnknownCategory),
		errors.Is(err, apperrors.ErrInvalidStep),
		errors.Is(err, apperrors.ErrInvalidSeatMap):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrSeatsHeld),
		errors.Is(err, apperrors.ErrInvalidBookingState),
		errors.Is(err, apperrors.ErrSuperseded):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrTransientFailure):
		status = http.StatusServiceUnavailable
	}

	log := logger.WithContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error(msg, "error", err)
	} else {
		log.Info(msg, "error", err, "status_code", status)
	}
	c.JSON(status, models.ErrorResponse{Error: apperrors.Message(err)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
}

func sessionResponse(s *reservation.Session) models.SessionResponse {
	st := s.State()
	return models.SessionResponse{
		ID:         s.ID(),
		UserID:     s.UserID(),
		Step:       string(st.Step),
		SeatMap:    st.SeatMap,
		Selection:  st.Selection,
		Total:      st.Total,
		Currency:   st.Currency,
		Booking:    st.Booking,
		Bookings:   st.Bookings,
		Loading:    st.Loading,
		Error:      st.Error,
		Rejections: s.Rejections(),
	}
}
