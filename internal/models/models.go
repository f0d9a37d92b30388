package models

import "time"

// CreateSessionRequest - модель для создания сессии бронирования
type CreateSessionRequest struct {
	EventID string `json:"event_id,omitempty"`
}

// LoadSeatMapRequest - модель для загрузки карты мест в сессию
type LoadSeatMapRequest struct {
	EventID string `json:"event_id" binding:"required"`
}

// SelectSeatRequest - модель для выбора места
type SelectSeatRequest struct {
	SeatID string `json:"seat_id" binding:"required"`
}

// DeselectSeatRequest - модель для снятия выбора места
type DeselectSeatRequest struct {
	SeatID string `json:"seat_id" binding:"required"`
}

// SetStepRequest - модель для перехода на шаг оформления
type SetStepRequest struct {
	Step string `json:"step" binding:"required"`
}

// SeatOperationResponse - результат операции с местом
type SeatOperationResponse struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
	Total   int64  `json:"total"`
}

// SessionResponse - снимок состояния сессии бронирования
type SessionResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Step       string    `json:"step"`
	SeatMap    *SeatMap  `json:"seat_map,omitempty"`
	Selection  []Seat    `json:"selection"`
	Total      int64     `json:"total"`
	Currency   string    `json:"currency"`
	Booking    *Booking  `json:"booking,omitempty"`
	Bookings   []Booking `json:"bookings,omitempty"`
	Loading    bool      `json:"loading"`
	Error      string    `json:"error,omitempty"`
	Rejections int       `json:"rejections"`
}

// ListEventsResponse - страница каталога событий
type ListEventsResponse struct {
	Events   []Event `json:"events"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// ListBookingsResponse - список бронирований
type ListBookingsResponse []Booking

// InitiatePaymentRequest - модель для инициации платежа
type InitiatePaymentRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

// InitiatePaymentResponse - ссылка на оплату
type InitiatePaymentResponse struct {
	PaymentID  string `json:"payment_id"`
	PaymentURL string `json:"payment_url"`
}

// CancelBookingRequest - модель для отмены бронирования
type CancelBookingRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

// PaymentNotificationPayload - модель для webhook уведомлений от платежного шлюза
type PaymentNotificationPayload struct {
	PaymentID string                 `json:"paymentId" binding:"required"`
	Status    string                 `json:"status" binding:"required"`
	TeamSlug  string                 `json:"teamSlug"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// ErrorResponse - тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse - ответ health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Sessions  int       `json:"sessions"`
	Timestamp time.Time `json:"timestamp"`
}
