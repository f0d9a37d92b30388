package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"eventify/internal/logger"
	"eventify/internal/middleware"
	"eventify/internal/models"
)

// APIValidator прогоняет сквозной сценарий бронирования против запущенного API
type APIValidator struct {
	baseURL string
	userID  string
	client  *http.Client
}

// NewAPIValidator создает новый валидатор
func NewAPIValidator(baseURL, userID string) *APIValidator {
	return &APIValidator{
		baseURL: baseURL,
		userID:  userID,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ValidateAll проходит путь пользователя: каталог, сессия, выбор места,
// бронирование, оплата и отмена
func (v *APIValidator) ValidateAll(ctx context.Context) error {
	log := logger.Get()
	log.Info("Starting API validation", "base_url", v.baseURL)

	if err := v.expect(ctx, http.MethodGet, "/health", nil, http.StatusOK, nil); err != nil {
		return err
	}

	eventID, err := v.validateEvents(ctx)
	if err != nil {
		return fmt.Errorf("events validation failed: %w", err)
	}

	booking, err := v.validateSession(ctx, eventID)
	if err != nil {
		return fmt.Errorf("session validation failed: %w", err)
	}

	if err := v.validateBookings(ctx, booking); err != nil {
		return fmt.Errorf("bookings validation failed: %w", err)
	}

	if err := v.validatePayments(ctx); err != nil {
		return fmt.Errorf("payments validation failed: %w", err)
	}

	log.Info("All endpoints passed validation")
	return nil
}

func (v *APIValidator) validateEvents(ctx context.Context) (string, error) {
	var list models.ListEventsResponse
	if err := v.expect(ctx, http.MethodGet, "/api/events?page=1&pageSize=10", nil, http.StatusOK, &list); err != nil {
		return "", err
	}
	if len(list.Events) == 0 {
		return "", fmt.Errorf("GET /api/events: expected non-empty list")
	}

	for _, e := range list.Events {
		if !e.External {
			return e.ID, nil
		}
	}
	return list.Events[0].ID, nil
}

func (v *APIValidator) validateSession(ctx context.Context, eventID string) (*models.Booking, error) {
	var session models.SessionResponse
	if err := v.expect(ctx, http.MethodPost, "/api/sessions", models.CreateSessionRequest{EventID: eventID}, http.StatusCreated, &session); err != nil {
		return nil, err
	}
	if session.SeatMap == nil {
		return nil, fmt.Errorf("POST /api/sessions: seat map for event %s was not loaded: %s", eventID, session.Error)
	}

	seatIDs := session.SeatMap.SeatIDsWithStatus(models.SeatAvailable)
	if len(seatIDs) == 0 {
		return nil, fmt.Errorf("event %s has no available seats", eventID)
	}

	base := "/api/sessions/" + session.ID
	var op models.SeatOperationResponse
	if err := v.expect(ctx, http.MethodPost, base+"/seats/select", models.SelectSeatRequest{SeatID: seatIDs[0]}, http.StatusOK, &op); err != nil {
		return nil, err
	}
	if !op.Applied || op.Total <= 0 {
		return nil, fmt.Errorf("select %s: expected an applied selection with a total, got %+v", seatIDs[0], op)
	}

	var booking models.Booking
	if err := v.expect(ctx, http.MethodPost, base+"/booking", nil, http.StatusCreated, &booking); err != nil {
		return nil, err
	}
	if booking.TotalAmount != op.Total {
		return nil, fmt.Errorf("booking total %d does not match selection total %d", booking.TotalAmount, op.Total)
	}

	if err := v.expect(ctx, http.MethodGet, base, nil, http.StatusOK, &session); err != nil {
		return nil, err
	}
	if session.Step != "checkout" || session.Booking == nil || session.Booking.ID != booking.ID {
		return nil, fmt.Errorf("after booking: expected checkout with booking %s, got step %q", booking.ID, session.Step)
	}

	if err := v.expect(ctx, http.MethodPut, base+"/step", models.SetStepRequest{Step: "warp"}, http.StatusUnprocessableEntity, nil); err != nil {
		return nil, err
	}

	if err := v.expect(ctx, http.MethodDelete, base, nil, http.StatusNoContent, nil); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (v *APIValidator) validateBookings(ctx context.Context, booking *models.Booking) error {
	var payment models.InitiatePaymentResponse
	if err := v.expect(ctx, http.MethodPatch, "/api/bookings/initiatePayment", models.InitiatePaymentRequest{BookingID: booking.ID}, http.StatusOK, &payment); err != nil {
		return err
	}
	if payment.PaymentID == "" {
		return fmt.Errorf("PATCH /api/bookings/initiatePayment: expected a payment id")
	}

	if err := v.expect(ctx, http.MethodPatch, "/api/bookings/cancel", models.CancelBookingRequest{BookingID: booking.ID}, http.StatusOK, nil); err != nil {
		return err
	}

	var history models.ListBookingsResponse
	if err := v.expect(ctx, http.MethodGet, "/api/bookings", nil, http.StatusOK, &history); err != nil {
		return err
	}
	for _, b := range history {
		if b.ID == booking.ID && b.Status == models.BookingCancelled {
			return nil
		}
	}
	return fmt.Errorf("GET /api/bookings: cancelled booking %s missing from history", booking.ID)
}

func (v *APIValidator) validatePayments(ctx context.Context) error {
	if err := v.expect(ctx, http.MethodGet, "/api/payments/success?orderId=123", nil, http.StatusOK, nil); err != nil {
		return err
	}
	return v.expect(ctx, http.MethodGet, "/api/payments/fail?orderId=123", nil, http.StatusOK, nil)
}

// expect выполняет запрос, проверяет статус и при необходимости декодирует ответ
func (v *APIValidator) expect(ctx context.Context, method, path string, body interface{}, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, v.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.UserIDHeader, v.userID)

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: expected %d, got %d: %s", method, path, want, resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
		}
	}

	logger.Get().Info("Endpoint OK", "method", method, "path", path, "status", resp.StatusCode)
	return nil
}

// RunValidation запускает валидацию API на локальном сервере
func RunValidation(ctx context.Context, baseURL string) error {
	return NewAPIValidator(baseURL, "validator").ValidateAll(ctx)
}
