package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/stan.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "eventify/internal/errors"
	"eventify/internal/models"
)

type fakePayments struct {
	confirmed []string
	failed    []string
	err       error
}

func (f *fakePayments) ConfirmPayment(ctx context.Context, bookingID, paymentID string) error {
	f.confirmed = append(f.confirmed, bookingID+":"+paymentID)
	return f.err
}

func (f *fakePayments) FailPayment(ctx context.Context, bookingID, reason string) error {
	f.failed = append(f.failed, bookingID+":"+reason)
	return f.err
}

type fakeInvalidator struct {
	events []string
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, eventIDs ...string) error {
	f.events = append(f.events, eventIDs...)
	return nil
}

type fakeSubscriber struct {
	subjects []string
	handlers map[string]stan.MsgHandler
	failOn   string
}

func (f *fakeSubscriber) SubscribeQueue(subject, queue string, handler stan.MsgHandler) (stan.Subscription, error) {
	if subject == f.failOn {
		return nil, errors.New("nats down")
	}
	if f.handlers == nil {
		f.handlers = make(map[string]stan.MsgHandler)
	}
	f.subjects = append(f.subjects, subject)
	f.handlers[subject] = handler
	return nil, nil
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestHandlePaymentCompleted(t *testing.T) {
	payments := &fakePayments{}
	h := NewHandlers(payments, nil)

	err := h.HandlePaymentCompleted(context.Background(), mustJSON(t, models.PaymentCompletedEvent{BookingID: "b-1", PaymentID: "pay-1"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"b-1:pay-1"}, payments.confirmed)
}

func TestHandlePaymentFailed(t *testing.T) {
	payments := &fakePayments{}
	h := NewHandlers(payments, nil)

	err := h.HandlePaymentFailed(context.Background(), mustJSON(t, models.PaymentFailedEvent{BookingID: "b-1", Reason: "rejected"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"b-1:rejected"}, payments.failed)
}

func TestPaymentEventErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"unknown booking is dropped", apperrors.ErrBookingNotFound, false},
		{"finalized booking is dropped", apperrors.ErrInvalidBookingState, false},
		{"storage failure is retried", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(&fakePayments{err: tt.err}, nil)
			err := h.HandlePaymentCompleted(context.Background(), mustJSON(t, models.PaymentCompletedEvent{BookingID: "b-1"}))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	payments := &fakePayments{}
	h := NewHandlers(payments, nil)

	assert.NoError(t, h.HandlePaymentCompleted(context.Background(), []byte("{not json")))
	assert.Empty(t, payments.confirmed)
}

func TestHandleSeatsChangedInvalidatesCache(t *testing.T) {
	inv := &fakeInvalidator{}
	h := NewHandlers(&fakePayments{}, inv)

	data := mustJSON(t, models.SeatsChangedEvent{EventID: "1", SeatIDs: []string{"A-1"}, Status: models.SeatSold})
	require.NoError(t, h.HandleSeatsChanged(context.Background(), data))
	assert.Equal(t, []string{"1"}, inv.events)

	assert.NoError(t, NewHandlers(&fakePayments{}, nil).HandleSeatsChanged(context.Background(), data))
}

func TestSubscribeRegistersAllSubjects(t *testing.T) {
	sub := &fakeSubscriber{}
	_, err := Subscribe(context.Background(), sub, NewHandlers(&fakePayments{}, nil))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		models.EventPaymentCompleted,
		models.EventPaymentFailed,
		models.EventSeatsSold,
		models.EventSeatsReleased,
		models.EventBookingCreated,
		models.EventBookingCancelled,
		models.EventBookingExpired,
	}, sub.subjects)
}

func TestSubscribeStopsOnError(t *testing.T) {
	sub := &fakeSubscriber{failOn: models.EventSeatsSold}
	_, err := Subscribe(context.Background(), sub, NewHandlers(&fakePayments{}, nil))
	assert.ErrorContains(t, err, models.EventSeatsSold)
	assert.Len(t, sub.subjects, 2)
}
