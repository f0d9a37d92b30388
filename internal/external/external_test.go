package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventify/internal/models"
)

func TestTicketingGetAllPlacesPages(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/partners/v1/places", r.URL.Path)
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		var places []Place
		switch page {
		case "1":
			places = []Place{{ID: "p1", Row: 1, Seat: 1, IsFree: true}, {ID: "p2", Row: 1, Seat: 2}}
		case "2":
			places = []Place{{ID: "p3", Row: 2, Seat: 1, IsFree: true}}
		}
		json.NewEncoder(w).Encode(places)
	}))
	defer srv.Close()

	client := NewTicketingClient(TicketingConfig{BaseURL: srv.URL})
	places, err := client.GetAllPlaces(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, places, 3)
	assert.Equal(t, []string{"1", "2"}, pages)
}

func TestTicketingOrderFlow(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/partners/v1/orders":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(StartOrderResponse{OrderID: "o-1"})
		case r.URL.Path == "/api/partners/v1/places/p1/select":
			var body SelectPlaceRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "o-1", body.OrderID)
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/api/partners/v1/orders/o-1/submit":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	client := NewTicketingClient(TicketingConfig{BaseURL: srv.URL})

	order, err := client.StartOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, "o-1", order.OrderID)
	require.NoError(t, client.SelectPlace(ctx, "p1", order.OrderID))
	require.NoError(t, client.SubmitOrder(ctx, order.OrderID))

	err = client.ConfirmOrder(ctx, "o-2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, calls, 4)
}

func TestTicketingUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	err := NewTicketingClient(TicketingConfig{BaseURL: srv.URL}).SelectPlace(context.Background(), "p1", "o-1")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.Code)
}

func TestPlacesToSeatMap(t *testing.T) {
	places := []Place{
		{ID: "p3", Row: 2, Seat: 1, IsFree: true},
		{ID: "p2", Row: 1, Seat: 2},
		{ID: "p1", Row: 1, Seat: 1, IsFree: true},
	}
	m := PlacesToSeatMap("ext-1", 5000, places)
	require.NoError(t, m.Validate())

	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 2, m.Columns)
	assert.Equal(t, []string{"1", "2"}, m.Sections[0].Rows)
	assert.Equal(t, "1-1", m.Sections[0].Seats[0].ID)
	assert.Equal(t, []string{"1-2"}, m.SeatIDsWithStatus(models.SeatSold))

	index := PlaceIndex(places)
	assert.Equal(t, "p2", index["1-2"])
}

func TestPaymentInit(t *testing.T) {
	client := NewPaymentClient(PaymentConfig{TeamSlug: "team", Password: "secret", SuccessURL: "http://ok"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/PaymentInit/init", r.URL.Path)
		var req PaymentInitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(22500), req.Amount)
		assert.Equal(t, "b-1", req.OrderID)
		assert.Equal(t, "http://ok", req.SuccessURL)
		assert.Equal(t, client.Token(map[string]string{"Amount": "22500", "Currency": "JPY", "OrderId": "b-1"}), req.Token)
		json.NewEncoder(w).Encode(PaymentInitResponse{Success: true, PaymentID: "pay-1", PaymentURL: "http://gw/pay-1"})
	}))
	defer srv.Close()
	client.baseURL = srv.URL

	resp, err := client.InitPayment(context.Background(), 22500, "b-1", "JPY", "2 seats")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", resp.PaymentID)
	assert.Equal(t, "http://gw/pay-1", resp.PaymentURL)
}

func TestPaymentRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "declined"})
	}))
	defer srv.Close()

	client := NewPaymentClient(PaymentConfig{BaseURL: srv.URL})
	_, err := client.InitPayment(context.Background(), 100, "b-1", "JPY", "")
	assert.ErrorIs(t, err, ErrPaymentRejected)
	assert.ErrorIs(t, client.CancelPayment(context.Background(), "pay-1", "user request"), ErrPaymentRejected)
}

func TestPaymentTokenIsOrderIndependent(t *testing.T) {
	client := NewPaymentClient(PaymentConfig{TeamSlug: "team", Password: "secret"})
	params := map[string]string{"PaymentId": "pay-1", "Amount": "100"}
	first := client.Token(params)
	assert.Len(t, first, 64)
	assert.Equal(t, first, client.Token(map[string]string{"Amount": "100", "PaymentId": "pay-1"}))
	assert.NotContains(t, params, "Password")
}
