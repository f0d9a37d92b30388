package external

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"eventify/internal/models"
)

type TicketingClient struct {
	baseURL    string
	httpClient *http.Client
}

type TicketingConfig struct {
	BaseURL string
	Timeout time.Duration
}

type StartOrderResponse struct {
	OrderID string `json:"order_id"`
}

type GetOrderResponse struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	StartedAt   int64  `json:"started_at"`
	UpdatedAt   int64  `json:"updated_at"`
	PlacesCount int    `json:"places_count"`
}

// Place is a seat as exposed by the ticketing provider.
type Place struct {
	ID     string `json:"id"`
	Row    int    `json:"row"`
	Seat   int    `json:"seat"`
	IsFree bool   `json:"is_free"`
}

// SeatID returns the seat map id of the place.
func (p Place) SeatID() string {
	return models.SeatID(strconv.Itoa(p.Row), p.Seat)
}

type SelectPlaceRequest struct {
	OrderID string `json:"order_id"`
}

func NewTicketingClient(cfg TicketingConfig) *TicketingClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &TicketingClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (tc *TicketingClient) StartOrder(ctx context.Context) (*StartOrderResponse, error) {
	var result StartOrderResponse
	if err := doJSON(ctx, tc.httpClient, http.MethodPost, tc.baseURL+"/api/partners/v1/orders", nil, &result, http.StatusCreated); err != nil {
		return nil, fmt.Errorf("failed to start order: %w", err)
	}
	return &result, nil
}

func (tc *TicketingClient) GetOrder(ctx context.Context, orderID string) (*GetOrderResponse, error) {
	var result GetOrderResponse
	if err := doJSON(ctx, tc.httpClient, http.MethodGet, tc.baseURL+"/api/partners/v1/orders/"+orderID, nil, &result, http.StatusOK); err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &result, nil
}

func (tc *TicketingClient) GetPlaces(ctx context.Context, page, pageSize int) ([]Place, error) {
	url := fmt.Sprintf("%s/api/partners/v1/places?page=%d&pageSize=%d", tc.baseURL, page, pageSize)
	var places []Place
	if err := doJSON(ctx, tc.httpClient, http.MethodGet, url, nil, &places, http.StatusOK); err != nil {
		return nil, fmt.Errorf("failed to get places: %w", err)
	}
	return places, nil
}

// GetAllPlaces pages through every place of the provider.
func (tc *TicketingClient) GetAllPlaces(ctx context.Context, pageSize int) ([]Place, error) {
	var all []Place
	for page := 1; ; page++ {
		places, err := tc.GetPlaces(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, places...)
		if len(places) < pageSize {
			return all, nil
		}
	}
}

func (tc *TicketingClient) SelectPlace(ctx context.Context, placeID, orderID string) error {
	url := tc.baseURL + "/api/partners/v1/places/" + placeID + "/select"
	if err := doJSON(ctx, tc.httpClient, http.MethodPatch, url, SelectPlaceRequest{OrderID: orderID}, nil, http.StatusNoContent); err != nil {
		return fmt.Errorf("failed to select place %s: %w", placeID, err)
	}
	return nil
}

func (tc *TicketingClient) ReleasePlace(ctx context.Context, placeID string) error {
	url := tc.baseURL + "/api/partners/v1/places/" + placeID + "/release"
	if err := doJSON(ctx, tc.httpClient, http.MethodPatch, url, nil, nil, http.StatusNoContent); err != nil {
		return fmt.Errorf("failed to release place %s: %w", placeID, err)
	}
	return nil
}

func (tc *TicketingClient) orderAction(ctx context.Context, orderID, action string) error {
	url := tc.baseURL + "/api/partners/v1/orders/" + orderID + "/" + action
	if err := doJSON(ctx, tc.httpClient, http.MethodPatch, url, nil, nil, http.StatusOK); err != nil {
		return fmt.Errorf("failed to %s order %s: %w", action, orderID, err)
	}
	return nil
}

func (tc *TicketingClient) SubmitOrder(ctx context.Context, orderID string) error {
	return tc.orderAction(ctx, orderID, "submit")
}

func (tc *TicketingClient) ConfirmOrder(ctx context.Context, orderID string) error {
	return tc.orderAction(ctx, orderID, "confirm")
}

func (tc *TicketingClient) CancelOrder(ctx context.Context, orderID string) error {
	return tc.orderAction(ctx, orderID, "cancel")
}
