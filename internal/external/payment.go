package external

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrPaymentRejected is returned when the gateway answers success=false.
var ErrPaymentRejected = errors.New("payment gateway rejected the request")

type PaymentClient struct {
	baseURL    string
	teamSlug   string
	password   string
	successURL string
	failURL    string
	httpClient *http.Client
}

type PaymentConfig struct {
	BaseURL    string
	TeamSlug   string
	Password   string
	SuccessURL string
	FailURL    string
	Timeout    time.Duration
}

// Enabled reports whether a gateway is configured.
func (c PaymentConfig) Enabled() bool {
	return c.BaseURL != ""
}

type PaymentInitRequest struct {
	TeamSlug        string `json:"teamSlug"`
	Token           string `json:"token"`
	Amount          int64  `json:"amount"`
	OrderID         string `json:"orderId"`
	Currency        string `json:"currency"`
	Description     string `json:"description,omitempty"`
	Email           string `json:"email,omitempty"`
	SuccessURL      string `json:"successURL,omitempty"`
	FailURL         string `json:"failURL,omitempty"`
	NotificationURL string `json:"notificationURL,omitempty"`
	Language        string `json:"language,omitempty"`
}

type PaymentInitResponse struct {
	Success    bool   `json:"success"`
	PaymentID  string `json:"paymentId"`
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	PaymentURL string `json:"paymentURL"`
	ExpiresAt  string `json:"expiresAt"`
	CreatedAt  string `json:"createdAt"`
}

type PaymentCheckRequest struct {
	TeamSlug  string `json:"teamSlug"`
	Token     string `json:"token"`
	PaymentID string `json:"paymentId,omitempty"`
	OrderID   string `json:"orderId,omitempty"`
}

type PaymentCheckResponse struct {
	Success    bool             `json:"success"`
	Payments   []PaymentDetails `json:"payments"`
	TotalCount int              `json:"totalCount"`
	OrderID    string           `json:"orderId"`
}

type PaymentDetails struct {
	PaymentID         string `json:"paymentId"`
	OrderID           string `json:"orderId"`
	Status            string `json:"status"`
	StatusDescription string `json:"statusDescription"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
	ExpiresAt         string `json:"expiresAt"`
	Description       string `json:"description"`
}

type paymentActionRequest struct {
	TeamSlug  string `json:"teamSlug"`
	Token     string `json:"token"`
	PaymentID string `json:"paymentId"`
	Amount    int64  `json:"amount,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type paymentActionResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PaymentClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		teamSlug:   cfg.TeamSlug,
		password:   cfg.Password,
		successURL: cfg.SuccessURL,
		failURL:    cfg.FailURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Token signs params: values of the parameters plus TeamSlug and Password,
// concatenated in key order and hashed with SHA-256.
func (pc *PaymentClient) Token(params map[string]string) string {
	signed := make(map[string]string, len(params)+2)
	for k, v := range params {
		signed[k] = v
	}
	signed["TeamSlug"] = pc.teamSlug
	signed["Password"] = pc.password

	keys := make([]string, 0, len(signed))
	for k := range signed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(signed[key])
	}

	hash := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(hash[:])
}

// InitPayment registers a payment for the booking and returns the gateway
// redirect url.
func (pc *PaymentClient) InitPayment(ctx context.Context, amount int64, bookingID, currency, description string) (*PaymentInitResponse, error) {
	token := pc.Token(map[string]string{
		"Amount":   strconv.FormatInt(amount, 10),
		"Currency": currency,
		"OrderId":  bookingID,
	})

	req := PaymentInitRequest{
		TeamSlug:    pc.teamSlug,
		Token:       token,
		Amount:      amount,
		OrderID:     bookingID,
		Currency:    currency,
		Description: description,
		SuccessURL:  pc.successURL,
		FailURL:     pc.failURL,
		Language:    "en",
	}

	var result PaymentInitResponse
	if err := doJSON(ctx, pc.httpClient, http.MethodPost, pc.baseURL+"/api/v1/PaymentInit/init", req, &result); err != nil {
		return nil, fmt.Errorf("failed to init payment: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("init payment for %s: %w", bookingID, ErrPaymentRejected)
	}
	return &result, nil
}

func (pc *PaymentClient) CheckPayment(ctx context.Context, paymentID string) (*PaymentCheckResponse, error) {
	req := PaymentCheckRequest{
		TeamSlug:  pc.teamSlug,
		Token:     pc.Token(map[string]string{"PaymentId": paymentID}),
		PaymentID: paymentID,
	}

	var result PaymentCheckResponse
	if err := doJSON(ctx, pc.httpClient, http.MethodPost, pc.baseURL+"/api/v1/PaymentCheck/check", req, &result); err != nil {
		return nil, fmt.Errorf("failed to check payment: %w", err)
	}
	return &result, nil
}

func (pc *PaymentClient) ConfirmPayment(ctx context.Context, paymentID string, amount int64) error {
	req := paymentActionRequest{
		TeamSlug: pc.teamSlug,
		Token: pc.Token(map[string]string{
			"Amount":    strconv.FormatInt(amount, 10),
			"PaymentId": paymentID,
		}),
		PaymentID: paymentID,
		Amount:    amount,
	}
	return pc.action(ctx, "/api/v1/PaymentConfirm/confirm", req)
}

func (pc *PaymentClient) CancelPayment(ctx context.Context, paymentID, reason string) error {
	req := paymentActionRequest{
		TeamSlug:  pc.teamSlug,
		Token:     pc.Token(map[string]string{"PaymentId": paymentID}),
		PaymentID: paymentID,
		Reason:    reason,
	}
	return pc.action(ctx, "/api/v1/PaymentCancel/cancel", req)
}

func (pc *PaymentClient) action(ctx context.Context, path string, req paymentActionRequest) error {
	var result paymentActionResponse
	if err := doJSON(ctx, pc.httpClient, http.MethodPost, pc.baseURL+path, req, &result, http.StatusOK); err != nil {
		return fmt.Errorf("payment %s: %w", req.PaymentID, err)
	}
	if !result.Success {
		return fmt.Errorf("payment %s: %s: %w", req.PaymentID, result.Message, ErrPaymentRejected)
	}
	return nil
}
