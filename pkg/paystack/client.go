package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is Paystack's public API endpoint
const DefaultBaseURL = "https://api.paystack.co"

// minorUnitExponent converts major currency units to Paystack's subunits (kobo, cents)
const minorUnitExponent = 2

// Status is the verdict of a transaction reduced to what reconciliation needs
type Status string

const (
	StatusSuccess    Status = "success"
	StatusFailure    Status = "failure"
	StatusProcessing Status = "processing"
)

// APIError is returned when Paystack rejects a call or answers with status=false
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: %s (http %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err says Paystack has no transaction for the reference
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusNotFound {
		return true
	}
	return apiErr.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "not found")
}

// Config configures a Client
type Config struct {
	SecretKey string
	BaseURL   string
	Currency  string
	Timeout   time.Duration
}

// Client talks to the Paystack transactions API
type Client struct {
	secretKey string
	baseURL   string
	currency  string
	logger    *logrus.Logger
	client    *http.Client
}

// InitializeRequest is the input of Initialize
type InitializeRequest struct {
	Email       string
	Amount      decimal.Decimal
	Reference   string
	CallbackURL string
	Metadata    map[string]interface{}
}

// InitializeResult is what Paystack hands back for a new transaction
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
	RawPayload       map[string]interface{}
}

// VerifyResult is the outcome of a transaction lookup
type VerifyResult struct {
	Reference     string
	Status        Status
	GatewayStatus string
	Amount        decimal.Decimal
	Currency      string
	RawPayload    map[string]interface{}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// TransactionData is the transaction object shared by verify responses and charge events
type TransactionData struct {
	Reference       string `json:"reference"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	GatewayResponse string `json:"gateway_response"`
}

// NewClient creates a new Paystack client
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		secretKey: cfg.SecretKey,
		baseURL:   baseURL,
		currency:  cfg.Currency,
		logger:    logger,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Currency returns the currency every transaction is created in
func (c *Client) Currency() string {
	return c.currency
}

// ToMinorUnits converts a major-unit amount to Paystack subunits
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(minorUnitExponent).Round(0).IntPart()
}

// FromMinorUnits converts Paystack subunits back to a major-unit amount
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -minorUnitExponent)
}

// Initialize creates a transaction and returns the checkout URL
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if c.secretKey == "" {
		return nil, fmt.Errorf("payment gateway not configured: missing secret key")
	}

	payload := map[string]interface{}{
		"email":     req.Email,
		"amount":    ToMinorUnits(req.Amount),
		"reference": req.Reference,
		"currency":  c.currency,
	}
	if req.CallbackURL != "" {
		payload["callback_url"] = req.CallbackURL
	}
	if len(req.Metadata) > 0 {
		payload["metadata"] = req.Metadata
	}

	c.logger.WithFields(logrus.Fields{
		"reference": req.Reference,
		"amount":    req.Amount.StringFixed(2),
		"currency":  c.currency,
	}).Info("Initializing Paystack transaction")

	env, raw, err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}

	var data initializeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse initialize response: %w", err)
	}
	if data.AuthorizationURL == "" || data.Reference == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "initialize response missing authorization_url or reference"}
	}

	return &InitializeResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
		RawPayload:       raw,
	}, nil
}

// Verify looks up the current state of a transaction
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if c.secretKey == "" {
		return nil, fmt.Errorf("payment gateway not configured: missing secret key")
	}

	env, raw, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}

	var data TransactionData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse verify response: %w", err)
	}
	if data.Reference == "" {
		data.Reference = reference
	}

	c.logger.WithFields(logrus.Fields{
		"reference":      data.Reference,
		"gateway_status": data.Status,
	}).Info("Paystack transaction verified")

	return &VerifyResult{
		Reference:     data.Reference,
		Status:        NormalizeStatus(data.Status),
		GatewayStatus: data.Status,
		Amount:        FromMinorUnits(data.Amount),
		Currency:      data.Currency,
		RawPayload:    raw,
	}, nil
}

// NormalizeStatus maps Paystack transaction statuses onto success, failure or processing
func NormalizeStatus(status string) Status {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success":
		return StatusSuccess
	case "failed", "abandoned", "reversed":
		return StatusFailure
	}
	return StatusProcessing
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*envelope, map[string]interface{}, error) {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Error("Failed to call Paystack")
		return nil, nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"path":        path,
		"status_code": resp.StatusCode,
	}).Debug("Paystack response received")

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}
		return nil, nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBody, &raw)

	return &env, raw, nil
}
