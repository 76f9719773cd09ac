// Package gateway talks to the ZenoPay mobile-money API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	initiatePath = "/mobile_money_tanzania"
	statusPath   = "/status"
	apiKeyHeader = "x-api-key"
)

var (
	// ErrNotFound is returned when the gateway answers a status query with 404.
	ErrNotFound = errors.New("gateway: order not found")
	// ErrMalformed is returned when a response body cannot be decoded.
	ErrMalformed = errors.New("gateway: malformed response")
)

type PaymentRequest struct {
	OrderID    string `json:"order_id"`
	BuyerName  string `json:"buyer_name"`
	BuyerEmail string `json:"buyer_email"`
	BuyerPhone string `json:"buyer_phone"`
	Amount     int64  `json:"amount"`
}

type PaymentResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	ResultCode string `json:"resultcode,omitempty"`
	OrderID    string `json:"order_id,omitempty"`
}

// Accepted reports the gateway's success acknowledgement.
func (r *PaymentResponse) Accepted() bool {
	return r.Status == "success"
}

type StatusResponse struct {
	Status  string `json:"status"`
	OrderID string `json:"order_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// HTTPError is a non-2xx answer from the gateway.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gateway http %d: %s", e.StatusCode, e.Body)
}

// Client is a ZenoPay API client. It makes a single attempt per call.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// InitiatePayment submits a push-payment request to the buyer's phone.
// Any non-2xx answer is an *HTTPError; a 2xx body is returned as is and
// the caller decides whether it is an acceptance.
func (c *Client) InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+initiatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	status, respBody, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	if status < 200 || status >= 300 {
		return nil, &HTTPError{StatusCode: status, Body: string(respBody)}
	}

	var out PaymentResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &out, nil
}

// PaymentStatus queries the gateway for an order. A 404 maps to ErrNotFound.
func (c *Client) PaymentStatus(ctx context.Context, orderID string) (*StatusResponse, error) {
	u := c.baseURL + statusPath + "?" + url.Values{"order_id": {orderID}}.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	status, respBody, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, orderID)
	}
	if status < 200 || status >= 300 {
		return nil, &HTTPError{StatusCode: status, Body: string(respBody)}
	}

	var out StatusResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &out, nil
}

func (c *Client) setHeaders(r *http.Request) {
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set(apiKeyHeader, c.apiKey)
}

func (c *Client) do(r *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(r)
	if err != nil {
		return 0, nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}
