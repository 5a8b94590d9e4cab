package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type InitializePaymentRequest struct {
	Reference   string            `json:"reference"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Phone       string            `json:"phone"`
	Description string            `json:"description"`
	CallbackURL string            `json:"callback_url"`
	ReturnURL   string            `json:"return_url"`
	Meta        map[string]string `json:"meta"`
}

type InitializePaymentResponse struct {
	TransactionID string `json:"transaction_id"`
	CheckoutURL   string `json:"checkout_url"`

	Raw json.RawMessage `json:"-"`
}

// PaymentGatewayClient talks to the hosted-checkout payment provider. The
// provider is an at-least-once externality: it may call the webhook, answer
// verify polls, or both, for the same transaction.
type PaymentGatewayClient struct {
	baseURL   string
	secretKey string
	hc        *http.Client
}

func NewPaymentGatewayClient(baseURL string, secretKey string) *PaymentGatewayClient {
	return &PaymentGatewayClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		hc: &http.Client{
			Timeout:   20 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *PaymentGatewayClient) Initialize(ctx context.Context, req InitializePaymentRequest) (InitializePaymentResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return InitializePaymentResponse{}, fmt.Errorf("could not marshal initialize request: %w", err)
	}

	url := fmt.Sprintf("%s/transactions/initialize", c.baseURL)
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return InitializePaymentResponse{}, fmt.Errorf("could not build initialize request: %w", err)
	}
	hr.Header.Set("Content-Type", "application/json")
	hr.Header.Set("Accept", "application/json")
	hr.Header.Set("Authorization", "Bearer "+c.secretKey)

	hresp, err := c.hc.Do(hr)
	if err != nil {
		return InitializePaymentResponse{}, fmt.Errorf("gateway initialize call failed: %w", err)
	}
	defer hresp.Body.Close()

	respBody, err := io.ReadAll(hresp.Body)
	if err != nil {
		return InitializePaymentResponse{}, fmt.Errorf("could not read gateway response: %w", err)
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		log.FromContext(ctx).
			WithField("status_code", hresp.StatusCode).
			Error("Gateway rejected payment initialization")
		return InitializePaymentResponse{}, fmt.Errorf("gateway rejected initialize: status %d: %s", hresp.StatusCode, respBody)
	}

	var resp InitializePaymentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return InitializePaymentResponse{}, fmt.Errorf("could not decode gateway response: %w", err)
	}
	resp.Raw = respBody

	return resp, nil
}

// Verify returns the provider's raw verify payload so it can flow through the
// same resolution path as webhook bodies.
func (c *PaymentGatewayClient) Verify(ctx context.Context, reference string) ([]byte, error) {
	url := fmt.Sprintf("%s/transactions/verify/%s", c.baseURL, reference)
	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build verify request: %w", err)
	}
	hr.Header.Set("Accept", "application/json")
	hr.Header.Set("Authorization", "Bearer "+c.secretKey)

	hresp, err := c.hc.Do(hr)
	if err != nil {
		return nil, fmt.Errorf("gateway verify call failed: %w", err)
	}
	defer hresp.Body.Close()

	respBody, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read gateway response: %w", err)
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		return nil, fmt.Errorf("gateway rejected verify: status %d: %s", hresp.StatusCode, respBody)
	}

	return respBody, nil
}
