package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"tourbook/entities"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NotificationClient posts fire-and-forget notices. Callers treat failures as
// log-worthy only.
type NotificationClient struct {
	baseURL string
	hc      *http.Client
}

func NewNotificationClient(baseURL string) *NotificationClient {
	return &NotificationClient{
		baseURL: baseURL,
		hc: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *NotificationClient) Send(ctx context.Context, notice entities.Notification) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("could not marshal notification: %w", err)
	}

	url := fmt.Sprintf("%s/notifications", c.baseURL)
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("could not build notification request: %w", err)
	}
	hr.Header.Set("Content-Type", "application/json")

	hresp, err := c.hc.Do(hr)
	if err != nil {
		return fmt.Errorf("notification call failed: %w", err)
	}
	defer hresp.Body.Close()

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		return fmt.Errorf("notification sink returned status %d", hresp.StatusCode)
	}

	return nil
}
