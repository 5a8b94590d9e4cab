package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
	"tourbook/entities"
	"tourbook/payment"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/lithammer/shortuuid/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://localhost:8080"

func waitForHttpServer(t *testing.T) {
	t.Helper()

	require.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get(baseURL + "/health")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			assert.Less(t, resp.StatusCode, 300, "API not ready, http status: %d", resp.StatusCode)
		},
		time.Second*10,
		time.Millisecond*50,
	)
}

func doRequest(t *testing.T, method string, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if raw, ok := body.([]byte); ok {
		reqBody = bytes.NewBuffer(raw)
	} else if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(payload)
	}

	httpReq, err := http.NewRequest(method, baseURL+path, reqBody)
	require.NoError(t, err)

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Correlation-ID", shortuuid.New())
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, respBody
}

func createUser(t *testing.T) uuid.UUID {
	t.Helper()

	user := entities.User{
		UserID: uuid.New(),
		Email:  fmt.Sprintf("%s@example.com", shortuuid.New()),
		Name:   "Component Test",
		Phone:  "+15550100",
	}
	resp, _ := doRequest(t, http.MethodPost, "/users", user, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return user.UserID
}

func createEvent(t *testing.T, price int64, capacity int) uuid.UUID {
	t.Helper()

	event := entities.TourEvent{
		Title:     "Old town walking tour",
		Venue:     "Main square",
		StartTime: time.Now().Add(48 * time.Hour).UTC(),
		Price:     price,
		Currency:  "USD",
		Capacity:  capacity,
	}
	resp, body := doRequest(t, http.MethodPost, "/events", event, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created entities.TourEventCreateResponse
	require.NoError(t, json.Unmarshal(body, &created))
	return created.EventID
}

func createBooking(t *testing.T, userID uuid.UUID, eventID uuid.UUID, quantity int) entities.Booking {
	t.Helper()

	resp, body := doRequest(t, http.MethodPost, "/bookings", map[string]any{
		"user_id":  userID,
		"event_id": eventID,
		"quantity": quantity,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "unexpected response: %s", body)

	var booking entities.Booking
	require.NoError(t, json.Unmarshal(body, &booking))
	return booking
}

func initializePayment(t *testing.T, bookingID uuid.UUID) string {
	t.Helper()

	resp, body := doRequest(t, http.MethodPost, fmt.Sprintf("/bookings/%s/payment", bookingID), map[string]any{
		"return_url": "https://app.example.com/done",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "unexpected response: %s", body)

	var initialized struct {
		Reference string `json:"reference"`
	}
	require.NoError(t, json.Unmarshal(body, &initialized))
	require.NotEmpty(t, initialized.Reference)
	return initialized.Reference
}

func sendWebhook(t *testing.T, secret string, body []byte) (*http.Response, []byte) {
	t.Helper()

	return doRequest(t, http.MethodPost, "/payments/webhook", body, map[string]string{
		"X-Signature": payment.Sign(secret, body),
	})
}

func successWebhookBody(reference string) []byte {
	return []byte(fmt.Sprintf(
		`{"tx_ref":"%s","status":"successful","transaction_id":"%s"}`,
		reference, shortuuid.New(),
	))
}

func getBooking(t *testing.T, bookingID uuid.UUID) entities.Booking {
	t.Helper()

	resp, body := doRequest(t, http.MethodGet, fmt.Sprintf("/bookings/%s", bookingID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var booking entities.Booking
	require.NoError(t, json.Unmarshal(body, &booking))
	return booking
}

func getTickets(t *testing.T, bookingID uuid.UUID) []entities.Ticket {
	t.Helper()

	resp, body := doRequest(t, http.MethodGet, fmt.Sprintf("/tickets?booking_id=%s", bookingID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tickets []entities.Ticket
	require.NoError(t, json.Unmarshal(body, &tickets))
	return tickets
}

func getEvent(t *testing.T, eventID uuid.UUID) entities.TourEvent {
	t.Helper()

	resp, body := doRequest(t, http.MethodGet, fmt.Sprintf("/events/%s", eventID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var event entities.TourEvent
	require.NoError(t, json.Unmarshal(body, &event))
	return event
}

func assertBookingConfirmed(t *testing.T, bookingID uuid.UUID, quantity int) []entities.Ticket {
	t.Helper()

	booking := getBooking(t, bookingID)
	require.Equal(t, entities.BookingStatusConfirmed, booking.Status)

	tickets := getTickets(t, bookingID)
	require.Len(t, tickets, quantity)

	tokens := map[string]bool{}
	for _, ticket := range tickets {
		require.Equal(t, entities.TicketStatusConfirmed, ticket.Status)
		require.NotEmpty(t, ticket.QRToken)
		tokens[ticket.QRToken] = true
	}
	require.Len(t, tokens, quantity, "ticket tokens must be unique")

	return tickets
}
