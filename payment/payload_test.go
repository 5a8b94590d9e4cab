package payment

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignal_FlatPayload(t *testing.T) {
	bookingID := uuid.New()
	raw := []byte(fmt.Sprintf(
		`{"tx_ref":"%s-123","status":"successful","transaction_id":"tx-9","meta":{"booking_id":"%s"}}`,
		bookingID, bookingID,
	))

	signal, err := ParseSignal(raw)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("%s-123", bookingID), signal.Reference)
	assert.Equal(t, "successful", signal.Status)
	assert.Equal(t, "tx-9", signal.ProviderTransactionID)
	assert.Equal(t, bookingID, signal.BookingID)
	assert.True(t, signal.Succeeded())
}

func TestParseSignal_NestedDataPayload(t *testing.T) {
	raw := []byte(`{"event":"charge.completed","data":{"reference":"ref-1","status":"SUCCESS","id":4521}}`)

	signal, err := ParseSignal(raw)
	require.NoError(t, err)

	assert.Equal(t, "ref-1", signal.Reference)
	assert.Equal(t, "SUCCESS", signal.Status)
	assert.Equal(t, "4521", signal.ProviderTransactionID)
	assert.Equal(t, uuid.Nil, signal.BookingID)
	assert.True(t, signal.Succeeded())
}

func TestParseSignal_EnvelopeFieldsWinOverNested(t *testing.T) {
	raw := []byte(`{"status":"failed","data":{"reference":"ref-2","status":"successful"}}`)

	signal, err := ParseSignal(raw)
	require.NoError(t, err)

	assert.Equal(t, "failed", signal.Status)
	assert.False(t, signal.Succeeded())
}

func TestParseSignal_AlternateKeys(t *testing.T) {
	raw := []byte(`{"transaction_reference":"ref-3","transaction_status":"was_successful"}`)

	signal, err := ParseSignal(raw)
	require.NoError(t, err)

	assert.Equal(t, "ref-3", signal.Reference)
	assert.True(t, signal.Succeeded(), "any status containing success counts")
}

func TestParseSignal_FailureStatuses(t *testing.T) {
	for _, status := range []string{"failed", "cancelled", "error", "pending"} {
		raw := []byte(fmt.Sprintf(`{"reference":"ref-4","status":"%s"}`, status))

		signal, err := ParseSignal(raw)
		require.NoError(t, err)
		assert.False(t, signal.Succeeded(), "status %s must not count as success", status)
	}
}

func TestParseSignal_Malformed(t *testing.T) {
	for name, raw := range map[string][]byte{
		"not json":       []byte(`not-json`),
		"json array":     []byte(`[1,2]`),
		"no status":      []byte(`{"reference":"ref-5"}`),
		"no identifiers": []byte(`{"status":"successful"}`),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSignal(raw)
			assert.Error(t, err)
		})
	}
}

func TestBookingIDFromReference(t *testing.T) {
	bookingID := uuid.New()

	parsed, ok := BookingIDFromReference(fmt.Sprintf("%s-1725000000000", bookingID))
	require.True(t, ok)
	assert.Equal(t, bookingID, parsed)

	_, ok = BookingIDFromReference("short-ref")
	assert.False(t, ok)

	_, ok = BookingIDFromReference("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa-123")
	assert.False(t, ok)
}
