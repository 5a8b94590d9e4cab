package payment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Signal is the provider-shape-independent view of a payment notification.
// Webhook bodies and verify responses both normalize into it, flat payloads
// and payloads nested under a "data" envelope alike.
type Signal struct {
	Reference             string
	Status                string
	ProviderTransactionID string

	// BookingID is uuid.Nil when the payload carried no usable metadata.
	BookingID uuid.UUID
}

func (s Signal) Succeeded() bool {
	return strings.Contains(strings.ToLower(s.Status), "success")
}

var referenceKeys = []string{"tx_ref", "reference", "transaction_reference"}

func ParseSignal(raw []byte) (Signal, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Signal{}, fmt.Errorf("payload is not a JSON object: %w", err)
	}

	if data, ok := payload["data"].(map[string]any); ok {
		// fields on the envelope win over the nested copy
		merged := make(map[string]any, len(data)+len(payload))
		for k, v := range data {
			merged[k] = v
		}
		for k, v := range payload {
			if k == "data" {
				continue
			}
			merged[k] = v
		}
		payload = merged
	}

	signal := Signal{
		Reference:             firstString(payload, referenceKeys...),
		Status:                firstString(payload, "status", "transaction_status"),
		ProviderTransactionID: firstString(payload, "transaction_id", "id"),
		BookingID:             bookingIDFromMeta(payload),
	}

	if signal.Status == "" {
		return Signal{}, fmt.Errorf("payload carries no status field")
	}
	if signal.Reference == "" && signal.ProviderTransactionID == "" && signal.BookingID == uuid.Nil {
		return Signal{}, fmt.Errorf("payload carries no transaction identifier")
	}

	return signal, nil
}

// BookingIDFromReference recovers the booking from references shaped like
// "<bookingID>-<nonce>". It is the lookup of last resort, kept for payloads
// minted before the reference table existed.
func BookingIDFromReference(reference string) (uuid.UUID, bool) {
	if len(reference) < 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(reference[:36])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func bookingIDFromMeta(payload map[string]any) uuid.UUID {
	for _, key := range []string{"meta", "metadata"} {
		meta, ok := payload[key].(map[string]any)
		if !ok {
			continue
		}
		raw, ok := meta["booking_id"].(string)
		if !ok {
			continue
		}
		if id, err := uuid.Parse(raw); err == nil {
			return id
		}
	}
	return uuid.Nil
}

func firstString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			// some providers send numeric transaction ids
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
