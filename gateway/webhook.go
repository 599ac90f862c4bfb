package gateway

import (
	"encoding/json"
	"fmt"

	"alumni-portal/models"
)

// Webhook event types the reconciliation flow acts on
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// Event is a decoded webhook notification
type Event struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

// ParseEvent decodes a webhook body
func ParseEvent(body []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	if evt.Event == "" {
		return nil, fmt.Errorf("decode webhook: missing event type")
	}
	return &evt, nil
}

// StatusForEvent maps a webhook event type to the stored status it settles.
// ok is false for events that do not settle a payment.
func StatusForEvent(event string) (status models.PaymentStatus, ok bool) {
	switch event {
	case EventChargeSuccess:
		return models.PaymentSuccess, true
	case EventChargeFailed:
		return models.PaymentFailed, true
	}
	return "", false
}

// StatusForTransaction maps a provider transaction status to a stored
// status. Statuses that are still in flight map to pending.
func StatusForTransaction(status string) models.PaymentStatus {
	switch status {
	case "success":
		return models.PaymentSuccess
	case "failed", "reversed":
		return models.PaymentFailed
	default:
		return models.PaymentPending
	}
}
