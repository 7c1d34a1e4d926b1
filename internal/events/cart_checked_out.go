package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/aliabbasi2000/ezelectronics/internal/cart"
)

const (
	CartCheckedOutEventName    = "CartCheckedOut"
	CartCheckedOutEventVersion = 1
	CartCheckedOutSchemaPath   = "contracts/events/cart/CartCheckedOut.v1.enveloped.schema.json"
	producerName               = "ezelectronics"
)

// EventEnvelope is the shared envelope for v1 event contracts.
type EventEnvelope struct {
	EventName     string                `json:"eventName"`
	EventVersion  int                   `json:"eventVersion"`
	EventID       string                `json:"eventId"`
	CorrelationID string                `json:"correlationId,omitempty"`
	Producer      string                `json:"producer"`
	PartitionKey  string                `json:"partitionKey"`
	Sequence      int64                 `json:"sequence"`
	OccurredAt    time.Time             `json:"occurredAt"`
	Schema        string                `json:"schema"`
	Payload       CartCheckedOutPayload `json:"payload"`
}

type CartCheckedOutPayload struct {
	Customer    string               `json:"customer"`
	PaymentDate string               `json:"paymentDate"`
	Items       []CartCheckedOutItem `json:"items"`
	TotalAmount float64              `json:"totalAmount"`
}

type CartCheckedOutItem struct {
	Model    string  `json:"model"`
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// BuildCartCheckedOutEvent wraps a paid cart into the enveloped contract.
// The partition key is the customer, so each customer's checkouts form an
// ordered stream.
func BuildCartCheckedOutEvent(c cart.Cart, sequence int64, occurredAt time.Time) EventEnvelope {
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payload := CartCheckedOutPayload{
		Customer:    c.Customer,
		TotalAmount: c.Total,
	}
	if c.PaymentDate != nil {
		payload.PaymentDate = *c.PaymentDate
	}
	for _, l := range c.Products {
		payload.Items = append(payload.Items, CartCheckedOutItem{
			Model:    l.Model,
			Category: l.Category,
			Quantity: l.Quantity,
			Price:    l.Price,
		})
	}

	return EventEnvelope{
		EventName:    CartCheckedOutEventName,
		EventVersion: CartCheckedOutEventVersion,
		EventID:      uuid.NewString(),
		Producer:     producerName,
		PartitionKey: c.Customer,
		Sequence:     sequence,
		OccurredAt:   occurredAt,
		Schema:       CartCheckedOutSchemaPath,
		Payload:      payload,
	}
}
