// Package queue carries payment settlement events between the payment
// gateway and the booking ledger over RabbitMQ.
package queue

// DefaultPaymentQueue is the durable queue settlement events are published to.
const DefaultPaymentQueue = "payment.settled"

// PaymentSettledEvent is published by the payment gateway once a
// student's payment for a booking has cleared.  Only BookingID is used
// to settle; the rest is carried for logs.
type PaymentSettledEvent struct {
    BookingID string `json:"booking_id"`
    Amount    int64  `json:"amount,omitempty"`
    Reference string `json:"reference,omitempty"`
    SettledAt string `json:"settled_at,omitempty"`
}
