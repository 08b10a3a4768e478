// Package channel abstracts transports capable of delivering a message to an
// external recipient address.
package channel

import "context"

// Message is one rendered notification ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Channel is a single transport. Implementations return
// sentinel.ErrNotConfigured (wrapped) when they have no credentials, which
// lets the delivery policy skip them without consuming the attempt budget.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
