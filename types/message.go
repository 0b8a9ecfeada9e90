package types

import "context"

// MessageID is the broker-assigned identifier of a delivered message,
// used to acknowledge it. The zero value means the identifier could not
// be extracted; such messages are counted but never acknowledged.
type MessageID uint64

// Valid reports whether the identifier was successfully extracted.
func (id MessageID) Valid() bool {
	return id != 0
}

// Message is a single delivered message.
type Message struct {
	// ID is the broker-assigned message identifier, zero when extraction
	// failed.
	ID MessageID

	// Subject is the subject or topic the message was published to.
	Subject string

	// Data is the raw message payload.
	Data []byte

	// Redelivered is set when the broker marked this delivery as a
	// redelivery (including replayed messages).
	Redelivered bool
}

// MessageFunc receives delivered messages on the transport's delivery
// goroutine. The handle identifies the binding the message arrived on;
// acknowledgments must reference it.
type MessageFunc func(ctx context.Context, h FlowHandle, msg Message)
