package mail

import (
	"context"
)

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers email messages through a specific transport.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}
