package mail

import (
	"context"
	"log/slog"
	"sync"
)

// MockSender logs messages instead of sending them and records them for
// inspection. Used in development and tests.
type MockSender struct {
	logger *slog.Logger

	// Err, when set, is returned by every Send call.
	Err error

	mu   sync.Mutex
	sent []Message
}

// NewMockSender creates a logging mock sender.
func NewMockSender(logger *slog.Logger) *MockSender {
	return &MockSender{logger: logger}
}

// Name returns the transport name.
func (s *MockSender) Name() string {
	return "mock"
}

// Send logs and records the message. It fails only when Err is set.
func (s *MockSender) Send(ctx context.Context, msg *Message) error {
	if s.Err != nil {
		return s.Err
	}

	s.mu.Lock()
	s.sent = append(s.sent, *msg)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "mock sender: email sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// Sent returns a copy of every message sent so far.
func (s *MockSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
