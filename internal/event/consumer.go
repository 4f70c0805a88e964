package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aoinoikaz/TruthCapture/internal/mail"
	pkgkafka "github.com/aoinoikaz/TruthCapture/pkg/kafka"
)

// ConsumerGroupID identifies the mail dispatcher consumer group.
const ConsumerGroupID = "identity-mail-dispatcher"

// ConsumerHandler turns action mail events into outbound emails.
type ConsumerHandler struct {
	sender  mail.Sender
	baseURL string
	logger  *slog.Logger
}

// NewConsumerHandler creates the mail dispatch handler. baseURL is the
// public origin the emailed action links point at.
func NewConsumerHandler(sender mail.Sender, baseURL string, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		sender:  sender,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Handle processes an incoming Kafka event based on its event type.
func (h *ConsumerHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicVerificationRequested:
		return h.handleActionMail(ctx, event, mail.VerificationMessage)
	case TopicPasswordResetRequested:
		return h.handleActionMail(ctx, event, mail.ResetMessage)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (h *ConsumerHandler) handleActionMail(ctx context.Context, event *pkgkafka.Event, build func(to, link string) *mail.Message) error {
	var data ActionMailData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", event.EventType, err)
	}

	link := mail.ActionLink(h.baseURL, data.Mode, data.Code)
	msg := build(data.Email, link)

	if err := h.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s mail: %w", event.EventType, err)
	}

	h.logger.InfoContext(ctx, "action mail dispatched",
		slog.String("event_type", event.EventType),
		slog.String("user_id", data.UserID),
		slog.String("sender", h.sender.Name()),
	)
	return nil
}

// NewConsumers creates Kafka consumers for every topic the mail dispatcher
// subscribes to.
func NewConsumers(brokers []string, handler *ConsumerHandler, logger *slog.Logger) []*pkgkafka.Consumer {
	topics := []string{
		TopicVerificationRequested,
		TopicPasswordResetRequested,
	}

	consumers := make([]*pkgkafka.Consumer, 0, len(topics))
	for _, topic := range topics {
		cfg := pkgkafka.ConsumerConfig{
			Brokers:  brokers,
			GroupID:  ConsumerGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}
		consumers = append(consumers, pkgkafka.NewConsumer(cfg, handler.Handle, logger))
	}
	return consumers
}
