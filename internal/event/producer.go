package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aoinoikaz/TruthCapture/internal/domain"
	pkgkafka "github.com/aoinoikaz/TruthCapture/pkg/kafka"
)

// Kafka topic constants for auth domain events.
const (
	TopicVerificationRequested  = "truthcapture.auth.verification_requested"
	TopicPasswordResetRequested = "truthcapture.auth.password_reset_requested"
	TopicEmailVerified          = "truthcapture.auth.email_verified"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from the identity service.
const SourceIdentityService = "identity-service"

// ActionMailData is the payload for events that request an action-code
// email. Code is the opaque out-of-band code the email link carries.
type ActionMailData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Mode   string `json:"mode"`
	Code   string `json:"code"`
}

// EmailVerifiedData is the payload for an auth.email_verified event.
type EmailVerifiedData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Producer publishes auth domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the identity service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishVerificationRequested publishes an event asking the mail
// dispatcher to send a verification email carrying the action code.
func (p *Producer) PublishVerificationRequested(ctx context.Context, code *domain.ActionCode) error {
	return p.publishActionMail(ctx, TopicVerificationRequested, code)
}

// PublishPasswordResetRequested publishes an event asking the mail
// dispatcher to send a password reset email carrying the action code.
func (p *Producer) PublishPasswordResetRequested(ctx context.Context, code *domain.ActionCode) error {
	return p.publishActionMail(ctx, TopicPasswordResetRequested, code)
}

func (p *Producer) publishActionMail(ctx context.Context, topic string, code *domain.ActionCode) error {
	data := ActionMailData{
		UserID: code.UserID,
		Email:  code.Email,
		Mode:   string(code.Mode),
		Code:   code.Code,
	}

	event, err := pkgkafka.NewEvent(topic, code.UserID, AggregateTypeUser, SourceIdentityService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published action mail event",
		slog.String("topic", topic),
		slog.String("user_id", code.UserID),
		slog.String("mode", string(code.Mode)),
	)

	return nil
}

// PublishEmailVerified publishes an auth.email_verified event.
func (p *Producer) PublishEmailVerified(ctx context.Context, userID, email string) error {
	data := EmailVerifiedData{UserID: userID, Email: email}

	event, err := pkgkafka.NewEvent(TopicEmailVerified, userID, AggregateTypeUser, SourceIdentityService, data)
	if err != nil {
		return fmt.Errorf("create auth.email_verified event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicEmailVerified, event); err != nil {
		return fmt.Errorf("publish auth.email_verified event: %w", err)
	}

	return nil
}
