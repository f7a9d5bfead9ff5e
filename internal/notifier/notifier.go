// Package notifier publishes security events to RabbitMQ. Publishing is
// always invoked fire-and-forget by the auth services: errors are logged
// and returned so callers can ignore them without interrupting the main
// request flow.
package notifier

//go:generate mockgen -destination=../mocks/mock_notifier.go -package=mocks github.com/abrahamahn/abe-stack-auth/internal/notifier Notifier

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	securityQueue = "security.events"
	smsQueue      = "sms.send"
)

// SecurityEvent is the JSON payload pushed onto the security.events queue.
// The consumer side (email/SMS delivery) is an external collaborator.
type SecurityEvent struct {
	Type         string    `json:"type"`
	UserID       string    `json:"user_id,omitempty"`
	Email        string    `json:"email,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	FamilyID     string    `json:"family_id,omitempty"`
	AttemptCount int       `json:"attempt_count,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// SmsMessage asks the delivery collaborator to send a login code. Only
// the decision to send lives here; transport is external.
type SmsMessage struct {
	UserID   string    `json:"user_id"`
	Phone    string    `json:"phone"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}

type Notifier interface {
	PublishSecurityEvent(ctx context.Context, event SecurityEvent) error
	PublishSmsCode(ctx context.Context, msg SmsMessage) error
}

type RabbitNotifier struct {
	url string
}

func NewRabbitNotifier(url string) *RabbitNotifier {
	return &RabbitNotifier{url: url}
}

// PublishSecurityEvent declares the durable queue (idempotent) and
// publishes the event as a persistent JSON message. It never panics; any
// error is logged and returned so the caller can choose to ignore it.
func (n *RabbitNotifier) PublishSecurityEvent(ctx context.Context, event SecurityEvent) error {
	return n.publish(ctx, securityQueue, event)
}

func (n *RabbitNotifier) PublishSmsCode(ctx context.Context, msg SmsMessage) error {
	return n.publish(ctx, smsQueue, msg)
}

func (n *RabbitNotifier) publish(ctx context.Context, queue string, payload any) error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
