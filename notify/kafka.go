package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const kafkaWriteTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// otpMessage is the payload consumed by the mail worker.
type otpMessage struct {
	Type      string    `json:"type"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// KafkaPublisher hands confirmation codes to a mail worker through a Kafka
// topic, keyed by account ID.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher returns a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers must not be empty")
	}
	if topic == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}}, nil
}

// SendOTP implements Notifier.
func (p *KafkaPublisher) SendOTP(ctx context.Context, n OTPNotification) error {
	payload, err := json.Marshal(otpMessage{
		Type:      "confirm_email",
		AccountID: n.AccountID,
		Email:     n.Email,
		Username:  n.Username,
		Code:      n.Code,
		ExpiresAt: n.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("notify: marshal otp message: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, kafkaWriteTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(n.AccountID),
		Value: payload,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("notify: kafka write: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
