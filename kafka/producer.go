package kafka

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/tuitionpay/escrowhub/db/models"
	"github.com/ziflex/lecho/v3"
)

const (
	writeTimeout = 10 * time.Second
	// events without a payment share one partition key
	ledgerKey = "ledger"
)

type (
	SubscribeToEventsFunc = func(ctx context.Context) (<-chan models.LedgerEvent, error)
	EncodeEventFunc       = func(ctx context.Context, w io.Writer, event models.LedgerEvent) error
)

// MessageWriter is the part of kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type Producer struct {
	writer MessageWriter
	logger *lecho.Logger
}

// NewWriter returns a synchronous writer for topic. Messages with the same key
// land on the same partition so events of one payment stay ordered.
func NewWriter(brokers []string, topic string, logger *lecho.Logger) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		WriteTimeout: writeTimeout,
		RequiredAcks: kafkago.RequireAll,
		MaxAttempts:  3,
		Logger:       kafkago.LoggerFunc(logger.Debugf),
		ErrorLogger:  kafkago.LoggerFunc(logger.Errorf),
	}
}

func NewProducer(writer MessageWriter, logger *lecho.Logger) *Producer {
	return &Producer{writer: writer, logger: logger}
}

// StartPublishEvents writes every ledger event to kafka until ctx is done.
// Failed writes are logged and reported, the routine keeps going.
func (p *Producer) StartPublishEvents(ctx context.Context, subscribeFunc SubscribeToEventsFunc, payloadFunc EncodeEventFunc) error {
	events, err := subscribeFunc(ctx)
	if err != nil {
		return err
	}
	p.logger.Info("Starting kafka publisher")

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := p.publish(ctx, event, payloadFunc); err != nil {
				p.logger.Error(err)
				sentry.CaptureException(err)
			}
		}
	}
}

func (p *Producer) publish(ctx context.Context, event models.LedgerEvent, payloadFunc EncodeEventFunc) error {
	var payload bytes.Buffer
	if err := payloadFunc(ctx, &payload, event); err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	err := p.writer.WriteMessages(writeCtx, kafkago.Message{
		Key:   []byte(MessageKey(event)),
		Value: payload.Bytes(),
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_uuid", Value: []byte(event.UUID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write %s event %s to kafka: %w", event.Type, event.UUID, err)
	}
	p.logger.Debugf("Successfully published %s event %s to kafka", event.Type, event.UUID)
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// MessageKey is the payment id, or "ledger" for events that concern no payment.
func MessageKey(event models.LedgerEvent) string {
	if event.PaymentID == nil {
		return ledgerKey
	}
	return strconv.FormatInt(*event.PaymentID, 10)
}
