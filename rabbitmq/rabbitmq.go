package rabbitmq

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tuitionpay/escrowhub/db/models"
	"github.com/ziflex/lecho/v3"
)

// bufPool is a classic buffer pool pattern that allows more clever reuse of heap memory.
// Instead of allocating new memory everytime we need to encode the events we
// reuse buffers from this buffer pool. If we consume events sequentially there will
// only be one buffer in this pool at all times, but when scaling to multiple go
// routines this memory pool will scale with it.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

const (
	contentTypeJSON = "application/json"
)

type (
	SubscribeToEventsFunc = func(ctx context.Context) (<-chan models.LedgerEvent, error)
	EncodeEventFunc       = func(ctx context.Context, w io.Writer, event models.LedgerEvent) error
)

type Client interface {
	StartPublishEvents(context.Context, SubscribeToEventsFunc, EncodeEventFunc) error
	// Close will close all connections to rabbitmq
	Close() error
}

type DefaultClient struct {
	amqpClient AMQPClient

	logger *lecho.Logger

	escrowExchange string
}

type ClientOption = func(client *DefaultClient)

func WithEscrowExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.escrowExchange = exchange
	}
}

func WithLogger(logger *lecho.Logger) ClientOption {
	return func(client *DefaultClient) {
		client.logger = logger
	}
}

func NewClient(amqpClient AMQPClient, options ...ClientOption) (Client, error) {
	client := &DefaultClient{
		amqpClient: amqpClient,

		logger: lecho.New(
			os.Stdout,
			lecho.WithLevel(log.DEBUG),
			lecho.WithTimestamp(),
		),

		escrowExchange: "escrow_events",
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

func (client *DefaultClient) Close() error { return client.amqpClient.Close() }

// StartPublishEvents publishes every ledger event to the escrow exchange until ctx is done.
func (client *DefaultClient) StartPublishEvents(ctx context.Context, subscribeFunc SubscribeToEventsFunc, payloadFunc EncodeEventFunc) error {
	err := client.amqpClient.ExchangeDeclare(
		client.escrowExchange,
		// topic is a type of exchange that allows routing messages to different queue's bases on a routing key
		"topic",
		// Durable and Non-Auto-Deleted exchanges will survive server restarts and remain
		// declared when there are no remaining bindings.
		true,
		false,
		// Non-Internal exchange's accept direct publishing
		false,
		// Nowait: We set this to false as we want to wait for a server response
		// to check whether the exchange was created succesfully
		false,
		nil,
	)
	if err != nil {
		return err
	}

	client.logger.Info("Starting rabbitmq publisher")

	events, err := subscribeFunc(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case event, ok := <-events:
			if !ok {
				return nil
			}
			err = client.publishToEscrowExchange(ctx, event, payloadFunc)
			if err != nil {
				captureErr(client.logger, err)
			}
		}
	}
}

func (client *DefaultClient) publishToEscrowExchange(ctx context.Context, event models.LedgerEvent, payloadFunc EncodeEventFunc) error {
	payload := bufPool.Get().(*bytes.Buffer)
	payload.Reset()
	defer bufPool.Put(payload)

	err := payloadFunc(ctx, payload, event)
	if err != nil {
		return err
	}

	err = client.amqpClient.PublishWithContext(ctx,
		client.escrowExchange,
		RoutingKey(event),
		false,
		false,
		amqp.Publishing{
			ContentType: contentTypeJSON,
			MessageId:   event.UUID,
			Body:        payload.Bytes(),
		},
	)
	if err != nil {
		return err
	}

	client.logger.Debugf("Successfully published %s event %s to rabbitmq", event.Type, event.UUID)

	return nil
}

// RoutingKey is escrow.<event type>, e.g. escrow.Deposited.
func RoutingKey(event models.LedgerEvent) string {
	return fmt.Sprintf("escrow.%s", event.Type)
}

func captureErr(logger *lecho.Logger, err error) {
	logger.Error(err)
	sentry.CaptureException(err)
}
