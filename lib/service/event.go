package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/db/models"
)

const eventRelayBatch = 100

// EventPayload is the out-bound representation of a ledger event.
type EventPayload struct {
	models.LedgerEvent
	CreatedAt int64 `json:"created_at"`
}

// SubscribeLedgerEvents delivers every ledger event committed after the call,
// in commit order, until ctx is done. Events are read back from the store
// starting at a cursor, so a slow subscriber is delivered late but never
// misses one. Commits wake the relay early, the poll interval picks up
// events committed by other instances.
func (svc *EscrowService) SubscribeLedgerEvents(ctx context.Context) (<-chan models.LedgerEvent, error) {
	cursor, err := svc.Store.LastEventID(ctx)
	if err != nil {
		return nil, fmt.Errorf("load event cursor: %w", err)
	}
	wake := make(chan models.LedgerEvent, 1)
	subId, err := svc.EventPubSub.Subscribe(common.EventTopicAll, wake)
	if err != nil {
		return nil, err
	}

	events := make(chan models.LedgerEvent)
	go func() {
		defer close(events)
		defer svc.EventPubSub.Unsubscribe(subId, common.EventTopicAll)

		ticker := time.NewTicker(svc.relayInterval())
		defer ticker.Stop()
		for {
			next, err := svc.relayEvents(ctx, cursor, events)
			cursor = next
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				svc.Logger.Errorf("Failed to relay ledger events after %d: %v", cursor, err)
				sentry.CaptureException(err)
			}
			select {
			case <-ctx.Done():
				return
			case <-wake:
			case <-ticker.C:
			}
		}
	}()
	return events, nil
}

// relayEvents sends the events committed after cursor to out and returns the
// id of the last event sent.
func (svc *EscrowService) relayEvents(ctx context.Context, cursor int64, out chan<- models.LedgerEvent) (int64, error) {
	for {
		batch, err := svc.Store.EventsAfter(ctx, cursor, eventRelayBatch)
		if err != nil {
			return cursor, err
		}
		for _, event := range batch {
			select {
			case out <- event:
				cursor = event.ID
			case <-ctx.Done():
				return cursor, ctx.Err()
			}
		}
		if len(batch) < eventRelayBatch {
			return cursor, nil
		}
	}
}

func (svc *EscrowService) relayInterval() time.Duration {
	if svc.Config.EventRelayInterval > 0 {
		return svc.Config.EventRelayInterval
	}
	return time.Second
}

// EncodeLedgerEvent writes event as JSON with a unix timestamp.
func (svc *EscrowService) EncodeLedgerEvent(ctx context.Context, w io.Writer, event models.LedgerEvent) error {
	return json.NewEncoder(w).Encode(&EventPayload{
		LedgerEvent: event,
		CreatedAt:   event.CreatedAt.Unix(),
	})
}
