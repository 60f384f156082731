package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/db/models"
)

func TestSlowSubscriberReceivesEveryEventInOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := svc.SubscribeLedgerEvents(ctx)
	require.NoError(t, err)

	// nothing reads while the ledger commits
	const payments = 300
	for i := 0; i < payments; i++ {
		_, err := svc.Initialize(context.Background(), payerAddress, payerAddress, universityAddress, 10, "INV-001")
		require.NoError(t, err)
	}

	var previous int64
	for i := 0; i < payments; i++ {
		select {
		case event := <-events:
			assert.Equal(t, common.EventTypePaymentInitialized, event.Type)
			require.NotNil(t, event.PaymentID)
			assert.Equal(t, int64(i), *event.PaymentID)
			assert.Greater(t, event.ID, previous)
			previous = event.ID
		case <-time.After(5 * time.Second):
			t.Fatalf("received %d of %d events", i, payments)
		}
	}
}

func TestSubscriberStartsAfterCommittedEvents(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Initialize(context.Background(), payerAddress, payerAddress, universityAddress, 10, "INV-001")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := svc.SubscribeLedgerEvents(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Pause(context.Background(), adminAddress))

	select {
	case event := <-events:
		assert.Equal(t, common.EventTypePaused, event.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestRelayPicksUpEventsWithoutWakeUp(t *testing.T) {
	svc, _, s := newTestService(t)
	svc.Config.EventRelayInterval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := svc.SubscribeLedgerEvents(ctx)
	require.NoError(t, err)

	// committed by another instance sharing the store
	require.NoError(t, s.InsertEvent(context.Background(), &models.LedgerEvent{
		UUID:      "elsewhere",
		Type:      common.EventTypeUnpaused,
		Account:   adminAddress,
		CreatedAt: time.Now(),
	}))

	select {
	case event := <-events:
		assert.Equal(t, "elsewhere", event.UUID)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not poll the store")
	}
}
