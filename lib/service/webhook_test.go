package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/db/models"
)

func TestWebhookReceivesLedgerEvents(t *testing.T) {
	received := make(chan map[string]interface{}, 4)
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the first delivery fails and is retried
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		body := map[string]interface{}{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, body["uuid"], r.Header.Get("Idempotency-Key"))
		received <- body
	}))
	defer server.Close()

	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		svc.StartWebhookSubscription(ctx, server.URL)
		close(done)
	}()
	// wait for the subscription to be registered
	require.Eventually(t, func() bool {
		svc.EventPubSub.mu.RLock()
		defer svc.EventPubSub.mu.RUnlock()
		return len(svc.EventPubSub.subs[common.EventTopicAll]) == 1
	}, time.Second, 10*time.Millisecond)

	_, err := svc.Initialize(context.Background(), payerAddress, payerAddress, universityAddress, 1000, "INV-001")
	require.NoError(t, err)

	select {
	case body := <-received:
		assert.Equal(t, common.EventTypePaymentInitialized, body["type"])
		assert.Equal(t, float64(0), body["payment_id"])
		assert.Equal(t, float64(1000), body["amount"])
		assert.Equal(t, "INV-001", body["invoice_ref"])
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not called")
	}

	cancel()
	<-done
}

func TestPubsubDropsWhenSubscriberIsFull(t *testing.T) {
	ps := NewPubsub()
	ch := make(chan models.LedgerEvent, 1)
	id, err := ps.Subscribe(common.EventTopicAll, ch)
	require.NoError(t, err)

	ps.Publish(common.EventTopicAll, models.LedgerEvent{Type: common.EventTypePaused})
	ps.Publish(common.EventTopicAll, models.LedgerEvent{Type: common.EventTypeUnpaused})
	assert.Equal(t, int64(1), ps.Dropped())
	assert.Equal(t, common.EventTypePaused, (<-ch).Type)

	ps.Unsubscribe(id, common.EventTopicAll)
	_, ok := <-ch
	assert.False(t, ok)
	// publishing without subscribers is a no-op
	ps.Publish(common.EventTopicAll, models.LedgerEvent{Type: common.EventTypePaused})
	ps.Publish("unknown", models.LedgerEvent{Type: common.EventTypePaused})
}
