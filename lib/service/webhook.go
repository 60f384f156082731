package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/getsentry/sentry-go"
	"github.com/tuitionpay/escrowhub/db/models"
)

func (svc *EscrowService) StartWebhookSubscription(ctx context.Context, url string) {

	svc.Logger.Infof("Starting webhook subscription with webhook url %s", url)
	events, err := svc.SubscribeLedgerEvents(ctx)
	if err != nil {
		svc.Logger.Error(err)
		sentry.CaptureException(err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := svc.postToWebhook(ctx, event, url); err != nil {
				svc.Logger.Errorf("Failed to post %s event %s to webhook: %v", event.Type, event.UUID, err)
				sentry.CaptureException(err)
			}
		}
	}
}

func (svc *EscrowService) postToWebhook(ctx context.Context, event models.LedgerEvent, url string) error {
	payload := new(bytes.Buffer)
	if err := svc.EncodeLedgerEvent(ctx, payload, event); err != nil {
		return err
	}
	body := payload.Bytes()

	expontentialBackoff := backoff.NewExponentialBackOff()
	expontentialBackoff.MaxInterval = time.Second * 10
	expontentialBackoff.MaxElapsedTime = time.Minute

	client := &http.Client{Timeout: svc.Config.WebhookTimeout}
	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", event.UUID)
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(resp.Body)
			err := fmt.Errorf("webhook status code was %d, body: %s", resp.StatusCode, msg)
			if resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, backoff.WithContext(expontentialBackoff, ctx))
}
