package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/db/models"
)

// operationKey marks the context of an in-flight state change.
type operationKey struct{}

// ledgerTx is the unit of work of one state-changing operation.
type ledgerTx struct {
	svc    *EscrowService
	state  *models.LedgerState
	now    time.Time
	events []models.LedgerEvent

	stateChanged bool
}

func (tx *ledgerTx) isAdministrator(caller string) bool {
	return common.SameAddress(caller, tx.state.Administrator)
}

func (tx *ledgerTx) requireAdministrator(caller string) error {
	if !tx.isAdministrator(caller) {
		return fmt.Errorf("%w: %s", ErrOwnableUnauthorizedAccount, caller)
	}
	return nil
}

func (tx *ledgerTx) requireNotPaused() error {
	if tx.state.Paused {
		return ErrEnforcedPause
	}
	return nil
}

// emit records a ledger event in the running transaction. It is published
// once the transaction commits.
func (tx *ledgerTx) emit(ctx context.Context, event models.LedgerEvent) error {
	event.UUID = uuid.NewString()
	event.CreatedAt = tx.now
	if err := tx.svc.Store.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("insert %s event: %w", event.Type, err)
	}
	tx.events = append(tx.events, event)
	return nil
}

// interact runs an external token call of the operation. Any ledger
// operation entered while it runs is rejected, whatever its context.
func (tx *ledgerTx) interact(call func() error) error {
	tx.svc.interacting.Store(true)
	defer tx.svc.interacting.Store(false)
	return call()
}

// mutate applies fn atomically. Operations run one at a time per ledger and
// fn runs inside a single store transaction that rolls back on any error,
// token calls included. A call made with the context of a running operation,
// or while an operation is inside a token call, fails with ErrReentrantCall
// instead of waiting for the ledger.
func (svc *EscrowService) mutate(ctx context.Context, fn func(ctx context.Context, tx *ledgerTx) error) error {
	if ctx.Value(operationKey{}) == svc || svc.interacting.Load() {
		return ErrReentrantCall
	}
	events, err := svc.runExclusive(context.WithValue(ctx, operationKey{}, svc), fn)
	if err != nil {
		return err
	}
	// wake the event relays
	for _, event := range events {
		svc.EventPubSub.Publish(common.EventTopicAll, event)
	}
	return nil
}

func (svc *EscrowService) runExclusive(ctx context.Context, fn func(ctx context.Context, tx *ledgerTx) error) ([]models.LedgerEvent, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	var events []models.LedgerEvent
	err := svc.Store.RunInTx(ctx, func(ctx context.Context) error {
		state, err := svc.loadState(ctx)
		if err != nil {
			return err
		}
		tx := &ledgerTx{svc: svc, state: state, now: svc.Clock()}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		if tx.stateChanged {
			if err := svc.Store.SaveLedgerState(ctx, tx.state); err != nil {
				return fmt.Errorf("save ledger state: %w", err)
			}
		}
		events = tx.events
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
