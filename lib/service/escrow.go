package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/db/models"
	"github.com/tuitionpay/escrowhub/lib/store"
	"github.com/uptrace/bun"
)

// Initialize registers a pending payment from payer to university.
// No funds move until the payer deposits.
func (svc *EscrowService) Initialize(ctx context.Context, caller, payer, university string, amount int64, invoiceRef string) (int64, error) {
	var id int64
	err := svc.mutate(ctx, func(ctx context.Context, tx *ledgerTx) error {
		if err := tx.requireNotPaused(); err != nil {
			return err
		}
		payerAddress, ok := common.NormalizeAddress(payer)
		if !ok || payerAddress == common.NullAddress {
			return fmt.Errorf("%w: payer %q", ErrInvalidAddress, payer)
		}
		universityAddress, ok := common.NormalizeAddress(university)
		if !ok || universityAddress == common.NullAddress {
			return fmt.Errorf("%w: university %q", ErrInvalidAddress, university)
		}
		if amount <= 0 {
			return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
		}
		if invoiceRef == "" {
			return fmt.Errorf("%w: invoice reference is empty", ErrInvalidAmount)
		}

		payment := &models.Payment{
			ID:         tx.state.NextPaymentID,
			Payer:      payerAddress,
			University: universityAddress,
			Amount:     amount,
			InvoiceRef: invoiceRef,
			Status:     common.PaymentStatusInitialized,
			CreatedAt:  tx.now,
		}
		if err := svc.Store.InsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		tx.state.NextPaymentID++
		tx.stateChanged = true

		id = payment.ID
		return tx.emit(ctx, models.LedgerEvent{
			Type:       common.EventTypePaymentInitialized,
			PaymentID:  &payment.ID,
			Payer:      payment.Payer,
			University: payment.University,
			Amount:     payment.Amount,
			InvoiceRef: payment.InvoiceRef,
		})
	})
	if err != nil {
		return 0, err
	}
	svc.Logger.Infof("Payment %d initialized by %s: payer %s university %s amount %d ref %s", id, caller, payer, university, amount, invoiceRef)
	return id, nil
}

// Deposit pulls the payment amount from the payer into custody.
// The payer must have approved the custody address for at least the amount.
func (svc *EscrowService) Deposit(ctx context.Context, caller string, id int64) error {
	err := svc.mutate(ctx, func(ctx context.Context, tx *ledgerTx) error {
		if err := tx.requireNotPaused(); err != nil {
			return err
		}
		payment, err := svc.findPayment(ctx, id)
		if err != nil {
			return err
		}
		if !common.SameAddress(caller, payment.Payer) {
			return fmt.Errorf("%w: %s is not the payer of payment %d", ErrUnauthorizedAccess, caller, id)
		}
		if payment.Status != common.PaymentStatusInitialized {
			return fmt.Errorf("%w: payment %d is %s", ErrPaymentAlreadyProcessed, id, payment.Status)
		}

		custody := tx.state.CustodyAddress
		var balance, allowance int64
		err = tx.interact(func() (err error) {
			balance, err = svc.Token.BalanceOf(ctx, payment.Payer)
			if err != nil {
				return err
			}
			allowance, err = svc.Token.Allowance(ctx, payment.Payer, custody)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInsufficientBalance, err)
		}
		if balance < payment.Amount {
			return fmt.Errorf("%w: balance %d, needed %d", ErrInsufficientBalance, balance, payment.Amount)
		}
		if allowance < payment.Amount {
			return fmt.Errorf("%w: allowance %d, needed %d", ErrInsufficientBalance, allowance, payment.Amount)
		}

		payment.Status = common.PaymentStatusDeposited
		payment.DepositedAt = bun.NullTime{Time: tx.now}
		if err := svc.Store.UpdatePayment(ctx, payment); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		err = tx.emit(ctx, models.LedgerEvent{
			Type:      common.EventTypeDeposited,
			PaymentID: &payment.ID,
			Payer:     payment.Payer,
			Amount:    payment.Amount,
		})
		if err != nil {
			return err
		}

		err = tx.interact(func() error {
			return svc.Token.TransferFrom(ctx, custody, payment.Payer, custody, payment.Amount)
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInsufficientBalance, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	svc.Logger.Infof("Payment %d deposited by %s", id, caller)
	return nil
}

// Release pays a deposited payment out to its university.
func (svc *EscrowService) Release(ctx context.Context, caller string, id int64) error {
	return svc.resolve(ctx, caller, id, common.PaymentStatusReleased)
}

// Refund pays a deposited payment back to its payer.
func (svc *EscrowService) Refund(ctx context.Context, caller string, id int64) error {
	return svc.resolve(ctx, caller, id, common.PaymentStatusRefunded)
}

// resolve moves a deposited payment to a terminal status. The status is
// written before custody pays out, so a payment can be resolved only once.
// Resolving is allowed while the ledger is paused.
func (svc *EscrowService) resolve(ctx context.Context, caller string, id int64, status string) error {
	err := svc.mutate(ctx, func(ctx context.Context, tx *ledgerTx) error {
		if err := tx.requireAdministrator(caller); err != nil {
			return err
		}
		payment, err := svc.findPayment(ctx, id)
		if err != nil {
			return err
		}
		if payment.Status != common.PaymentStatusDeposited {
			return fmt.Errorf("%w: payment %d is %s", ErrPaymentNotDeposited, id, payment.Status)
		}

		event := models.LedgerEvent{PaymentID: &payment.ID, Amount: payment.Amount}
		recipient := payment.University
		switch status {
		case common.PaymentStatusReleased:
			event.Type = common.EventTypeReleased
			event.University = payment.University
		case common.PaymentStatusRefunded:
			event.Type = common.EventTypeRefunded
			event.Payer = payment.Payer
			recipient = payment.Payer
		default:
			return fmt.Errorf("unsupported terminal status %s", status)
		}

		payment.Status = status
		payment.ResolvedAt = bun.NullTime{Time: tx.now}
		if err := svc.Store.UpdatePayment(ctx, payment); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if err := tx.emit(ctx, event); err != nil {
			return err
		}

		err = tx.interact(func() error {
			return svc.Token.Transfer(ctx, tx.state.CustodyAddress, recipient, payment.Amount)
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	svc.Logger.Infof("Payment %d %s by %s", id, status, caller)
	return nil
}

func (svc *EscrowService) findPayment(ctx context.Context, id int64) (*models.Payment, error) {
	payment, err := svc.Store.FindPayment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrPaymentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find payment %d: %w", id, err)
	}
	return payment, nil
}
