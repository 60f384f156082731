package service

import (
	"context"
	"fmt"

	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/db/models"
)

// Pause blocks new payments and deposits.
func (svc *EscrowService) Pause(ctx context.Context, caller string) error {
	err := svc.mutate(ctx, func(ctx context.Context, tx *ledgerTx) error {
		if err := tx.requireAdministrator(caller); err != nil {
			return err
		}
		if tx.state.Paused {
			return ErrEnforcedPause
		}
		tx.state.Paused = true
		tx.stateChanged = true
		return tx.emit(ctx, models.LedgerEvent{Type: common.EventTypePaused, Account: tx.state.Administrator})
	})
	if err != nil {
		return err
	}
	svc.Logger.Warnf("Ledger paused by %s", caller)
	return nil
}

func (svc *EscrowService) Unpause(ctx context.Context, caller string) error {
	err := svc.mutate(ctx, func(ctx context.Context, tx *ledgerTx) error {
		if err := tx.requireAdministrator(caller); err != nil {
			return err
		}
		if !tx.state.Paused {
			return ErrExpectedPause
		}
		tx.state.Paused = false
		tx.stateChanged = true
		return tx.emit(ctx, models.LedgerEvent{Type: common.EventTypeUnpaused, Account: tx.state.Administrator})
	})
	if err != nil {
		return err
	}
	svc.Logger.Infof("Ledger unpaused by %s", caller)
	return nil
}

// EmergencyWithdraw sends amount of a registered token from custody to the
// administrator without touching any payment.
func (svc *EscrowService) EmergencyWithdraw(ctx context.Context, caller, tokenAddress string, amount int64) error {
	err := svc.mutate(ctx, func(ctx context.Context, tx *ledgerTx) error {
		if err := tx.requireAdministrator(caller); err != nil {
			return err
		}
		if amount <= 0 {
			return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
		}
		address, ok := common.NormalizeAddress(tokenAddress)
		if !ok || address == common.NullAddress {
			return fmt.Errorf("%w: token %q", ErrInvalidAddress, tokenAddress)
		}
		recovered, ok := svc.tokenByAddress(address)
		if !ok {
			return fmt.Errorf("%w: token %s is not held by the ledger", ErrInvalidAddress, address)
		}

		custody := tx.state.CustodyAddress
		var balance int64
		err := tx.interact(func() (err error) {
			balance, err = recovered.BalanceOf(ctx, custody)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInsufficientBalance, err)
		}
		if balance < amount {
			return fmt.Errorf("%w: custody holds %d, requested %d", ErrInsufficientBalance, balance, amount)
		}

		err = tx.emit(ctx, models.LedgerEvent{
			Type:    common.EventTypeEmergencyWithdrawn,
			Token:   address,
			Account: tx.state.Administrator,
			Amount:  amount,
		})
		if err != nil {
			return err
		}
		err = tx.interact(func() error {
			return recovered.Transfer(ctx, custody, tx.state.Administrator, amount)
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	svc.Logger.Warnf("Emergency withdrawal of %d %s from custody by %s", amount, tokenAddress, caller)

	if _, err := svc.AuditCustody(ctx); err != nil {
		svc.Logger.Errorf("Failed to audit custody after emergency withdrawal: %v", err)
	}
	return nil
}

// TransferAdministrator hands the administrator role to newAdmin.
func (svc *EscrowService) TransferAdministrator(ctx context.Context, caller, newAdmin string) error {
	var previous string
	err := svc.mutate(ctx, func(ctx context.Context, tx *ledgerTx) error {
		if err := tx.requireAdministrator(caller); err != nil {
			return err
		}
		address, ok := common.NormalizeAddress(newAdmin)
		if !ok || address == common.NullAddress {
			return fmt.Errorf("%w: %q", ErrOwnableInvalidOwner, newAdmin)
		}
		previous = tx.state.Administrator
		tx.state.Administrator = address
		tx.stateChanged = true
		return tx.emit(ctx, models.LedgerEvent{
			Type:     common.EventTypeOwnershipTransferred,
			Account:  address,
			Previous: previous,
		})
	})
	if err != nil {
		return err
	}
	svc.Logger.Warnf("Administrator transferred from %s to %s", previous, newAdmin)
	return nil
}
