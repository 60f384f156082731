package service

import (
	"context"
	"fmt"

	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/db/models"
	"github.com/tuitionpay/escrowhub/lib/store"
)

type LedgerOverview struct {
	CurrentPaymentID int64  `json:"current_payment_id"`
	ContractBalance  int64  `json:"contract_balance"`
	Paused           bool   `json:"paused"`
	Administrator    string `json:"administrator"`
	Stablecoin       string `json:"stablecoin"`
	Custody          string `json:"custody"`
}

type CustodyReport struct {
	CustodyBalance int64                        `json:"custody_balance"`
	DepositedTotal int64                        `json:"deposited_total"`
	Diverged       bool                         `json:"diverged"`
	Statuses       map[string]store.StatusTotal `json:"statuses"`
}

func (svc *EscrowService) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	return svc.findPayment(ctx, id)
}

// GetPayerPayments returns the ids of the payments of payer, oldest first.
func (svc *EscrowService) GetPayerPayments(ctx context.Context, payer string) ([]int64, error) {
	address, ok := common.NormalizeAddress(payer)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, payer)
	}
	return svc.Store.PaymentIDsByPayer(ctx, address)
}

// GetUniversityPayments returns the ids of the payments to university, oldest first.
func (svc *EscrowService) GetUniversityPayments(ctx context.Context, university string) ([]int64, error) {
	address, ok := common.NormalizeAddress(university)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, university)
	}
	return svc.Store.PaymentIDsByUniversity(ctx, address)
}

// GetCurrentPaymentID returns the id the next payment will get.
func (svc *EscrowService) GetCurrentPaymentID(ctx context.Context) (int64, error) {
	state, err := svc.loadState(ctx)
	if err != nil {
		return 0, err
	}
	return state.NextPaymentID, nil
}

// GetContractBalance returns the escrow token balance held in custody.
func (svc *EscrowService) GetContractBalance(ctx context.Context) (int64, error) {
	state, err := svc.loadState(ctx)
	if err != nil {
		return 0, err
	}
	return svc.Token.BalanceOf(ctx, state.CustodyAddress)
}

func (svc *EscrowService) Paused(ctx context.Context) (bool, error) {
	state, err := svc.loadState(ctx)
	if err != nil {
		return false, err
	}
	return state.Paused, nil
}

func (svc *EscrowService) Administrator(ctx context.Context) (string, error) {
	state, err := svc.loadState(ctx)
	if err != nil {
		return "", err
	}
	return state.Administrator, nil
}

// Stablecoin returns the address of the escrowed token.
func (svc *EscrowService) Stablecoin(ctx context.Context) (string, error) {
	state, err := svc.loadState(ctx)
	if err != nil {
		return "", err
	}
	return state.TokenAddress, nil
}

func (svc *EscrowService) Overview(ctx context.Context) (*LedgerOverview, error) {
	state, err := svc.loadState(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := svc.Token.BalanceOf(ctx, state.CustodyAddress)
	if err != nil {
		return nil, fmt.Errorf("custody balance: %w", err)
	}
	return &LedgerOverview{
		CurrentPaymentID: state.NextPaymentID,
		ContractBalance:  balance,
		Paused:           state.Paused,
		Administrator:    state.Administrator,
		Stablecoin:       state.TokenAddress,
		Custody:          state.CustodyAddress,
	}, nil
}

// CustodyReport compares the custody balance with the sum of deposited payments.
// Both values are read in one store transaction.
func (svc *EscrowService) CustodyReport(ctx context.Context) (*CustodyReport, error) {
	report := &CustodyReport{}
	err := svc.Store.RunInTx(ctx, func(ctx context.Context) error {
		state, err := svc.loadState(ctx)
		if err != nil {
			return err
		}
		totals, err := svc.Store.SumByStatus(ctx)
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		balance, err := svc.Token.BalanceOf(ctx, state.CustodyAddress)
		if err != nil {
			return fmt.Errorf("custody balance: %w", err)
		}
		report.CustodyBalance = balance
		report.DepositedTotal = totals[common.PaymentStatusDeposited].Amount
		report.Statuses = map[string]store.StatusTotal{}
		for _, status := range common.PaymentStatuses {
			report.Statuses[status] = totals[status]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.Diverged = report.CustodyBalance != report.DepositedTotal
	return report, nil
}

// PaymentEvents returns the events of one payment, oldest first.
func (svc *EscrowService) PaymentEvents(ctx context.Context, id int64) ([]models.LedgerEvent, error) {
	if _, err := svc.findPayment(ctx, id); err != nil {
		return nil, err
	}
	return svc.Store.EventsForPayment(ctx, id)
}
