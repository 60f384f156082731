package token

import (
	"context"
	"errors"
)

var (
	ErrInsufficientBalance   = errors.New("token: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrInvalidReceiver       = errors.New("token: invalid receiver")
	ErrInvalidSender         = errors.New("token: invalid sender")
	ErrInvalidSpender        = errors.New("token: invalid spender")
	ErrInvalidAmount         = errors.New("token: invalid amount")
	ErrFaucetCooldownActive  = errors.New("token: faucet cooldown active")
	ErrUnauthorizedMinter    = errors.New("token: caller is not the token owner")
	ErrUnknownToken          = errors.New("token: unknown token")
)

// Token is a fungible token ledger with allowance based transfers.
// Amounts are base units.
type Token interface {
	Address() string
	BalanceOf(ctx context.Context, holder string) (int64, error)
	Allowance(ctx context.Context, owner, spender string) (int64, error)
	Approve(ctx context.Context, owner, spender string, amount int64) error
	Transfer(ctx context.Context, from, to string, amount int64) error
	// TransferFrom moves amount from "from" to "to" on behalf of spender,
	// consuming spender's allowance.
	TransferFrom(ctx context.Context, spender, from, to string, amount int64) error
}
