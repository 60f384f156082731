package service

import (
	"context"
	"fmt"

	"github.com/tuitionpay/escrowhub/lib/store"
	"github.com/tuitionpay/escrowhub/lib/token"
	"github.com/ziflex/lecho/v3"
)

// NewStablecoinLedger builds the mock stablecoin and the escrow ledger on s
// and bootstraps both.
func NewStablecoinLedger(ctx context.Context, c *Config, s store.Store, logger *lecho.Logger) (*EscrowService, *token.Stablecoin, error) {
	coin, err := token.NewStablecoin(token.Config{
		Address:        c.StablecoinAddress,
		Name:           c.StablecoinName,
		Symbol:         c.StablecoinSymbol,
		Decimals:       c.StablecoinDecimals,
		Owner:          c.StablecoinOwner(),
		InitialSupply:  c.StablecoinInitialSupply,
		FaucetAmount:   c.FaucetAmount,
		FaucetCooldown: c.FaucetCooldown,
	}, s)
	if err != nil {
		return nil, nil, err
	}
	if err := coin.Bootstrap(ctx); err != nil {
		return nil, nil, fmt.Errorf("stablecoin bootstrap: %w", err)
	}

	svc := NewEscrowService(c, s, coin, logger)
	if err := svc.Bootstrap(ctx); err != nil {
		return nil, nil, fmt.Errorf("ledger bootstrap: %w", err)
	}
	return svc, coin, nil
}
