package token

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/db/models"
	"github.com/tuitionpay/escrowhub/lib/store"
)

// MaxAllowance never decreases on TransferFrom.
const MaxAllowance = math.MaxInt64

type Config struct {
	Address        string
	Name           string
	Symbol         string
	Decimals       int32
	Owner          string
	InitialSupply  int64
	FaucetAmount   int64
	FaucetCooldown time.Duration
}

type Metadata struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    int32  `json:"decimals"`
	Owner       string `json:"owner"`
	TotalSupply int64  `json:"total_supply"`
}

// Stablecoin is a mock USD stablecoin kept in the ledger store.
// Its writes join the caller's store transaction.
type Stablecoin struct {
	Config Config
	Store  store.TokenStore
	Tx     func(ctx context.Context, fn func(ctx context.Context) error) error
	Clock  func() time.Time
}

func NewStablecoin(config Config, s store.Store) (*Stablecoin, error) {
	address, ok := common.NormalizeAddress(config.Address)
	if !ok || address == common.NullAddress {
		return nil, fmt.Errorf("invalid stablecoin address %q", config.Address)
	}
	owner, ok := common.NormalizeAddress(config.Owner)
	if !ok || owner == common.NullAddress {
		return nil, fmt.Errorf("invalid stablecoin owner %q", config.Owner)
	}
	config.Address = address
	config.Owner = owner
	return &Stablecoin{
		Config: config,
		Store:  s,
		Tx:     s.RunInTx,
		Clock:  time.Now,
	}, nil
}

func (sc *Stablecoin) Address() string {
	return sc.Config.Address
}

// Bootstrap registers the token and mints the initial supply to the owner.
// It is a no-op once the token exists.
func (sc *Stablecoin) Bootstrap(ctx context.Context) error {
	return sc.Tx(ctx, func(ctx context.Context) error {
		_, err := sc.Store.LoadToken(ctx, sc.Config.Address)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		err = sc.Store.SaveToken(ctx, &models.Token{
			Address:  sc.Config.Address,
			Name:     sc.Config.Name,
			Symbol:   sc.Config.Symbol,
			Decimals: sc.Config.Decimals,
			Owner:    sc.Config.Owner,
		})
		if err != nil {
			return err
		}
		if sc.Config.InitialSupply == 0 {
			return nil
		}
		return sc.mint(ctx, sc.Config.Owner, sc.Config.InitialSupply)
	})
}

func (sc *Stablecoin) Metadata(ctx context.Context) (*Metadata, error) {
	token, err := sc.Store.LoadToken(ctx, sc.Config.Address)
	if err != nil {
		return nil, err
	}
	return &Metadata{
		Address:     token.Address,
		Name:        token.Name,
		Symbol:      token.Symbol,
		Decimals:    token.Decimals,
		Owner:       token.Owner,
		TotalSupply: token.TotalSupply,
	}, nil
}

func (sc *Stablecoin) TotalSupply(ctx context.Context) (int64, error) {
	token, err := sc.Store.LoadToken(ctx, sc.Config.Address)
	if err != nil {
		return 0, err
	}
	return token.TotalSupply, nil
}

// FormatAmount renders base units with the token decimals, e.g. 1000000 -> "1.000000".
func (sc *Stablecoin) FormatAmount(amount int64) string {
	return decimal.New(amount, -sc.Config.Decimals).StringFixed(sc.Config.Decimals)
}

func (sc *Stablecoin) BalanceOf(ctx context.Context, holder string) (int64, error) {
	return sc.Store.TokenBalance(ctx, sc.Config.Address, holder)
}

func (sc *Stablecoin) Allowance(ctx context.Context, owner, spender string) (int64, error) {
	return sc.Store.TokenAllowance(ctx, sc.Config.Address, owner, spender)
}

func (sc *Stablecoin) Approve(ctx context.Context, owner, spender string, amount int64) error {
	if common.IsNullAddress(owner) {
		return ErrInvalidSender
	}
	if common.IsNullAddress(spender) {
		return ErrInvalidSpender
	}
	if amount < 0 {
		return ErrInvalidAmount
	}
	return sc.Store.SetTokenAllowance(ctx, sc.Config.Address, owner, spender, amount)
}

func (sc *Stablecoin) Transfer(ctx context.Context, from, to string, amount int64) error {
	return sc.Tx(ctx, func(ctx context.Context) error {
		return sc.move(ctx, from, to, amount)
	})
}

func (sc *Stablecoin) TransferFrom(ctx context.Context, spender, from, to string, amount int64) error {
	return sc.Tx(ctx, func(ctx context.Context) error {
		allowance, err := sc.Store.TokenAllowance(ctx, sc.Config.Address, from, spender)
		if err != nil {
			return err
		}
		if allowance < amount {
			return fmt.Errorf("%w: allowance %d, needed %d", ErrInsufficientAllowance, allowance, amount)
		}
		if allowance != MaxAllowance {
			err = sc.Store.SetTokenAllowance(ctx, sc.Config.Address, from, spender, allowance-amount)
			if err != nil {
				return err
			}
		}
		return sc.move(ctx, from, to, amount)
	})
}

// Mint creates new tokens. Only the token owner may mint.
func (sc *Stablecoin) Mint(ctx context.Context, caller, to string, amount int64) error {
	if !common.SameAddress(caller, sc.Config.Owner) {
		return ErrUnauthorizedMinter
	}
	return sc.Tx(ctx, func(ctx context.Context) error {
		return sc.mint(ctx, to, amount)
	})
}

// Faucet grants FaucetAmount to holder once per FaucetCooldown.
func (sc *Stablecoin) Faucet(ctx context.Context, holder string) (int64, error) {
	err := sc.Tx(ctx, func(ctx context.Context) error {
		// the token row lock serializes claims of the same holder
		if _, err := sc.Store.LoadToken(ctx, sc.Config.Address); err != nil {
			return err
		}
		lastClaim, claimed, err := sc.Store.LastFaucetClaim(ctx, sc.Config.Address, holder)
		if err != nil {
			return err
		}
		now := sc.Clock()
		if claimed && now.Before(lastClaim.Add(sc.Config.FaucetCooldown)) {
			return fmt.Errorf("%w: next claim at %s", ErrFaucetCooldownActive, lastClaim.Add(sc.Config.FaucetCooldown).Format(time.RFC3339))
		}
		if err := sc.mint(ctx, holder, sc.Config.FaucetAmount); err != nil {
			return err
		}
		return sc.Store.SetFaucetClaim(ctx, sc.Config.Address, holder, now)
	})
	if err != nil {
		return 0, err
	}
	return sc.Config.FaucetAmount, nil
}

func (sc *Stablecoin) mint(ctx context.Context, to string, amount int64) error {
	if common.IsNullAddress(to) {
		return ErrInvalidReceiver
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	token, err := sc.Store.LoadToken(ctx, sc.Config.Address)
	if err != nil {
		return err
	}
	if token.TotalSupply > math.MaxInt64-amount {
		return fmt.Errorf("%w: total supply overflow", ErrInvalidAmount)
	}
	balance, err := sc.Store.TokenBalance(ctx, sc.Config.Address, to)
	if err != nil {
		return err
	}
	token.TotalSupply += amount
	if err := sc.Store.SaveToken(ctx, token); err != nil {
		return err
	}
	return sc.Store.SetTokenBalance(ctx, sc.Config.Address, to, balance+amount)
}

func (sc *Stablecoin) move(ctx context.Context, from, to string, amount int64) error {
	if common.IsNullAddress(from) {
		return ErrInvalidSender
	}
	if common.IsNullAddress(to) {
		return ErrInvalidReceiver
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	// lock both holders in address order so opposite transfers cannot deadlock
	first, second := from, to
	if second < first {
		first, second = second, first
	}
	for _, holder := range []string{first, second} {
		if _, err := sc.Store.TokenBalance(ctx, sc.Config.Address, holder); err != nil {
			return err
		}
	}
	fromBalance, err := sc.Store.TokenBalance(ctx, sc.Config.Address, from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return fmt.Errorf("%w: balance %d, needed %d", ErrInsufficientBalance, fromBalance, amount)
	}
	if err := sc.Store.SetTokenBalance(ctx, sc.Config.Address, from, fromBalance-amount); err != nil {
		return err
	}
	toBalance, err := sc.Store.TokenBalance(ctx, sc.Config.Address, to)
	if err != nil {
		return err
	}
	return sc.Store.SetTokenBalance(ctx, sc.Config.Address, to, toBalance+amount)
}

var _ Token = (*Stablecoin)(nil)
