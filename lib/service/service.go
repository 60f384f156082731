package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/db/models"
	"github.com/tuitionpay/escrowhub/lib/store"
	"github.com/tuitionpay/escrowhub/lib/token"
	"github.com/ziflex/lecho/v3"
)

// EscrowService is the escrow ledger. It holds custody of Token on behalf of
// payers until the administrator releases or refunds each payment.
type EscrowService struct {
	Config      *Config
	Store       store.Store
	Token       token.Token
	Logger      *lecho.Logger
	EventPubSub *Pubsub
	Clock       func() time.Time

	// tokens that can be recovered with EmergencyWithdraw, keyed by address
	tokens map[string]token.Token

	// serializes state-changing operations
	mu sync.Mutex
	// set while an operation waits on an external token call
	interacting atomic.Bool
}

func NewEscrowService(c *Config, s store.Store, escrowToken token.Token, logger *lecho.Logger) *EscrowService {
	if logger == nil {
		logger = lecho.New(io.Discard, lecho.WithLevel(log.OFF))
	}
	svc := &EscrowService{
		Config:      c,
		Store:       s,
		Token:       escrowToken,
		Logger:      logger,
		EventPubSub: NewPubsub(),
		Clock:       time.Now,
		tokens:      map[string]token.Token{},
	}
	svc.RegisterToken(escrowToken)
	return svc
}

// RegisterToken makes a token recoverable through EmergencyWithdraw.
func (svc *EscrowService) RegisterToken(t token.Token) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.tokens[t.Address()] = t
}

func (svc *EscrowService) tokenByAddress(address string) (token.Token, bool) {
	t, ok := svc.tokens[address]
	return t, ok
}

// Bootstrap creates the ledger state on first start. An existing ledger keeps
// its administrator, which may have been transferred since.
func (svc *EscrowService) Bootstrap(ctx context.Context) error {
	admin, ok := common.NormalizeAddress(svc.Config.AdminAddress)
	if !ok || admin == common.NullAddress {
		return fmt.Errorf("%w: %q", ErrOwnableInvalidOwner, svc.Config.AdminAddress)
	}
	custody, ok := common.NormalizeAddress(svc.Config.CustodyAddress)
	if !ok || custody == common.NullAddress {
		return fmt.Errorf("%w: custody address %q", ErrInvalidAddress, svc.Config.CustodyAddress)
	}

	return svc.Store.RunInTx(ctx, func(ctx context.Context) error {
		state, err := svc.Store.LoadLedgerState(ctx)
		switch {
		case err == nil:
			if state.TokenAddress != svc.Token.Address() || state.CustodyAddress != custody {
				return fmt.Errorf("ledger is bound to token %s with custody %s", state.TokenAddress, state.CustodyAddress)
			}
			svc.Logger.Infof("Ledger loaded: next payment id %d, administrator %s, paused %t", state.NextPaymentID, state.Administrator, state.Paused)
			return nil
		case errors.Is(err, store.ErrNotFound):
			state = &models.LedgerState{
				Administrator:  admin,
				TokenAddress:   svc.Token.Address(),
				CustodyAddress: custody,
			}
			if err := svc.Store.SaveLedgerState(ctx, state); err != nil {
				return fmt.Errorf("create ledger state: %w", err)
			}
			svc.Logger.Infof("Ledger created: administrator %s, token %s, custody %s", admin, state.TokenAddress, custody)
			return nil
		default:
			return fmt.Errorf("load ledger state: %w", err)
		}
	})
}

func (svc *EscrowService) loadState(ctx context.Context) (*models.LedgerState, error) {
	state, err := svc.Store.LoadLedgerState(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrLedgerNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger state: %w", err)
	}
	return state, nil
}
