package store

import (
	"context"
	"errors"
	"time"

	"github.com/tuitionpay/escrowhub/db/models"
)

var ErrNotFound = errors.New("store: record not found")

// StatusTotal aggregates the payments of one status.
type StatusTotal struct {
	Count  int64 `json:"count" bun:"count"`
	Amount int64 `json:"amount" bun:"amount"`
}

type PaymentStore interface {
	// LoadLedgerState returns the ledger row, locked for the rest of the
	// surrounding transaction where the backend supports it.
	LoadLedgerState(ctx context.Context) (*models.LedgerState, error)
	SaveLedgerState(ctx context.Context, state *models.LedgerState) error

	InsertPayment(ctx context.Context, payment *models.Payment) error
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	FindPayment(ctx context.Context, id int64) (*models.Payment, error)
	PaymentIDsByPayer(ctx context.Context, payer string) ([]int64, error)
	PaymentIDsByUniversity(ctx context.Context, university string) ([]int64, error)
	SumByStatus(ctx context.Context) (map[string]StatusTotal, error)

	InsertEvent(ctx context.Context, event *models.LedgerEvent) error
	EventsForPayment(ctx context.Context, paymentID int64) ([]models.LedgerEvent, error)
	// EventsAfter returns up to limit committed events with an id above afterID,
	// oldest first. Event ids grow in commit order.
	EventsAfter(ctx context.Context, afterID int64, limit int) ([]models.LedgerEvent, error)
	LastEventID(ctx context.Context) (int64, error)
}

type TokenStore interface {
	LoadToken(ctx context.Context, address string) (*models.Token, error)
	SaveToken(ctx context.Context, token *models.Token) error
	TokenBalance(ctx context.Context, token, holder string) (int64, error)
	SetTokenBalance(ctx context.Context, token, holder string, balance int64) error
	TokenAllowance(ctx context.Context, token, owner, spender string) (int64, error)
	SetTokenAllowance(ctx context.Context, token, owner, spender string, amount int64) error
	LastFaucetClaim(ctx context.Context, token, holder string) (time.Time, bool, error)
	SetFaucetClaim(ctx context.Context, token, holder string, claimedAt time.Time) error
}

// Store is the persistence boundary of the ledger and the token ledgers it hosts.
// RunInTx runs fn in a transaction carried by the context handed to fn;
// store calls made with that context join it, as do nested RunInTx calls.
// The transaction commits when the outermost fn returns nil and rolls back otherwise.
type Store interface {
	PaymentStore
	TokenStore
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
