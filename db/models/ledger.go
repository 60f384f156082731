package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// LedgerState : Aggregate state of the escrow ledger, a single row per database
type LedgerState struct {
	bun.BaseModel `bun:"table:ledger_states"`

	ID             int64        `bun:",pk,autoincrement"`
	NextPaymentID  int64        `bun:",notnull"`
	Paused         bool         `bun:",notnull"`
	Administrator  string       `bun:",notnull"`
	TokenAddress   string       `bun:",notnull"`
	CustodyAddress string       `bun:",notnull"`
	CreatedAt      time.Time    `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt      bun.NullTime `bun:",nullzero"`
}

func (l *LedgerState) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		l.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*LedgerState)(nil)
