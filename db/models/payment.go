package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Payment : Escrowed tuition payment
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID          int64        `json:"id" bun:",pk"`
	Payer       string       `json:"payer" bun:",notnull"`
	University  string       `json:"university" bun:",notnull"`
	Amount      int64        `json:"amount" bun:",notnull"`
	InvoiceRef  string       `json:"invoice_ref" bun:",notnull"`
	Status      string       `json:"status" bun:",notnull,default:'INITIALIZED'"`
	CreatedAt   time.Time    `json:"created_at" bun:",notnull"`
	DepositedAt bun.NullTime `json:"deposited_at"`
	ResolvedAt  bun.NullTime `json:"resolved_at"`
	UpdatedAt   bun.NullTime `json:"updated_at"`
}

func (p *Payment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		p.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Payment)(nil)
