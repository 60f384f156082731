package models

import (
	"time"

	"github.com/uptrace/bun"
)

// LedgerEvent : Append-only record of a ledger state change.
// Fields that do not apply to an event type stay empty.
type LedgerEvent struct {
	bun.BaseModel `bun:"table:ledger_events"`

	ID         int64     `json:"-" bun:",pk,autoincrement"`
	UUID       string    `json:"uuid" bun:",notnull,unique"`
	Type       string    `json:"type" bun:",notnull"`
	PaymentID  *int64    `json:"payment_id,omitempty" bun:",nullzero"`
	Payer      string    `json:"payer,omitempty" bun:",nullzero"`
	University string    `json:"university,omitempty" bun:",nullzero"`
	Amount     int64     `json:"amount,omitempty" bun:",nullzero"`
	InvoiceRef string    `json:"invoice_ref,omitempty" bun:",nullzero"`
	Token      string    `json:"token,omitempty" bun:",nullzero"`
	Account    string    `json:"account,omitempty" bun:",nullzero"`
	Previous   string    `json:"previous_account,omitempty" bun:",nullzero"`
	CreatedAt  time.Time `json:"created_at" bun:",notnull"`
}
