package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Token : Metadata of a token ledger hosted by this service
type Token struct {
	bun.BaseModel `bun:"table:tokens"`

	Address     string    `bun:",pk"`
	Name        string    `bun:",notnull"`
	Symbol      string    `bun:",notnull"`
	Decimals    int32     `bun:",notnull"`
	Owner       string    `bun:",notnull"`
	TotalSupply int64     `bun:",notnull"`
	CreatedAt   time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// TokenBalance : Holder balance of a token in base units
type TokenBalance struct {
	bun.BaseModel `bun:"table:token_balances"`

	Token   string `bun:",pk"`
	Holder  string `bun:",pk"`
	Balance int64  `bun:",notnull"`
}

// TokenAllowance : Amount a spender may move on behalf of an owner
type TokenAllowance struct {
	bun.BaseModel `bun:"table:token_allowances"`

	Token   string `bun:",pk"`
	Owner   string `bun:",pk"`
	Spender string `bun:",pk"`
	Amount  int64  `bun:",notnull"`
}

// TokenFaucetClaim : Last faucet claim of a holder
type TokenFaucetClaim struct {
	bun.BaseModel `bun:"table:token_faucet_claims"`

	Token     string    `bun:",pk"`
	Holder    string    `bun:",pk"`
	ClaimedAt time.Time `bun:",notnull"`
}
