package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tuitionpay/escrowhub/db/models"
	"github.com/uptrace/bun"
)

type postgresTxKey struct{}

// PostgresStore persists the ledger with bun.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(postgresTxKey{}).(bun.Tx); ok {
		return fn(ctx)
	}
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, postgresTxKey{}, tx))
	})
}

func (s *PostgresStore) conn(ctx context.Context) bun.IDB {
	if tx, ok := ctx.Value(postgresTxKey{}).(bun.Tx); ok {
		return tx
	}
	return s.db
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(postgresTxKey{}).(bun.Tx)
	return ok
}

// forUpdate locks the selected rows for the rest of the surrounding transaction.
func forUpdate(ctx context.Context, query *bun.SelectQuery) *bun.SelectQuery {
	if inTx(ctx) {
		return query.For("UPDATE")
	}
	return query
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) LoadLedgerState(ctx context.Context) (*models.LedgerState, error) {
	state := &models.LedgerState{}
	query := forUpdate(ctx, s.conn(ctx).NewSelect().Model(state).OrderExpr("id ASC").Limit(1))
	if err := query.Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return state, nil
}

func (s *PostgresStore) SaveLedgerState(ctx context.Context, state *models.LedgerState) error {
	if state.ID == 0 {
		_, err := s.conn(ctx).NewInsert().Model(state).Returning("id, created_at").Exec(ctx)
		return err
	}
	_, err := s.conn(ctx).NewUpdate().Model(state).WherePK().Exec(ctx)
	return err
}

func (s *PostgresStore) InsertPayment(ctx context.Context, payment *models.Payment) error {
	_, err := s.conn(ctx).NewInsert().Model(payment).Exec(ctx)
	return err
}

func (s *PostgresStore) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	result, err := s.conn(ctx).NewUpdate().Model(payment).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindPayment(ctx context.Context, id int64) (*models.Payment, error) {
	payment := &models.Payment{}
	err := s.conn(ctx).NewSelect().Model(payment).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return payment, nil
}

func (s *PostgresStore) paymentIDs(ctx context.Context, column, address string) ([]int64, error) {
	ids := []int64{}
	err := s.conn(ctx).NewSelect().
		Model((*models.Payment)(nil)).
		Column("id").
		Where("? = ?", bun.Ident(column), address).
		OrderExpr("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *PostgresStore) PaymentIDsByPayer(ctx context.Context, payer string) ([]int64, error) {
	return s.paymentIDs(ctx, "payer", payer)
}

func (s *PostgresStore) PaymentIDsByUniversity(ctx context.Context, university string) ([]int64, error) {
	return s.paymentIDs(ctx, "university", university)
}

func (s *PostgresStore) SumByStatus(ctx context.Context) (map[string]StatusTotal, error) {
	var rows []struct {
		Status string `bun:"status"`
		StatusTotal
	}
	err := s.conn(ctx).NewSelect().
		Model((*models.Payment)(nil)).
		Column("status").
		ColumnExpr("count(*) AS count").
		ColumnExpr("coalesce(sum(amount), 0)::bigint AS amount").
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]StatusTotal, len(rows))
	for _, row := range rows {
		totals[row.Status] = row.StatusTotal
	}
	return totals, nil
}

func (s *PostgresStore) InsertEvent(ctx context.Context, event *models.LedgerEvent) error {
	_, err := s.conn(ctx).NewInsert().Model(event).Returning("id").Exec(ctx)
	return err
}

func (s *PostgresStore) EventsForPayment(ctx context.Context, paymentID int64) ([]models.LedgerEvent, error) {
	events := []models.LedgerEvent{}
	err := s.conn(ctx).NewSelect().
		Model(&events).
		Where("payment_id = ?", paymentID).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *PostgresStore) EventsAfter(ctx context.Context, afterID int64, limit int) ([]models.LedgerEvent, error) {
	events := []models.LedgerEvent{}
	err := s.conn(ctx).NewSelect().
		Model(&events).
		Where("id > ?", afterID).
		OrderExpr("id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *PostgresStore) LastEventID(ctx context.Context) (int64, error) {
	var id int64
	err := s.conn(ctx).NewSelect().
		Model((*models.LedgerEvent)(nil)).
		ColumnExpr("coalesce(max(id), 0)").
		Scan(ctx, &id)
	return id, err
}

func (s *PostgresStore) LoadToken(ctx context.Context, address string) (*models.Token, error) {
	token := &models.Token{}
	err := forUpdate(ctx, s.conn(ctx).NewSelect().Model(token).Where("address = ?", address).Limit(1)).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return token, nil
}

func (s *PostgresStore) SaveToken(ctx context.Context, token *models.Token) error {
	_, err := s.conn(ctx).NewInsert().
		Model(token).
		On("CONFLICT (address) DO UPDATE").
		Set("owner = EXCLUDED.owner").
		Set("total_supply = EXCLUDED.total_supply").
		Exec(ctx)
	return err
}

// TokenBalance reads a holder balance. Inside a transaction the balance row
// is created if missing and locked, so concurrent read-modify-write cycles on
// the same holder run one after another.
func (s *PostgresStore) TokenBalance(ctx context.Context, token, holder string) (int64, error) {
	if inTx(ctx) {
		_, err := s.conn(ctx).NewInsert().
			Model(&models.TokenBalance{Token: token, Holder: holder}).
			On("CONFLICT (token, holder) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return 0, err
		}
	}
	balance := &models.TokenBalance{}
	query := s.conn(ctx).NewSelect().
		Model(balance).
		Where("token = ? AND holder = ?", token, holder).
		Limit(1)
	err := forUpdate(ctx, query).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance.Balance, nil
}

func (s *PostgresStore) SetTokenBalance(ctx context.Context, token, holder string, amount int64) error {
	_, err := s.conn(ctx).NewInsert().
		Model(&models.TokenBalance{Token: token, Holder: holder, Balance: amount}).
		On("CONFLICT (token, holder) DO UPDATE").
		Set("balance = EXCLUDED.balance").
		Exec(ctx)
	return err
}

func (s *PostgresStore) TokenAllowance(ctx context.Context, token, owner, spender string) (int64, error) {
	allowance := &models.TokenAllowance{}
	query := s.conn(ctx).NewSelect().
		Model(allowance).
		Where("token = ? AND owner = ? AND spender = ?", token, owner, spender).
		Limit(1)
	err := forUpdate(ctx, query).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return allowance.Amount, nil
}

func (s *PostgresStore) SetTokenAllowance(ctx context.Context, token, owner, spender string, amount int64) error {
	_, err := s.conn(ctx).NewInsert().
		Model(&models.TokenAllowance{Token: token, Owner: owner, Spender: spender, Amount: amount}).
		On("CONFLICT (token, owner, spender) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Exec(ctx)
	return err
}

func (s *PostgresStore) LastFaucetClaim(ctx context.Context, token, holder string) (time.Time, bool, error) {
	claim := &models.TokenFaucetClaim{}
	query := s.conn(ctx).NewSelect().
		Model(claim).
		Where("token = ? AND holder = ?", token, holder).
		Limit(1)
	err := forUpdate(ctx, query).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return claim.ClaimedAt, true, nil
}

func (s *PostgresStore) SetFaucetClaim(ctx context.Context, token, holder string, claimedAt time.Time) error {
	_, err := s.conn(ctx).NewInsert().
		Model(&models.TokenFaucetClaim{Token: token, Holder: holder, ClaimedAt: claimedAt}).
		On("CONFLICT (token, holder) DO UPDATE").
		Set("claimed_at = EXCLUDED.claimed_at").
		Exec(ctx)
	return err
}

var _ Store = (*PostgresStore)(nil)
