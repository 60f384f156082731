package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/db/migrations"
	"github.com/tuitionpay/escrowhub/db/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

type PostgresStoreTestSuite struct {
	suite.Suite
	db    *bun.DB
	store *PostgresStore
}

func (suite *PostgresStoreTestSuite) SetupSuite() {
	dsn := os.Getenv("DATABASE_URI")
	if !strings.HasPrefix(dsn, "postgres") {
		suite.T().Skip("DATABASE_URI does not point at postgres")
	}
	ctx := context.Background()
	suite.db = bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), pgdialect.New())
	migrator := migrate.NewMigrator(suite.db, migrations.Migrations)
	suite.Require().NoError(migrator.Init(ctx))
	_, err := migrator.Migrate(ctx)
	suite.Require().NoError(err)
	suite.store = NewPostgresStore(suite.db)
}

func (suite *PostgresStoreTestSuite) SetupTest() {
	_, err := suite.db.Exec("TRUNCATE ledger_states, payments, ledger_events, tokens, token_balances, token_allowances, token_faucet_claims")
	suite.Require().NoError(err)
}

func (suite *PostgresStoreTestSuite) TearDownSuite() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *PostgresStoreTestSuite) TestTransactionRollsBack() {
	ctx := context.Background()
	suite.Require().NoError(suite.store.SaveLedgerState(ctx, &models.LedgerState{Administrator: payerAddress}))

	failure := errors.New("boom")
	err := suite.store.RunInTx(ctx, func(ctx context.Context) error {
		state, err := suite.store.LoadLedgerState(ctx)
		if err != nil {
			return err
		}
		state.NextPaymentID = 1
		if err := suite.store.SaveLedgerState(ctx, state); err != nil {
			return err
		}
		if err := suite.store.InsertPayment(ctx, newPayment(0)); err != nil {
			return err
		}
		return failure
	})
	suite.ErrorIs(err, failure)

	state, err := suite.store.LoadLedgerState(ctx)
	suite.Require().NoError(err)
	suite.Equal(int64(0), state.NextPaymentID)
	_, err = suite.store.FindPayment(ctx, 0)
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *PostgresStoreTestSuite) TestPaymentsAndTotals() {
	ctx := context.Background()
	for id := int64(0); id < 3; id++ {
		suite.Require().NoError(suite.store.InsertPayment(ctx, newPayment(id)))
	}
	payment, err := suite.store.FindPayment(ctx, 1)
	suite.Require().NoError(err)
	payment.Status = common.PaymentStatusDeposited
	suite.Require().NoError(suite.store.UpdatePayment(ctx, payment))

	ids, err := suite.store.PaymentIDsByPayer(ctx, payerAddress)
	suite.Require().NoError(err)
	suite.Equal([]int64{0, 1, 2}, ids)

	totals, err := suite.store.SumByStatus(ctx)
	suite.Require().NoError(err)
	suite.Equal(StatusTotal{Count: 1, Amount: 100}, totals[common.PaymentStatusDeposited])
	suite.Equal(StatusTotal{Count: 2, Amount: 200}, totals[common.PaymentStatusInitialized])
}

func (suite *PostgresStoreTestSuite) TestStatusCannotGoBackwards() {
	ctx := context.Background()
	payment := newPayment(0)
	payment.Status = common.PaymentStatusDeposited
	suite.Require().NoError(suite.store.InsertPayment(ctx, payment))

	payment.Status = common.PaymentStatusInitialized
	suite.Error(suite.store.UpdatePayment(ctx, payment))
}

func (suite *PostgresStoreTestSuite) TestBalancesUpsert() {
	ctx := context.Background()
	balance, err := suite.store.TokenBalance(ctx, tokenAddress, payerAddress)
	suite.Require().NoError(err)
	suite.Zero(balance)

	suite.Require().NoError(suite.store.SetTokenBalance(ctx, tokenAddress, payerAddress, 10))
	suite.Require().NoError(suite.store.SetTokenBalance(ctx, tokenAddress, payerAddress, 25))
	balance, err = suite.store.TokenBalance(ctx, tokenAddress, payerAddress)
	suite.Require().NoError(err)
	suite.Equal(int64(25), balance)

	assert.Error(suite.T(), suite.store.SetTokenBalance(ctx, tokenAddress, payerAddress, -1))
}

func (suite *PostgresStoreTestSuite) TestConcurrentBalanceUpdatesAreSerialized() {
	ctx := context.Background()
	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- suite.store.RunInTx(ctx, func(ctx context.Context) error {
				balance, err := suite.store.TokenBalance(ctx, tokenAddress, universityAddress)
				if err != nil {
					return err
				}
				// widen the window between read and write
				time.Sleep(5 * time.Millisecond)
				return suite.store.SetTokenBalance(ctx, tokenAddress, universityAddress, balance+1)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		suite.Require().NoError(err)
	}

	balance, err := suite.store.TokenBalance(ctx, tokenAddress, universityAddress)
	suite.Require().NoError(err)
	suite.Equal(int64(workers), balance)
}

func (suite *PostgresStoreTestSuite) TestConcurrentAllowanceSpendsAreSerialized() {
	ctx := context.Background()
	const workers = 10
	suite.Require().NoError(suite.store.SetTokenAllowance(ctx, tokenAddress, payerAddress, universityAddress, workers))

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- suite.store.RunInTx(ctx, func(ctx context.Context) error {
				allowance, err := suite.store.TokenAllowance(ctx, tokenAddress, payerAddress, universityAddress)
				if err != nil {
					return err
				}
				time.Sleep(5 * time.Millisecond)
				return suite.store.SetTokenAllowance(ctx, tokenAddress, payerAddress, universityAddress, allowance-1)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		suite.Require().NoError(err)
	}

	allowance, err := suite.store.TokenAllowance(ctx, tokenAddress, payerAddress, universityAddress)
	suite.Require().NoError(err)
	suite.Zero(allowance)
}

func (suite *PostgresStoreTestSuite) TestEventsAfterCursor() {
	ctx := context.Background()
	last, err := suite.store.LastEventID(ctx)
	suite.Require().NoError(err)

	for i := 0; i < 3; i++ {
		suite.Require().NoError(suite.store.InsertEvent(ctx, &models.LedgerEvent{
			UUID:      fmt.Sprintf("event-%d", i),
			Type:      common.EventTypePaused,
			Account:   payerAddress,
			CreatedAt: time.Now(),
		}))
	}
	events, err := suite.store.EventsAfter(ctx, last, 2)
	suite.Require().NoError(err)
	suite.Require().Len(events, 2)
	suite.Equal("event-0", events[0].UUID)
	suite.Greater(events[1].ID, events[0].ID)

	events, err = suite.store.EventsAfter(ctx, events[1].ID, 10)
	suite.Require().NoError(err)
	suite.Require().Len(events, 1)
	suite.Equal("event-2", events[0].UUID)
}

func TestPostgresStoreTestSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreTestSuite))
}
