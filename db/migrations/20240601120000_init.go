package migrations

import (
	"context"

	"github.com/tuitionpay/escrowhub/db/models"
	"github.com/uptrace/bun"
)

/* Since this init will reflect the latest model fields when run on fresh db
make sure that when you add/remove columns in subsequent migrations IfNotExists/IfExists is used
otherwise it's going to result in errors.
*/
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		tables := []interface{}{
			(*models.LedgerState)(nil),
			(*models.Payment)(nil),
			(*models.LedgerEvent)(nil),
			(*models.Token)(nil),
			(*models.TokenBalance)(nil),
			(*models.TokenAllowance)(nil),
			(*models.TokenFaucetClaim)(nil),
		}
		for _, model := range tables {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	}, nil)
}
