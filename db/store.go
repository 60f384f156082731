package db

import (
	"context"
	"fmt"

	"github.com/tuitionpay/escrowhub/db/migrations"
	"github.com/tuitionpay/escrowhub/lib/service"
	"github.com/tuitionpay/escrowhub/lib/store"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// OpenStore returns the ledger store selected by DATABASE_URI. A postgres
// database is migrated before use; the returned *bun.DB is nil for memory://.
func OpenStore(ctx context.Context, config *service.Config) (store.Store, *bun.DB, error) {
	if config.UsesMemoryStore() {
		return store.NewMemoryStore(), nil, nil
	}

	dbConn, err := Open(config)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing db connection: %w", err)
	}
	if err := Migrate(ctx, dbConn); err != nil {
		dbConn.Close()
		return nil, nil, err
	}
	return store.NewPostgresStore(dbConn), dbConn, nil
}

func Migrate(ctx context.Context, dbConn *bun.DB) error {
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("initializing db migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}
