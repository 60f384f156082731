package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {

		if db.Dialect().Name().String() != "pg" {
			fmt.Printf("\033[1;31m%s\033[0m", "You are not using PostgreSQL. DB level checks can not be enabled!\n")
			return nil
		}
		sql := `
			-- amounts are stored in base units and must be positive
				ALTER TABLE payments
				ADD CONSTRAINT check_payment_amount_positive
				CHECK (amount > 0);

				ALTER TABLE payments
				ADD CONSTRAINT check_payment_status
				CHECK (status IN ('INITIALIZED', 'DEPOSITED', 'RELEASED', 'REFUNDED'));

			-- token balances and allowances can never go negative
				ALTER TABLE token_balances
				ADD CONSTRAINT check_token_balance_not_negative
				CHECK (balance >= 0);

				ALTER TABLE token_allowances
				ADD CONSTRAINT check_token_allowance_not_negative
				CHECK (amount >= 0);

			-- payments only move forward through the escrow state machine
			-- and the identifying fields never change after creation
				CREATE OR REPLACE FUNCTION check_payment_transition()
					RETURNS TRIGGER AS $$
				BEGIN
					IF NEW.payer <> OLD.payer
						OR NEW.university <> OLD.university
						OR NEW.amount <> OLD.amount
						OR NEW.invoice_ref <> OLD.invoice_ref
						OR NEW.created_at <> OLD.created_at
					THEN
						RAISE EXCEPTION 'immutable payment field changed [payment_id:%]', OLD.id;
					END IF;

					IF NEW.status = OLD.status
						OR (OLD.status = 'INITIALIZED' AND NEW.status = 'DEPOSITED')
						OR (OLD.status = 'DEPOSITED' AND NEW.status IN ('RELEASED', 'REFUNDED'))
					THEN
						RETURN NEW;
					END IF;

					RAISE EXCEPTION 'invalid payment transition [payment_id:%] [from:%] [to:%]',
					OLD.id,
					OLD.status,
					NEW.status;
				END;
				$$ LANGUAGE plpgsql;

				DROP TRIGGER IF EXISTS check_payment_transition ON payments;

				CREATE TRIGGER check_payment_transition
				BEFORE UPDATE ON payments
				FOR EACH ROW EXECUTE PROCEDURE check_payment_transition();
		`
		if _, err := db.Exec(sql); err != nil {
			return err
		}
		return nil
	}, nil)
}
