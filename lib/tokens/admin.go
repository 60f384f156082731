package tokens

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/lib/responses"
)

// AdministratorMiddleware only lets the current ledger administrator through.
// It must run after Middleware.
func AdministratorMiddleware(administrator func(ctx context.Context) (string, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, _ := c.Get("Address").(string)
			admin, err := administrator(c.Request().Context())
			if err != nil {
				c.Logger().Errorf("Failed to load administrator: %v", err)
				return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
			}
			if caller == "" || !common.SameAddress(caller, admin) {
				return c.JSON(http.StatusForbidden, responses.NotAdministratorError)
			}
			return next(c)
		}
	}
}
