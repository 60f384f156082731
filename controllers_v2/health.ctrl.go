package v2controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// LedgerProbe reads the ledger state through the store.
type LedgerProbe interface {
	Paused(ctx context.Context) (bool, error)
	GetCurrentPaymentID(ctx context.Context) (int64, error)
}

type HealthController struct {
	ledger LedgerProbe
}

func NewHealthController(ledger LedgerProbe) *HealthController {
	return &HealthController{ledger: ledger}
}

type HealthResponse struct {
	Result           string `json:"result"`
	Paused           bool   `json:"paused"`
	CurrentPaymentID int64  `json:"current_payment_id"`
}

// Health godoc
// @Summary      Check system health
// @Description  Reports whether the ledger state can be read from the store
// @Accept       json
// @Produce      json
// @Tags         Health
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /v2/health [get]
func (controller *HealthController) Check(c echo.Context) error {
	ctx := c.Request().Context()
	paused, err := controller.ledger.Paused(ctx)
	if err == nil {
		var next int64
		next, err = controller.ledger.GetCurrentPaymentID(ctx)
		if err == nil {
			return c.JSON(http.StatusOK, &HealthResponse{
				Result:           "OK",
				Paused:           paused,
				CurrentPaymentID: next,
			})
		}
	}
	c.Logger().Errorf("Health check failed: %v", err)
	return c.JSON(http.StatusServiceUnavailable, &HealthResponse{Result: "UNAVAILABLE"})
}
