package v2controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tuitionpay/escrowhub/lib/responses"
	"github.com/tuitionpay/escrowhub/lib/service"
)

// LedgerController : Ledger state and administration controller struct
type LedgerController struct {
	svc    *service.EscrowService
	amount AmountFormatter
}

func NewLedgerController(svc *service.EscrowService, amount AmountFormatter) *LedgerController {
	return &LedgerController{svc: svc, amount: amount}
}

type LedgerResponseBody struct {
	service.LedgerOverview
	ContractBalanceDisplay string `json:"contract_balance_display"`
}

type EmergencyWithdrawRequestBody struct {
	Token  string `json:"token" validate:"required,eth_addr"`
	Amount int64  `json:"amount"`
}

type TransferAdministratorRequestBody struct {
	Address string `json:"address" validate:"required,eth_addr"`
}

type AdministratorResponseBody struct {
	Administrator string `json:"administrator"`
}

type PausedResponseBody struct {
	Paused bool `json:"paused"`
}

// Overview godoc
// @Summary      Retrieve the ledger state
// @Description  Returns the next payment id, the custody balance, the pause flag and the administrator
// @Produce      json
// @Tags         Ledger
// @Success      200  {object}  LedgerResponseBody
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/ledger [get]
// @Security     OAuth2Password
func (controller *LedgerController) Overview(c echo.Context) error {
	overview, err := controller.svc.Overview(c.Request().Context())
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, &LedgerResponseBody{
		LedgerOverview:         *overview,
		ContractBalanceDisplay: controller.amount.FormatAmount(overview.ContractBalance),
	})
}

// CustodyReport godoc
// @Summary      Compare custody with deposited payments
// @Description  Administrator only
// @Produce      json
// @Tags         Admin
// @Success      200  {object}  service.CustodyReport
// @Failure      403  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/admin/custody [get]
// @Security     OAuth2Password
func (controller *LedgerController) CustodyReport(c echo.Context) error {
	report, err := controller.svc.AuditCustody(c.Request().Context())
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// Pause godoc
// @Summary      Pause the ledger
// @Description  Blocks new payments and deposits. Release and refund keep working.
// @Produce      json
// @Tags         Admin
// @Success      200  {object}  PausedResponseBody
// @Failure      403  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /v2/admin/pause [post]
// @Security     OAuth2Password
func (controller *LedgerController) Pause(c echo.Context) error {
	if err := controller.svc.Pause(c.Request().Context(), callerAddress(c)); err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, &PausedResponseBody{Paused: true})
}

// Unpause godoc
// @Summary      Unpause the ledger
// @Produce      json
// @Tags         Admin
// @Success      200  {object}  PausedResponseBody
// @Failure      403  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /v2/admin/unpause [post]
// @Security     OAuth2Password
func (controller *LedgerController) Unpause(c echo.Context) error {
	if err := controller.svc.Unpause(c.Request().Context(), callerAddress(c)); err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, &PausedResponseBody{Paused: false})
}

// EmergencyWithdraw godoc
// @Summary      Withdraw tokens from custody
// @Description  Moves tokens out of custody to the administrator. This can leave deposited payments unbacked.
// @Accept       json
// @Produce      json
// @Tags         Admin
// @Param        withdrawal  body      EmergencyWithdrawRequestBody  True  "Withdrawal"
// @Success      200         {object}  service.CustodyReport
// @Failure      400         {object}  responses.ErrorResponse
// @Failure      403         {object}  responses.ErrorResponse
// @Failure      502         {object}  responses.ErrorResponse
// @Router       /v2/admin/emergency-withdraw [post]
// @Security     OAuth2Password
func (controller *LedgerController) EmergencyWithdraw(c echo.Context) error {
	var body EmergencyWithdrawRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load emergency withdraw request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid emergency withdraw request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	ctx := c.Request().Context()
	if err := controller.svc.EmergencyWithdraw(ctx, callerAddress(c), body.Token, body.Amount); err != nil {
		return ledgerError(c, err)
	}
	report, err := controller.svc.CustodyReport(ctx)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// TransferAdministrator godoc
// @Summary      Hand the administrator role to another address
// @Accept       json
// @Produce      json
// @Tags         Admin
// @Param        administrator  body      TransferAdministratorRequestBody  True  "New administrator"
// @Success      200            {object}  AdministratorResponseBody
// @Failure      400            {object}  responses.ErrorResponse
// @Failure      403            {object}  responses.ErrorResponse
// @Router       /v2/admin/administrator [put]
// @Security     OAuth2Password
func (controller *LedgerController) TransferAdministrator(c echo.Context) error {
	var body TransferAdministratorRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load administrator request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid administrator request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	ctx := c.Request().Context()
	if err := controller.svc.TransferAdministrator(ctx, callerAddress(c), body.Address); err != nil {
		return ledgerError(c, err)
	}
	administrator, err := controller.svc.Administrator(ctx)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, &AdministratorResponseBody{Administrator: administrator})
}
