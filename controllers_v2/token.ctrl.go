package v2controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tuitionpay/escrowhub/common"
	"github.com/tuitionpay/escrowhub/lib/responses"
	"github.com/tuitionpay/escrowhub/lib/token"
)

// TokenController : Mock stablecoin controller struct
type TokenController struct {
	coin    *token.Stablecoin
	custody string
}

func NewTokenController(coin *token.Stablecoin, custody string) *TokenController {
	custody, _ = common.NormalizeAddress(custody)
	return &TokenController{coin: coin, custody: custody}
}

type TokenBalanceResponseBody struct {
	Address          string `json:"address"`
	Balance          int64  `json:"balance"`
	BalanceDisplay   string `json:"balance_display"`
	Allowance        int64  `json:"allowance"`
	AllowanceDisplay string `json:"allowance_display"`
}

type ApproveRequestBody struct {
	Spender string `json:"spender" validate:"required,eth_addr"`
	Amount  int64  `json:"amount"`
}

type ApproveResponseBody struct {
	Spender   string `json:"spender"`
	Allowance int64  `json:"allowance"`
}

type TokenTransferRequestBody struct {
	To     string `json:"to" validate:"required,eth_addr"`
	Amount int64  `json:"amount"`
}

type TokenTransferResponseBody struct {
	To            string `json:"to"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
}

// Metadata godoc
// @Summary      Retrieve the stablecoin metadata
// @Produce      json
// @Tags         Token
// @Success      200  {object}  token.Metadata
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/token [get]
func (controller *TokenController) Metadata(c echo.Context) error {
	metadata, err := controller.coin.Metadata(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, metadata)
}

// Balance godoc
// @Summary      Retrieve the caller's stablecoin balance
// @Description  Returns the balance and the allowance granted to the escrow custody
// @Produce      json
// @Tags         Token
// @Success      200  {object}  TokenBalanceResponseBody
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/token/balance [get]
// @Security     OAuth2Password
func (controller *TokenController) Balance(c echo.Context) error {
	ctx := c.Request().Context()
	address := callerAddress(c)
	balance, err := controller.coin.BalanceOf(ctx, address)
	if err != nil {
		return err
	}
	allowance, err := controller.coin.Allowance(ctx, address, controller.custody)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &TokenBalanceResponseBody{
		Address:          address,
		Balance:          balance,
		BalanceDisplay:   controller.coin.FormatAmount(balance),
		Allowance:        allowance,
		AllowanceDisplay: controller.coin.FormatAmount(allowance),
	})
}

// Approve godoc
// @Summary      Set an allowance
// @Description  Lets spender move up to amount of the caller's tokens. Approve the escrow custody before depositing.
// @Accept       json
// @Produce      json
// @Tags         Token
// @Param        approval  body      ApproveRequestBody  True  "Approval"
// @Success      200       {object}  ApproveResponseBody
// @Failure      400       {object}  responses.ErrorResponse
// @Router       /v2/token/approve [post]
// @Security     OAuth2Password
func (controller *TokenController) Approve(c echo.Context) error {
	var body ApproveRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load approve request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid approve request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	body.Spender, _ = common.NormalizeAddress(body.Spender)
	ctx := c.Request().Context()
	owner := callerAddress(c)
	if err := controller.coin.Approve(ctx, owner, body.Spender, body.Amount); err != nil {
		return ledgerError(c, err)
	}
	allowance, err := controller.coin.Allowance(ctx, owner, body.Spender)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &ApproveResponseBody{Spender: body.Spender, Allowance: allowance})
}

// Transfer godoc
// @Summary      Transfer stablecoins
// @Accept       json
// @Produce      json
// @Tags         Token
// @Param        transfer  body      TokenTransferRequestBody  True  "Transfer"
// @Success      200       {object}  TokenTransferResponseBody
// @Failure      400       {object}  responses.ErrorResponse
// @Router       /v2/token/transfer [post]
// @Security     OAuth2Password
func (controller *TokenController) Transfer(c echo.Context) error {
	var body TokenTransferRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load transfer request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid transfer request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	body.To, _ = common.NormalizeAddress(body.To)
	if err := controller.coin.Transfer(c.Request().Context(), callerAddress(c), body.To, body.Amount); err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, &TokenTransferResponseBody{
		To:            body.To,
		Amount:        body.Amount,
		AmountDisplay: controller.coin.FormatAmount(body.Amount),
	})
}

// Faucet godoc
// @Summary      Claim test stablecoins
// @Description  Mints the faucet amount to the caller. One claim per cooldown period.
// @Produce      json
// @Tags         Token
// @Success      200  {object}  TokenTransferResponseBody
// @Failure      429  {object}  responses.ErrorResponse
// @Router       /v2/token/faucet [post]
// @Security     OAuth2Password
func (controller *TokenController) Faucet(c echo.Context) error {
	address := callerAddress(c)
	amount, err := controller.coin.Faucet(c.Request().Context(), address)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, &TokenTransferResponseBody{
		To:            address,
		Amount:        amount,
		AmountDisplay: controller.coin.FormatAmount(amount),
	})
}

// Mint godoc
// @Summary      Mint stablecoins
// @Description  Token owner only
// @Accept       json
// @Produce      json
// @Tags         Token
// @Param        mint  body      TokenTransferRequestBody  True  "Mint"
// @Success      200   {object}  TokenTransferResponseBody
// @Failure      400   {object}  responses.ErrorResponse
// @Failure      403   {object}  responses.ErrorResponse
// @Router       /v2/token/mint [post]
// @Security     OAuth2Password
func (controller *TokenController) Mint(c echo.Context) error {
	var body TokenTransferRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load mint request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid mint request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	body.To, _ = common.NormalizeAddress(body.To)
	if err := controller.coin.Mint(c.Request().Context(), callerAddress(c), body.To, body.Amount); err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, &TokenTransferResponseBody{
		To:            body.To,
		Amount:        body.Amount,
		AmountDisplay: controller.coin.FormatAmount(body.Amount),
	})
}
