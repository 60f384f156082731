package v2controllers

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/tuitionpay/escrowhub/lib/responses"
	"github.com/tuitionpay/escrowhub/lib/service"
	"github.com/tuitionpay/escrowhub/lib/token"
)

var ledgerErrors = []struct {
	err      error
	response responses.ErrorResponse
}{
	{service.ErrInvalidAddress, responses.InvalidAddressError},
	{service.ErrInvalidAmount, responses.InvalidAmountError},
	{service.ErrPaymentNotFound, responses.PaymentNotFoundError},
	{service.ErrPaymentAlreadyProcessed, responses.PaymentAlreadyProcessedError},
	{service.ErrPaymentNotDeposited, responses.PaymentNotDepositedError},
	{service.ErrUnauthorizedAccess, responses.UnauthorizedAccessError},
	{service.ErrOwnableUnauthorizedAccount, responses.NotAdministratorError},
	{service.ErrOwnableInvalidOwner, responses.InvalidAdministratorError},
	{service.ErrInsufficientBalance, responses.NotEnoughBalanceError},
	{service.ErrTransferFailed, responses.TransferFailedError},
	{service.ErrEnforcedPause, responses.LedgerPausedError},
	{service.ErrExpectedPause, responses.LedgerNotPausedError},
	{service.ErrReentrantCall, responses.ReentrantCallError},
	{token.ErrFaucetCooldownActive, responses.FaucetCooldownError},
	{token.ErrUnauthorizedMinter, responses.NotTokenOwnerError},
	{token.ErrInsufficientBalance, responses.NotEnoughBalanceError},
	{token.ErrInsufficientAllowance, responses.NotEnoughBalanceError},
	{token.ErrInvalidReceiver, responses.InvalidAddressError},
	{token.ErrInvalidSender, responses.InvalidAddressError},
	{token.ErrInvalidSpender, responses.InvalidAddressError},
	{token.ErrInvalidAmount, responses.InvalidAmountError},
}

// ledgerError answers with the error response of a known ledger or token
// error. Anything else is left to the echo error handler.
func ledgerError(c echo.Context, err error) error {
	for _, known := range ledgerErrors {
		if errors.Is(err, known.err) {
			c.Logger().Infof("Rejected %s %s: %v", c.Request().Method, c.Path(), err)
			return c.JSON(known.response.HttpStatusCode, known.response)
		}
	}
	return err
}

func callerAddress(c echo.Context) string {
	address, _ := c.Get("Address").(string)
	return address
}
