package responses

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error          bool   `json:"error"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	HttpStatusCode int    `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           6,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var BadAuthError = ErrorResponse{
	Error:          true,
	Code:           1,
	Message:        "bad auth",
	HttpStatusCode: 401,
}

var InvalidAddressError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "invalid address",
	HttpStatusCode: 400,
}

var InvalidAmountError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "invalid amount or empty invoice reference",
	HttpStatusCode: 400,
}

var PaymentNotFoundError = ErrorResponse{
	Error:          true,
	Code:           4,
	Message:        "payment not found",
	HttpStatusCode: 404,
}

var PaymentAlreadyProcessedError = ErrorResponse{
	Error:          true,
	Code:           5,
	Message:        "payment already processed",
	HttpStatusCode: 409,
}

var PaymentNotDepositedError = ErrorResponse{
	Error:          true,
	Code:           7,
	Message:        "payment not deposited",
	HttpStatusCode: 409,
}

var UnauthorizedAccessError = ErrorResponse{
	Error:          true,
	Code:           9,
	Message:        "only the payer of this payment can deposit",
	HttpStatusCode: 403,
}

var NotAdministratorError = ErrorResponse{
	Error:          true,
	Code:           10,
	Message:        "caller is not the administrator",
	HttpStatusCode: 403,
}

var InvalidAdministratorError = ErrorResponse{
	Error:          true,
	Code:           11,
	Message:        "invalid administrator address",
	HttpStatusCode: 400,
}

var NotEnoughBalanceError = ErrorResponse{
	Error:          true,
	Code:           12,
	Message:        "insufficient balance or allowance. approve the escrow for the payment amount and try again",
	HttpStatusCode: 400,
}

var TransferFailedError = ErrorResponse{
	Error:          true,
	Code:           13,
	Message:        "token transfer failed",
	HttpStatusCode: 502,
}

var LedgerPausedError = ErrorResponse{
	Error:          true,
	Code:           14,
	Message:        "ledger is paused",
	HttpStatusCode: 409,
}

var LedgerNotPausedError = ErrorResponse{
	Error:          true,
	Code:           15,
	Message:        "ledger is not paused",
	HttpStatusCode: 409,
}

var ReentrantCallError = ErrorResponse{
	Error:          true,
	Code:           16,
	Message:        "another ledger operation is in progress",
	HttpStatusCode: 409,
}

var FaucetCooldownError = ErrorResponse{
	Error:          true,
	Code:           17,
	Message:        "faucet cooldown active. please try again later",
	HttpStatusCode: 429,
}

var NotTokenOwnerError = ErrorResponse{
	Error:          true,
	Code:           18,
	Message:        "only the token owner can mint",
	HttpStatusCode: 403,
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil && isErrAllowedForSentry(err) {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("Address", c.Get("Address"))
			hub.CaptureException(err)
		})
	}
	if he, ok := err.(*echo.HTTPError); ok {
		c.JSON(he.Code, he.Message)
	} else {
		c.JSON(http.StatusInternalServerError, GeneralServerError)
	}
}

func isErrAllowedForSentry(err error) bool {
	if he, ok := err.(*echo.HTTPError); ok {
		if m, ok := he.Message.(echo.Map); ok {
			if code, ok := m["code"]; ok && code == BadAuthError.Code {
				return false
			}
		}
	}
	return true
}
