package transport

import (
	"time"

	"github.com/labstack/echo/v4"
	v2controllers "github.com/tuitionpay/escrowhub/controllers_v2"
	"github.com/tuitionpay/escrowhub/lib/service"
	"github.com/tuitionpay/escrowhub/lib/token"
)

func RegisterV2Endpoints(svc *service.EscrowService, coin *token.Stablecoin, e *echo.Echo, secured *echo.Group, securedWithStrictRateLimit *echo.Group, adminMw echo.MiddlewareFunc) {
	paymentCtrl := v2controllers.NewPaymentController(svc, coin)
	ledgerCtrl := v2controllers.NewLedgerController(svc, coin)
	tokenCtrl := v2controllers.NewTokenController(coin, svc.Config.CustodyAddress)

	e.GET("/v2/health", v2controllers.NewHealthController(svc).Check)
	e.GET("/v2/token", tokenCtrl.Metadata, CreateCacheMiddleware(10*time.Second))

	secured.POST("/v2/payments", paymentCtrl.Initialize)
	secured.GET("/v2/payments/:id", paymentCtrl.GetPayment)
	secured.GET("/v2/payments/:id/events", paymentCtrl.GetPaymentEvents)
	securedWithStrictRateLimit.POST("/v2/payments/:id/deposit", paymentCtrl.Deposit)
	securedWithStrictRateLimit.POST("/v2/payments/:id/release", paymentCtrl.Release)
	securedWithStrictRateLimit.POST("/v2/payments/:id/refund", paymentCtrl.Refund)
	secured.GET("/v2/payers/:address/payments", paymentCtrl.GetPayerPayments)
	secured.GET("/v2/universities/:address/payments", paymentCtrl.GetUniversityPayments)
	secured.GET("/v2/ledger", ledgerCtrl.Overview)

	secured.GET("/v2/admin/custody", ledgerCtrl.CustodyReport, adminMw)
	secured.POST("/v2/admin/pause", ledgerCtrl.Pause, adminMw)
	secured.POST("/v2/admin/unpause", ledgerCtrl.Unpause, adminMw)
	securedWithStrictRateLimit.POST("/v2/admin/emergency-withdraw", ledgerCtrl.EmergencyWithdraw, adminMw)
	secured.PUT("/v2/admin/administrator", ledgerCtrl.TransferAdministrator, adminMw)

	secured.GET("/v2/token/balance", tokenCtrl.Balance)
	secured.POST("/v2/token/approve", tokenCtrl.Approve)
	securedWithStrictRateLimit.POST("/v2/token/transfer", tokenCtrl.Transfer)
	securedWithStrictRateLimit.POST("/v2/token/faucet", tokenCtrl.Faucet)
	securedWithStrictRateLimit.POST("/v2/token/mint", tokenCtrl.Mint)
}
