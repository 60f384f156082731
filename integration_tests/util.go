package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/tuitionpay/escrowhub/lib"
	"github.com/tuitionpay/escrowhub/lib/responses"
	"github.com/tuitionpay/escrowhub/lib/service"
	"github.com/tuitionpay/escrowhub/lib/store"
	"github.com/tuitionpay/escrowhub/lib/token"
	"github.com/tuitionpay/escrowhub/lib/tokens"
	"github.com/tuitionpay/escrowhub/lib/transport"
	"github.com/ziflex/lecho/v3"
)

const (
	adminAddress      = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
	payerAddress      = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"
	universityAddress = "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc"
	strangerAddress   = "0x90f79bf6eb2c4f870365e785982e1f101e93b906"
	custodyAddress    = "0xe7f1725e7734ce288f8367e1bb143e90bb3f0512"
	stablecoinAddress = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
	nullAddress       = "0x0000000000000000000000000000000000000000"

	// 1 token in base units
	oneToken = int64(1_000_000)
)

var testSecret = []byte("SECRET")

func testConfig() *service.Config {
	return &service.Config{
		DatabaseUri:             "memory://",
		JWTSecret:               testSecret,
		JWTAccessTokenExpiry:    3600,
		AdminAddress:            adminAddress,
		CustodyAddress:          custodyAddress,
		StablecoinAddress:       stablecoinAddress,
		StablecoinName:          "Mock USD Coin",
		StablecoinSymbol:        "mUSDC",
		StablecoinDecimals:      6,
		StablecoinInitialSupply: 10_000_000 * oneToken,
		FaucetAmount:            1000 * oneToken,
		FaucetCooldown:          24 * time.Hour,
	}
}

// EscrowTestServiceInit builds a bootstrapped ledger on the memory store.
func EscrowTestServiceInit(c *service.Config) (*service.EscrowService, *token.Stablecoin, error) {
	logger := lecho.New(io.Discard, lecho.WithLevel(log.OFF))
	return service.NewStablecoinLedger(context.Background(), c, store.NewMemoryStore(), logger)
}

// newTestEcho registers the v2 endpoints the way the server does, without rate limits.
func newTestEcho(svc *service.EscrowService, coin *token.Stablecoin) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = responses.HTTPErrorHandler
	e.Validator = &lib.CustomValidator{Validator: validator.New()}
	e.Logger = svc.Logger

	secured := e.Group("", tokens.Middleware(svc.Config.JWTSecret))
	transport.RegisterV2Endpoints(svc, coin, e, secured, secured, tokens.AdministratorMiddleware(svc.Administrator))
	return e
}

func accessToken(address string) string {
	token, err := tokens.GenerateAccessToken(testSecret, 3600, address)
	if err != nil {
		panic(err)
	}
	return token
}

// doRequest sends body as JSON, authenticated as address unless address is empty.
func doRequest(e *echo.Echo, method, path, address string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if address != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken(address))
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(rec *httptest.ResponseRecorder, target interface{}) error {
	return json.NewDecoder(rec.Body).Decode(target)
}
