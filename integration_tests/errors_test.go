package integration_tests

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	v2controllers "github.com/tuitionpay/escrowhub/controllers_v2"
	"github.com/tuitionpay/escrowhub/lib/responses"
)

type ErrorMappingTestSuite struct {
	suite.Suite
	echo *echo.Echo
}

func (suite *ErrorMappingTestSuite) SetupTest() {
	svc, coin, err := EscrowTestServiceInit(testConfig())
	if err != nil {
		log.Fatalf("Error initializing test service: %v", err)
	}
	suite.echo = newTestEcho(svc, coin)
}

func (suite *ErrorMappingTestSuite) TestErrorResponses() {
	initialize := func(payer, university string, amount int64, ref string) *v2controllers.InitializePaymentRequestBody {
		return &v2controllers.InitializePaymentRequestBody{Payer: payer, University: university, Amount: amount, InvoiceRef: ref}
	}

	for _, tc := range []struct {
		name     string
		method   string
		path     string
		caller   string
		body     interface{}
		status   int
		expected responses.ErrorResponse
	}{
		{"missing token", http.MethodGet, "/v2/ledger", "", nil, http.StatusUnauthorized, responses.BadAuthError},
		{"null payer", http.MethodPost, "/v2/payments", payerAddress, initialize(nullAddress, universityAddress, 100, "INV-001"), http.StatusBadRequest, responses.InvalidAddressError},
		{"null university", http.MethodPost, "/v2/payments", payerAddress, initialize(payerAddress, nullAddress, 100, "INV-001"), http.StatusBadRequest, responses.InvalidAddressError},
		{"malformed payer", http.MethodPost, "/v2/payments", payerAddress, initialize("0x1234", universityAddress, 100, "INV-001"), http.StatusBadRequest, responses.BadArgumentsError},
		{"zero amount", http.MethodPost, "/v2/payments", payerAddress, initialize(payerAddress, universityAddress, 0, "INV-001"), http.StatusBadRequest, responses.InvalidAmountError},
		{"negative amount", http.MethodPost, "/v2/payments", payerAddress, initialize(payerAddress, universityAddress, -5, "INV-001"), http.StatusBadRequest, responses.InvalidAmountError},
		{"empty invoice reference", http.MethodPost, "/v2/payments", payerAddress, initialize(payerAddress, universityAddress, 100, ""), http.StatusBadRequest, responses.InvalidAmountError},
		{"unknown payment", http.MethodGet, "/v2/payments/42", payerAddress, nil, http.StatusNotFound, responses.PaymentNotFoundError},
		{"unknown payment deposit", http.MethodPost, "/v2/payments/42/deposit", payerAddress, nil, http.StatusNotFound, responses.PaymentNotFoundError},
		{"unknown payment release", http.MethodPost, "/v2/payments/42/release", adminAddress, nil, http.StatusNotFound, responses.PaymentNotFoundError},
		{"unknown payment events", http.MethodGet, "/v2/payments/42/events", payerAddress, nil, http.StatusNotFound, responses.PaymentNotFoundError},
		{"non numeric id", http.MethodGet, "/v2/payments/first", payerAddress, nil, http.StatusBadRequest, responses.BadArgumentsError},
		{"malformed payer list", http.MethodGet, "/v2/payers/0x12/payments", payerAddress, nil, http.StatusBadRequest, responses.InvalidAddressError},
		{"mint by stranger", http.MethodPost, "/v2/token/mint", strangerAddress, &v2controllers.TokenTransferRequestBody{To: strangerAddress, Amount: 1}, http.StatusForbidden, responses.NotTokenOwnerError},
		{"transfer beyond balance", http.MethodPost, "/v2/token/transfer", strangerAddress, &v2controllers.TokenTransferRequestBody{To: payerAddress, Amount: 1}, http.StatusBadRequest, responses.NotEnoughBalanceError},
		{"transfer to null", http.MethodPost, "/v2/token/transfer", adminAddress, &v2controllers.TokenTransferRequestBody{To: nullAddress, Amount: 1}, http.StatusBadRequest, responses.InvalidAddressError},
		{"withdraw unknown token", http.MethodPost, "/v2/admin/emergency-withdraw", adminAddress, &v2controllers.EmergencyWithdrawRequestBody{Token: strangerAddress, Amount: 1}, http.StatusBadRequest, responses.InvalidAddressError},
		{"withdraw zero", http.MethodPost, "/v2/admin/emergency-withdraw", adminAddress, &v2controllers.EmergencyWithdrawRequestBody{Token: stablecoinAddress, Amount: 0}, http.StatusBadRequest, responses.InvalidAmountError},
	} {
		suite.Run(tc.name, func() {
			rec := doRequest(suite.echo, tc.method, tc.path, tc.caller, tc.body)
			assert.Equal(suite.T(), tc.status, rec.Code, rec.Body.String())
			errorResponse := &responses.ErrorResponse{}
			suite.Require().NoError(decode(rec, errorResponse))
			assert.True(suite.T(), errorResponse.Error)
			assert.Equal(suite.T(), tc.expected.Code, errorResponse.Code)
			assert.Equal(suite.T(), tc.expected.Message, errorResponse.Message)
		})
	}
}

func (suite *ErrorMappingTestSuite) TestFaucetCooldown() {
	rec := doRequest(suite.echo, http.MethodPost, "/v2/token/faucet", strangerAddress, nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	claim := &v2controllers.TokenTransferResponseBody{}
	suite.Require().NoError(decode(rec, claim))
	assert.Equal(suite.T(), 1000*oneToken, claim.Amount)
	assert.Equal(suite.T(), "1000.000000", claim.AmountDisplay)

	rec = doRequest(suite.echo, http.MethodPost, "/v2/token/faucet", strangerAddress, nil)
	assert.Equal(suite.T(), http.StatusTooManyRequests, rec.Code)
	errorResponse := &responses.ErrorResponse{}
	suite.Require().NoError(decode(rec, errorResponse))
	assert.Equal(suite.T(), responses.FaucetCooldownError.Code, errorResponse.Code)

	rec = doRequest(suite.echo, http.MethodGet, "/v2/token/balance", strangerAddress, nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	balance := &v2controllers.TokenBalanceResponseBody{}
	suite.Require().NoError(decode(rec, balance))
	assert.Equal(suite.T(), 1000*oneToken, balance.Balance)
	assert.Equal(suite.T(), int64(0), balance.Allowance)
}

func (suite *ErrorMappingTestSuite) TestPublicRoutes() {
	rec := doRequest(suite.echo, http.MethodGet, "/v2/health", "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	health := &v2controllers.HealthResponse{}
	suite.Require().NoError(decode(rec, health))
	assert.Equal(suite.T(), "OK", health.Result)
	assert.False(suite.T(), health.Paused)
	assert.Equal(suite.T(), int64(0), health.CurrentPaymentID)

	rec = doRequest(suite.echo, http.MethodGet, "/v2/token", "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	assert.True(suite.T(), strings.Contains(rec.Body.String(), `"symbol":"mUSDC"`), rec.Body.String())
	assert.True(suite.T(), strings.Contains(rec.Body.String(), fmt.Sprintf(`"address":"%s"`, stablecoinAddress)), rec.Body.String())
}

func TestErrorMappingTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorMappingTestSuite))
}
