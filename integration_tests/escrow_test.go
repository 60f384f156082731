package integration_tests

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tuitionpay/escrowhub/common"
	v2controllers "github.com/tuitionpay/escrowhub/controllers_v2"
	"github.com/tuitionpay/escrowhub/lib/responses"
	"github.com/tuitionpay/escrowhub/lib/service"
	"github.com/tuitionpay/escrowhub/lib/token"
)

type EscrowHTTPTestSuite struct {
	suite.Suite
	Service *service.EscrowService
	Coin    *token.Stablecoin
	echo    *echo.Echo
}

func (suite *EscrowHTTPTestSuite) SetupTest() {
	svc, coin, err := EscrowTestServiceInit(testConfig())
	if err != nil {
		log.Fatalf("Error initializing test service: %v", err)
	}
	suite.Service = svc
	suite.Coin = coin
	suite.echo = newTestEcho(svc, coin)

	// the admin owns the initial supply, hand the payer 10,000 tokens
	rec := doRequest(suite.echo, http.MethodPost, "/v2/token/mint", adminAddress, &v2controllers.TokenTransferRequestBody{
		To:     payerAddress,
		Amount: 10_000 * oneToken,
	})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (suite *EscrowHTTPTestSuite) initialize(amount int64, ref string) int64 {
	rec := doRequest(suite.echo, http.MethodPost, "/v2/payments", adminAddress, &v2controllers.InitializePaymentRequestBody{
		Payer:      payerAddress,
		University: universityAddress,
		Amount:     amount,
		InvoiceRef: ref,
	})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	response := &v2controllers.InitializePaymentResponseBody{}
	suite.Require().NoError(decode(rec, response))
	return response.ID
}

func (suite *EscrowHTTPTestSuite) approve(amount int64) {
	rec := doRequest(suite.echo, http.MethodPost, "/v2/token/approve", payerAddress, &v2controllers.ApproveRequestBody{
		Spender: custodyAddress,
		Amount:  amount,
	})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (suite *EscrowHTTPTestSuite) transition(id int64, action, caller string) *v2controllers.PaymentStatusResponseBody {
	rec := doRequest(suite.echo, http.MethodPost, fmt.Sprintf("/v2/payments/%d/%s", id, action), caller, nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	response := &v2controllers.PaymentStatusResponseBody{}
	suite.Require().NoError(decode(rec, response))
	return response
}

func (suite *EscrowHTTPTestSuite) payment(id int64) *v2controllers.PaymentResponseBody {
	rec := doRequest(suite.echo, http.MethodGet, fmt.Sprintf("/v2/payments/%d", id), strangerAddress, nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	response := &v2controllers.PaymentResponseBody{}
	suite.Require().NoError(decode(rec, response))
	return response
}

func (suite *EscrowHTTPTestSuite) balance(address string) int64 {
	balance, err := suite.Coin.BalanceOf(context.Background(), address)
	suite.Require().NoError(err)
	return balance
}

func (suite *EscrowHTTPTestSuite) ledger() *v2controllers.LedgerResponseBody {
	rec := doRequest(suite.echo, http.MethodGet, "/v2/ledger", strangerAddress, nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	response := &v2controllers.LedgerResponseBody{}
	suite.Require().NoError(decode(rec, response))
	return response
}

func (suite *EscrowHTTPTestSuite) TestInitializeAndGetPayment() {
	id := suite.initialize(1000*oneToken, "INV-001")
	assert.Equal(suite.T(), int64(0), id)

	payment := suite.payment(id)
	assert.Equal(suite.T(), payerAddress, payment.Payer)
	assert.Equal(suite.T(), universityAddress, payment.University)
	assert.Equal(suite.T(), 1000*oneToken, payment.Amount)
	assert.Equal(suite.T(), "1000.000000", payment.AmountDisplay)
	assert.Equal(suite.T(), "INV-001", payment.InvoiceRef)
	assert.Equal(suite.T(), common.PaymentStatusInitialized, payment.Status)
	assert.NotZero(suite.T(), payment.CreatedAt)
	assert.Zero(suite.T(), payment.DepositedAt)
	assert.Zero(suite.T(), payment.ResolvedAt)
	assert.Equal(suite.T(), int64(1), suite.ledger().CurrentPaymentID)
}

func (suite *EscrowHTTPTestSuite) TestDepositAndRelease() {
	id := suite.initialize(1000*oneToken, "INV-001")
	suite.approve(1000 * oneToken)
	payerBefore := suite.balance(payerAddress)

	assert.Equal(suite.T(), common.PaymentStatusDeposited, suite.transition(id, "deposit", payerAddress).Status)
	assert.Equal(suite.T(), payerBefore-1000*oneToken, suite.balance(payerAddress))
	ledger := suite.ledger()
	assert.Equal(suite.T(), 1000*oneToken, ledger.ContractBalance)
	assert.Equal(suite.T(), "1000.000000", ledger.ContractBalanceDisplay)
	assert.NotZero(suite.T(), suite.payment(id).DepositedAt)

	assert.Equal(suite.T(), common.PaymentStatusReleased, suite.transition(id, "release", adminAddress).Status)
	assert.Equal(suite.T(), 1000*oneToken, suite.balance(universityAddress))
	assert.Equal(suite.T(), int64(0), suite.ledger().ContractBalance)
	assert.NotZero(suite.T(), suite.payment(id).ResolvedAt)

	for _, action := range []string{"release", "refund"} {
		rec := doRequest(suite.echo, http.MethodPost, fmt.Sprintf("/v2/payments/%d/%s", id, action), adminAddress, nil)
		assert.Equal(suite.T(), http.StatusConflict, rec.Code)
		errorResponse := &responses.ErrorResponse{}
		suite.Require().NoError(decode(rec, errorResponse))
		assert.Equal(suite.T(), responses.PaymentNotDepositedError.Code, errorResponse.Code)
	}
}

func (suite *EscrowHTTPTestSuite) TestDepositByStrangerIsRejected() {
	id := suite.initialize(1000*oneToken, "INV-001")
	suite.approve(1000 * oneToken)

	rec := doRequest(suite.echo, http.MethodPost, fmt.Sprintf("/v2/payments/%d/deposit", id), strangerAddress, nil)
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)
	errorResponse := &responses.ErrorResponse{}
	suite.Require().NoError(decode(rec, errorResponse))
	assert.Equal(suite.T(), responses.UnauthorizedAccessError.Code, errorResponse.Code)
	assert.Equal(suite.T(), common.PaymentStatusInitialized, suite.payment(id).Status)
}

func (suite *EscrowHTTPTestSuite) TestDepositWithoutApproval() {
	id := suite.initialize(1000*oneToken, "INV-001")
	payerBefore := suite.balance(payerAddress)

	rec := doRequest(suite.echo, http.MethodPost, fmt.Sprintf("/v2/payments/%d/deposit", id), payerAddress, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	errorResponse := &responses.ErrorResponse{}
	suite.Require().NoError(decode(rec, errorResponse))
	assert.Equal(suite.T(), responses.NotEnoughBalanceError.Code, errorResponse.Code)

	assert.Equal(suite.T(), common.PaymentStatusInitialized, suite.payment(id).Status)
	assert.Equal(suite.T(), payerBefore, suite.balance(payerAddress))
	assert.Equal(suite.T(), int64(0), suite.ledger().ContractBalance)
}

func (suite *EscrowHTTPTestSuite) TestMixedResolutions() {
	suite.approve(500 * oneToken)
	ids := make([]int64, 5)
	for i := range ids {
		ids[i] = suite.initialize(100*oneToken, fmt.Sprintf("INV-%03d", i))
		suite.transition(ids[i], "deposit", payerAddress)
	}
	assert.Equal(suite.T(), 500*oneToken, suite.ledger().ContractBalance)

	suite.transition(ids[0], "release", adminAddress)
	suite.transition(ids[1], "release", adminAddress)
	suite.transition(ids[2], "refund", adminAddress)
	suite.transition(ids[3], "refund", adminAddress)

	assert.Equal(suite.T(), common.PaymentStatusDeposited, suite.payment(ids[4]).Status)
	assert.Equal(suite.T(), 100*oneToken, suite.ledger().ContractBalance)

	rec := doRequest(suite.echo, http.MethodGet, "/v2/admin/custody", adminAddress, nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	report := &service.CustodyReport{}
	suite.Require().NoError(decode(rec, report))
	assert.False(suite.T(), report.Diverged)
	assert.Equal(suite.T(), 100*oneToken, report.DepositedTotal)
	assert.Equal(suite.T(), int64(2), report.Statuses[common.PaymentStatusReleased].Count)
	assert.Equal(suite.T(), int64(2), report.Statuses[common.PaymentStatusRefunded].Count)
}

func (suite *EscrowHTTPTestSuite) TestPaymentLists() {
	first := suite.initialize(100*oneToken, "INV-001")
	second := suite.initialize(200*oneToken, "INV-002")

	for _, path := range []string{
		"/v2/payers/" + payerAddress + "/payments",
		"/v2/universities/" + universityAddress + "/payments",
	} {
		rec := doRequest(suite.echo, http.MethodGet, path, strangerAddress, nil)
		suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		response := &v2controllers.PaymentIDsResponseBody{}
		suite.Require().NoError(decode(rec, response))
		assert.Equal(suite.T(), []int64{first, second}, response.Payments)
	}

	rec := doRequest(suite.echo, http.MethodGet, "/v2/payers/"+strangerAddress+"/payments", strangerAddress, nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	response := &v2controllers.PaymentIDsResponseBody{}
	suite.Require().NoError(decode(rec, response))
	assert.Empty(suite.T(), response.Payments)
	assert.NotNil(suite.T(), response.Payments)
}

func (suite *EscrowHTTPTestSuite) TestPaymentEvents() {
	id := suite.initialize(100*oneToken, "INV-001")
	suite.approve(100 * oneToken)
	suite.transition(id, "deposit", payerAddress)
	suite.transition(id, "refund", adminAddress)

	rec := doRequest(suite.echo, http.MethodGet, fmt.Sprintf("/v2/payments/%d/events", id), strangerAddress, nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	events := []service.EventPayload{}
	suite.Require().NoError(decode(rec, &events))
	suite.Require().Len(events, 3)
	assert.Equal(suite.T(), common.EventTypePaymentInitialized, events[0].Type)
	assert.Equal(suite.T(), common.EventTypeDeposited, events[1].Type)
	assert.Equal(suite.T(), common.EventTypeRefunded, events[2].Type)
	assert.Equal(suite.T(), payerAddress, events[2].Payer)
	assert.NotZero(suite.T(), events[2].CreatedAt)
}

func (suite *EscrowHTTPTestSuite) TestPauseBlocksNewPayments() {
	id := suite.initialize(100*oneToken, "INV-001")
	suite.approve(200 * oneToken)
	suite.transition(id, "deposit", payerAddress)
	second := suite.initialize(100*oneToken, "INV-002")

	rec := doRequest(suite.echo, http.MethodPost, "/v2/admin/pause", adminAddress, nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	assert.True(suite.T(), suite.ledger().Paused)

	rec = doRequest(suite.echo, http.MethodPost, "/v2/payments", adminAddress, &v2controllers.InitializePaymentRequestBody{
		Payer:      payerAddress,
		University: universityAddress,
		Amount:     100 * oneToken,
		InvoiceRef: "INV-003",
	})
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
	errorResponse := &responses.ErrorResponse{}
	suite.Require().NoError(decode(rec, errorResponse))
	assert.Equal(suite.T(), responses.LedgerPausedError.Code, errorResponse.Code)

	rec = doRequest(suite.echo, http.MethodPost, fmt.Sprintf("/v2/payments/%d/deposit", second), payerAddress, nil)
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)

	// resolutions keep working while paused
	assert.Equal(suite.T(), common.PaymentStatusReleased, suite.transition(id, "release", adminAddress).Status)

	rec = doRequest(suite.echo, http.MethodPost, "/v2/admin/pause", adminAddress, nil)
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)

	rec = doRequest(suite.echo, http.MethodPost, "/v2/admin/unpause", adminAddress, nil)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	assert.False(suite.T(), suite.ledger().Paused)
	assert.Equal(suite.T(), common.PaymentStatusDeposited, suite.transition(second, "deposit", payerAddress).Status)

	rec = doRequest(suite.echo, http.MethodPost, "/v2/admin/unpause", adminAddress, nil)
	suite.Require().Equal(http.StatusConflict, rec.Code)
	suite.Require().NoError(decode(rec, errorResponse))
	assert.Equal(suite.T(), responses.LedgerNotPausedError.Code, errorResponse.Code)
}

func (suite *EscrowHTTPTestSuite) TestAdministratorRoutes() {
	for _, route := range []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPost, "/v2/admin/pause", nil},
		{http.MethodPost, "/v2/admin/unpause", nil},
		{http.MethodGet, "/v2/admin/custody", nil},
		{http.MethodPost, "/v2/admin/emergency-withdraw", &v2controllers.EmergencyWithdrawRequestBody{Token: stablecoinAddress, Amount: 1}},
		{http.MethodPut, "/v2/admin/administrator", &v2controllers.TransferAdministratorRequestBody{Address: strangerAddress}},
	} {
		rec := doRequest(suite.echo, route.method, route.path, strangerAddress, route.body)
		assert.Equal(suite.T(), http.StatusForbidden, rec.Code, route.path)
		errorResponse := &responses.ErrorResponse{}
		suite.Require().NoError(decode(rec, errorResponse))
		assert.Equal(suite.T(), responses.NotAdministratorError.Code, errorResponse.Code, route.path)
	}

	id := suite.initialize(100*oneToken, "INV-001")
	suite.approve(100 * oneToken)
	suite.transition(id, "deposit", payerAddress)
	rec := doRequest(suite.echo, http.MethodPost, fmt.Sprintf("/v2/payments/%d/release", id), strangerAddress, nil)
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)
	assert.Equal(suite.T(), common.PaymentStatusDeposited, suite.payment(id).Status)
}

func (suite *EscrowHTTPTestSuite) TestTransferAdministrator() {
	rec := doRequest(suite.echo, http.MethodPut, "/v2/admin/administrator", adminAddress, &v2controllers.TransferAdministratorRequestBody{Address: nullAddress})
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	errorResponse := &responses.ErrorResponse{}
	suite.Require().NoError(decode(rec, errorResponse))
	assert.Equal(suite.T(), responses.InvalidAdministratorError.Code, errorResponse.Code)

	rec = doRequest(suite.echo, http.MethodPut, "/v2/admin/administrator", adminAddress, &v2controllers.TransferAdministratorRequestBody{Address: strangerAddress})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	response := &v2controllers.AdministratorResponseBody{}
	suite.Require().NoError(decode(rec, response))
	assert.Equal(suite.T(), strangerAddress, response.Administrator)
	assert.Equal(suite.T(), strangerAddress, suite.ledger().Administrator)

	rec = doRequest(suite.echo, http.MethodPost, "/v2/admin/pause", adminAddress, nil)
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)
	rec = doRequest(suite.echo, http.MethodPost, "/v2/admin/pause", strangerAddress, nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
}

func (suite *EscrowHTTPTestSuite) TestEmergencyWithdrawReportsDivergence() {
	id := suite.initialize(300*oneToken, "INV-001")
	suite.approve(300 * oneToken)
	suite.transition(id, "deposit", payerAddress)
	adminBefore := suite.balance(adminAddress)

	rec := doRequest(suite.echo, http.MethodPost, "/v2/admin/emergency-withdraw", adminAddress, &v2controllers.EmergencyWithdrawRequestBody{
		Token:  stablecoinAddress,
		Amount: 100 * oneToken,
	})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	report := &service.CustodyReport{}
	suite.Require().NoError(decode(rec, report))
	assert.True(suite.T(), report.Diverged)
	assert.Equal(suite.T(), 200*oneToken, report.CustodyBalance)
	assert.Equal(suite.T(), 300*oneToken, report.DepositedTotal)
	assert.Equal(suite.T(), adminBefore+100*oneToken, suite.balance(adminAddress))
	// payment records are untouched
	assert.Equal(suite.T(), common.PaymentStatusDeposited, suite.payment(id).Status)

	rec = doRequest(suite.echo, http.MethodPost, "/v2/admin/emergency-withdraw", adminAddress, &v2controllers.EmergencyWithdrawRequestBody{
		Token:  stablecoinAddress,
		Amount: 1000 * oneToken,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	errorResponse := &responses.ErrorResponse{}
	suite.Require().NoError(decode(rec, errorResponse))
	assert.Equal(suite.T(), responses.NotEnoughBalanceError.Code, errorResponse.Code)
}

func TestEscrowHTTPTestSuite(t *testing.T) {
	suite.Run(t, new(EscrowHTTPTestSuite))
}
