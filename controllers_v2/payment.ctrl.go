package v2controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tuitionpay/escrowhub/db/models"
	"github.com/tuitionpay/escrowhub/lib/responses"
	"github.com/tuitionpay/escrowhub/lib/service"
	"github.com/uptrace/bun"
)

// AmountFormatter renders base units in the stablecoin's decimals
type AmountFormatter interface {
	FormatAmount(amount int64) string
}

// PaymentController : Escrow payment controller struct
type PaymentController struct {
	svc    *service.EscrowService
	amount AmountFormatter
}

func NewPaymentController(svc *service.EscrowService, amount AmountFormatter) *PaymentController {
	return &PaymentController{svc: svc, amount: amount}
}

type InitializePaymentRequestBody struct {
	Payer      string `json:"payer" validate:"required,eth_addr"`
	University string `json:"university" validate:"required,eth_addr"`
	Amount     int64  `json:"amount"`
	InvoiceRef string `json:"invoice_ref"`
}

type InitializePaymentResponseBody struct {
	ID int64 `json:"id"`
}

type PaymentResponseBody struct {
	ID            int64  `json:"id"`
	Payer         string `json:"payer"`
	University    string `json:"university"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	InvoiceRef    string `json:"invoice_ref"`
	Status        string `json:"status"`
	CreatedAt     int64  `json:"created_at"`
	DepositedAt   int64  `json:"deposited_at"`
	ResolvedAt    int64  `json:"resolved_at"`
}

type PaymentStatusResponseBody struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type PaymentIDsResponseBody struct {
	Address  string  `json:"address"`
	Payments []int64 `json:"payments"`
}

// Initialize godoc
// @Summary      Record a new tuition payment
// @Description  Records a payment obligation from a payer to a university. Only the payer can fund it afterwards.
// @Accept       json
// @Produce      json
// @Tags         Payment
// @Param        payment  body      InitializePaymentRequestBody  True  "Payment"
// @Success      200      {object}  InitializePaymentResponseBody
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      500      {object}  responses.ErrorResponse
// @Router       /v2/payments [post]
// @Security     OAuth2Password
func (controller *PaymentController) Initialize(c echo.Context) error {
	var body InitializePaymentRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load payment request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid payment request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	id, err := controller.svc.Initialize(c.Request().Context(), callerAddress(c), body.Payer, body.University, body.Amount, body.InvoiceRef)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, &InitializePaymentResponseBody{ID: id})
}

// Deposit godoc
// @Summary      Fund a payment
// @Description  Moves the payment amount from the payer into custody. Requires an allowance for the escrow.
// @Produce      json
// @Tags         Payment
// @Param        id   path      int  true  "Payment id"
// @Success      200  {object}  PaymentStatusResponseBody
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      403  {object}  responses.ErrorResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /v2/payments/{id}/deposit [post]
// @Security     OAuth2Password
func (controller *PaymentController) Deposit(c echo.Context) error {
	return controller.transition(c, controller.svc.Deposit)
}

// Release godoc
// @Summary      Release a payment to the university
// @Description  Administrator only
// @Produce      json
// @Tags         Payment
// @Param        id   path      int  true  "Payment id"
// @Success      200  {object}  PaymentStatusResponseBody
// @Failure      403  {object}  responses.ErrorResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Failure      502  {object}  responses.ErrorResponse
// @Router       /v2/payments/{id}/release [post]
// @Security     OAuth2Password
func (controller *PaymentController) Release(c echo.Context) error {
	return controller.transition(c, controller.svc.Release)
}

// Refund godoc
// @Summary      Refund a payment to the payer
// @Description  Administrator only
// @Produce      json
// @Tags         Payment
// @Param        id   path      int  true  "Payment id"
// @Success      200  {object}  PaymentStatusResponseBody
// @Failure      403  {object}  responses.ErrorResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Failure      502  {object}  responses.ErrorResponse
// @Router       /v2/payments/{id}/refund [post]
// @Security     OAuth2Password
func (controller *PaymentController) Refund(c echo.Context) error {
	return controller.transition(c, controller.svc.Refund)
}

func (controller *PaymentController) transition(c echo.Context, op func(ctx context.Context, caller string, id int64) error) error {
	id, ok := paymentID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	ctx := c.Request().Context()
	if err := op(ctx, callerAddress(c), id); err != nil {
		return ledgerError(c, err)
	}
	payment, err := controller.svc.GetPayment(ctx, id)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, &PaymentStatusResponseBody{ID: payment.ID, Status: payment.Status})
}

// GetPayment godoc
// @Summary      Retrieve a payment
// @Produce      json
// @Tags         Payment
// @Param        id   path      int  true  "Payment id"
// @Success      200  {object}  PaymentResponseBody
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v2/payments/{id} [get]
// @Security     OAuth2Password
func (controller *PaymentController) GetPayment(c echo.Context) error {
	id, ok := paymentID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	payment, err := controller.svc.GetPayment(c.Request().Context(), id)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, controller.paymentResponse(payment))
}

// GetPaymentEvents godoc
// @Summary      Retrieve the event history of a payment
// @Produce      json
// @Tags         Payment
// @Param        id   path      int  true  "Payment id"
// @Success      200  {object}  []service.EventPayload
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v2/payments/{id}/events [get]
// @Security     OAuth2Password
func (controller *PaymentController) GetPaymentEvents(c echo.Context) error {
	id, ok := paymentID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	events, err := controller.svc.PaymentEvents(c.Request().Context(), id)
	if err != nil {
		return ledgerError(c, err)
	}
	response := make([]service.EventPayload, len(events))
	for i, event := range events {
		response[i] = service.EventPayload{LedgerEvent: event, CreatedAt: event.CreatedAt.Unix()}
	}
	return c.JSON(http.StatusOK, &response)
}

// GetPayerPayments godoc
// @Summary      List the payments of a payer
// @Produce      json
// @Tags         Payment
// @Param        address  path      string  true  "Payer address"
// @Success      200      {object}  PaymentIDsResponseBody
// @Failure      400      {object}  responses.ErrorResponse
// @Router       /v2/payers/{address}/payments [get]
// @Security     OAuth2Password
func (controller *PaymentController) GetPayerPayments(c echo.Context) error {
	ids, err := controller.svc.GetPayerPayments(c.Request().Context(), c.Param("address"))
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, &PaymentIDsResponseBody{Address: c.Param("address"), Payments: nonNil(ids)})
}

// GetUniversityPayments godoc
// @Summary      List the payments owed to a university
// @Produce      json
// @Tags         Payment
// @Param        address  path      string  true  "University address"
// @Success      200      {object}  PaymentIDsResponseBody
// @Failure      400      {object}  responses.ErrorResponse
// @Router       /v2/universities/{address}/payments [get]
// @Security     OAuth2Password
func (controller *PaymentController) GetUniversityPayments(c echo.Context) error {
	ids, err := controller.svc.GetUniversityPayments(c.Request().Context(), c.Param("address"))
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, &PaymentIDsResponseBody{Address: c.Param("address"), Payments: nonNil(ids)})
}

func (controller *PaymentController) paymentResponse(payment *models.Payment) *PaymentResponseBody {
	return &PaymentResponseBody{
		ID:            payment.ID,
		Payer:         payment.Payer,
		University:    payment.University,
		Amount:        payment.Amount,
		AmountDisplay: controller.amount.FormatAmount(payment.Amount),
		InvoiceRef:    payment.InvoiceRef,
		Status:        payment.Status,
		CreatedAt:     payment.CreatedAt.Unix(),
		DepositedAt:   unixOrZero(payment.DepositedAt),
		ResolvedAt:    unixOrZero(payment.ResolvedAt),
	}
}

func paymentID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Logger().Errorf("Invalid payment id %q: %v", c.Param("id"), err)
		return 0, false
	}
	return id, true
}

func unixOrZero(t bun.NullTime) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
