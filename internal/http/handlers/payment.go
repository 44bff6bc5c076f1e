package handlers

import (
	"github.com/keeperpay/keeperpay/internal/http/response"
	"github.com/keeperpay/keeperpay/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePaymentRequest is the payment creation request body.
type CreatePaymentRequest struct {
	ReservationID string `json:"reservationId" binding:"required,uuid"`
	AmountTotal   int64  `json:"amountTotal" binding:"gte=0"`
	KeeperID      string `json:"keeperId" binding:"required"`
}

// CreatePayment charges a reservation and records the pending payment.
func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.PaymentService.CreatePayment(service.CreatePaymentInput{
		ReservationID: req.ReservationID,
		AmountTotal:   req.AmountTotal,
		KeeperID:      req.KeeperID,
		Context:       c.Request.Context(),
	})
	if err != nil {
		respondWithMappedError(c, err, paymentCreateErrorRules, response.CodeInternal, "payment create failed")
		return
	}

	response.Success(c, gin.H{
		"payment":       result.Payment,
		"client_secret": result.ClientSecret,
	})
}

// GetPayment returns a payment by id.
func (h *Handler) GetPayment(c *gin.Context) {
	payment, err := h.PaymentService.GetPayment(c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, paymentQueryErrorRules, response.CodeInternal, "payment fetch failed")
		return
	}
	response.Success(c, payment)
}

// ListPayments returns all payments.
func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.PaymentService.ListPayments()
	if err != nil {
		respondWithMappedError(c, err, paymentQueryErrorRules, response.CodeInternal, "payment fetch failed")
		return
	}
	response.Success(c, payments)
}

// ListPaymentsByStatus returns payments in a given status.
func (h *Handler) ListPaymentsByStatus(c *gin.Context) {
	payments, err := h.PaymentService.ListPaymentsByStatus(c.Param("status"))
	if err != nil {
		respondWithMappedError(c, err, paymentQueryErrorRules, response.CodeInternal, "payment fetch failed")
		return
	}
	response.Success(c, payments)
}

// ListPaymentsByKeeperAccount returns payments destined for a connected account.
func (h *Handler) ListPaymentsByKeeperAccount(c *gin.Context) {
	payments, err := h.PaymentService.ListPaymentsByKeeperAccount(c.Param("accountId"))
	if err != nil {
		respondWithMappedError(c, err, paymentQueryErrorRules, response.CodeInternal, "payment fetch failed")
		return
	}
	response.Success(c, payments)
}
