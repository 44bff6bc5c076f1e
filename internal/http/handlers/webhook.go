package handlers

import (
	"io"

	"github.com/keeperpay/keeperpay/internal/http/response"
	"github.com/keeperpay/keeperpay/internal/service"

	"github.com/gin-gonic/gin"
)

// StripeWebhook receives processor webhook deliveries.
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	log.Infow("stripe_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)

	headers := make(map[string]string)
	for key, values := range c.Request.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}

	payment, err := h.PaymentService.HandleStripeWebhook(service.WebhookInput{
		Headers: headers,
		Body:    body,
		Context: c.Request.Context(),
	})
	if err != nil {
		log.Warnw("stripe_webhook_handle_failed", "error", err)
		respondWithMappedError(c, err, paymentWebhookErrorRules, response.CodeInternal, "webhook handle failed")
		return
	}

	if payment == nil {
		response.Success(c, gin.H{"received": true, "updated": false})
		return
	}
	response.Success(c, gin.H{
		"received":   true,
		"updated":    true,
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
}
