package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/keeperpay/keeperpay/internal/constants"
	"github.com/keeperpay/keeperpay/internal/models"
	"github.com/keeperpay/keeperpay/internal/payment/stripe"
	"github.com/keeperpay/keeperpay/internal/queue"
)

// WebhookInput is a raw processor webhook delivery.
type WebhookInput struct {
	Headers map[string]string
	Body    []byte
	Context context.Context
}

// HandleStripeWebhook verifies a webhook delivery and reconciles the matching
// payment.
//
// Only payment_intent.succeeded transitions a payment; the transition fires
// from pending only, so replayed deliveries never publish a second
// confirmation. Deliveries with no matching payment are acknowledged without
// effect.
func (s *PaymentService) HandleStripeWebhook(input WebhookInput) (*models.Payment, error) {
	log := paymentLogger("body_size", len(input.Body))

	event, err := s.gateway.VerifyAndParseWebhook(input.Headers, input.Body, time.Now())
	if err != nil {
		log.Warnw("payment_webhook_verify_failed", "error", err)
		if errors.Is(err, stripe.ErrSignatureInvalid) {
			return nil, ErrPaymentSignatureInvalid
		}
		return nil, ErrPaymentGatewayResponseInvalid
	}
	log = paymentLogger(
		"event_id", event.EventID,
		"event_type", event.EventType,
		"stripe_payment_id", event.PaymentIntentID,
	)

	if !strings.EqualFold(event.EventType, constants.StripeEventPaymentIntentSucceeded) {
		log.Debugw("payment_webhook_event_ignored")
		return nil, nil
	}
	if strings.TrimSpace(event.PaymentIntentID) == "" {
		log.Warnw("payment_webhook_payment_intent_missing")
		return nil, ErrPaymentGatewayResponseInvalid
	}

	payment, err := s.paymentRepo.GetLatestByStripePaymentID(event.PaymentIntentID)
	if err != nil {
		log.Errorw("payment_webhook_payment_lookup_failed", "error", err)
		return nil, ErrPaymentUpdateFailed
	}
	if payment == nil {
		log.Infow("payment_webhook_payment_not_found")
		return nil, nil
	}
	if payment.Status != constants.PaymentStatusPending {
		log.Infow("payment_webhook_already_processed",
			"payment_id", payment.ID,
			"status", payment.Status,
		)
		return payment, nil
	}

	now := time.Now()
	payment.Status = constants.PaymentStatusPaid
	payment.PaidAt = &now
	payment.UpdatedAt = now
	if err := s.paymentRepo.Update(payment); err != nil {
		log.Errorw("payment_webhook_update_failed", "payment_id", payment.ID, "error", err)
		return nil, ErrPaymentUpdateFailed
	}

	if s.publisher != nil {
		publishErr := s.publisher.EnqueuePaymentSucceeded(queue.PaymentSucceededPayload{
			PaymentID:        payment.ID,
			ReservationID:    payment.ReservationID,
			AmountTotal:      payment.AmountTotal,
			KeeperAmount:     payment.KeeperAmount,
			CommissionAmount: payment.CommissionAmount,
		})
		if publishErr != nil {
			// The payment is already paid; the delivery retries via the queue
			// dead letter path, not by failing the webhook.
			log.Errorw("payment_webhook_publish_failed", "payment_id", payment.ID, "error", publishErr)
		}
	}

	log.Infow("payment_webhook_processed",
		"payment_id", payment.ID,
		"reservation_id", payment.ReservationID,
	)
	return payment, nil
}
