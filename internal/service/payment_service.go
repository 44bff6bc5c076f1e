package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/keeperpay/keeperpay/internal/constants"
	"github.com/keeperpay/keeperpay/internal/logger"
	"github.com/keeperpay/keeperpay/internal/models"
	"github.com/keeperpay/keeperpay/internal/payment/stripe"
	"github.com/keeperpay/keeperpay/internal/queue"
	"github.com/keeperpay/keeperpay/internal/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProcessorGateway is the payment processor surface the service depends on.
// *stripe.Client is the production implementation.
type ProcessorGateway interface {
	CreatePaymentIntent(ctx context.Context, input stripe.PaymentIntentInput) (*stripe.PaymentIntentResult, error)
	CreateAccount(ctx context.Context, email string) (*stripe.Account, error)
	CreateAccountLink(ctx context.Context, accountID string) (*stripe.AccountLink, error)
	RetrieveAccount(ctx context.Context, accountID string) (*stripe.Account, error)
	ListAccounts(ctx context.Context) ([]stripe.Account, error)
	VerifyAndParseWebhook(headers map[string]string, body []byte, now time.Time) (*stripe.WebhookEvent, error)
}

// EventPublisher emits payment confirmation events. *queue.Client is the
// production implementation.
type EventPublisher interface {
	EnqueuePaymentSucceeded(payload queue.PaymentSucceededPayload, opts ...asynq.Option) error
}

// PaymentService mediates marketplace payments between renters and keepers.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	gateway     ProcessorGateway
	publisher   EventPublisher
}

// NewPaymentService creates a payment service.
func NewPaymentService(paymentRepo repository.PaymentRepository, gateway ProcessorGateway, publisher EventPublisher) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		gateway:     gateway,
		publisher:   publisher,
	}
}

var commissionRate = decimal.RequireFromString(constants.CommissionRateText)

// SplitAmount splits a total into the platform commission and the keeper
// share. The commission rounds half away from zero; the shares always sum
// back to the total.
func SplitAmount(amountTotal int64) (commission int64, keeper int64) {
	commission = decimal.NewFromInt(amountTotal).Mul(commissionRate).Round(0).IntPart()
	keeper = amountTotal - commission
	return commission, keeper
}

// CreatePaymentInput is the payment creation request.
type CreatePaymentInput struct {
	ReservationID string
	AmountTotal   int64
	KeeperID      string
	Context       context.Context
}

// CreatePaymentResult is the payment creation response.
type CreatePaymentResult struct {
	Payment      *models.Payment
	ClientSecret string
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// CreatePayment charges the renter and records a pending payment.
//
// The processor call happens first: a gateway failure leaves no local record
// behind. The keeper share transfers to the keeper's connected account; the
// commission stays on the platform.
func (s *PaymentService) CreatePayment(input CreatePaymentInput) (*CreatePaymentResult, error) {
	reservationID := strings.TrimSpace(input.ReservationID)
	keeperID := strings.TrimSpace(input.KeeperID)
	log := paymentLogger(
		"reservation_id", reservationID,
		"keeper_account_id", keeperID,
		"amount_total", input.AmountTotal,
	)
	if reservationID == "" || keeperID == "" {
		log.Warnw("payment_create_invalid_input")
		return nil, ErrPaymentInvalid
	}
	if _, err := uuid.Parse(reservationID); err != nil {
		log.Warnw("payment_create_invalid_reservation_id", "error", err)
		return nil, ErrPaymentInvalid
	}
	if input.AmountTotal < 0 {
		log.Warnw("payment_create_invalid_amount")
		return nil, ErrPaymentInvalid
	}

	commission, keeperAmount := SplitAmount(input.AmountTotal)
	paymentID := uuid.NewString()

	intent, err := s.gateway.CreatePaymentIntent(input.Context, stripe.PaymentIntentInput{
		Amount:             input.AmountTotal,
		Currency:           constants.PaymentCurrency,
		ApplicationFee:     commission,
		DestinationAccount: keeperID,
		Metadata: map[string]string{
			"payment_id":     paymentID,
			"reservation_id": reservationID,
		},
	})
	if err != nil {
		log.Errorw("payment_create_gateway_failed", "error", err)
		switch {
		case errors.Is(err, stripe.ErrConfigInvalid):
			return nil, ErrPaymentInvalid
		case errors.Is(err, stripe.ErrRequestFailed):
			return nil, ErrPaymentGatewayRequestFailed
		default:
			return nil, ErrPaymentGatewayResponseInvalid
		}
	}

	now := time.Now()
	payment := &models.Payment{
		ID:               paymentID,
		ReservationID:    reservationID,
		StripePaymentID:  intent.ID,
		AmountTotal:      input.AmountTotal,
		CommissionAmount: commission,
		KeeperAmount:     keeperAmount,
		Currency:         constants.PaymentCurrency,
		Status:           constants.PaymentStatusPending,
		KeeperAccountID:  keeperID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		log.Errorw("payment_create_persist_failed",
			"payment_id", payment.ID,
			"stripe_payment_id", intent.ID,
			"error", err,
		)
		return nil, ErrPaymentCreateFailed
	}

	log.Infow("payment_created",
		"payment_id", payment.ID,
		"stripe_payment_id", intent.ID,
		"commission_amount", commission,
		"keeper_amount", keeperAmount,
	)
	return &CreatePaymentResult{
		Payment:      payment,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// GetPayment fetches a payment by id.
func (s *PaymentService) GetPayment(id string) (*models.Payment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrPaymentInvalid
	}
	payment, err := s.paymentRepo.GetByID(id)
	if err != nil {
		paymentLogger("payment_id", id).Errorw("payment_fetch_failed", "error", err)
		return nil, ErrPaymentFetchFailed
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// ListPayments fetches all payments.
func (s *PaymentService) ListPayments() ([]models.Payment, error) {
	payments, err := s.paymentRepo.List()
	if err != nil {
		paymentLogger().Errorw("payment_list_failed", "error", err)
		return nil, ErrPaymentFetchFailed
	}
	return payments, nil
}

// ListPaymentsByStatus fetches payments in a given status.
func (s *PaymentService) ListPaymentsByStatus(status string) ([]models.Payment, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !isKnownStatus(status) {
		return nil, ErrPaymentStatusInvalid
	}
	payments, err := s.paymentRepo.ListByStatus(status)
	if err != nil {
		paymentLogger("status", status).Errorw("payment_list_by_status_failed", "error", err)
		return nil, ErrPaymentFetchFailed
	}
	return payments, nil
}

// ListPaymentsByKeeperAccount fetches payments destined for a connected account.
func (s *PaymentService) ListPaymentsByKeeperAccount(keeperAccountID string) ([]models.Payment, error) {
	keeperAccountID = strings.TrimSpace(keeperAccountID)
	if keeperAccountID == "" {
		return nil, ErrKeeperAccountInvalid
	}
	payments, err := s.paymentRepo.ListByKeeperAccount(keeperAccountID)
	if err != nil {
		paymentLogger("keeper_account_id", keeperAccountID).Errorw("payment_list_by_keeper_failed", "error", err)
		return nil, ErrPaymentFetchFailed
	}
	return payments, nil
}

func isKnownStatus(status string) bool {
	for _, known := range constants.PaymentStatuses {
		if status == known {
			return true
		}
	}
	return false
}
