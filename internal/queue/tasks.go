package queue

import (
	"encoding/json"

	"github.com/keeperpay/keeperpay/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPaymentSucceeded notifies downstream consumers of a confirmed payment.
	TaskPaymentSucceeded = constants.TaskPaymentSucceeded
)

// PaymentSucceededPayload is the payment confirmation task payload.
type PaymentSucceededPayload struct {
	PaymentID        string `json:"paymentId"`
	ReservationID    string `json:"reservationId"`
	AmountTotal      int64  `json:"amountTotal"`
	KeeperAmount     int64  `json:"keeperAmount"`
	CommissionAmount int64  `json:"commissionAmount"`
}

// NewPaymentSucceededTask creates a payment confirmation task.
func NewPaymentSucceededTask(payload PaymentSucceededPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentSucceeded, body), nil
}
