package constants

// Payment status constants
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// PaymentStatuses lists every status a payment record may carry.
var PaymentStatuses = []string{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

// Payment currency: every intent is created in euros, minor units.
const PaymentCurrency = "eur"

// CommissionRateText is the platform cut applied to every payment.
const CommissionRateText = "0.10"

// Stripe webhook event kinds the service reacts to.
const (
	StripeEventPaymentIntentSucceeded = "payment_intent.succeeded"
)

// Queue and task name constants
const (
	QueueDefault         = "default"
	TaskPaymentSucceeded = "payment:succeeded"
)
