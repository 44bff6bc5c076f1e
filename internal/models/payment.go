package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment is a mediated marketplace payment record.
//
// Amounts are stored in minor units of the currency (cents). The commission
// and keeper shares always sum to the total amount.
type Payment struct {
	ID               string         `gorm:"primarykey;size:36" json:"id"`             // UUID
	ReservationID    string         `gorm:"index;not null" json:"reservation_id"`     // reservation this payment settles
	StripePaymentID  string         `gorm:"index;not null" json:"stripe_payment_id"`  // processor payment intent id
	AmountTotal      int64          `gorm:"not null" json:"amount_total"`             // total charged, minor units
	CommissionAmount int64          `gorm:"not null" json:"commission_amount"`        // platform share, minor units
	KeeperAmount     int64          `gorm:"not null" json:"keeper_amount"`            // keeper share, minor units
	Currency         string         `gorm:"not null" json:"currency"`                 // ISO currency code
	Status           string         `gorm:"index;not null" json:"status"`             // pending/paid/failed/refunded
	KeeperAccountID  string         `gorm:"index" json:"keeper_account_id"`           // connected account receiving the transfer
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`
	PaidAt           *time.Time     `gorm:"index" json:"paid_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Payment) TableName() string {
	return "payments"
}
