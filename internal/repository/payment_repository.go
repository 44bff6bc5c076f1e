package repository

import (
	"errors"
	"strings"

	"github.com/keeperpay/keeperpay/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository is the payment data access interface.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	Update(payment *models.Payment) error
	GetByID(id string) (*models.Payment, error)
	GetLatestByStripePaymentID(stripePaymentID string) (*models.Payment, error)
	List() ([]models.Payment, error)
	ListByStatus(status string) ([]models.Payment, error)
	ListByKeeperAccount(keeperAccountID string) ([]models.Payment, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository is the GORM implementation.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a payment repository.
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx binds a transaction.
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create inserts a payment record.
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// Update saves a payment record.
func (r *GormPaymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// GetByID fetches a payment by id.
func (r *GormPaymentRepository) GetByID(id string) (*models.Payment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var payment models.Payment
	if err := r.db.Where("id = ?", id).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetLatestByStripePaymentID fetches the latest payment for a processor payment id.
func (r *GormPaymentRepository) GetLatestByStripePaymentID(stripePaymentID string) (*models.Payment, error) {
	stripePaymentID = strings.TrimSpace(stripePaymentID)
	if stripePaymentID == "" {
		return nil, nil
	}
	var payment models.Payment
	result := r.db.Where("stripe_payment_id = ?", stripePaymentID).Order("created_at desc").Limit(1).Find(&payment)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &payment, nil
}

// List fetches all payments, newest first.
func (r *GormPaymentRepository) List() ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.Order("created_at desc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// ListByStatus fetches payments in a given status.
func (r *GormPaymentRepository) ListByStatus(status string) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.Where("status = ?", status).Order("created_at desc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// ListByKeeperAccount fetches payments destined for a connected account.
func (r *GormPaymentRepository) ListByKeeperAccount(keeperAccountID string) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.Where("keeper_account_id = ?", keeperAccountID).Order("created_at desc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
