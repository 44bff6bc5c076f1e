package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/keeperpay/keeperpay/internal/constants"
	"github.com/keeperpay/keeperpay/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupPaymentRepositoryTest(t *testing.T) (*GormPaymentRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:payment_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Payment{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewPaymentRepository(db), db
}

func newTestPayment(status, stripePaymentID, keeperAccountID string, createdAt time.Time) models.Payment {
	return models.Payment{
		ID:               uuid.NewString(),
		ReservationID:    uuid.NewString(),
		StripePaymentID:  stripePaymentID,
		AmountTotal:      2000,
		CommissionAmount: 200,
		KeeperAmount:     1800,
		Currency:         constants.PaymentCurrency,
		Status:           status,
		KeeperAccountID:  keeperAccountID,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func TestPaymentRepositoryGetByID(t *testing.T) {
	repo, db := setupPaymentRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	payment := newTestPayment(constants.PaymentStatusPending, "pi_test_001", "acct_test_001", now)
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	got, err := repo.GetByID(payment.ID)
	if err != nil {
		t.Fatalf("get by id failed: %v", err)
	}
	if got == nil {
		t.Fatalf("payment not found")
	}
	if got.ReservationID != payment.ReservationID {
		t.Fatalf("reservation_id want %s got %s", payment.ReservationID, got.ReservationID)
	}

	missing, err := repo.GetByID(uuid.NewString())
	if err != nil {
		t.Fatalf("get missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing payment should be nil")
	}

	blank, err := repo.GetByID("  ")
	if err != nil {
		t.Fatalf("get blank failed: %v", err)
	}
	if blank != nil {
		t.Fatalf("blank id should return nil")
	}
}

func TestPaymentRepositoryGetLatestByStripePaymentID(t *testing.T) {
	repo, db := setupPaymentRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	older := newTestPayment(constants.PaymentStatusFailed, "pi_test_dup", "acct_test_001", now.Add(-time.Hour))
	newer := newTestPayment(constants.PaymentStatusPending, "pi_test_dup", "acct_test_001", now)
	if err := db.Create(&older).Error; err != nil {
		t.Fatalf("create older payment failed: %v", err)
	}
	if err := db.Create(&newer).Error; err != nil {
		t.Fatalf("create newer payment failed: %v", err)
	}

	got, err := repo.GetLatestByStripePaymentID("pi_test_dup")
	if err != nil {
		t.Fatalf("get latest failed: %v", err)
	}
	if got == nil {
		t.Fatalf("payment not found")
	}
	if got.ID != newer.ID {
		t.Fatalf("want latest payment %s got %s", newer.ID, got.ID)
	}

	missing, err := repo.GetLatestByStripePaymentID("pi_test_missing")
	if err != nil {
		t.Fatalf("get missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing stripe payment should be nil")
	}
}

func TestPaymentRepositoryListByStatusAndKeeperAccount(t *testing.T) {
	repo, db := setupPaymentRepositoryTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	pending := newTestPayment(constants.PaymentStatusPending, "pi_test_p1", "acct_keeper_a", now)
	paid := newTestPayment(constants.PaymentStatusPaid, "pi_test_p2", "acct_keeper_a", now.Add(time.Minute))
	other := newTestPayment(constants.PaymentStatusPaid, "pi_test_p3", "acct_keeper_b", now.Add(2*time.Minute))
	for _, p := range []models.Payment{pending, paid, other} {
		payment := p
		if err := db.Create(&payment).Error; err != nil {
			t.Fatalf("create payment failed: %v", err)
		}
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("list len want 3 got %d", len(all))
	}

	paidRows, err := repo.ListByStatus(constants.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("list by status failed: %v", err)
	}
	if len(paidRows) != 2 {
		t.Fatalf("paid rows want 2 got %d", len(paidRows))
	}
	for _, row := range paidRows {
		if row.Status != constants.PaymentStatusPaid {
			t.Fatalf("unexpected status %s", row.Status)
		}
	}

	keeperRows, err := repo.ListByKeeperAccount("acct_keeper_a")
	if err != nil {
		t.Fatalf("list by keeper account failed: %v", err)
	}
	if len(keeperRows) != 2 {
		t.Fatalf("keeper rows want 2 got %d", len(keeperRows))
	}
	for _, row := range keeperRows {
		if row.KeeperAccountID != "acct_keeper_a" {
			t.Fatalf("unexpected keeper account %s", row.KeeperAccountID)
		}
	}
}
