package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/keeperpay/keeperpay/internal/payment/stripe"
)

func TestCreateKeeperAccount(t *testing.T) {
	gateway := &stubGateway{}
	svc, _ := setupPaymentServiceTest(t, gateway, &recordingPublisher{})

	onboarding, err := svc.CreateKeeperAccount(nil, "keeper@example.com")
	if err != nil {
		t.Fatalf("create keeper account failed: %v", err)
	}
	if onboarding.Account.ID == "" {
		t.Fatalf("missing account id")
	}
	if onboarding.Account.Email != "keeper@example.com" {
		t.Fatalf("unexpected email: %s", onboarding.Account.Email)
	}
	if onboarding.OnboardingURL == "" {
		t.Fatalf("missing onboarding url")
	}

	if _, err := svc.CreateKeeperAccount(nil, ""); !errors.Is(err, ErrKeeperAccountInvalid) {
		t.Fatalf("expected invalid error for empty email, got %v", err)
	}
	if _, err := svc.CreateKeeperAccount(nil, "not-an-email"); !errors.Is(err, ErrKeeperAccountInvalid) {
		t.Fatalf("expected invalid error for malformed email, got %v", err)
	}
}

func TestCreateKeeperAccountLink(t *testing.T) {
	gateway := &stubGateway{}
	svc, _ := setupPaymentServiceTest(t, gateway, &recordingPublisher{})

	link, err := svc.CreateKeeperAccountLink(nil, "acct_test_1")
	if err != nil {
		t.Fatalf("create account link failed: %v", err)
	}
	if link.URL != "https://connect.stripe.com/setup/s/acct_test_1" {
		t.Fatalf("unexpected link url: %s", link.URL)
	}

	if _, err := svc.CreateKeeperAccountLink(nil, " "); !errors.Is(err, ErrKeeperAccountInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestFindKeeperAccountByEmail(t *testing.T) {
	gateway := &stubGateway{
		accounts: []stripe.Account{
			{ID: "acct_1", Email: "first@example.com"},
			{ID: "acct_2", Email: "Second@Example.com"},
		},
	}
	svc, _ := setupPaymentServiceTest(t, gateway, &recordingPublisher{})

	account, err := svc.FindKeeperAccountByEmail(nil, "second@example.com")
	if err != nil {
		t.Fatalf("find by email failed: %v", err)
	}
	if account == nil || account.ID != "acct_2" {
		t.Fatalf("unexpected account: %+v", account)
	}

	missing, err := svc.FindKeeperAccountByEmail(nil, "absent@example.com")
	if err != nil {
		t.Fatalf("find missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing account should be nil")
	}

	if _, err := svc.FindKeeperAccountByEmail(nil, "bogus"); !errors.Is(err, ErrKeeperAccountInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestCheckKeeperAccountStatus(t *testing.T) {
	gateway := &stubGateway{
		accounts: []stripe.Account{
			{ID: "acct_done", ChargesEnabled: true, PayoutsEnabled: true, DetailsSubmitted: true},
			{ID: "acct_partial", ChargesEnabled: true, PayoutsEnabled: false, DetailsSubmitted: true},
		},
	}
	svc, _ := setupPaymentServiceTest(t, gateway, &recordingPublisher{})

	done, err := svc.CheckKeeperAccountStatus(nil, "acct_done")
	if err != nil {
		t.Fatalf("check status failed: %v", err)
	}
	if !done.IsComplete {
		t.Fatalf("expected complete account")
	}

	partial, err := svc.CheckKeeperAccountStatus(nil, "acct_partial")
	if err != nil {
		t.Fatalf("check status failed: %v", err)
	}
	if partial.IsComplete {
		t.Fatalf("payouts disabled account must not be complete")
	}
	if !partial.ChargesEnabled || partial.PayoutsEnabled || !partial.DetailsSubmitted {
		t.Fatalf("unexpected status fields: %+v", partial)
	}
}

func TestCheckKeeperAccountStatusWithoutCacheHitsGateway(t *testing.T) {
	gateway := &stubGateway{
		accounts: []stripe.Account{
			{ID: "acct_done", ChargesEnabled: true, PayoutsEnabled: true, DetailsSubmitted: true},
		},
	}
	svc, _ := setupPaymentServiceTest(t, gateway, &recordingPublisher{})

	for i := 0; i < 2; i++ {
		status, err := svc.CheckKeeperAccountStatus(nil, "acct_done")
		if err != nil {
			t.Fatalf("check status failed: %v", err)
		}
		if !status.IsComplete {
			t.Fatalf("expected complete account")
		}
	}
	if gateway.retrieveCalls != 2 {
		t.Fatalf("expected 2 gateway lookups without a cache, got %d", gateway.retrieveCalls)
	}
}

func TestKeeperAccountGatewayErrors(t *testing.T) {
	gateway := &stubGateway{accountErr: fmt.Errorf("%w: down", stripe.ErrRequestFailed)}
	svc, _ := setupPaymentServiceTest(t, gateway, &recordingPublisher{})

	if _, err := svc.CreateKeeperAccount(nil, "keeper@example.com"); !errors.Is(err, ErrPaymentGatewayRequestFailed) {
		t.Fatalf("expected gateway request error, got %v", err)
	}
	if _, err := svc.CheckKeeperAccountStatus(nil, "acct_1"); !errors.Is(err, ErrPaymentGatewayRequestFailed) {
		t.Fatalf("expected gateway request error, got %v", err)
	}
	if _, err := svc.FindKeeperAccountByEmail(nil, "keeper@example.com"); !errors.Is(err, ErrPaymentGatewayRequestFailed) {
		t.Fatalf("expected gateway request error, got %v", err)
	}
}
