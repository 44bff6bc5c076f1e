package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/keeperpay/keeperpay/internal/cache"
	"github.com/keeperpay/keeperpay/internal/payment/stripe"
)

const (
	keeperStatusCacheTTL  = 5 * time.Minute
	keeperAccountCacheTTL = 10 * time.Minute
)

func keeperStatusCacheKey(accountID string) string {
	return "keeper:status:" + accountID
}

func keeperEmailCacheKey(email string) string {
	return "keeper:email:" + strings.ToLower(email)
}

// KeeperAccount is a keeper's connected account view.
type KeeperAccount struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	DetailsSubmitted bool   `json:"details_submitted"`
}

// KeeperAccountStatus is the onboarding completeness view.
type KeeperAccountStatus struct {
	IsComplete       bool `json:"is_complete"`
	ChargesEnabled   bool `json:"charges_enabled"`
	PayoutsEnabled   bool `json:"payouts_enabled"`
	DetailsSubmitted bool `json:"details_submitted"`
}

// KeeperOnboarding is a created account with its onboarding link.
type KeeperOnboarding struct {
	Account       KeeperAccount `json:"account"`
	OnboardingURL string        `json:"onboarding_url"`
	LinkExpiresAt *time.Time    `json:"link_expires_at,omitempty"`
}

func keeperAccountFromGateway(account *stripe.Account) KeeperAccount {
	return KeeperAccount{
		ID:               account.ID,
		Email:            account.Email,
		ChargesEnabled:   account.ChargesEnabled,
		PayoutsEnabled:   account.PayoutsEnabled,
		DetailsSubmitted: account.DetailsSubmitted,
	}
}

// CreateKeeperAccount creates a connected account for a keeper and returns
// the hosted onboarding link.
func (s *PaymentService) CreateKeeperAccount(ctx context.Context, email string) (*KeeperOnboarding, error) {
	email = strings.TrimSpace(email)
	log := paymentLogger("keeper_email", email)
	if email == "" {
		log.Warnw("keeper_account_create_empty_email")
		return nil, ErrKeeperAccountInvalid
	}
	if _, err := mail.ParseAddress(email); err != nil {
		log.Warnw("keeper_account_create_invalid_email", "error", err)
		return nil, ErrKeeperAccountInvalid
	}

	account, err := s.gateway.CreateAccount(ctx, email)
	if err != nil {
		log.Errorw("keeper_account_create_failed", "error", err)
		return nil, mapGatewayError(err)
	}
	link, err := s.gateway.CreateAccountLink(ctx, account.ID)
	if err != nil {
		log.Errorw("keeper_account_link_failed", "keeper_account_id", account.ID, "error", err)
		return nil, mapGatewayError(err)
	}

	log.Infow("keeper_account_created", "keeper_account_id", account.ID)
	return &KeeperOnboarding{
		Account:       keeperAccountFromGateway(account),
		OnboardingURL: link.URL,
		LinkExpiresAt: link.ExpiresAt,
	}, nil
}

// CreateKeeperAccountLink creates a fresh onboarding link for an existing
// connected account.
func (s *PaymentService) CreateKeeperAccountLink(ctx context.Context, accountID string) (*stripe.AccountLink, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrKeeperAccountInvalid
	}
	link, err := s.gateway.CreateAccountLink(ctx, accountID)
	if err != nil {
		paymentLogger("keeper_account_id", accountID).Errorw("keeper_account_link_failed", "error", err)
		return nil, mapGatewayError(err)
	}
	// A fresh link means the account is going back through onboarding; any
	// cached status is stale now.
	_ = cache.Del(ctx, keeperStatusCacheKey(accountID))
	return link, nil
}

// GetKeeperAccount fetches a connected account.
func (s *PaymentService) GetKeeperAccount(ctx context.Context, accountID string) (*KeeperAccount, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrKeeperAccountInvalid
	}
	account, err := s.gateway.RetrieveAccount(ctx, accountID)
	if err != nil {
		paymentLogger("keeper_account_id", accountID).Errorw("keeper_account_fetch_failed", "error", err)
		return nil, mapGatewayError(err)
	}
	view := keeperAccountFromGateway(account)
	return &view, nil
}

// FindKeeperAccountByEmail looks a connected account up by email. A missing
// account returns nil without error.
func (s *PaymentService) FindKeeperAccountByEmail(ctx context.Context, email string) (*KeeperAccount, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrKeeperAccountInvalid
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrKeeperAccountInvalid
	}
	cacheKey := keeperEmailCacheKey(email)
	var cached KeeperAccount
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}
	accounts, err := s.gateway.ListAccounts(ctx)
	if err != nil {
		paymentLogger("keeper_email", email).Errorw("keeper_account_list_failed", "error", err)
		return nil, mapGatewayError(err)
	}
	for _, account := range accounts {
		if strings.EqualFold(strings.TrimSpace(account.Email), email) {
			view := keeperAccountFromGateway(&account)
			// Only hits are cached; a missing account stays a live lookup so a
			// freshly onboarded keeper is found right away.
			_ = cache.SetJSON(ctx, cacheKey, view, keeperAccountCacheTTL)
			return &view, nil
		}
	}
	return nil, nil
}

// CheckKeeperAccountStatus reports onboarding completeness. An account is
// complete once it can both take charges and receive payouts.
func (s *PaymentService) CheckKeeperAccountStatus(ctx context.Context, accountID string) (*KeeperAccountStatus, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrKeeperAccountInvalid
	}
	cacheKey := keeperStatusCacheKey(accountID)
	var cached KeeperAccountStatus
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}
	account, err := s.gateway.RetrieveAccount(ctx, accountID)
	if err != nil {
		paymentLogger("keeper_account_id", accountID).Errorw("keeper_account_status_failed", "error", err)
		return nil, mapGatewayError(err)
	}
	status := &KeeperAccountStatus{
		IsComplete:       account.ChargesEnabled && account.PayoutsEnabled,
		ChargesEnabled:   account.ChargesEnabled,
		PayoutsEnabled:   account.PayoutsEnabled,
		DetailsSubmitted: account.DetailsSubmitted,
	}
	// Incomplete accounts are mid-onboarding, so their status is re-checked
	// live every time rather than served stale.
	if status.IsComplete {
		_ = cache.SetJSON(ctx, cacheKey, status, keeperStatusCacheTTL)
	}
	return status, nil
}

func mapGatewayError(err error) error {
	switch {
	case errors.Is(err, stripe.ErrConfigInvalid):
		return ErrKeeperAccountInvalid
	case errors.Is(err, stripe.ErrRequestFailed):
		return ErrPaymentGatewayRequestFailed
	default:
		return ErrPaymentGatewayResponseInvalid
	}
}
