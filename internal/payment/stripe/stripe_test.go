package stripe

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClientConfigDefaults(t *testing.T) {
	client, err := NewClient(Config{
		SecretKey:     " sk_test_123 ",
		WebhookSecret: " whsec_123 ",
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.cfg.SecretKey != "sk_test_123" {
		t.Fatalf("unexpected secret key: %s", client.cfg.SecretKey)
	}
	if client.cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("unexpected default api base url: %s", client.cfg.APIBaseURL)
	}
	if client.cfg.WebhookToleranceSeconds != defaultWebhookToleranceS {
		t.Fatalf("unexpected default tolerance: %d", client.cfg.WebhookToleranceSeconds)
	}
	if client.cfg.AccountListLimit != defaultAccountListLimit {
		t.Fatalf("unexpected default account list limit: %d", client.cfg.AccountListLimit)
	}

	if _, err := NewClient(Config{WebhookSecret: "whsec"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config error for missing secret key, got %v", err)
	}
	if _, err := NewClient(Config{SecretKey: "sk"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config error for missing webhook secret, got %v", err)
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test_123" {
			t.Fatalf("unexpected authorization header: %s", r.Header.Get("Authorization"))
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form failed: %v", err)
		}
		gotForm = map[string]string{
			"amount":                     r.PostForm.Get("amount"),
			"currency":                   r.PostForm.Get("currency"),
			"application_fee_amount":     r.PostForm.Get("application_fee_amount"),
			"transfer_data[destination]": r.PostForm.Get("transfer_data[destination]"),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            "pi_test_123",
			"client_secret": "pi_test_123_secret_abc",
			"status":        "requires_payment_method",
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_123",
		APIBaseURL:    server.URL,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	result, err := client.CreatePaymentIntent(nil, PaymentIntentInput{
		Amount:             2000,
		Currency:           "EUR",
		ApplicationFee:     200,
		DestinationAccount: "acct_test_keeper",
		Metadata:           map[string]string{"reservation_id": "res-1"},
	})
	if err != nil {
		t.Fatalf("create payment intent failed: %v", err)
	}
	if result.ID != "pi_test_123" {
		t.Fatalf("unexpected payment intent id: %s", result.ID)
	}
	if result.ClientSecret != "pi_test_123_secret_abc" {
		t.Fatalf("unexpected client secret: %s", result.ClientSecret)
	}
	if gotForm["amount"] != "2000" || gotForm["currency"] != "eur" {
		t.Fatalf("unexpected amount/currency form values: %v", gotForm)
	}
	if gotForm["application_fee_amount"] != "200" {
		t.Fatalf("unexpected application fee: %s", gotForm["application_fee_amount"])
	}
	if gotForm["transfer_data[destination]"] != "acct_test_keeper" {
		t.Fatalf("unexpected destination: %s", gotForm["transfer_data[destination]"])
	}
}

func TestCreatePaymentIntentRejectsInvalidInput(t *testing.T) {
	client, err := NewClient(Config{SecretKey: "sk", WebhookSecret: "whsec"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	cases := []PaymentIntentInput{
		{Amount: 0, Currency: "eur", DestinationAccount: "acct_1"},
		{Amount: 100, Currency: "", DestinationAccount: "acct_1"},
		{Amount: 100, Currency: "eur", DestinationAccount: ""},
		{Amount: 100, Currency: "eur", ApplicationFee: 200, DestinationAccount: "acct_1"},
	}
	for i, input := range cases {
		if _, err := client.CreatePaymentIntent(nil, input); !errors.Is(err, ErrConfigInvalid) {
			t.Fatalf("case %d: expected config error, got %v", i, err)
		}
	}
}

func TestCreateAccountAndLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/accounts":
			if r.PostForm.Get("type") != "express" {
				t.Fatalf("unexpected account type: %s", r.PostForm.Get("type"))
			}
			if r.PostForm.Get("capabilities[card_payments][requested]") != "true" {
				t.Fatalf("card_payments capability not requested; form: %v", r.PostForm)
			}
			if r.PostForm.Get("capabilities[transfers][requested]") != "true" {
				t.Fatalf("transfers capability not requested; form: %v", r.PostForm)
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id":                "acct_test_1",
				"email":             r.PostForm.Get("email"),
				"charges_enabled":   false,
				"payouts_enabled":   false,
				"details_submitted": false,
			})
		case "/v1/account_links":
			if r.PostForm.Get("type") != "account_onboarding" {
				t.Fatalf("unexpected link type: %s", r.PostForm.Get("type"))
			}
			if r.PostForm.Get("refresh_url") == "" || r.PostForm.Get("return_url") == "" {
				t.Fatalf("missing refresh/return url")
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"url":        "https://connect.stripe.com/setup/s/test",
				"expires_at": 1760000300,
			})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_123",
		APIBaseURL:    server.URL,
		RefreshURL:    "https://example.com/onboarding/refresh",
		ReturnURL:     "https://example.com/onboarding/return",
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	account, err := client.CreateAccount(nil, "keeper@example.com")
	if err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	if account.ID != "acct_test_1" {
		t.Fatalf("unexpected account id: %s", account.ID)
	}
	if account.Email != "keeper@example.com" {
		t.Fatalf("unexpected account email: %s", account.Email)
	}

	link, err := client.CreateAccountLink(nil, account.ID)
	if err != nil {
		t.Fatalf("create account link failed: %v", err)
	}
	if link.URL != "https://connect.stripe.com/setup/s/test" {
		t.Fatalf("unexpected link url: %s", link.URL)
	}
	if link.ExpiresAt == nil || link.ExpiresAt.Unix() != 1760000300 {
		t.Fatalf("unexpected link expiry: %v", link.ExpiresAt)
	}
}

func TestRetrieveAndListAccounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/accounts/acct_test_1":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id":                "acct_test_1",
				"email":             "keeper@example.com",
				"charges_enabled":   true,
				"payouts_enabled":   true,
				"details_submitted": true,
			})
		case "/v1/accounts":
			if r.URL.Query().Get("limit") != "100" {
				t.Fatalf("unexpected limit: %s", r.URL.Query().Get("limit"))
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"object": "list",
				"data": []interface{}{
					map[string]interface{}{"id": "acct_test_1", "email": "keeper@example.com"},
					map[string]interface{}{"id": "acct_test_2", "email": "other@example.com"},
				},
			})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_123",
		APIBaseURL:    server.URL,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	account, err := client.RetrieveAccount(nil, "acct_test_1")
	if err != nil {
		t.Fatalf("retrieve account failed: %v", err)
	}
	if !account.ChargesEnabled || !account.PayoutsEnabled || !account.DetailsSubmitted {
		t.Fatalf("unexpected account flags: %+v", account)
	}

	accounts, err := client.ListAccounts(nil)
	if err != nil {
		t.Fatalf("list accounts failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("accounts len want 2 got %d", len(accounts))
	}
	if accounts[1].Email != "other@example.com" {
		t.Fatalf("unexpected account email: %s", accounts[1].Email)
	}
}

func TestVerifyAndParseWebhookPaymentIntentSucceeded(t *testing.T) {
	now := time.Unix(1760000000, 0)
	client, err := NewClient(Config{
		SecretKey:               "sk_test_123",
		WebhookSecret:           "whsec_test_abc",
		WebhookToleranceSeconds: 300,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	payload := map[string]interface{}{
		"id":   "evt_test_1",
		"type": "payment_intent.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":          "payment_intent",
				"id":              "pi_test_123",
				"currency":        "eur",
				"amount":          2000,
				"amount_received": 2000,
			},
		},
	}
	body, _ := json.Marshal(payload)
	sig := computeSignature("whsec_test_abc", now.Unix(), body)
	headers := map[string]string{
		"Stripe-Signature": "t=1760000000,v1=" + sig,
	}

	event, err := client.VerifyAndParseWebhook(headers, body, now)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if event.EventType != "payment_intent.succeeded" {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	if event.PaymentIntentID != "pi_test_123" {
		t.Fatalf("unexpected payment intent id: %s", event.PaymentIntentID)
	}
	if event.Amount != 2000 || event.Currency != "eur" {
		t.Fatalf("unexpected amount/currency: %d %s", event.Amount, event.Currency)
	}
}

func TestVerifyAndParseWebhookRejectsBadSignature(t *testing.T) {
	now := time.Unix(1760000000, 0)
	client, err := NewClient(Config{
		SecretKey:               "sk_test_123",
		WebhookSecret:           "whsec_test_abc",
		WebhookToleranceSeconds: 300,
	})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	payload := map[string]interface{}{
		"id":   "evt_test_1",
		"type": "payment_intent.succeeded",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object": "payment_intent",
				"id":     "pi_test_123",
			},
		},
	}
	body, _ := json.Marshal(payload)

	_, err = client.VerifyAndParseWebhook(map[string]string{
		"Stripe-Signature": "t=1760000000,v1=invalid-signature",
	}, body, now)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}

	_, err = client.VerifyAndParseWebhook(nil, body, now)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error for missing header, got %v", err)
	}

	sig := computeSignature("whsec_test_abc", now.Unix(), body)
	_, err = client.VerifyAndParseWebhook(map[string]string{
		"Stripe-Signature": "t=1760000000,v1=" + sig,
	}, body, now.Add(10*time.Minute))
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error for stale timestamp, got %v", err)
	}
}
