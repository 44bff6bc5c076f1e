package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrRequestFailed    = errors.New("stripe request failed")
	ErrResponseInvalid  = errors.New("stripe response invalid")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
)

const (
	defaultAPIBaseURL        = "https://api.stripe.com"
	defaultTimeout           = 12 * time.Second
	defaultWebhookToleranceS = 300
	defaultAccountListLimit  = 100
)

// Config holds the Stripe client settings.
type Config struct {
	SecretKey               string `json:"secret_key"`
	WebhookSecret           string `json:"webhook_secret"`
	RefreshURL              string `json:"refresh_url"`
	ReturnURL               string `json:"return_url"`
	APIBaseURL              string `json:"api_base_url"`
	WebhookToleranceSeconds int    `json:"webhook_tolerance_seconds"`
	AccountListLimit        int    `json:"account_list_limit"`
}

// Client is a raw HTTP Stripe API client.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// PaymentIntentInput describes a destination charge with an application fee.
type PaymentIntentInput struct {
	Amount             int64
	Currency           string
	ApplicationFee     int64
	DestinationAccount string
	Metadata           map[string]string
}

// PaymentIntentResult is the created payment intent.
type PaymentIntentResult struct {
	ID           string
	ClientSecret string
	Status       string
	Raw          map[string]interface{}
}

// Account is a connected account snapshot.
type Account struct {
	ID               string
	Email            string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
	Raw              map[string]interface{}
}

// AccountLink is a hosted onboarding link.
type AccountLink struct {
	URL       string
	ExpiresAt *time.Time
	Raw       map[string]interface{}
}

// WebhookEvent is a verified webhook payload.
type WebhookEvent struct {
	EventID         string
	EventType       string
	PaymentIntentID string
	Amount          int64
	Currency        string
	Raw             map[string]interface{}
}

// NewClient creates a Stripe client.
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return fmt.Errorf("%w: api_base_url is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.APIBaseURL)); err != nil {
		return fmt.Errorf("%w: api_base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.RefreshURL = strings.TrimSpace(c.RefreshURL)
	c.ReturnURL = strings.TrimSpace(c.ReturnURL)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.WebhookToleranceSeconds <= 0 {
		c.WebhookToleranceSeconds = defaultWebhookToleranceS
	}
	if c.AccountListLimit <= 0 {
		c.AccountListLimit = defaultAccountListLimit
	}
}

// CreatePaymentIntent creates a destination charge payment intent.
//
// The application fee stays on the platform; the remainder transfers to the
// destination connected account on capture.
func (c *Client) CreatePaymentIntent(ctx context.Context, input PaymentIntentInput) (*PaymentIntentResult, error) {
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrConfigInvalid)
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	if input.ApplicationFee < 0 || input.ApplicationFee > input.Amount {
		return nil, fmt.Errorf("%w: application_fee is out of range", ErrConfigInvalid)
	}
	destination := strings.TrimSpace(input.DestinationAccount)
	if destination == "" {
		return nil, fmt.Errorf("%w: destination account is required", ErrConfigInvalid)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(input.Amount, 10))
	form.Set("currency", currency)
	form.Set("application_fee_amount", strconv.FormatInt(input.ApplicationFee, 10))
	form.Set("transfer_data[destination]", destination)
	form.Add("payment_method_types[]", "card")
	for key, value := range input.Metadata {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	respBody, statusCode, err := c.doFormRequest(ctx, http.MethodPost, "/v1/payment_intents", form)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: create payment intent status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	result := &PaymentIntentResult{Raw: raw}
	result.ID = strings.TrimSpace(readString(raw, "id"))
	result.ClientSecret = strings.TrimSpace(readString(raw, "client_secret"))
	result.Status = strings.TrimSpace(readString(raw, "status"))
	if result.ID == "" || result.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing payment intent id or client secret", ErrResponseInvalid)
	}
	return result, nil
}

// CreateAccount creates an express connected account for a keeper.
func (c *Client) CreateAccount(ctx context.Context, email string) (*Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrConfigInvalid)
	}

	form := url.Values{}
	form.Set("type", "express")
	form.Set("email", email)
	// Transfers must be requested up front or the account can never receive
	// the destination charges created for it.
	form.Set("capabilities[card_payments][requested]", "true")
	form.Set("capabilities[transfers][requested]", "true")

	respBody, statusCode, err := c.doFormRequest(ctx, http.MethodPost, "/v1/accounts", form)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: create account status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	account := accountFromRaw(raw)
	if account.ID == "" {
		return nil, fmt.Errorf("%w: missing account id", ErrResponseInvalid)
	}
	return account, nil
}

// CreateAccountLink creates a hosted onboarding link for a connected account.
func (c *Client) CreateAccountLink(ctx context.Context, accountID string) (*AccountLink, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrConfigInvalid)
	}
	if c.cfg.RefreshURL == "" || c.cfg.ReturnURL == "" {
		return nil, fmt.Errorf("%w: refresh_url and return_url are required", ErrConfigInvalid)
	}

	form := url.Values{}
	form.Set("account", accountID)
	form.Set("refresh_url", c.cfg.RefreshURL)
	form.Set("return_url", c.cfg.ReturnURL)
	form.Set("type", "account_onboarding")

	respBody, statusCode, err := c.doFormRequest(ctx, http.MethodPost, "/v1/account_links", form)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: create account link status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	link := &AccountLink{Raw: raw}
	link.URL = strings.TrimSpace(readString(raw, "url"))
	if expires := readInt64(raw, "expires_at"); expires > 0 {
		expiresAt := time.Unix(expires, 0)
		link.ExpiresAt = &expiresAt
	}
	if link.URL == "" {
		return nil, fmt.Errorf("%w: missing account link url", ErrResponseInvalid)
	}
	return link, nil
}

// RetrieveAccount fetches a connected account.
func (c *Client) RetrieveAccount(ctx context.Context, accountID string) (*Account, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrConfigInvalid)
	}

	path := fmt.Sprintf("/v1/accounts/%s", url.PathEscape(accountID))
	respBody, statusCode, err := c.doJSONRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: retrieve account status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	account := accountFromRaw(raw)
	if account.ID == "" {
		return nil, fmt.Errorf("%w: missing account id", ErrResponseInvalid)
	}
	return account, nil
}

// ListAccounts fetches up to AccountListLimit connected accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	path := fmt.Sprintf("/v1/accounts?limit=%d", c.cfg.AccountListLimit)
	respBody, statusCode, err := c.doJSONRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: list accounts status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	items, ok := raw["data"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: missing data list", ErrResponseInvalid)
	}
	accounts := make([]Account, 0, len(items))
	for _, item := range items {
		mapped, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		account := accountFromRaw(mapped)
		if account.ID == "" {
			continue
		}
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

// VerifyAndParseWebhook verifies the webhook signature and decodes the event.
//
// Verification is fail closed: a missing, malformed, stale, or mismatched
// signature always returns ErrSignatureInvalid.
func (c *Client) VerifyAndParseWebhook(headers map[string]string, body []byte, now time.Time) (*WebhookEvent, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	if now.IsZero() {
		now = time.Now()
	}

	signatureHeader := getHeaderValue(headers, "Stripe-Signature")
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("%w: Stripe-Signature is required", ErrSignatureInvalid)
	}
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}
	if c.cfg.WebhookToleranceSeconds > 0 {
		delta := math.Abs(float64(now.Unix() - timestamp))
		if delta > float64(c.cfg.WebhookToleranceSeconds) {
			return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
		}
	}

	expected := computeSignature(c.cfg.WebhookSecret, timestamp, body)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(strings.ToLower(sig)), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	eventRaw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	eventType := strings.TrimSpace(readString(eventRaw, "type"))
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	dataRaw := readMap(eventRaw, "data")
	if dataRaw == nil {
		return nil, fmt.Errorf("%w: missing data object", ErrResponseInvalid)
	}
	objectRaw := readMap(dataRaw, "object")
	if objectRaw == nil {
		return nil, fmt.Errorf("%w: missing event object", ErrResponseInvalid)
	}

	event := &WebhookEvent{
		EventID:   strings.TrimSpace(readString(eventRaw, "id")),
		EventType: eventType,
		Raw:       eventRaw,
	}
	if strings.TrimSpace(readString(objectRaw, "object")) == "payment_intent" {
		event.PaymentIntentID = strings.TrimSpace(readString(objectRaw, "id"))
		event.Currency = strings.ToLower(strings.TrimSpace(readString(objectRaw, "currency")))
		event.Amount = readInt64(objectRaw, "amount_received")
		if event.Amount <= 0 {
			event.Amount = readInt64(objectRaw, "amount")
		}
	}
	return event, nil
}

func accountFromRaw(raw map[string]interface{}) *Account {
	return &Account{
		ID:               strings.TrimSpace(readString(raw, "id")),
		Email:            strings.TrimSpace(readString(raw, "email")),
		ChargesEnabled:   readBool(raw, "charges_enabled"),
		PayoutsEnabled:   readBool(raw, "payouts_enabled"),
		DetailsSubmitted: readBool(raw, "details_submitted"),
		Raw:              raw,
	}
}

func (c *Client) doFormRequest(ctx context.Context, method, path string, form url.Values) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.cfg.APIBaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) doJSONRequest(ctx context.Context, method, path string) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.cfg.APIBaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return body, resp.StatusCode, nil
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func computeSignature(secret string, timestamp int64, body []byte) string {
	payload := strconv.FormatInt(timestamp, 10) + "." + string(body)
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(payload))
	return strings.ToLower(hex.EncodeToString(h.Sum(nil)))
}

func parseSignatureHeader(signatureHeader string) (int64, []string, error) {
	timestamp := int64(0)
	signatures := make([]string, 0)
	parts := strings.Split(signatureHeader, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}

func getHeaderValue(headers map[string]string, key string) string {
	if len(headers) == 0 || strings.TrimSpace(key) == "" {
		return ""
	}
	for h, value := range headers {
		if strings.EqualFold(strings.TrimSpace(h), key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil || strings.TrimSpace(key) == "" {
		return ""
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case float64:
		return strings.TrimSpace(strconv.FormatInt(int64(typed), 10))
	case int64:
		return strings.TrimSpace(strconv.FormatInt(typed, 10))
	case int:
		return strings.TrimSpace(strconv.Itoa(typed))
	default:
		return ""
	}
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	if raw == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return nil
	}
	mapped, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	return mapped
}

func readInt64(raw map[string]interface{}, key string) int64 {
	if raw == nil || strings.TrimSpace(key) == "" {
		return 0
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return 0
	}
	switch typed := value.(type) {
	case int64:
		return typed
	case int:
		return int64(typed)
	case float64:
		return int64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err == nil {
			return parsed
		}
		floatVal, err := typed.Float64()
		if err != nil {
			return 0
		}
		return int64(floatVal)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func readBool(raw map[string]interface{}, key string) bool {
	if raw == nil || strings.TrimSpace(key) == "" {
		return false
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return false
	}
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
		if err != nil {
			return false
		}
		return parsed
	default:
		return false
	}
}
