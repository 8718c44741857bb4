package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eshop-backend/internal/config"
	"eshop-backend/internal/model"
)

// PaymentClient is the outbound surface to the payment gateway. Amounts are
// integer minor currency units.
type PaymentClient interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (*model.PaymentIntent, error)
	GetIntent(ctx context.Context, intentID string) (*model.PaymentIntent, error)
	UpdateIntentAmount(ctx context.Context, intentID string, amount int64) (*model.PaymentIntent, error)
	CancelIntent(ctx context.Context, intentID string) (*model.PaymentIntent, error)
}

// GatewayError is returned when the gateway answers outside 2xx.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.StatusCode, e.Body)
}

type stripeClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	secretKey  string
}

func NewStripeClient(cfg *config.Stripe) PaymentClient {
	return &stripeClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: cfg.BaseApiURL,
		secretKey:  cfg.SecretKey,
	}
}

func (c *stripeClientImpl) CreateIntent(ctx context.Context, amount int64, currency string) (*model.PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")

	return c.doIntentRequest(ctx, http.MethodPost, "/v1/payment_intents", form)
}

func (c *stripeClientImpl) GetIntent(ctx context.Context, intentID string) (*model.PaymentIntent, error) {
	path := "/v1/payment_intents/" + url.PathEscape(intentID)
	return c.doIntentRequest(ctx, http.MethodGet, path, nil)
}

func (c *stripeClientImpl) UpdateIntentAmount(ctx context.Context, intentID string, amount int64) (*model.PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))

	path := "/v1/payment_intents/" + url.PathEscape(intentID)
	return c.doIntentRequest(ctx, http.MethodPost, path, form)
}

func (c *stripeClientImpl) CancelIntent(ctx context.Context, intentID string) (*model.PaymentIntent, error) {
	path := "/v1/payment_intents/" + url.PathEscape(intentID) + "/cancel"
	return c.doIntentRequest(ctx, http.MethodPost, path, nil)
}

func (c *stripeClientImpl) doIntentRequest(ctx context.Context, method, path string, form url.Values) (*model.PaymentIntent, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var intent model.PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}

	return &intent, nil
}
