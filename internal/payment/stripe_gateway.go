package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

type stripeIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGateway はStripe PaymentIntentでGatewayを実装する
type StripeGateway struct {
	intents  stripeIntentAPI
	currency string
}

type StripeGatewayConfig struct {
	APIKey   string
	Currency string
	// テストで差し替える
	Intents stripeIntentAPI
}

func NewStripeGateway(cfg StripeGatewayConfig) (*StripeGateway, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Intents == nil {
		return nil, errors.New("stripe: api key is required")
	}

	intents := cfg.Intents
	if intents == nil {
		sc := client.New(apiKey, nil)
		intents = sc.PaymentIntents
	}

	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "usd"
	}

	return &StripeGateway{intents: intents, currency: currency}, nil
}

// カード専用のPaymentIntentを作成する
func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, orderRef string) (Intent, error) {
	if amount <= 0 {
		return Intent{}, errors.New("stripe: amount must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(g.currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Description:        stripe.String(fmt.Sprintf("Order %s", orderRef)),
		Metadata: map[string]string{
			"order_ref": orderRef,
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(orderRef)

	intent, err := g.intents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	return Intent{
		ProviderRef:  intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// プロバイダに現在の状態を問い合わせる
func (g *StripeGateway) QueryStatus(ctx context.Context, providerRef string) (Status, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := g.intents.Get(providerRef, params)
	if err != nil {
		return "", fmt.Errorf("stripe: lookup payment intent: %w", err)
	}

	return mapStripeStatus(intent.Status), nil
}

// requires_* と processing はまだ結果が出ていない扱い
func mapStripeStatus(s stripe.PaymentIntentStatus) Status {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return StatusFailed
	case stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresCapture,
		stripe.PaymentIntentStatusProcessing:
		return StatusPending
	}
	return StatusFailed
}
