package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// Provider creates a hosted payment session for a single aggregate line
// item and returns the URL the buyer is redirected to. The storefront
// never touches card data itself.
type Provider interface {
	CreateSession(ctx context.Context, label string, amountCents int64) (string, error)
}

type StripeProvider struct {
	api        *client.API
	successURL string
	cancelURL  string
}

func NewStripeProvider(apiKey, baseURL string) *StripeProvider {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeProvider{
		api:        api,
		successURL: baseURL + "/success/",
		cancelURL:  baseURL + "/cancel",
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, label string, amountCents int64) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(uuid.NewString()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyUSD)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(label),
				},
				UnitAmount: stripe.Int64(amountCents),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
	}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}
