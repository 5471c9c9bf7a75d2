package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Metadata keys stored on every checkout session.
const (
	MetadataAttemptID = "attemptId"
	MetadataUserID    = "userId"
)

// CheckoutInput describes a one-item hosted checkout.
type CheckoutInput struct {
	AttemptID     string
	UserID        string
	CustomerEmail string
	ProductName   string
	AmountCents   int64
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// Session is the part of a checkout session the service relies on.
type Session struct {
	ID          string
	URL         string
	Paid        bool
	AmountTotal int64
	Metadata    map[string]string
}

// StripeGateway opens and inspects Stripe Checkout sessions.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a gateway for the given secret key.
func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

// CreateSession opens a payment-mode checkout session.
func (g *StripeGateway) CreateSession(ctx context.Context, in CheckoutInput) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
		ClientReferenceID: stripe.String(in.AttemptID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(in.Currency),
				UnitAmount: stripe.Int64(in.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(in.ProductName),
				},
			},
		}},
	}
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}
	params.AddMetadata(MetadataAttemptID, in.AttemptID)
	params.AddMetadata(MetadataUserID, in.UserID)
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return toSession(sess), nil
}

// GetSession fetches a checkout session by id.
func (g *StripeGateway) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := g.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return toSession(sess), nil
}

func toSession(sess *stripe.CheckoutSession) *Session {
	return &Session{
		ID:          sess.ID,
		URL:         sess.URL,
		Paid:        sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal: sess.AmountTotal,
		Metadata:    sess.Metadata,
	}
}
