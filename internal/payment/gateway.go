// Package payment abstracts the external payment provider. Handlers
// create intents before checkout and request refunds for cancelled
// paid bookings; the booking service only records the references.
package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-reservation/internal/model"
)

// Intent is a created payment intent.
type Intent struct {
	Reference    string      `json:"reference"`
	ClientSecret string      `json:"client_secret"`
	Amount       model.Money `json:"amount"`
	Currency     string      `json:"currency"`
}

// Gateway is the payment provider.
type Gateway interface {
	CreateIntent(ctx context.Context, amount model.Money, currency string) (Intent, error)
	Refund(ctx context.Context, reference string) (string, error)
}

// Offline is a Gateway that settles everything locally. It is used in
// development and tests, and wherever no provider is configured.
type Offline struct{}

// NewOffline returns an Offline gateway.
func NewOffline() *Offline { return &Offline{} }

// CreateIntent implements Gateway.
func (Offline) CreateIntent(_ context.Context, amount model.Money, currency string) (Intent, error) {
	if amount <= 0 {
		return Intent{}, model.ErrInvalidInput
	}
	ref := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return Intent{
		Reference:    ref,
		ClientSecret: ref + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Amount:       amount,
		Currency:     strings.ToLower(currency),
	}, nil
}

// Refund implements Gateway.
func (Offline) Refund(_ context.Context, reference string) (string, error) {
	if reference == "" {
		return "", model.ErrInvalidInput
	}
	return "re_" + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}
