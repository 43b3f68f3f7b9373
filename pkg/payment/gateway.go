// Package payment wraps the external payment gateway collaborator. The
// checkout flow treats it as a black box: create an order, then verify the
// signature the widget hands back.
package payment

import "context"

// Gateway is the contract the checkout flow consumes.
type Gateway interface {
	// CreateOrder registers an intent to collect amountCents and returns the
	// gateway's order identifier.
	CreateOrder(ctx context.Context, amountCents int64, receipt string) (string, error)
	// VerifySignature reports whether the callback signature matches the
	// order/payment pair.
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}
