package checkout

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/multimart/multimart-backend/internal/cart"
	"github.com/multimart/multimart-backend/pkg/enums"
	pkgerrors "github.com/multimart/multimart-backend/pkg/errors"
)

// Flow is one session's checkout draft: a snapshot of the items being bought
// plus the wizard position. It lives only for the session and is discarded on
// completion or cancellation.
type Flow struct {
	SessionID string              `json:"session_id"`
	Step      enums.CheckoutStep  `json:"step"`
	Items     []cart.LineItem     `json:"items"`
	Form      ShippingForm        `json:"form"`
	Method    enums.PaymentMethod `json:"payment_method,omitempty"`

	// OrderID is generated at submission and reused when the gateway calls
	// back, so both settlement paths record the same identifier.
	OrderID        string `json:"order_id,omitempty"`
	GatewayOrderID string `json:"gateway_order_id,omitempty"`
	Processing     bool   `json:"processing"`

	CreatedAt time.Time `json:"created_at"`

	// settling is set while a verified payment is being recorded, so a
	// duplicated callback cannot persist the order twice.
	settling bool
}

// customizationErrors aggregates the per-item validation failures blocking
// the advance to payment.
func customizationErrors(items []cart.LineItem) error {
	var errs []error
	for _, item := range items {
		if len(item.Colors) > 0 && item.SelectedColor == "" {
			errs = append(errs, fmt.Errorf("%s: color selection required", item.Name))
		}
		if len(item.Sizes) > 0 && item.SelectedSize == "" {
			errs = append(errs, fmt.Errorf("%s: size selection required", item.Name))
		}
		if len(item.Materials) > 0 && item.SelectedMaterial == "" {
			errs = append(errs, fmt.Errorf("%s: material selection required", item.Name))
		}
		if len(item.RAMs) > 0 && item.SelectedRAM == "" {
			errs = append(errs, fmt.Errorf("%s: RAM selection required", item.Name))
		}
	}
	return multierr.Combine(errs...)
}

// amountCents totals the snapshot in minor currency units. Decimal arithmetic
// avoids float artifacts in the figure handed to the gateway.
func amountCents(items []cart.LineItem) int64 {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total.Shift(2).Round(0).IntPart()
}

func validateAdvance(flow *Flow) error {
	if err := customizationErrors(flow.Items); err != nil {
		var messages []string
		for _, e := range multierr.Errors(err) {
			messages = append(messages, e.Error())
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "complete the required customizations before continuing").
			WithDetails(map[string]any{"items": messages})
	}
	return nil
}
