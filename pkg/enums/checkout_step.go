package enums

// CheckoutStep names a state in the two-step checkout wizard.
type CheckoutStep string

const (
	CheckoutStepCustomization CheckoutStep = "customization"
	CheckoutStepPayment       CheckoutStep = "payment"
)

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	return string(s)
}
