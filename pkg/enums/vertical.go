package enums

import "fmt"

// Vertical identifies which storefront a product belongs to.
type Vertical string

const (
	VerticalPrinting    Vertical = "printing"
	VerticalMarketplace Vertical = "marketplace"
	VerticalMarket      Vertical = "market"
	VerticalNews        Vertical = "news"
)

var validVerticals = []Vertical{
	VerticalPrinting,
	VerticalMarketplace,
	VerticalMarket,
	VerticalNews,
}

// String implements fmt.Stringer.
func (v Vertical) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Vertical.
func (v Vertical) IsValid() bool {
	for _, candidate := range validVerticals {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVertical converts raw input into a Vertical.
func ParseVertical(value string) (Vertical, error) {
	for _, candidate := range validVerticals {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vertical %q", value)
}
