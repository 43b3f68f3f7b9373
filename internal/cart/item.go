package cart

import (
	"strconv"
	"strings"
)

const (
	// DefaultName labels items whose source record carried no usable name.
	DefaultName        = "Unnamed Product"
	DefaultImage       = "/images/placeholder.png"
	DefaultDescription = "No description available"

	MinQuantity = 1
	MaxQuantity = 99

	// keySeparator joins the id and variant values into a line-item key. It is
	// not expected to occur inside product ids.
	keySeparator = "::"

	// fallbackID stands in for records missing an id entirely.
	fallbackID = "unknown-product"
)

// LineItem is the canonical cart entry. Everything outside this package deals
// in this strict shape; loose input stops at Sanitize.
type LineItem struct {
	ID            string  `json:"id"`
	LineItemKey   string  `json:"line_item_key"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price"`
	Quantity      int     `json:"quantity"`
	Selected      bool    `json:"selected"`
	Image         string  `json:"image"`
	Description   string  `json:"description"`

	SelectedColor    string `json:"selected_color,omitempty"`
	SelectedSize     string `json:"selected_size,omitempty"`
	SelectedMaterial string `json:"selected_material,omitempty"`
	SelectedRAM      string `json:"selected_ram,omitempty"`

	// Offered option lists, carried so checkout can enforce that every
	// dimension with options has a selection.
	Colors    []string `json:"colors,omitempty"`
	Sizes     []string `json:"sizes,omitempty"`
	Materials []string `json:"materials,omitempty"`
	RAMs      []string `json:"rams,omitempty"`
}

// LineItemKey derives the stable composite identity for a product+variant
// combination. The same id with identical non-empty variant values always
// yields the same key, so repeat adds collapse onto one row. With no variants
// the key degenerates to the bare id.
func LineItemKey(item LineItem) string {
	id := item.ID
	if id == "" {
		id = fallbackID
	}
	parts := []string{id}
	for _, variant := range []string{item.SelectedColor, item.SelectedSize, item.SelectedMaterial, item.SelectedRAM} {
		if variant != "" {
			parts = append(parts, variant)
		}
	}
	return strings.Join(parts, keySeparator)
}

// Sanitize normalizes an arbitrary externally-shaped record into a LineItem.
// Every field resolves through a fallback chain ending in a safe default, so
// the function never fails, even on garbage.
func Sanitize(raw map[string]any) LineItem {
	item := LineItem{
		ID:               firstString(raw, "id", "_id"),
		Name:             firstString(raw, "name", "title"),
		Image:            firstString(raw, "image", "img", "mainImage"),
		Description:      firstString(raw, "description"),
		SelectedColor:    firstString(raw, "selected_color", "selectedColor", "color"),
		SelectedSize:     firstString(raw, "selected_size", "selectedSize", "size"),
		SelectedMaterial: firstString(raw, "selected_material", "selectedMaterial", "material"),
		SelectedRAM:      firstString(raw, "selected_ram", "selectedRam", "ram"),
		Colors:           firstStringSlice(raw, "colors"),
		Sizes:            firstStringSlice(raw, "sizes"),
		Materials:        firstStringSlice(raw, "materials"),
		RAMs:             firstStringSlice(raw, "rams"),
		Selected:         true,
	}
	if item.ID == "" {
		item.ID = fallbackID
	}
	if item.Name == "" {
		item.Name = DefaultName
	}
	if item.Image == "" {
		item.Image = DefaultImage
	}
	if item.Description == "" {
		item.Description = DefaultDescription
	}

	item.Price = coercePrice(firstValue(raw, "price"))
	item.OriginalPrice = coercePrice(firstValue(raw, "original_price", "originalPrice", "compare_at_price"))
	if item.OriginalPrice == 0 {
		item.OriginalPrice = item.Price
	}

	item.Quantity = clampQuantity(coerceInt(firstValue(raw, "quantity", "qty"), MinQuantity))

	if selected, ok := firstValue(raw, "selected").(bool); ok {
		item.Selected = selected
	}

	item.LineItemKey = LineItemKey(item)
	return item
}

// normalizeItem re-applies bounds and identity to an already-typed item, used
// when restoring persisted lists.
func normalizeItem(item LineItem) LineItem {
	if item.ID == "" {
		item.ID = fallbackID
	}
	if item.Name == "" {
		item.Name = DefaultName
	}
	if item.Price < 0 {
		item.Price = 0
	}
	if item.OriginalPrice == 0 {
		item.OriginalPrice = item.Price
	}
	item.Quantity = clampQuantity(item.Quantity)
	item.LineItemKey = LineItemKey(item)
	return item
}

func clampQuantity(qty int) int {
	if qty < MinQuantity {
		return MinQuantity
	}
	if qty > MaxQuantity {
		return MaxQuantity
	}
	return qty
}

func firstValue(raw map[string]any, keys ...string) any {
	for _, key := range keys {
		if val, ok := raw[key]; ok && val != nil {
			return val
		}
	}
	return nil
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch val := raw[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(val); trimmed != "" {
				return trimmed
			}
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		case int:
			return strconv.Itoa(val)
		}
	}
	return ""
}

func firstStringSlice(raw map[string]any, keys ...string) []string {
	for _, key := range keys {
		switch val := raw[key].(type) {
		case []string:
			return val
		case []any:
			out := make([]string, 0, len(val))
			for _, entry := range val {
				if s, ok := entry.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func coercePrice(val any) float64 {
	parsed := coerceFloat(val)
	if parsed < 0 {
		return 0
	}
	return parsed
}

func coerceFloat(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return parsed
		}
	}
	return 0
}

func coerceInt(val any, fallback int) int {
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}
