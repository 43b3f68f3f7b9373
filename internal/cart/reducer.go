package cart

import "github.com/multimart/multimart-backend/pkg/enums"

// Notification is the transient banner shown after certain cart mutations.
type Notification struct {
	Show    bool                   `json:"show"`
	Message string                 `json:"message"`
	Type    enums.NotificationType `json:"type"`
}

// State is the full reducer state: the item list plus the notification.
type State struct {
	Items        []LineItem   `json:"items"`
	Notification Notification `json:"notification"`
}

// Action is the closed set of cart transitions. The sealed marker keeps the
// set exhaustive at compile time.
type Action interface {
	isAction()
}

// AddItem appends a sanitized item, or sums quantity onto an existing row
// with the same line-item key.
type AddItem struct {
	Item LineItem
}

// RemoveItem drops the row with the given key.
type RemoveItem struct {
	Key string
}

// UpdateQuantity sets a row's quantity; non-positive results drop the row.
type UpdateQuantity struct {
	Key      string
	Quantity int
}

// CustomizationFields carries the optional variant changes applied by
// UpdateCustomization. Nil fields are left untouched.
type CustomizationFields struct {
	Color    *string
	Size     *string
	Material *string
	RAM      *string
}

// UpdateCustomization merges variant changes into a row and recomputes its
// identity. A key collision with another row merges the two.
type UpdateCustomization struct {
	Key    string
	Fields CustomizationFields
}

// ToggleSelect flips the selected flag on the matching row.
type ToggleSelect struct {
	Key string
}

// SelectAll marks every row selected.
type SelectAll struct{}

// DeselectAll marks every row unselected.
type DeselectAll struct{}

// Clear empties the item list.
type Clear struct{}

// Load replaces the item list wholesale, used on persistence restore.
type Load struct {
	Items []LineItem
}

// ShowNotification sets the notification banner.
type ShowNotification struct {
	Message string
	Type    enums.NotificationType
}

// HideNotification clears the notification banner.
type HideNotification struct{}

func (AddItem) isAction()             {}
func (RemoveItem) isAction()          {}
func (UpdateQuantity) isAction()      {}
func (UpdateCustomization) isAction() {}
func (ToggleSelect) isAction()        {}
func (SelectAll) isAction()           {}
func (DeselectAll) isAction()         {}
func (Clear) isAction()               {}
func (Load) isAction()                {}
func (ShowNotification) isAction()    {}
func (HideNotification) isAction()    {}

// Reduce applies one action to the state and returns the next state. It is a
// pure function: the input state is never mutated.
func Reduce(state State, action Action) State {
	switch act := action.(type) {
	case AddItem:
		return reduceAdd(state, act.Item)
	case RemoveItem:
		next := state
		next.Items = filterItems(state.Items, act.Key)
		next.Notification = Notification{Show: true, Message: "Item removed from cart", Type: enums.NotificationInfo}
		return next
	case UpdateQuantity:
		return reduceUpdateQuantity(state, act)
	case UpdateCustomization:
		return reduceUpdateCustomization(state, act)
	case ToggleSelect:
		next := state
		next.Items = mapItems(state.Items, func(item LineItem) LineItem {
			if item.LineItemKey == act.Key {
				item.Selected = !item.Selected
			}
			return item
		})
		return next
	case SelectAll:
		next := state
		next.Items = mapItems(state.Items, func(item LineItem) LineItem {
			item.Selected = true
			return item
		})
		return next
	case DeselectAll:
		next := state
		next.Items = mapItems(state.Items, func(item LineItem) LineItem {
			item.Selected = false
			return item
		})
		return next
	case Clear:
		next := state
		next.Items = nil
		next.Notification = Notification{Show: true, Message: "Cart cleared", Type: enums.NotificationInfo}
		return next
	case Load:
		next := state
		next.Items = mapItems(act.Items, normalizeItem)
		return next
	case ShowNotification:
		next := state
		next.Notification = Notification{Show: true, Message: act.Message, Type: act.Type}
		return next
	case HideNotification:
		next := state
		next.Notification = Notification{}
		return next
	default:
		// The action set is closed; anything else is a caller bug the store
		// logs. The state stays untouched.
		return state
	}
}

func reduceAdd(state State, item LineItem) State {
	item = normalizeItem(item)
	item.Selected = true

	next := state
	merged := false
	next.Items = mapItems(state.Items, func(existing LineItem) LineItem {
		if existing.LineItemKey == item.LineItemKey {
			existing.Quantity = clampQuantity(existing.Quantity + item.Quantity)
			merged = true
		}
		return existing
	})
	if merged {
		next.Notification = Notification{Show: true, Message: "Cart quantity updated", Type: enums.NotificationSuccess}
		return next
	}
	next.Items = append(next.Items, item)
	next.Notification = Notification{Show: true, Message: "Item added to cart", Type: enums.NotificationSuccess}
	return next
}

func reduceUpdateQuantity(state State, act UpdateQuantity) State {
	next := state
	if act.Quantity <= 0 {
		next.Items = filterItems(state.Items, act.Key)
		return next
	}
	qty := clampQuantity(act.Quantity)
	next.Items = mapItems(state.Items, func(item LineItem) LineItem {
		if item.LineItemKey == act.Key {
			item.Quantity = qty
		}
		return item
	})
	return next
}

func reduceUpdateCustomization(state State, act UpdateCustomization) State {
	idx := -1
	for i, item := range state.Items {
		if item.LineItemKey == act.Key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return state
	}

	edited := state.Items[idx]
	if act.Fields.Color != nil {
		edited.SelectedColor = *act.Fields.Color
	}
	if act.Fields.Size != nil {
		edited.SelectedSize = *act.Fields.Size
	}
	if act.Fields.Material != nil {
		edited.SelectedMaterial = *act.Fields.Material
	}
	if act.Fields.RAM != nil {
		edited.SelectedRAM = *act.Fields.RAM
	}
	edited.LineItemKey = LineItemKey(edited)

	// A recomputed key can collide with another row. The rows merge: the
	// edited row survives in place with the summed quantity and keeps its own
	// non-identity fields, the stale row is dropped.
	next := state
	items := make([]LineItem, 0, len(state.Items))
	for i, item := range state.Items {
		if i == idx {
			continue
		}
		if item.LineItemKey == edited.LineItemKey {
			edited.Quantity = clampQuantity(edited.Quantity + item.Quantity)
			continue
		}
		items = append(items, item)
	}
	// Reinsert at the edited row's position among the survivors.
	pos := idx
	if pos > len(items) {
		pos = len(items)
	}
	items = append(items[:pos], append([]LineItem{edited}, items[pos:]...)...)
	next.Items = items
	return next
}

func mapItems(items []LineItem, fn func(LineItem) LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}

func filterItems(items []LineItem, dropKey string) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.LineItemKey != dropKey {
			out = append(out, item)
		}
	}
	return out
}
