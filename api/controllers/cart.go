package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/multimart/multimart-backend/api/middleware"
	"github.com/multimart/multimart-backend/api/responses"
	"github.com/multimart/multimart-backend/api/validators"
	cartsvc "github.com/multimart/multimart-backend/internal/cart"
	pkgerrors "github.com/multimart/multimart-backend/pkg/errors"
	"github.com/multimart/multimart-backend/pkg/logger"
)

// CartView is the cart payload returned after every cart operation.
type CartView struct {
	Items         []cartsvc.LineItem   `json:"items"`
	Notification  cartsvc.Notification `json:"notification"`
	ItemsCount    int                  `json:"items_count"`
	CartTotal     float64              `json:"cart_total"`
	SelectedTotal float64              `json:"selected_total"`
}

func newCartView(store *cartsvc.Store) CartView {
	state := store.State()
	items := state.Items
	if items == nil {
		items = []cartsvc.LineItem{}
	}
	return CartView{
		Items:         items,
		Notification:  state.Notification,
		ItemsCount:    store.CartItemsCount(),
		CartTotal:     store.CartTotal(),
		SelectedTotal: store.SelectedTotal(),
	}
}

func cartViewOf(store *cartsvc.Store, state cartsvc.State) CartView {
	items := state.Items
	if items == nil {
		items = []cartsvc.LineItem{}
	}
	return CartView{
		Items:         items,
		Notification:  state.Notification,
		ItemsCount:    store.CartItemsCount(),
		CartTotal:     store.CartTotal(),
		SelectedTotal: store.SelectedTotal(),
	}
}

func sessionStore(r *http.Request, manager *cartsvc.Manager) (*cartsvc.Store, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session context missing")
	}
	return manager.ForSession(r.Context(), sessionID)
}

// CartFetch returns the session's current cart.
func CartFetch(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartAdd sanitizes an arbitrary product payload and adds it to the cart.
func CartAdd(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload map[string]any
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item := cartsvc.Sanitize(payload)
		state := store.Dispatch(cartsvc.AddItem{Item: item})
		responses.WriteSuccessStatus(w, http.StatusCreated, cartViewOf(store, state))
	}
}

// CartRemove drops the row addressed by its line-item key.
func CartRemove(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		key := chi.URLParam(r, "key")
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line item key is required"))
			return
		}
		state := store.Dispatch(cartsvc.RemoveItem{Key: key})
		responses.WriteSuccess(w, cartViewOf(store, state))
	}
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartQuantity sets a row's quantity. Zero or less removes the row.
func CartQuantity(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		key := chi.URLParam(r, "key")
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line item key is required"))
			return
		}
		var payload quantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state := store.Dispatch(cartsvc.UpdateQuantity{Key: key, Quantity: payload.Quantity})
		responses.WriteSuccess(w, cartViewOf(store, state))
	}
}

type customizationRequest struct {
	Color    *string `json:"color"`
	Size     *string `json:"size"`
	Material *string `json:"material"`
	RAM      *string `json:"ram"`
}

func (c customizationRequest) fields() cartsvc.CustomizationFields {
	return cartsvc.CustomizationFields{
		Color:    c.Color,
		Size:     c.Size,
		Material: c.Material,
		RAM:      c.RAM,
	}
}

// CartCustomize changes a row's variant selections, recomputing its identity.
func CartCustomize(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		key := chi.URLParam(r, "key")
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line item key is required"))
			return
		}
		var payload customizationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state := store.Dispatch(cartsvc.UpdateCustomization{Key: key, Fields: payload.fields()})
		responses.WriteSuccess(w, cartViewOf(store, state))
	}
}

// CartToggle flips a row's selection flag.
func CartToggle(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		key := chi.URLParam(r, "key")
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line item key is required"))
			return
		}
		state := store.Dispatch(cartsvc.ToggleSelect{Key: key})
		responses.WriteSuccess(w, cartViewOf(store, state))
	}
}

// CartSelectAll marks every row selected.
func CartSelectAll(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state := store.Dispatch(cartsvc.SelectAll{})
		responses.WriteSuccess(w, cartViewOf(store, state))
	}
}

// CartDeselectAll marks every row unselected.
func CartDeselectAll(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state := store.Dispatch(cartsvc.DeselectAll{})
		responses.WriteSuccess(w, cartViewOf(store, state))
	}
}

// CartClear empties the cart.
func CartClear(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state := store.Dispatch(cartsvc.Clear{})
		responses.WriteSuccess(w, cartViewOf(store, state))
	}
}

// CartNotificationDismiss hides the transient banner ahead of its timeout.
func CartNotificationDismiss(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state := store.Dispatch(cartsvc.HideNotification{})
		responses.WriteSuccess(w, cartViewOf(store, state))
	}
}
