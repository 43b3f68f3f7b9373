package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/multimart/multimart-backend/api/middleware"
	"github.com/multimart/multimart-backend/api/responses"
	"github.com/multimart/multimart-backend/api/validators"
	cartsvc "github.com/multimart/multimart-backend/internal/cart"
	checkoutsvc "github.com/multimart/multimart-backend/internal/checkout"
	"github.com/multimart/multimart-backend/pkg/enums"
	pkgerrors "github.com/multimart/multimart-backend/pkg/errors"
	"github.com/multimart/multimart-backend/pkg/logger"
)

func sessionID(r *http.Request) (string, error) {
	id := middleware.SessionIDFromContext(r.Context())
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session context missing")
	}
	return id, nil
}

// CheckoutStart snapshots the cart's selected items, or the whole cart when
// nothing is selected, and opens the wizard on the customization step.
func CheckoutStart(svc checkoutsvc.Service, manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := manager.ForSession(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := store.SelectedItems()
		if len(items) == 0 {
			items = store.State().Items
		}
		flow, err := svc.Start(r.Context(), id, items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, flow)
	}
}

// CheckoutGet returns the session's in-progress wizard state.
func CheckoutGet(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		flow, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, flow)
	}
}

// CheckoutCustomize edits variant selections on the snapshot.
func CheckoutCustomize(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		key := chi.URLParam(r, "key")
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line item key is required"))
			return
		}
		var payload struct {
			Color    *string `json:"color"`
			Size     *string `json:"size"`
			Material *string `json:"material"`
			RAM      *string `json:"ram"`
		}
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		flow, err := svc.Customize(r.Context(), id, key, cartsvc.CustomizationFields{
			Color:    payload.Color,
			Size:     payload.Size,
			Material: payload.Material,
			RAM:      payload.RAM,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, flow)
	}
}

// CheckoutAdvance moves to the payment step once every required variant is
// chosen.
func CheckoutAdvance(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		flow, err := svc.Advance(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, flow)
	}
}

// CheckoutBack returns to the customization step.
func CheckoutBack(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		flow, err := svc.Back(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, flow)
	}
}

// CheckoutCancel abandons the wizard. The cart is untouched.
func CheckoutCancel(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Cancel(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// CheckoutLocate fills coordinates into the shipping form from the device
// position.
func CheckoutLocate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		}
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		var reported *checkoutsvc.Position
		if payload.Latitude != nil && payload.Longitude != nil {
			reported = &checkoutsvc.Position{Latitude: *payload.Latitude, Longitude: *payload.Longitude}
		}
		flow, notice, err := svc.Locate(r.Context(), id, reported)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"flow": flow, "notice": notice})
	}
}

type submitRequest struct {
	checkoutsvc.ShippingForm
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// CheckoutSubmit places the order or launches the payment widget, depending
// on the chosen method.
func CheckoutSubmit(svc checkoutsvc.Service, manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method"))
			return
		}
		result, err := svc.Submit(r.Context(), id, payload.ShippingForm, method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result.Placed {
			clearPurchased(r, manager, id, result, logg)
		}
		responses.WriteSuccess(w, result)
	}
}

// CheckoutPaymentCallback settles a gateway payment reported by the widget.
func CheckoutPaymentCallback(svc checkoutsvc.Service, manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload checkoutsvc.PaymentCallback
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CompletePayment(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result.Placed {
			clearPurchased(r, manager, id, result, logg)
		}
		responses.WriteSuccess(w, result)
	}
}

// clearPurchased removes the ordered rows from the live cart after an order
// is placed. The keys come from the order record itself: selection may have
// changed while the payment widget was open, so the current selection is not
// a reliable list of what was bought.
func clearPurchased(r *http.Request, manager *cartsvc.Manager, id string, result *checkoutsvc.SubmitResult, logg *logger.Logger) {
	if result == nil || result.Order == nil {
		return
	}
	store, err := manager.ForSession(r.Context(), id)
	if err != nil {
		if logg != nil {
			logg.Warn(r.Context(), "could not clear purchased items: "+err.Error())
		}
		return
	}
	for _, item := range result.Order.Items {
		store.Dispatch(cartsvc.RemoveItem{Key: item.LineItemKey})
	}
}
