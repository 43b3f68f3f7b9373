package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/multimart/multimart-backend/api/responses"
	"github.com/multimart/multimart-backend/api/validators"
	ordersvc "github.com/multimart/multimart-backend/internal/orders"
	pkgerrors "github.com/multimart/multimart-backend/pkg/errors"
	"github.com/multimart/multimart-backend/pkg/logger"
)

// OrderGet looks up a placed order by its public identifier, for the
// confirmation page.
func OrderGet(repo ordersvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}
		order, err := repo.FindByOrderID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrdersRecent lists the newest orders, an operational convenience endpoint.
func OrdersRecent(repo ordersvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orders, err := repo.ListRecent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}
