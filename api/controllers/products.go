package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/multimart/multimart-backend/api/responses"
	"github.com/multimart/multimart-backend/api/validators"
	productsvc "github.com/multimart/multimart-backend/internal/products"
	"github.com/multimart/multimart-backend/pkg/db/models"
	"github.com/multimart/multimart-backend/pkg/enums"
	pkgerrors "github.com/multimart/multimart-backend/pkg/errors"
	"github.com/multimart/multimart-backend/pkg/logger"
	"github.com/multimart/multimart-backend/pkg/types"
)

// ProductView is the catalog payload the storefront renders, price expressed
// in display units.
type ProductView struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Price          float64  `json:"price"`
	CompareAtPrice float64  `json:"compare_at_price,omitempty"`
	Vertical       string   `json:"vertical"`
	Subcategory    string   `json:"subcategory,omitempty"`
	Colors         []string `json:"colors,omitempty"`
	Sizes          []string `json:"sizes,omitempty"`
	Materials      []string `json:"materials,omitempty"`
	RAMs           []string `json:"rams,omitempty"`
	Images         []string `json:"images,omitempty"`
	MainImage      string   `json:"main_image,omitempty"`
}

func newProductView(p models.Product) ProductView {
	return ProductView{
		ID:             p.ID.String(),
		Title:          p.Title,
		Description:    p.Description,
		Price:          p.Price(),
		CompareAtPrice: p.CompareAtPrice(),
		Vertical:       string(p.Vertical),
		Subcategory:    p.Subcategory,
		Colors:         p.Colors,
		Sizes:          p.Sizes,
		Materials:      p.Materials,
		RAMs:           p.RAMs,
		Images:         p.Images,
		MainImage:      p.MainImage(),
	}
}

// ProductsList pages the active catalog, filtered by vertical, subcategory,
// and title search.
func ProductsList(repo productsvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "page_size", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := productsvc.ListParams{
			Vertical:    enums.Vertical(q.Get("vertical")),
			Subcategory: validators.SanitizeString(q.Get("subcategory"), 64),
			Search:      validators.SanitizeString(q.Get("search"), 128),
			Page:        page,
			PageSize:    pageSize,
		}

		items, total, err := repo.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]ProductView, len(items))
		for i, p := range items {
			views[i] = newProductView(p)
		}
		responses.WriteSuccess(w, map[string]any{
			"products": views,
			"page": types.Page{
				Number:  page,
				Size:    pageSize,
				Total:   int(total),
				HasMore: int64(page*pageSize) < total,
			},
		})
	}
}

// ProductGet returns one catalog entry.
func ProductGet(repo productsvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		id, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		product, err := repo.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductView(*product))
	}
}
