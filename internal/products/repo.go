package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/multimart/multimart-backend/internal/repo"
	"github.com/multimart/multimart-backend/pkg/db/models"
	"github.com/multimart/multimart-backend/pkg/enums"
	pkgerrors "github.com/multimart/multimart-backend/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListParams filters and pages the catalog listing.
type ListParams struct {
	Vertical    enums.Vertical
	Subcategory string
	Search      string
	Page        int
	PageSize    int
}

// Repository reads catalog records.
type Repository interface {
	List(ctx context.Context, params ListParams) ([]models.Product, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds the gorm-backed catalog repository.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.Product, int64, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	size := params.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	query := r.DB(ctx).Model(&models.Product{}).Where("is_active = ?", true)
	if params.Vertical != "" {
		if !params.Vertical.IsValid() {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "unknown vertical")
		}
		query = query.Where("vertical = ?", params.Vertical)
	}
	if params.Subcategory != "" {
		query = query.Where("subcategory = ?", params.Subcategory)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Product
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var product models.Product
	err := r.DB(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}
