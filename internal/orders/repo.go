package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/multimart/multimart-backend/internal/repo"
	"github.com/multimart/multimart-backend/pkg/db"
	"github.com/multimart/multimart-backend/pkg/db/models"
	pkgerrors "github.com/multimart/multimart-backend/pkg/errors"
)

// Repository persists and reads order records.
type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds the gorm-backed order repository.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if order.OrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !order.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "order status is invalid")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order id already recorded")
		}
		return err
	}
	return nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var orders []models.Order
	err := r.DB(ctx).Order("created_at DESC").Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
