package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/repo"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	"github.com/angelmondragon/pharmacy-backend/pkg/pagination"
)

// Repository persists orders and their frozen line items.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: r.Bind(tx)}
}

// Create inserts the order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

// FindByID loads the order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.created_at ASC, order_items.id ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns a newest-first page of orders. A nil userID lists every order.
func (r *Repository) List(ctx context.Context, userID *uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.DB(ctx).Model(&models.Order{}).Preload("Items")
	if userID != nil {
		q = q.Where("orders.user_id = ?", *userID)
	}

	var orders []models.Order
	if err := q.Scopes(pagination.NewestFirst("orders", cursor, limit)).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateLifecycle persists status, payment status and delivery time.
func (r *Repository) UpdateLifecycle(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":         order.Status,
			"payment_status": order.PaymentStatus,
			"delivered_at":   order.DeliveredAt,
		}).Error
}
