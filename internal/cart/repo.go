package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/pharmacy-backend/internal/repo"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
)

// Repository persists carts and cart items.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: r.Bind(tx)}
}

// Create inserts an empty cart for the user. A cart that already exists is left untouched.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID) error {
	cart := models.Cart{UserID: userID}
	return r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&cart).Error
}

// GetOrCreate returns the user's cart with items and products loaded,
// creating an empty one when absent.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if err := r.Create(ctx, userID); err != nil {
		return nil, err
	}
	return r.FindByUser(ctx, userID)
}

// FindByUser loads the user's cart with items and products.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC, cart_items.id ASC")
		}).
		Preload("Items.Product").
		First(&cart, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindItem loads one item of the cart with its product.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB(ctx).
		Preload("Product").
		First(&item, "id = ? AND cart_id = ?", itemID, cartID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByProduct returns the cart line for productID, or nil when absent.
func (r *Repository) FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var items []models.CartItem
	err := r.DB(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Limit(1).
		Find(&items).Error
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

// AddQuantity inserts the (cart, product) line or increments the existing one.
func (r *Repository) AddQuantity(ctx context.Context, cartID, productID uuid.UUID, qty int) error {
	item := models.CartItem{CartID: cartID, ProductID: productID, Quantity: qty}
	return r.DB(ctx).
		Omit("Product").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&item).Error
}

// SetQuantity overwrites the quantity of an item.
func (r *Repository) SetQuantity(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", qty).Error
}

// DeleteItem removes an item of the cart; false means it did not exist.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Clear removes every item of the cart.
func (r *Repository) Clear(ctx context.Context, cartID uuid.UUID) error {
	return r.DB(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
