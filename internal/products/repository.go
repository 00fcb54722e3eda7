package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/repo"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
)

// Repository persists products and their stock counters.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
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

// List returns products matching params with their category loaded.
func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Product, error) {
	db := r.DB(ctx).Model(&models.Product{}).Preload("Category")
	if params.CategoryID != nil {
		db = db.Where("products.category_id = ?", *params.CategoryID)
	}

	var products []models.Product
	if err := applySearch(db, params.Search, r.IsPostgres()).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByID loads the product and its category.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Omit("Category").Create(product).Error
}

// UpdateProduct overwrites every editable column of an existing product.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":                  product.Name,
			"description":           product.Description,
			"detailed_description":  product.DetailedDescription,
			"price":                 product.Price,
			"stock_quantity":        product.StockQuantity,
			"category_id":           product.CategoryID,
			"manufacturer":          product.Manufacturer,
			"dosage":                product.Dosage,
			"pack_size":             product.PackSize,
			"requires_prescription": product.RequiresPrescription,
			"image_url":             product.ImageURL,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteProduct detaches historical order lines, drops cart lines and removes
// the product. Callers run it inside a transaction.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	db := r.DB(ctx)
	if err := db.Model(&models.OrderItem{}).
		Where("product_id = ?", id).
		Update("product_id", nil).Error; err != nil {
		return err
	}
	if err := db.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock removes qty units only when at least qty remain. It reports
// false when the guard rejected the update.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementStock returns qty units to the product. It reports false when the
// product no longer exists.
func (r *Repository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// StockLevels returns the current stock keyed by product id. Missing products
// are absent from the map.
func (r *Repository) StockLevels(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := r.DB(ctx).
		Select("id", "name", "stock_quantity", "price").
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}
