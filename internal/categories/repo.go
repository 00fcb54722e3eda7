package categories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/repo"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
)

const categoryWithCountSelect = `categories.*, (SELECT COUNT(*) FROM products p WHERE p.category_id = categories.id) AS product_count`

// categoryRow is a category joined with its live product count.
type categoryRow struct {
	models.Category
	ProductCount int64 `gorm:"column:product_count"`
}

// Repository persists catalog categories.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: r.Bind(tx)}
}

// List returns every category ordered by name with product counts.
func (r *Repository) List(ctx context.Context) ([]categoryRow, error) {
	var rows []categoryRow
	err := r.DB(ctx).
		Model(&models.Category{}).
		Select(categoryWithCountSelect).
		Order("categories.name ASC").
		Scan(&rows).Error
	return rows, err
}

// FindByID loads one category with its product count.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*categoryRow, error) {
	var rows []categoryRow
	err := r.DB(ctx).
		Model(&models.Category{}).
		Select(categoryWithCountSelect).
		Where("categories.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	return r.DB(ctx).Create(category).Error
}

// Update overwrites name and description.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, description string) error {
	res := r.DB(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "description": description})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete uncategorizes the category's products and removes the row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.DB(ctx)
	if err := db.Model(&models.Product{}).
		Where("category_id = ?", id).
		Update("category_id", nil).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
