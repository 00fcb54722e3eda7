package address

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/repo"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
)

// Repository persists user delivery addresses.
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

// ListByUser returns the user's addresses, default first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&addresses).Error
	return addresses, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.DB(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *Repository) Create(ctx context.Context, address *models.Address) error {
	return r.DB(ctx).Create(address).Error
}

// Save overwrites every column of an existing address.
func (r *Repository) Save(ctx context.Context, address *models.Address) error {
	return r.DB(ctx).
		Model(address).
		Select("full_name", "phone_number", "street_address", "building", "area",
			"city", "emirate", "postal_code", "is_default").
		Updates(address).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.Address{}).Error
}

// ClearDefault unsets the default flag on every address of the user except keep.
func (r *Repository) ClearDefault(ctx context.Context, userID, keep uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, keep, true).
		Update("is_default", false).Error
}

func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// FindMatching returns the user's address at street, city and emirate
// (case-insensitive), or nil when none matches.
func (r *Repository) FindMatching(ctx context.Context, userID uuid.UUID, street, city, emirate string) (*models.Address, error) {
	var addresses []models.Address
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Where("LOWER(street_address) = ? AND LOWER(city) = ? AND LOWER(emirate) = ?",
			strings.ToLower(strings.TrimSpace(street)),
			strings.ToLower(strings.TrimSpace(city)),
			strings.ToLower(strings.TrimSpace(emirate))).
		Limit(1).
		Find(&addresses).Error
	if err != nil || len(addresses) == 0 {
		return nil, err
	}
	return &addresses[0], nil
}

// SaveIfNew stores address unless the user already has one at the same
// street, city and emirate. The user's first address becomes the default.
func (r *Repository) SaveIfNew(ctx context.Context, address *models.Address) (bool, error) {
	existing, err := r.FindMatching(ctx, address.UserID, address.StreetAddress, address.City, address.Emirate)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	count, err := r.CountByUser(ctx, address.UserID)
	if err != nil {
		return false, err
	}
	address.IsDefault = count == 0
	if err := r.Create(ctx, address); err != nil {
		return false, err
	}
	return true, nil
}
