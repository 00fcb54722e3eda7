package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
)

// CategoryDTO is returned by list and detail endpoints.
type CategoryDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ProductCount int64     `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CategoryInput is the payload for create and full update.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

func fromRow(row categoryRow) CategoryDTO {
	return CategoryDTO{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		ProductCount: row.ProductCount,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func fromModel(c models.Category, count int64) CategoryDTO {
	return fromRow(categoryRow{Category: c, ProductCount: count})
}
