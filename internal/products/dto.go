package product

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
)

// CategorySummary is the category object nested in product detail.
type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductListDTO is the compact catalog card.
type ProductListDTO struct {
	ID                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	Price                string     `json:"price"`
	StockQuantity        int        `json:"stock_quantity"`
	InStock              bool       `json:"in_stock"`
	CategoryID           *uuid.UUID `json:"category_id"`
	CategoryName         *string    `json:"category_name"`
	Manufacturer         string     `json:"manufacturer"`
	RequiresPrescription bool       `json:"requires_prescription"`
	ImageURL             *string    `json:"image_url"`
}

// ProductDetailDTO carries every product field.
type ProductDetailDTO struct {
	ID                   uuid.UUID        `json:"id"`
	Name                 string           `json:"name"`
	Description          string           `json:"description"`
	DetailedDescription  string           `json:"detailed_description"`
	Price                string           `json:"price"`
	StockQuantity        int              `json:"stock_quantity"`
	InStock              bool             `json:"in_stock"`
	Category             *CategorySummary `json:"category"`
	Manufacturer         string           `json:"manufacturer"`
	Dosage               string           `json:"dosage"`
	PackSize             string           `json:"pack_size"`
	RequiresPrescription bool             `json:"requires_prescription"`
	ImageURL             *string          `json:"image_url"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// ProductInput is the payload for create and full update.
type ProductInput struct {
	Name                 string          `json:"name" validate:"required,max=200"`
	Description          string          `json:"description"`
	DetailedDescription  string          `json:"detailed_description"`
	Price                decimal.Decimal `json:"price"`
	StockQuantity        int             `json:"stock_quantity" validate:"gte=0"`
	CategoryID           *uuid.UUID      `json:"category_id"`
	Manufacturer         string          `json:"manufacturer" validate:"max=200"`
	Dosage               string          `json:"dosage" validate:"max=100"`
	PackSize             string          `json:"pack_size" validate:"max=100"`
	RequiresPrescription bool            `json:"requires_prescription"`
	ImageURL             *string         `json:"image_url" validate:"omitempty,url"`
}

func toListDTO(p models.Product) ProductListDTO {
	dto := ProductListDTO{
		ID:                   p.ID,
		Name:                 p.Name,
		Description:          p.Description,
		Price:                p.Price.StringFixed(2),
		StockQuantity:        p.StockQuantity,
		InStock:              p.InStock(),
		CategoryID:           p.CategoryID,
		Manufacturer:         p.Manufacturer,
		RequiresPrescription: p.RequiresPrescription,
		ImageURL:             p.ImageURL,
	}
	if p.Category != nil {
		name := p.Category.Name
		dto.CategoryName = &name
	}
	return dto
}

func toDetailDTO(p models.Product) ProductDetailDTO {
	dto := ProductDetailDTO{
		ID:                   p.ID,
		Name:                 p.Name,
		Description:          p.Description,
		DetailedDescription:  p.DetailedDescription,
		Price:                p.Price.StringFixed(2),
		StockQuantity:        p.StockQuantity,
		InStock:              p.InStock(),
		Manufacturer:         p.Manufacturer,
		Dosage:               p.Dosage,
		PackSize:             p.PackSize,
		RequiresPrescription: p.RequiresPrescription,
		ImageURL:             p.ImageURL,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	if p.Category != nil {
		dto.Category = &CategorySummary{ID: p.Category.ID, Name: p.Category.Name}
	}
	return dto
}

func applyInput(p *models.Product, input ProductInput) {
	p.Name = strings.TrimSpace(input.Name)
	p.Description = strings.TrimSpace(input.Description)
	p.DetailedDescription = strings.TrimSpace(input.DetailedDescription)
	p.Price = input.Price
	p.StockQuantity = input.StockQuantity
	p.CategoryID = input.CategoryID
	p.Manufacturer = strings.TrimSpace(input.Manufacturer)
	p.Dosage = strings.TrimSpace(input.Dosage)
	p.PackSize = strings.TrimSpace(input.PackSize)
	p.RequiresPrescription = input.RequiresPrescription
	p.ImageURL = input.ImageURL
	if p.ImageURL != nil && strings.TrimSpace(*p.ImageURL) == "" {
		p.ImageURL = nil
	}
}
