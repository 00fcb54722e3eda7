package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog entry.
type Product struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name                 string          `gorm:"column:name;not null;index"`
	Description          string          `gorm:"column:description;not null;default:''"`
	DetailedDescription  string          `gorm:"column:detailed_description;not null;default:''"`
	Price                decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	StockQuantity        int             `gorm:"column:stock_quantity;not null;default:0"`
	CategoryID           *uuid.UUID      `gorm:"column:category_id;type:uuid;index"`
	Category             *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Manufacturer         string          `gorm:"column:manufacturer;not null;default:''"`
	Dosage               string          `gorm:"column:dosage;not null;default:''"`
	PackSize             string          `gorm:"column:pack_size;not null;default:''"`
	RequiresPrescription bool            `gorm:"column:requires_prescription;not null;default:false"`
	ImageURL             *string         `gorm:"column:image_url"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// InStock reports whether at least one unit is sellable.
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}
