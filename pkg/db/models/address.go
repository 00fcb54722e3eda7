package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a reusable delivery destination owned by a user.
type Address struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	FullName      string    `gorm:"column:full_name;not null"`
	PhoneNumber   string    `gorm:"column:phone_number;not null"`
	StreetAddress string    `gorm:"column:street_address;not null"`
	Building      string    `gorm:"column:building;not null;default:''"`
	Area          string    `gorm:"column:area;not null;default:''"`
	City          string    `gorm:"column:city;not null;default:'Dubai'"`
	Emirate       string    `gorm:"column:emirate;not null;default:'Dubai'"`
	PostalCode    string    `gorm:"column:postal_code;not null;default:''"`
	IsDefault     bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
