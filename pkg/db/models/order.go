package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
)

// Order is the permanent record produced by checkout.
type Order struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID                uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber           string              `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	DeliveryName          string              `gorm:"column:delivery_name;not null"`
	DeliveryEmail         string              `gorm:"column:delivery_email;not null"`
	DeliveryPhone         string              `gorm:"column:delivery_phone;not null"`
	DeliveryAddress       string              `gorm:"column:delivery_address;not null"`
	DeliveryCity          string              `gorm:"column:delivery_city;not null"`
	DeliveryEmirate       string              `gorm:"column:delivery_emirate;not null"`
	DeliveryNotes         string              `gorm:"column:delivery_notes;not null;default:''"`
	Status                enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending';index"`
	PaymentMethod         enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'cash_on_delivery'"`
	PaymentStatus         enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	TotalAmount           decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	StripePaymentIntentID *string             `gorm:"column:stripe_payment_intent_id"`
	DeliveredAt           *time.Time          `gorm:"column:delivered_at"`
	Items                 []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
