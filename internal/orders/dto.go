package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
)

type OrderItemDTO struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       *uuid.UUID `json:"product_id"`
	ProductName     string     `json:"product_name"`
	Quantity        int        `json:"quantity"`
	PriceAtPurchase string     `json:"price_at_purchase"`
	Subtotal        string     `json:"subtotal"`
}

// OrderDTO is the order as returned to owners and admins.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	OrderNumber     string              `json:"order_number"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	TotalAmount     string              `json:"total_amount"`
	DeliveryName    string              `json:"delivery_name"`
	DeliveryEmail   string              `json:"delivery_email"`
	DeliveryPhone   string              `json:"delivery_phone"`
	DeliveryAddress string              `json:"delivery_address"`
	DeliveryCity    string              `json:"delivery_city"`
	DeliveryEmirate string              `json:"delivery_emirate"`
	DeliveryNotes   string              `json:"delivery_notes"`
	DeliveredAt     *time.Time          `json:"delivered_at"`
	Items           []OrderItemDTO      `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
}

func FromModel(order models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:              item.ID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase.StringFixed(2),
			Subtotal:        item.Subtotal().StringFixed(2),
		})
	}
	return OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		TotalAmount:     order.TotalAmount.StringFixed(2),
		DeliveryName:    order.DeliveryName,
		DeliveryEmail:   order.DeliveryEmail,
		DeliveryPhone:   order.DeliveryPhone,
		DeliveryAddress: order.DeliveryAddress,
		DeliveryCity:    order.DeliveryCity,
		DeliveryEmirate: order.DeliveryEmirate,
		DeliveryNotes:   order.DeliveryNotes,
		DeliveredAt:     order.DeliveredAt,
		Items:           items,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
