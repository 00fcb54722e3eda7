package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
)

// CartProductDTO is the product summary embedded in cart lines.
type CartProductDTO struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Price                string    `json:"price"`
	StockQuantity        int       `json:"stock_quantity"`
	InStock              bool      `json:"in_stock"`
	RequiresPrescription bool      `json:"requires_prescription"`
	ImageURL             *string   `json:"image_url"`
}

type CartItemDTO struct {
	ID        uuid.UUID      `json:"id"`
	ProductID uuid.UUID      `json:"product_id"`
	Product   CartProductDTO `json:"product"`
	Quantity  int            `json:"quantity"`
	Subtotal  string         `json:"subtotal"`
}

// CartDTO is the cart with live totals.
type CartDTO struct {
	ID         uuid.UUID     `json:"id"`
	Items      []CartItemDTO `json:"items"`
	TotalPrice string        `json:"total_price"`
	TotalItems int           `json:"total_items"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  *int      `json:"quantity"`
}

type UpdateItemInput struct {
	CartItemID uuid.UUID `json:"cart_item_id" validate:"required"`
	Quantity   *int      `json:"quantity" validate:"required"`
}

type RemoveItemInput struct {
	CartItemID uuid.UUID `json:"cart_item_id" validate:"required"`
}

func toItemDTO(item models.CartItem) CartItemDTO {
	p := item.Product
	return CartItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Product: CartProductDTO{
			ID:                   p.ID,
			Name:                 p.Name,
			Price:                p.Price.StringFixed(2),
			StockQuantity:        p.StockQuantity,
			InStock:              p.InStock(),
			RequiresPrescription: p.RequiresPrescription,
			ImageURL:             p.ImageURL,
		},
		Quantity: item.Quantity,
		Subtotal: item.Subtotal().StringFixed(2),
	}
}

func toCartDTO(cart models.Cart) CartDTO {
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, toItemDTO(item))
	}
	return CartDTO{
		ID:         cart.ID,
		Items:      items,
		TotalPrice: cart.TotalPrice().StringFixed(2),
		TotalItems: cart.TotalItems(),
		CreatedAt:  cart.CreatedAt,
		UpdatedAt:  cart.UpdatedAt,
	}
}
