package checkout

import "github.com/google/uuid"

// CheckoutInput carries the delivery details for a new order. When AddressID
// is set, empty delivery fields are filled from that saved address.
type CheckoutInput struct {
	AddressID       *uuid.UUID `json:"address_id"`
	DeliveryName    string     `json:"delivery_name" validate:"max=200"`
	DeliveryEmail   string     `json:"delivery_email" validate:"max=254"`
	DeliveryPhone   string     `json:"delivery_phone" validate:"max=20"`
	DeliveryAddress string     `json:"delivery_address" validate:"max=500"`
	DeliveryCity    string     `json:"delivery_city" validate:"max=100"`
	DeliveryEmirate string     `json:"delivery_emirate" validate:"max=50"`
	DeliveryNotes   string     `json:"delivery_notes" validate:"max=1000"`
	PaymentMethod   string     `json:"payment_method"`
}
