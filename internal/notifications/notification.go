package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
)

// Notification is a transport-neutral email request. It is JSON encoded when
// queued on Pub/Sub and rendered into a mailer.Message at delivery time.
type Notification struct {
	Template  enums.NotificationTemplate `json:"template"`
	Recipient Recipient                  `json:"recipient"`
	Order     *OrderSummary              `json:"order,omitempty"`
	OldStatus string                     `json:"old_status,omitempty"`
	NewStatus string                     `json:"new_status,omitempty"`
	ResetURL  string                     `json:"reset_url,omitempty"`
	ExpiresIn string                     `json:"expires_in,omitempty"`
}

type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type OrderSummary struct {
	OrderNumber     string        `json:"order_number"`
	PlacedAt        time.Time     `json:"placed_at"`
	TotalAmount     string        `json:"total_amount"`
	PaymentMethod   string        `json:"payment_method"`
	Status          string        `json:"status"`
	DeliveryName    string        `json:"delivery_name"`
	DeliveryPhone   string        `json:"delivery_phone"`
	DeliveryAddress string        `json:"delivery_address"`
	DeliveryCity    string        `json:"delivery_city"`
	DeliveryEmirate string        `json:"delivery_emirate"`
	Items           []ItemSummary `json:"items"`
}

type ItemSummary struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Subtotal string `json:"subtotal"`
}

// OrderConfirmation builds the email sent after a successful checkout.
func OrderConfirmation(order models.Order) Notification {
	return Notification{
		Template:  enums.NotificationOrderConfirmation,
		Recipient: Recipient{Email: order.DeliveryEmail, Name: order.DeliveryName},
		Order:     summarizeOrder(order),
	}
}

// OrderStatusUpdate builds the email sent after an admin status change.
func OrderStatusUpdate(order models.Order, oldStatus enums.OrderStatus) Notification {
	return Notification{
		Template:  enums.NotificationOrderStatusUpdate,
		Recipient: Recipient{Email: order.DeliveryEmail, Name: order.DeliveryName},
		Order:     summarizeOrder(order),
		OldStatus: oldStatus.Label(),
		NewStatus: order.Status.Label(),
	}
}

// Welcome builds the registration email.
func Welcome(user models.User) Notification {
	return Notification{
		Template:  enums.NotificationWelcome,
		Recipient: Recipient{Email: user.Email, Name: displayName(user)},
	}
}

// PasswordReset builds the reset-link email.
func PasswordReset(user models.User, resetURL string, ttl time.Duration) Notification {
	return Notification{
		Template:  enums.NotificationPasswordReset,
		Recipient: Recipient{Email: user.Email, Name: displayName(user)},
		ResetURL:  resetURL,
		ExpiresIn: humanizeDuration(ttl),
	}
}

func summarizeOrder(order models.Order) *OrderSummary {
	items := make([]ItemSummary, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemSummary{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Price:    item.PriceAtPurchase.StringFixed(2),
			Subtotal: item.Subtotal().StringFixed(2),
		})
	}
	return &OrderSummary{
		OrderNumber:     order.OrderNumber,
		PlacedAt:        order.CreatedAt,
		TotalAmount:     order.TotalAmount.StringFixed(2),
		PaymentMethod:   order.PaymentMethod.Label(),
		Status:          order.Status.Label(),
		DeliveryName:    order.DeliveryName,
		DeliveryPhone:   order.DeliveryPhone,
		DeliveryAddress: order.DeliveryAddress,
		DeliveryCity:    order.DeliveryCity,
		DeliveryEmirate: order.DeliveryEmirate,
		Items:           items,
	}
}

func displayName(user models.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		return user.Email
	}
	return name
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%time.Hour == 0:
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}
