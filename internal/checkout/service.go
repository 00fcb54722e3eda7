package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/access"
	"github.com/angelmondragon/pharmacy-backend/internal/address"
	"github.com/angelmondragon/pharmacy-backend/internal/cart"
	"github.com/angelmondragon/pharmacy-backend/internal/notifications"
	"github.com/angelmondragon/pharmacy-backend/internal/orders"
	product "github.com/angelmondragon/pharmacy-backend/internal/products"
	"github.com/angelmondragon/pharmacy-backend/pkg/db"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/angelmondragon/pharmacy-backend/pkg/metrics"
)

const outcomeSuccess = "success"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, identity access.Identity, input CheckoutInput) (*orders.OrderDTO, error)
}

// ServiceParams wires the checkout workflow.
type ServiceParams struct {
	Carts     *cart.Repository
	Products  *product.Repository
	Orders    *orders.Repository
	Addresses *address.Repository
	Tx        txRunner
	Notifier  notifications.Notifier
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
	Now       func() time.Time
	// Random feeds order number suffixes; crypto/rand when nil.
	Random io.Reader
}

type service struct {
	carts     *cart.Repository
	products  *product.Repository
	orders    *orders.Repository
	addresses *address.Repository
	tx        txRunner
	notifier  notifications.Notifier
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	now       func() time.Time
	random    io.Reader
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.Products == nil:
		return nil, fmt.Errorf("product repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("order repository required")
	case params.Addresses == nil:
		return nil, fmt.Errorf("address repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		carts:     params.Carts,
		products:  params.Products,
		orders:    params.Orders,
		addresses: params.Addresses,
		tx:        params.Tx,
		notifier:  params.Notifier,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       now,
		random:    params.Random,
	}, nil
}

// Execute converts the caller's cart into an order. Preconditions are checked
// in order: cart exists, cart is non-empty, every line is in stock, delivery
// details are complete. All writes share one transaction; the confirmation
// email goes out after commit.
func (s *service) Execute(ctx context.Context, identity access.Identity, input CheckoutInput) (*orders.OrderDTO, error) {
	if err := access.Authorize(identity, access.On(access.ResourceOrder), access.ActionCreate); err != nil {
		return nil, err
	}

	started := time.Now()
	order, err := s.execute(ctx, identity, input)
	s.metrics.ObserveCheckout(outcomeOf(err), time.Since(started))
	if err != nil {
		if typed := pkgerrors.As(err); typed == nil || pkgerrors.MetadataFor(typed.Code()).HTTPStatus >= 500 {
			s.logg.Error(s.logg.WithUserID(ctx, identity.UserID.String()), "checkout.failed", err)
		}
		return nil, err
	}

	logCtx := s.logg.WithOrderNumber(s.logg.WithUserID(ctx, identity.UserID.String()), order.OrderNumber)
	s.logg.Info(logCtx, "checkout.completed")
	s.notifier.Notify(logCtx, notifications.OrderConfirmation(*order))

	dto := orders.FromModel(*order)
	return &dto, nil
}

func (s *service) execute(ctx context.Context, identity access.Identity, input CheckoutInput) (*models.Order, error) {
	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		c, err := carts.FindByUser(ctx, identity.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
		}
		if err := access.Authorize(identity, access.OwnedBy(access.ResourceCart, c.UserID), access.ActionUpdate); err != nil {
			return err
		}
		if c.IsEmpty() {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "cart is empty")
		}
		if err := checkStock(c.Items); err != nil {
			return err
		}

		addresses := s.addresses.WithTx(tx)
		d, err := resolveDelivery(ctx, addresses, identity, input)
		if err != nil {
			return err
		}

		number, err := NewOrderNumber(s.now(), s.random)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate order number")
		}
		order := buildOrder(identity, number, d, *c)
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order number collision")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create order")
		}

		products := s.products.WithTx(tx)
		for _, item := range c.Items {
			ok, err := products.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to reserve stock")
			}
			if !ok {
				return product.InsufficientStock(product.Shortage{
					ProductID: item.ProductID,
					Product:   item.Product.Name,
					Requested: item.Quantity,
					Available: item.Product.StockQuantity,
				})
			}
		}

		if input.AddressID == nil {
			if _, err := addresses.SaveIfNew(ctx, &models.Address{
				UserID:        identity.UserID,
				FullName:      d.Name,
				PhoneNumber:   d.Phone,
				StreetAddress: d.Address,
				City:          d.City,
				Emirate:       d.Emirate,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to save delivery address")
			}
		}

		if err := carts.Clear(ctx, c.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to clear cart")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// checkStock collects every line whose quantity exceeds live stock.
func checkStock(items []models.CartItem) error {
	var shortages []product.Shortage
	for _, item := range items {
		if item.Quantity > item.Product.StockQuantity {
			shortages = append(shortages, product.Shortage{
				ProductID: item.ProductID,
				Product:   item.Product.Name,
				Requested: item.Quantity,
				Available: item.Product.StockQuantity,
			})
		}
	}
	if len(shortages) > 0 {
		return product.InsufficientStock(shortages...)
	}
	return nil
}

func buildOrder(identity access.Identity, number string, d delivery, c models.Cart) *models.Order {
	items := make([]models.OrderItem, 0, len(c.Items))
	for _, item := range c.Items {
		productID := item.ProductID
		items = append(items, models.OrderItem{
			ProductID:       &productID,
			ProductName:     item.Product.Name,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.Product.Price,
		})
	}
	return &models.Order{
		UserID:          identity.UserID,
		OrderNumber:     number,
		DeliveryName:    d.Name,
		DeliveryEmail:   d.Email,
		DeliveryPhone:   d.Phone,
		DeliveryAddress: d.Address,
		DeliveryCity:    d.City,
		DeliveryEmirate: d.Emirate,
		DeliveryNotes:   d.Notes,
		Status:          enums.OrderStatusPending,
		PaymentMethod:   d.Method,
		PaymentStatus:   enums.PaymentStatusPending,
		TotalAmount:     c.TotalPrice(),
		Items:           items,
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return strings.ToLower(string(pkgerrors.CodeInternal))
}
