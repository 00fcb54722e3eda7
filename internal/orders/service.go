package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/access"
	"github.com/angelmondragon/pharmacy-backend/internal/notifications"
	product "github.com/angelmondragon/pharmacy-backend/internal/products"
	"github.com/angelmondragon/pharmacy-backend/internal/repo"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/angelmondragon/pharmacy-backend/pkg/metrics"
	"github.com/angelmondragon/pharmacy-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order queries and the admin status lifecycle.
type Service interface {
	List(ctx context.Context, identity access.Identity, params pagination.Params) (pagination.Page[OrderDTO], error)
	Get(ctx context.Context, identity access.Identity, id uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, identity access.Identity, id uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo     *Repository
	Products *product.Repository
	Tx       txRunner
	Notifier notifications.Notifier
	Metrics  *metrics.OrderMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     *Repository
	products *product.Repository
	tx       txRunner
	notifier notifications.Notifier
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		tx:       params.Tx,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) List(ctx context.Context, identity access.Identity, params pagination.Params) (pagination.Page[OrderDTO], error) {
	if err := access.Authorize(identity, access.On(access.ResourceOrder), access.ActionList); err != nil {
		return pagination.Page[OrderDTO]{}, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	var owner *uuid.UUID
	if !identity.IsAdmin() {
		owner = &identity.UserID
	}
	rows, err := s.repo.List(ctx, owner, cursor, params.Limit)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list orders")
	}

	dtos := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, FromModel(row))
	}
	return pagination.BuildPage(dtos, params.Limit, func(o OrderDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

func (s *service) Get(ctx context.Context, identity access.Identity, id uuid.UUID) (*OrderDTO, error) {
	if err := access.Authorize(identity, access.On(access.ResourceOrder), access.ActionList); err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.NotFound(err, "order")
	}
	if err := access.Authorize(identity, access.OwnedBy(access.ResourceOrder, order.UserID), access.ActionRead); err != nil {
		return nil, err
	}
	dto := FromModel(*order)
	return &dto, nil
}

// UpdateStatus moves the order to a new status. Cancelling restores stock,
// leaving cancelled takes it again, and both happen in the same transaction
// as the status write.
func (s *service) UpdateStatus(ctx context.Context, identity access.Identity, id uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	if err := access.Authorize(identity, access.On(access.ResourceOrderStatus), access.ActionUpdate); err != nil {
		return nil, err
	}
	next, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]any{"status": input.Status, "allowed": enums.OrderStatuses()})
	}

	var (
		order    *models.Order
		previous enums.OrderStatus
		changed  bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.repo.WithTx(tx)
		loaded, err := orders.FindByID(ctx, id)
		if err != nil {
			return repo.NotFound(err, "order")
		}
		order = loaded
		previous = loaded.Status
		if previous == next {
			return nil
		}
		if previous.IsTerminal() && next == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeInvalidState, "delivered orders cannot be cancelled").
				WithDetails(map[string]any{"status": previous})
		}

		products := s.products.WithTx(tx)
		switch {
		case next.ReleasesStock():
			if err := restock(ctx, products, loaded.Items); err != nil {
				return err
			}
		case previous.ReleasesStock():
			if err := reserve(ctx, products, loaded.Items); err != nil {
				return err
			}
		}

		loaded.Status = next
		if next == enums.OrderStatusDelivered && loaded.DeliveredAt == nil {
			at := s.now().UTC()
			loaded.DeliveredAt = &at
		}
		loaded.PaymentStatus = enums.NextPaymentStatus(loaded.PaymentMethod, next, loaded.PaymentStatus)
		if err := orders.UpdateLifecycle(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update order status")
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		logCtx := s.logg.WithFields(s.logg.WithOrderNumber(ctx, order.OrderNumber), map[string]any{
			"from_status": previous,
			"to_status":   next,
		})
		s.logg.Info(logCtx, "order.status_updated")
		s.metrics.IncTransition(previous.String(), next.String())
		s.notifier.Notify(ctx, notifications.OrderStatusUpdate(*order, previous))
	}

	dto := FromModel(*order)
	return &dto, nil
}

// restock returns every item's quantity to its product. Items whose product
// was deleted are skipped.
func restock(ctx context.Context, products *product.Repository, items []models.OrderItem) error {
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		if _, err := products.IncrementStock(ctx, *item.ProductID, item.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to restore stock")
		}
	}
	return nil
}

// reserve validates stock for every item before decrementing any, then
// decrements with the guarded statement.
func reserve(ctx context.Context, products *product.Repository, items []models.OrderItem) error {
	needed := map[uuid.UUID]int{}
	names := map[uuid.UUID]string{}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		if _, seen := needed[*item.ProductID]; !seen {
			ids = append(ids, *item.ProductID)
		}
		needed[*item.ProductID] += item.Quantity
		names[*item.ProductID] = item.ProductName
	}

	levels, err := products.StockLevels(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load stock")
	}
	var shortages []product.Shortage
	for _, id := range ids {
		current, ok := levels[id]
		if !ok {
			continue
		}
		if current.StockQuantity < needed[id] {
			shortages = append(shortages, product.Shortage{
				ProductID: id,
				Product:   current.Name,
				Requested: needed[id],
				Available: current.StockQuantity,
			})
		}
	}
	if len(shortages) > 0 {
		return product.InsufficientStock(shortages...)
	}

	for _, id := range ids {
		if _, ok := levels[id]; !ok {
			continue
		}
		ok, err := products.DecrementStock(ctx, id, needed[id])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to reserve stock")
		}
		if !ok {
			return product.InsufficientStock(product.Shortage{
				ProductID: id,
				Product:   names[id],
				Requested: needed[id],
				Available: levels[id].StockQuantity,
			})
		}
	}
	return nil
}
