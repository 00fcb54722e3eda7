package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/access"
	product "github.com/angelmondragon/pharmacy-backend/internal/products"
	"github.com/angelmondragon/pharmacy-backend/internal/repo"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the per-user cart. Stock is checked on every mutation but
// never reserved; checkout performs the guarded decrement.
type Service interface {
	Get(ctx context.Context, identity access.Identity) (*CartDTO, error)
	AddItem(ctx context.Context, identity access.Identity, input AddItemInput) (*CartItemDTO, bool, error)
	// UpdateItem returns a nil item when the quantity removed the line.
	UpdateItem(ctx context.Context, identity access.Identity, input UpdateItemInput) (*CartItemDTO, error)
	RemoveItem(ctx context.Context, identity access.Identity, itemID uuid.UUID) error
	Clear(ctx context.Context, identity access.Identity) error
}

type service struct {
	repo     *Repository
	products *product.Repository
	tx       txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, products *product.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, tx: tx}, nil
}

func (s *service) Get(ctx context.Context, identity access.Identity) (*CartDTO, error) {
	cart, err := s.cartFor(ctx, s.repo, identity, access.ActionRead)
	if err != nil {
		return nil, err
	}
	dto := toCartDTO(*cart)
	return &dto, nil
}

func (s *service) AddItem(ctx context.Context, identity access.Identity, input AddItemInput) (*CartItemDTO, bool, error) {
	qty := 1
	if input.Quantity != nil {
		qty = *input.Quantity
	}
	if qty < 1 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": qty})
	}
	if input.ProductID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}

	var (
		result  *models.CartItem
		created bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.repo.WithTx(tx)
		cart, err := s.cartFor(ctx, carts, identity, access.ActionUpdate)
		if err != nil {
			return err
		}
		p, err := s.products.WithTx(tx).FindByID(ctx, input.ProductID)
		if err != nil {
			return repo.NotFound(err, "product")
		}

		existing, err := carts.FindItemByProduct(ctx, cart.ID, p.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart item")
		}
		total := qty
		if existing != nil {
			total += existing.Quantity
		}
		if total > p.StockQuantity {
			return insufficientStock(*p, total)
		}

		if err := carts.AddQuantity(ctx, cart.ID, p.ID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to add cart item")
		}
		item, err := carts.FindItemByProduct(ctx, cart.ID, p.ID)
		if err != nil || item == nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cart item missing after add")
		}
		item.Product = *p
		result = item
		created = existing == nil
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	dto := toItemDTO(*result)
	return &dto, created, nil
}

func (s *service) UpdateItem(ctx context.Context, identity access.Identity, input UpdateItemInput) (*CartItemDTO, error) {
	if input.Quantity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity is required")
	}
	qty := *input.Quantity

	var result *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.repo.WithTx(tx)
		cart, err := s.cartFor(ctx, carts, identity, access.ActionUpdate)
		if err != nil {
			return err
		}
		item, err := carts.FindItem(ctx, cart.ID, input.CartItemID)
		if err != nil {
			return repo.NotFound(err, "cart item")
		}

		if qty <= 0 {
			_, err := carts.DeleteItem(ctx, cart.ID, item.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to remove cart item")
			}
			return nil
		}
		if qty > item.Product.StockQuantity {
			return insufficientStock(item.Product, qty)
		}
		if err := carts.SetQuantity(ctx, item.ID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update cart item")
		}
		item.Quantity = qty
		result = item
		return nil
	})
	if err != nil || result == nil {
		return nil, err
	}
	dto := toItemDTO(*result)
	return &dto, nil
}

func (s *service) RemoveItem(ctx context.Context, identity access.Identity, itemID uuid.UUID) error {
	cart, err := s.cartFor(ctx, s.repo, identity, access.ActionUpdate)
	if err != nil {
		return err
	}
	removed, err := s.repo.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to remove cart item")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, identity access.Identity) error {
	cart, err := s.cartFor(ctx, s.repo, identity, access.ActionUpdate)
	if err != nil {
		return err
	}
	if err := s.repo.Clear(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to clear cart")
	}
	return nil
}

// cartFor lazily creates the caller's cart and checks ownership for action.
func (s *service) cartFor(ctx context.Context, carts *Repository, identity access.Identity, action access.Action) (*models.Cart, error) {
	if err := access.Authorize(identity, access.On(access.ResourceCart), access.ActionCreate); err != nil {
		return nil, err
	}
	cart, err := carts.GetOrCreate(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}
	if err := access.Authorize(identity, access.OwnedBy(access.ResourceCart, cart.UserID), action); err != nil {
		return nil, err
	}
	return cart, nil
}

func insufficientStock(p models.Product, requested int) error {
	return product.InsufficientStock(product.Shortage{
		ProductID: p.ID,
		Product:   p.Name,
		Requested: requested,
		Available: p.StockQuantity,
	})
}
