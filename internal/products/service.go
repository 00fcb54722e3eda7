package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/access"
	"github.com/angelmondragon/pharmacy-backend/internal/repo"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
)

var (
	minPrice = decimal.RequireFromString("0.01")
	maxPrice = decimal.RequireFromString("99999999.99")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type categoryChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service exposes catalog browsing and admin product management.
type Service interface {
	List(ctx context.Context, params ListParams) ([]ProductListDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDetailDTO, error)
	Create(ctx context.Context, identity access.Identity, input ProductInput) (*ProductDetailDTO, error)
	Update(ctx context.Context, identity access.Identity, id uuid.UUID, input ProductInput) (*ProductDetailDTO, error)
	Delete(ctx context.Context, identity access.Identity, id uuid.UUID) error
}

type service struct {
	repo       *Repository
	categories categoryChecker
	tx         txRunner
}

// NewService builds the product service.
func NewService(repo *Repository, categories categoryChecker, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category checker required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, categories: categories, tx: tx}, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]ProductListDTO, error) {
	products, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list products")
	}
	out := make([]ProductListDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toListDTO(p))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDetailDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.NotFound(err, "product")
	}
	dto := toDetailDTO(*product)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, identity access.Identity, input ProductInput) (*ProductDetailDTO, error) {
	if err := access.Authorize(identity, access.On(access.ResourceProduct), access.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	product := &models.Product{}
	applyInput(product, input)
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create product")
	}
	return s.Get(ctx, product.ID)
}

func (s *service) Update(ctx context.Context, identity access.Identity, id uuid.UUID, input ProductInput) (*ProductDetailDTO, error) {
	if err := access.Authorize(identity, access.On(access.ResourceProduct), access.ActionUpdate); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	product := &models.Product{ID: id}
	applyInput(product, input)
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, repo.NotFound(err, "product")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, identity access.Identity, id uuid.UUID) error {
	if err := access.Authorize(identity, access.On(access.ResourceProduct), access.ActionDelete); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteProduct(ctx, id)
	})
	return repo.NotFound(err, "product")
}

func (s *service) validate(ctx context.Context, input ProductInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		fields["name"] = "name is required"
	}
	switch {
	case input.Price.LessThan(minPrice):
		fields["price"] = "price must be at least 0.01"
	case input.Price.GreaterThan(maxPrice):
		fields["price"] = "price is too large"
	case !input.Price.Equal(input.Price.Truncate(2)):
		fields["price"] = "price must have at most 2 decimal places"
	}
	if input.StockQuantity < 0 {
		fields["stock_quantity"] = "stock quantity cannot be negative"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(fields)
	}

	if input.CategoryID != nil {
		ok, err := s.categories.Exists(ctx, *input.CategoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load category")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist").
				WithDetails(map[string]string{"category_id": "unknown category"})
		}
	}
	return nil
}
