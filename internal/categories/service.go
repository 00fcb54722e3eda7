package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/access"
	"github.com/angelmondragon/pharmacy-backend/internal/repo"
	"github.com/angelmondragon/pharmacy-backend/pkg/db"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages catalog categories.
type Service interface {
	List(ctx context.Context) ([]CategoryDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
	Create(ctx context.Context, identity access.Identity, input CategoryInput) (*CategoryDTO, error)
	Update(ctx context.Context, identity access.Identity, id uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	Delete(ctx context.Context, identity access.Identity, id uuid.UUID) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.NotFound(err, "category")
	}
	dto := fromRow(*row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, identity access.Identity, input CategoryInput) (*CategoryDTO, error) {
	if err := access.Authorize(identity, access.On(access.ResourceCategory), access.ActionCreate); err != nil {
		return nil, err
	}
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, Description: strings.TrimSpace(input.Description)}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, translateWriteError(err)
	}
	dto := fromModel(*category, 0)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, identity access.Identity, id uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	if err := access.Authorize(identity, access.On(access.ResourceCategory), access.ActionUpdate); err != nil {
		return nil, err
	}
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, name, strings.TrimSpace(input.Description)); err != nil {
		return nil, translateWriteError(err)
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, identity access.Identity, id uuid.UUID) error {
	if err := access.Authorize(identity, access.On(access.ResourceCategory), access.ActionDelete); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return repo.NotFound(err, "category")
	}
	return nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required").
			WithDetails(map[string]any{"field": "name"})
	}
	return name, nil
}

func translateWriteError(err error) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, "category with this name already exists")
	}
	return repo.NotFound(err, "category")
}
