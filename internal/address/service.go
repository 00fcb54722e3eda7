package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/access"
	"github.com/angelmondragon/pharmacy-backend/internal/repo"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the caller's saved delivery addresses.
type Service interface {
	List(ctx context.Context, identity access.Identity) ([]AddressDTO, error)
	Get(ctx context.Context, identity access.Identity, id uuid.UUID) (*AddressDTO, error)
	Create(ctx context.Context, identity access.Identity, input AddressInput) (*AddressDTO, error)
	Update(ctx context.Context, identity access.Identity, id uuid.UUID, input AddressInput) (*AddressDTO, error)
	Delete(ctx context.Context, identity access.Identity, id uuid.UUID) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, identity access.Identity) ([]AddressDTO, error) {
	if err := access.Authorize(identity, access.On(access.ResourceAddress), access.ActionList); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, identity access.Identity, id uuid.UUID) (*AddressDTO, error) {
	address, err := s.load(ctx, s.repo, identity, id, access.ActionRead)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*address)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, identity access.Identity, input AddressInput) (*AddressDTO, error) {
	if err := access.Authorize(identity, access.On(access.ResourceAddress), access.ActionCreate); err != nil {
		return nil, err
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	address := &models.Address{UserID: identity.UserID}
	input.apply(address)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		addresses := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := addresses.ClearDefault(ctx, address.UserID, uuid.Nil); err != nil {
				return err
			}
		}
		return addresses.Create(ctx, address)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create address")
	}
	dto := FromModel(*address)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, identity access.Identity, id uuid.UUID, input AddressInput) (*AddressDTO, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	var address *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		addresses := s.repo.WithTx(tx)
		loaded, err := s.load(ctx, addresses, identity, id, access.ActionUpdate)
		if err != nil {
			return err
		}
		input.apply(loaded)
		if loaded.IsDefault {
			if err := addresses.ClearDefault(ctx, loaded.UserID, loaded.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update default address")
			}
		}
		if err := addresses.Save(ctx, loaded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update address")
		}
		address = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*address)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, identity access.Identity, id uuid.UUID) error {
	address, err := s.load(ctx, s.repo, identity, id, access.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, address.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete address")
	}
	return nil
}

func (s *service) load(ctx context.Context, addresses *Repository, identity access.Identity, id uuid.UUID, action access.Action) (*models.Address, error) {
	if err := access.Authorize(identity, access.On(access.ResourceAddress), access.ActionList); err != nil {
		return nil, err
	}
	address, err := addresses.FindByID(ctx, id)
	if err != nil {
		return nil, repo.NotFound(err, "address")
	}
	if err := access.Authorize(identity, access.OwnedBy(access.ResourceAddress, address.UserID), action); err != nil {
		return nil, err
	}
	return address, nil
}

func validate(input AddressInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(input.FullName) == "" {
		fields["full_name"] = "full name is required"
	}
	if strings.TrimSpace(input.StreetAddress) == "" {
		fields["street_address"] = "street address is required"
	}
	switch {
	case StripPhone(input.PhoneNumber) == "":
		fields["phone_number"] = "phone number is required"
	case !IsUAEPhone(input.PhoneNumber):
		fields["phone_number"] = "Please enter a valid UAE phone number"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid address").WithDetails(fields)
	}
	return nil
}
