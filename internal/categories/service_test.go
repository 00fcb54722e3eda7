package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pharmacy-backend/internal/access"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/dbtest"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
)

var admin = access.Identity{UserID: uuid.New(), Role: enums.RoleAdmin}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	client := dbtest.Client(t)
	repository := NewRepository(client.DB())
	svc, err := NewService(repository, client)
	require.NoError(t, err)
	return svc, repository
}

func TestCreateAndListIncludesProductCount(t *testing.T) {
	ctx := context.Background()
	svc, repository := newTestService(t)

	pain, err := svc.Create(ctx, admin, CategoryInput{Name: " Pain Relief ", Description: "Analgesics"})
	require.NoError(t, err)
	require.Equal(t, "Pain Relief", pain.Name)
	_, err = svc.Create(ctx, admin, CategoryInput{Name: "Vitamins"})
	require.NoError(t, err)

	db := repository.DB(ctx)
	for _, name := range []string{"Panadol", "Brufen"} {
		require.NoError(t, db.Create(&models.Product{
			Name:       name,
			Price:      decimal.RequireFromString("10.00"),
			CategoryID: &pain.ID,
		}).Error)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Pain Relief", list[0].Name)
	require.EqualValues(t, 2, list[0].ProductCount)
	require.EqualValues(t, 0, list[1].ProductCount)

	detail, err := svc.Get(ctx, pain.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, detail.ProductCount)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Create(ctx, admin, CategoryInput{Name: "Baby Care"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, CategoryInput{Name: "Baby Care"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestWritesRequireAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	customer := access.Identity{UserID: uuid.New(), Role: enums.RoleCustomer}
	_, err := svc.Create(ctx, customer, CategoryInput{Name: "Skin Care"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.Create(ctx, access.Anonymous, CategoryInput{Name: "Skin Care"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Create(ctx, admin, CategoryInput{Name: "  "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, repository := newTestService(t)

	cat, err := svc.Create(ctx, admin, CategoryInput{Name: "First Aid"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, admin, cat.ID, CategoryInput{Name: "First Aid Kits", Description: "Bandages"})
	require.NoError(t, err)
	require.Equal(t, "First Aid Kits", updated.Name)
	require.Equal(t, "Bandages", updated.Description)

	product := &models.Product{Name: "Plaster", Price: decimal.RequireFromString("3.50"), CategoryID: &cat.ID}
	require.NoError(t, repository.DB(ctx).Create(product).Error)

	require.NoError(t, svc.Delete(ctx, admin, cat.ID))

	var reloaded models.Product
	require.NoError(t, repository.DB(ctx).First(&reloaded, "id = ?", product.ID).Error)
	require.Nil(t, reloaded.CategoryID)

	_, err = svc.Get(ctx, cat.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.Delete(ctx, admin, cat.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Update(ctx, admin, uuid.New(), CategoryInput{Name: "Ghost"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
