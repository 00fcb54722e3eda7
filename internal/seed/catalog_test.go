package seed

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pharmacy-backend/pkg/db/dbtest"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
)

func TestCatalogSeedsDemoData(t *testing.T) {
	client := dbtest.Client(t)
	ctx := context.Background()

	res, err := Catalog(ctx, client)
	require.NoError(t, err)
	require.Equal(t, 6, res.Categories)
	require.Equal(t, len(demoProducts), res.Products)

	var paracetamol models.Product
	require.NoError(t, client.DB().Preload("Category").Where("name = ?", "Paracetamol 500mg").First(&paracetamol).Error)
	require.True(t, paracetamol.Price.Equal(decimal.RequireFromString("12.50")))
	require.Equal(t, 150, paracetamol.StockQuantity)
	require.NotNil(t, paracetamol.Category)
	require.Equal(t, "Pain Relief", paracetamol.Category.Name)
}

func TestCatalogIsIdempotent(t *testing.T) {
	client := dbtest.Client(t)
	ctx := context.Background()

	_, err := Catalog(ctx, client)
	require.NoError(t, err)

	res, err := Catalog(ctx, client)
	require.NoError(t, err)
	require.Zero(t, res.Categories)
	require.Zero(t, res.Products)

	var count int64
	require.NoError(t, client.DB().Model(&models.Category{}).Count(&count).Error)
	require.EqualValues(t, 6, count)
}
