package product

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/access"
	"github.com/angelmondragon/pharmacy-backend/internal/categories"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/dbtest"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
)

var admin = access.Identity{UserID: uuid.New(), Role: enums.RoleAdmin}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client := dbtest.Client(t)
	svc, err := NewService(NewRepository(client.DB()), categories.NewRepository(client.DB()), client)
	require.NoError(t, err)
	return svc, client.DB()
}

func seedProduct(t *testing.T, db *gorm.DB, p models.Product) models.Product {
	t.Helper()
	if p.Price.IsZero() {
		p.Price = decimal.RequireFromString("10.00")
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func names(items []ProductListDTO) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Name)
	}
	return out
}

func TestListWithoutQueryOrdersByName(t *testing.T) {
	svc, db := newTestService(t)
	seedProduct(t, db, models.Product{Name: "Zinc Tablets"})
	seedProduct(t, db, models.Product{Name: "Aspirin 100mg", StockQuantity: 4})

	items, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	require.Equal(t, []string{"Aspirin 100mg", "Zinc Tablets"}, names(items))
	require.True(t, items[0].InStock)
	require.False(t, items[1].InStock)
	require.Equal(t, "10.00", items[0].Price)
}

func TestListFiltersByCategoryFirst(t *testing.T) {
	svc, db := newTestService(t)
	pain := models.Category{Name: "Pain Relief"}
	require.NoError(t, db.Create(&pain).Error)

	seedProduct(t, db, models.Product{Name: "Paracetamol 500mg", CategoryID: &pain.ID})
	seedProduct(t, db, models.Product{Name: "Pantene Shampoo"})

	items, err := svc.List(context.Background(), ListParams{Search: "pa", CategoryID: &pain.ID})
	require.NoError(t, err)
	require.Equal(t, []string{"Paracetamol 500mg"}, names(items))
	require.NotNil(t, items[0].CategoryName)
	require.Equal(t, "Pain Relief", *items[0].CategoryName)
}

func TestShortQueryMatchesNameOrManufacturerCappedAtTen(t *testing.T) {
	svc, db := newTestService(t)
	for i := 0; i < 12; i++ {
		seedProduct(t, db, models.Product{Name: fmt.Sprintf("Pack %02d", i)})
	}
	seedProduct(t, db, models.Product{Name: "Vitamin C", Manufacturer: "Pampers Labs"})
	seedProduct(t, db, models.Product{Name: "Zinc", Description: "packed with minerals"})

	items, err := svc.List(context.Background(), ListParams{Search: " pa "})
	require.NoError(t, err)
	require.Len(t, items, substringLimit)
	require.Equal(t, "Pack 00", items[0].Name)
	require.NotContains(t, names(items), "Zinc")
}

func TestRankedQueryWeightsNameOverDescriptionOverManufacturer(t *testing.T) {
	svc, db := newTestService(t)
	seedProduct(t, db, models.Product{Name: "Cold Relief", Manufacturer: "Parapharm"})
	seedProduct(t, db, models.Product{Name: "Headache Tabs", Description: "contains paracetamol"})
	seedProduct(t, db, models.Product{Name: "Paracetamol 500mg"})
	seedProduct(t, db, models.Product{Name: "Ibuprofen"})

	items, err := svc.List(context.Background(), ListParams{Search: "par"})
	require.NoError(t, err)
	require.Equal(t, []string{"Paracetamol 500mg", "Headache Tabs", "Cold Relief"}, names(items))
}

func TestRankedQueryCappedAtTwenty(t *testing.T) {
	svc, db := newTestService(t)
	for i := 0; i < 25; i++ {
		seedProduct(t, db, models.Product{Name: fmt.Sprintf("Paracetamol %02d", i)})
	}

	items, err := svc.List(context.Background(), ListParams{Search: "paracetamol"})
	require.NoError(t, err)
	require.Len(t, items, rankedLimit)
}

func TestSearchEscapesWildcards(t *testing.T) {
	svc, db := newTestService(t)
	seedProduct(t, db, models.Product{Name: "Cream 100%"})
	seedProduct(t, db, models.Product{Name: "Cream 1000"})

	items, err := svc.List(context.Background(), ListParams{Search: "0%"})
	require.NoError(t, err)
	require.Equal(t, []string{"Cream 100%"}, names(items))
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, ProductInput{Name: "Free", Price: decimal.Zero})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, admin, ProductInput{Name: "Odd", Price: decimal.RequireFromString("1.005")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, admin, ProductInput{Name: "Neg", Price: decimal.RequireFromString("1.00"), StockQuantity: -1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing := uuid.New()
	_, err = svc.Create(ctx, admin, ProductInput{Name: "Lost", Price: decimal.RequireFromString("1.00"), CategoryID: &missing})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	customer := access.Identity{UserID: uuid.New(), Role: enums.RoleCustomer}
	_, err = svc.Create(ctx, customer, ProductInput{Name: "Nope", Price: decimal.RequireFromString("1.00")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestCreateUpdateGet(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	vitamins := models.Category{Name: "Vitamins"}
	require.NoError(t, db.Create(&vitamins).Error)

	created, err := svc.Create(ctx, admin, ProductInput{
		Name:          "  Vitamin D3 ",
		Price:         decimal.RequireFromString("25"),
		StockQuantity: 100,
		CategoryID:    &vitamins.ID,
		Dosage:        "1000IU",
	})
	require.NoError(t, err)
	require.Equal(t, "Vitamin D3", created.Name)
	require.Equal(t, "25.00", created.Price)
	require.NotNil(t, created.Category)
	require.Equal(t, "Vitamins", created.Category.Name)

	updated, err := svc.Update(ctx, admin, created.ID, ProductInput{
		Name:          "Vitamin D3 2000IU",
		Price:         decimal.RequireFromString("30.50"),
		StockQuantity: 0,
	})
	require.NoError(t, err)
	require.Equal(t, "30.50", updated.Price)
	require.Nil(t, updated.Category)
	require.False(t, updated.InStock)

	_, err = svc.Update(ctx, admin, uuid.New(), ProductInput{Name: "Ghost", Price: decimal.RequireFromString("1.00")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Get(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteKeepsOrderHistory(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user := models.User{Email: "buyer@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	product := seedProduct(t, db, models.Product{Name: "Cough Syrup", StockQuantity: 5})

	cart := models.Cart{UserID: user.ID}
	require.NoError(t, db.Create(&cart).Error)
	require.NoError(t, db.Create(&models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1}).Error)

	order := models.Order{
		UserID:          user.ID,
		OrderNumber:     "ORD-20250101000000-ABCD",
		DeliveryName:    "Buyer",
		DeliveryEmail:   "buyer@example.com",
		DeliveryPhone:   "0501234567",
		DeliveryAddress: "Street 1",
		DeliveryCity:    "Dubai",
		DeliveryEmirate: "Dubai",
		TotalAmount:     decimal.RequireFromString("10.00"),
	}
	require.NoError(t, db.Create(&order).Error)
	item := models.OrderItem{OrderID: order.ID, ProductID: &product.ID, ProductName: product.Name, Quantity: 1, PriceAtPurchase: product.Price}
	require.NoError(t, db.Create(&item).Error)

	require.NoError(t, svc.Delete(ctx, admin, product.ID))

	var reloaded models.OrderItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	require.Nil(t, reloaded.ProductID)
	require.Equal(t, "Cough Syrup", reloaded.ProductName)

	var cartItems int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&cartItems).Error)
	require.Zero(t, cartItems)

	err := svc.Delete(ctx, admin, product.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestStockGuards(t *testing.T) {
	_, db := newTestService(t)
	ctx := context.Background()
	repository := NewRepository(db)
	product := seedProduct(t, db, models.Product{Name: "Antacid", StockQuantity: 3})

	ok, err := repository.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repository.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repository.IncrementStock(ctx, product.ID, 5)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repository.IncrementStock(ctx, uuid.New(), 1)
	require.NoError(t, err)
	require.False(t, ok)

	levels, err := repository.StockLevels(ctx, []uuid.UUID{product.ID})
	require.NoError(t, err)
	require.Equal(t, 6, levels[product.ID].StockQuantity)
}

func TestModeFor(t *testing.T) {
	require.Equal(t, searchNone, modeFor("   "))
	require.Equal(t, searchSubstring, modeFor("pa"))
	require.Equal(t, searchRanked, modeFor("par"))
	require.Equal(t, searchSubstring, modeFor("éé"))
}
