package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/access"
	"github.com/angelmondragon/pharmacy-backend/internal/notifications"
	product "github.com/angelmondragon/pharmacy-backend/internal/products"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/dbtest"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/angelmondragon/pharmacy-backend/pkg/pagination"
)

type recordingNotifier struct {
	sent []notifications.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n ...notifications.Notification) {
	r.sent = append(r.sent, n...)
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      Service
	db       *gorm.DB
	notifier *recordingNotifier
	admin    access.Identity
	owner    access.Identity
	a, b     models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Client(t)
	db := client.DB()
	notifier := &recordingNotifier{}

	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(db),
		Products: product.NewRepository(db),
		Tx:       client,
		Notifier: notifier,
		Logger:   logger.Nop(),
		Now:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	owner := models.User{Email: "owner@example.com", PasswordHash: "x"}
	staff := models.User{Email: "staff@example.com", PasswordHash: "x", IsAdmin: true}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&staff).Error)

	a := models.Product{Name: "Paracetamol 500mg", Price: decimal.RequireFromString("12.50"), StockQuantity: 148}
	b := models.Product{Name: "Vitamin D3", Price: decimal.RequireFromString("25.00"), StockQuantity: 99}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	return &fixture{
		svc:      svc,
		db:       db,
		notifier: notifier,
		admin:    access.Identity{UserID: staff.ID, Role: enums.RoleAdmin},
		owner:    access.Identity{UserID: owner.ID, Role: enums.RoleCustomer},
		a:        a,
		b:        b,
	}
}

func (f *fixture) seedOrder(t *testing.T, status enums.OrderStatus, method enums.PaymentMethod, createdAt time.Time) models.Order {
	t.Helper()
	order := models.Order{
		UserID:          f.owner.UserID,
		OrderNumber:     fmt.Sprintf("ORD-%s-%s", createdAt.Format("20060102150405"), uuid.NewString()[:4]),
		DeliveryName:    "Owner",
		DeliveryEmail:   "owner@example.com",
		DeliveryPhone:   "0501234567",
		DeliveryAddress: "Marina Walk 3",
		DeliveryCity:    "Dubai",
		DeliveryEmirate: "Dubai",
		Status:          status,
		PaymentMethod:   method,
		PaymentStatus:   enums.PaymentStatusPending,
		TotalAmount:     decimal.RequireFromString("50.00"),
		CreatedAt:       createdAt,
		Items: []models.OrderItem{
			{ProductID: &f.a.ID, ProductName: f.a.Name, Quantity: 2, PriceAtPurchase: f.a.Price},
			{ProductID: &f.b.ID, ProductName: f.b.Name, Quantity: 1, PriceAtPurchase: f.b.Price},
		},
	}
	require.NoError(t, f.db.Create(&order).Error)
	return order
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return p.StockQuantity
}

func TestCancelRestoresStockAndUncancelTakesItAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, fixedNow)

	cancelled, err := f.svc.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusInput{Status: "cancelled"})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, 150, f.stock(t, f.a.ID))
	require.Equal(t, 100, f.stock(t, f.b.ID))

	restored, err := f.svc.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusInput{Status: "processing"})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusProcessing, restored.Status)
	require.Equal(t, 148, f.stock(t, f.a.ID))
	require.Equal(t, 99, f.stock(t, f.b.ID))

	require.Len(t, f.notifier.sent, 2)
	require.Equal(t, enums.NotificationOrderStatusUpdate, f.notifier.sent[0].Template)
	require.Equal(t, "Pending", f.notifier.sent[0].OldStatus)
	require.Equal(t, "Cancelled", f.notifier.sent[0].NewStatus)
}

func TestUncancelFailsAtomicallyOnShortage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusCancelled, enums.PaymentMethodCashOnDelivery, fixedNow)

	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", f.b.ID).Update("stock_quantity", 0).Error)

	_, err := f.svc.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusInput{Status: "pending"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock), "got %v", err)

	typed := pkgerrors.As(err)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	items, ok := details["items"].([]product.Shortage)
	require.True(t, ok)
	require.Len(t, items, 1)
	require.Equal(t, "Vitamin D3", items[0].Product)
	require.Equal(t, 0, items[0].Available)

	require.Equal(t, 148, f.stock(t, f.a.ID))
	require.Equal(t, 0, f.stock(t, f.b.ID))

	reloaded, err := f.svc.Get(ctx, f.admin, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, reloaded.Status)
	require.Empty(t, f.notifier.sent)
}

func TestCancelSkipsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, fixedNow)

	require.NoError(t, f.db.Model(&models.OrderItem{}).Where("product_id = ?", f.b.ID).Update("product_id", nil).Error)

	_, err := f.svc.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusInput{Status: "cancelled"})
	require.NoError(t, err)
	require.Equal(t, 150, f.stock(t, f.a.ID))
	require.Equal(t, 99, f.stock(t, f.b.ID))
}

func TestDeliveredSetsTimestampAndCollectsCash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusShipped, enums.PaymentMethodCashOnDelivery, fixedNow)

	delivered, err := f.svc.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusInput{Status: "Delivered"})
	require.NoError(t, err)
	require.NotNil(t, delivered.DeliveredAt)
	require.True(t, delivered.DeliveredAt.Equal(fixedNow))
	require.Equal(t, enums.PaymentStatusPaid, delivered.PaymentStatus)
	require.Equal(t, 148, f.stock(t, f.a.ID))
}

func TestDeliveredOrderCannotBeCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusDelivered, enums.PaymentMethodCashOnDelivery, fixedNow)

	_, err := f.svc.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusInput{Status: "cancelled"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidState), "got %v", err)
	require.Equal(t, 148, f.stock(t, f.a.ID))
	require.Equal(t, 99, f.stock(t, f.b.ID))

	reloaded, err := f.svc.Get(ctx, f.admin, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusDelivered, reloaded.Status)
	require.Empty(t, f.notifier.sent)
}

func TestShippedCardOrderKeepsPaymentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusProcessing, enums.PaymentMethodStripe, fixedNow)

	shipped, err := f.svc.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusInput{Status: "shipped"})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPending, shipped.PaymentStatus)
	require.Nil(t, shipped.DeliveredAt)
}

func TestSameStatusIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusCancelled, enums.PaymentMethodCashOnDelivery, fixedNow)

	_, err := f.svc.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusInput{Status: "cancelled"})
	require.NoError(t, err)
	require.Equal(t, 148, f.stock(t, f.a.ID))
	require.Empty(t, f.notifier.sent)
}

func TestUpdateStatusRejectsInvalidInputAndCustomers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, fixedNow)

	_, err := f.svc.UpdateStatus(ctx, f.admin, order.ID, UpdateStatusInput{Status: "confirmed"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.UpdateStatus(ctx, f.owner, order.ID, UpdateStatusInput{Status: "cancelled"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.UpdateStatus(ctx, f.admin, uuid.New(), UpdateStatusInput{Status: "cancelled"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, fixedNow)

	mine, err := f.svc.Get(ctx, f.owner, order.ID)
	require.NoError(t, err)
	require.Len(t, mine.Items, 2)
	require.Equal(t, "25.00", mine.Items[0].Subtotal)

	_, err = f.svc.Get(ctx, f.admin, order.ID)
	require.NoError(t, err)

	stranger := access.Identity{UserID: uuid.New(), Role: enums.RoleCustomer}
	_, err = f.svc.Get(ctx, stranger, order.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Get(ctx, access.Anonymous, order.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestListNewestFirstWithCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	oldest := f.seedOrder(t, enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, fixedNow.Add(-2*time.Hour))
	middle := f.seedOrder(t, enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, fixedNow.Add(-time.Hour))
	newest := f.seedOrder(t, enums.OrderStatusPending, enums.PaymentMethodCashOnDelivery, fixedNow)

	page, err := f.svc.List(ctx, f.owner, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, newest.ID, page.Items[0].ID)
	require.Equal(t, middle.ID, page.Items[1].ID)
	require.NotEmpty(t, page.NextCursor)

	next, err := f.svc.List(ctx, f.owner, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	require.Equal(t, oldest.ID, next.Items[0].ID)
	require.Empty(t, next.NextCursor)

	stranger := access.Identity{UserID: uuid.New(), Role: enums.RoleCustomer}
	empty, err := f.svc.List(ctx, stranger, pagination.Params{})
	require.NoError(t, err)
	require.Empty(t, empty.Items)

	all, err := f.svc.List(ctx, f.admin, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)

	_, err = f.svc.List(ctx, f.owner, pagination.Params{Cursor: "%%%"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
