package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/cart"
	"github.com/angelmondragon/pharmacy-backend/internal/notifications"
	"github.com/angelmondragon/pharmacy-backend/internal/users"
	"github.com/angelmondragon/pharmacy-backend/pkg/config"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/dbtest"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/angelmondragon/pharmacy-backend/pkg/security"
)

type recordingNotifier struct {
	sent []notifications.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n ...notifications.Notification) {
	r.sent = append(r.sent, n...)
}

func newRegisterFixture(t *testing.T) (RegisterService, *gorm.DB, *recordingNotifier) {
	t.Helper()
	client := dbtest.Client(t)
	notifier := &recordingNotifier{}
	svc, err := NewRegisterService(RegisterServiceParams{
		Tx:             client,
		Users:          users.NewRepository(client.DB()),
		Carts:          cart.NewRepository(client.DB()),
		SessionManager: newStubSessions(),
		JWTConfig:      testJWT,
		PasswordConfig: config.PasswordConfig{MinLength: 8},
		Notifier:       notifier,
		Logger:         logger.Nop(),
	})
	require.NoError(t, err)
	return svc, client.DB(), notifier
}

func TestRegisterCreatesUserAndCart(t *testing.T) {
	svc, db, notifier := newRegisterFixture(t)
	phone := " +971501234567 "

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "  Noor@Example.AE ",
		Password:  "pharmacy123",
		FirstName: " Noor ",
		LastName:  "Saleh",
		Phone:     &phone,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, "noor@example.ae", resp.User.Email)
	require.Equal(t, "Noor", resp.User.FirstName)
	require.Equal(t, enums.RoleCustomer, resp.User.Role)

	var stored models.User
	require.NoError(t, db.First(&stored, "email = ?", "noor@example.ae").Error)
	require.NotNil(t, stored.Phone)
	require.Equal(t, "+971501234567", *stored.Phone)
	ok, err := security.VerifyPassword("pharmacy123", stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	var carts int64
	require.NoError(t, db.Model(&models.Cart{}).Where("user_id = ?", stored.ID).Count(&carts).Error)
	require.Equal(t, int64(1), carts)

	require.Len(t, notifier.sent, 1)
	require.Equal(t, enums.NotificationWelcome, notifier.sent[0].Template)
	require.Equal(t, "noor@example.ae", notifier.sent[0].Recipient.Email)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, db, notifier := newRegisterFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "noor@example.ae", Password: "pharmacy123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "NOOR@example.ae", Password: "pharmacy456"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.Len(t, notifier.sent, 1)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, db, notifier := newRegisterFixture(t)

	for _, password := range []string{"short1", "onlyletters", "12345678"} {
		_, err := svc.Register(context.Background(), RegisterRequest{Email: "noor@example.ae", Password: password})
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), password)
	}

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.Zero(t, count)
	require.Empty(t, notifier.sent)
}

func TestNewRegisterServiceRequiresDependencies(t *testing.T) {
	_, err := NewRegisterService(RegisterServiceParams{})
	require.Error(t, err)
}
