package auth

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/pkg/config"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	redisclient "github.com/angelmondragon/pharmacy-backend/pkg/redis"
	"github.com/angelmondragon/pharmacy-backend/pkg/security"
)

type memoryResetStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryResetStore() *memoryResetStore {
	return &memoryResetStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryResetStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryResetStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redisclient.Nil
	}
	return v, nil
}

func (m *memoryResetStore) GetDel(ctx context.Context, key string) (string, error) {
	v, err := m.Get(ctx, key)
	delete(m.values, key)
	return v, err
}

func (m *memoryResetStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryResetStore) PasswordResetKey(tokenHash string) string {
	return "pharmacy:password_reset:" + tokenHash
}

func (m *memoryResetStore) PasswordResetUserKey(userID string) string {
	return "pharmacy:password_reset:user:" + userID
}

type passwordUserRepo struct {
	user *models.User
}

func (p *passwordUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if p.user == nil || p.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return p.user, nil
}

func (p *passwordUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	if p.user == nil || p.user.ID != id {
		return gorm.ErrRecordNotFound
	}
	p.user.PasswordHash = hash
	return nil
}

type resetFixture struct {
	svc      PasswordResetService
	store    *memoryResetStore
	user     *models.User
	notifier *recordingNotifier
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	user := &models.User{ID: uuid.New(), Email: "sara@example.ae", FirstName: "Sara", IsActive: true}
	store := newMemoryResetStore()
	notifier := &recordingNotifier{}
	svc, err := NewPasswordResetService(PasswordResetParams{
		Store:          store,
		Users:          &passwordUserRepo{user: user},
		Notifier:       notifier,
		Logger:         logger.Nop(),
		ResetConfig:    config.PasswordResetConfig{TTL: time.Hour, TokenBytes: 32},
		PasswordConfig: config.PasswordConfig{MinLength: 8},
		FrontendURL:    "https://shop.example.ae/",
	})
	require.NoError(t, err)
	return &resetFixture{svc: svc, store: store, user: user, notifier: notifier}
}

func (f *resetFixture) tokenFromEmail(t *testing.T, i int) string {
	t.Helper()
	require.Greater(t, len(f.notifier.sent), i)
	link := f.notifier.sent[i].ResetURL
	require.True(t, strings.HasPrefix(link, "https://shop.example.ae/reset-password?token="), link)
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	return parsed.Query().Get("token")
}

func TestPasswordResetRoundTrip(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Request(ctx, " SARA@example.ae"))
	token := f.tokenFromEmail(t, 0)
	require.Len(t, token, 43)
	require.Equal(t, "1 hour", f.notifier.sent[0].ExpiresIn)

	key := f.store.PasswordResetKey(security.HashToken(token))
	require.Equal(t, f.user.ID.String(), f.store.values[key])
	require.Equal(t, time.Hour, f.store.ttls[key])
	_, rawStored := f.store.values[f.store.PasswordResetKey(token)]
	require.False(t, rawStored)

	require.NoError(t, f.svc.Confirm(ctx, token, "newpassword9"))
	ok, err := security.VerifyPassword("newpassword9", f.user.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	err = f.svc.Confirm(ctx, token, "another1pass")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Empty(t, f.store.values)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	f := newResetFixture(t)

	require.NoError(t, f.svc.Request(context.Background(), "ghost@example.ae"))
	require.Empty(t, f.notifier.sent)
	require.Empty(t, f.store.values)
}

func TestPasswordResetNewRequestRetiresPreviousToken(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Request(ctx, f.user.Email))
	require.NoError(t, f.svc.Request(ctx, f.user.Email))
	first := f.tokenFromEmail(t, 0)
	second := f.tokenFromEmail(t, 1)

	err := f.svc.Confirm(ctx, first, "newpassword9")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.NoError(t, f.svc.Confirm(ctx, second, "newpassword9"))
}

func TestPasswordResetConfirmValidatesInput(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Request(ctx, f.user.Email))
	token := f.tokenFromEmail(t, 0)

	require.True(t, pkgerrors.IsCode(f.svc.Confirm(ctx, "  ", "newpassword9"), pkgerrors.CodeValidation))
	require.True(t, pkgerrors.IsCode(f.svc.Confirm(ctx, token, "weak"), pkgerrors.CodeValidation))
	require.True(t, pkgerrors.IsCode(f.svc.Confirm(ctx, "forged-token", "newpassword9"), pkgerrors.CodeValidation))

	require.NoError(t, f.svc.Confirm(ctx, token, "newpassword9"))
}
