package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/notifications"
	"github.com/angelmondragon/pharmacy-backend/internal/users"
	"github.com/angelmondragon/pharmacy-backend/pkg/config"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	redisclient "github.com/angelmondragon/pharmacy-backend/pkg/redis"
	"github.com/angelmondragon/pharmacy-backend/pkg/security"
)

const (
	invalidResetTokenMessage = "invalid or expired reset token"
	resetPath                = "/reset-password"
)

// PasswordResetService issues single-use reset tokens and consumes them.
type PasswordResetService interface {
	Request(ctx context.Context, email string) error
	Confirm(ctx context.Context, token, newPassword string) error
}

type resetStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	PasswordResetKey(tokenHash string) string
	PasswordResetUserKey(userID string) string
}

type resetUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

type PasswordResetParams struct {
	Store          resetStore
	Users          resetUserRepository
	Notifier       notifications.Notifier
	Logger         *logger.Logger
	ResetConfig    config.PasswordResetConfig
	PasswordConfig config.PasswordConfig
	FrontendURL    string
}

type passwordResetService struct {
	store       resetStore
	users       resetUserRepository
	notifier    notifications.Notifier
	logg        *logger.Logger
	ttl         time.Duration
	tokenBytes  int
	passwordCfg config.PasswordConfig
	frontendURL string
}

func NewPasswordResetService(params PasswordResetParams) (PasswordResetService, error) {
	switch {
	case params.Store == nil:
		return nil, fmt.Errorf("reset token store is required")
	case params.Users == nil:
		return nil, fmt.Errorf("user repository is required")
	case params.Notifier == nil:
		return nil, fmt.Errorf("notifier is required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case params.ResetConfig.TTL <= 0:
		return nil, fmt.Errorf("password reset ttl must be positive")
	}
	tokenBytes := params.ResetConfig.TokenBytes
	if tokenBytes <= 0 {
		tokenBytes = 32
	}
	return &passwordResetService{
		store:       params.Store,
		users:       params.Users,
		notifier:    params.Notifier,
		logg:        params.Logger,
		ttl:         params.ResetConfig.TTL,
		tokenBytes:  tokenBytes,
		passwordCfg: params.PasswordConfig,
		frontendURL: strings.TrimRight(strings.TrimSpace(params.FrontendURL), "/"),
	}, nil
}

// Request emails a reset link when the address belongs to an active account.
// Unknown addresses succeed silently. Issuing a new token retires the previous one.
func (s *passwordResetService) Request(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Debug(ctx, "auth.password_reset.unknown_email")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !user.IsActive {
		return nil
	}

	token, err := security.GenerateURLToken(s.tokenBytes)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}
	hash := security.HashToken(token)
	userKey := s.store.PasswordResetUserKey(user.ID.String())

	previous, err := s.store.Get(ctx, userKey)
	switch {
	case err == nil && previous != "":
		if err := s.store.Del(ctx, s.store.PasswordResetKey(previous)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retire previous reset token")
		}
	case err != nil && !errors.Is(err, redisclient.Nil):
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load previous reset token")
	}

	if err := s.store.Set(ctx, s.store.PasswordResetKey(hash), user.ID.String(), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reset token")
	}
	if err := s.store.Set(ctx, userKey, hash, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reset token")
	}

	logCtx := s.logg.WithUserID(ctx, user.ID.String())
	s.logg.Info(logCtx, "auth.password_reset.requested")
	s.notifier.Notify(logCtx, notifications.PasswordReset(*user, s.resetURL(token), s.ttl))
	return nil
}

// Confirm consumes the token and replaces the password. A token works once.
func (s *passwordResetService) Confirm(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, invalidResetTokenMessage)
	}
	if err := security.CheckPasswordStrength(newPassword, s.passwordCfg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	hash := security.HashToken(token)
	rawUserID, err := s.store.GetDel(ctx, s.store.PasswordResetKey(hash))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return pkgerrors.New(pkgerrors.CodeValidation, invalidResetTokenMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume reset token")
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, invalidResetTokenMessage)
	}
	if err := s.store.Del(ctx, s.store.PasswordResetUserKey(userID.String())); err != nil {
		s.logg.Warn(ctx, "auth.password_reset.cleanup_failed")
	}

	passwordHash, err := security.HashPassword(newPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, invalidResetTokenMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}

	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "auth.password_reset.completed")
	return nil
}

func (s *passwordResetService) resetURL(token string) string {
	return s.frontendURL + resetPath + "?token=" + url.QueryEscape(token)
}
