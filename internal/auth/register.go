package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/internal/cart"
	"github.com/angelmondragon/pharmacy-backend/internal/notifications"
	"github.com/angelmondragon/pharmacy-backend/internal/users"
	"github.com/angelmondragon/pharmacy-backend/pkg/config"
	"github.com/angelmondragon/pharmacy-backend/pkg/db"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/angelmondragon/pharmacy-backend/pkg/security"
)

const emailTakenMessage = "email already registered"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterService handles the sign-up transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	Tx             txRunner
	Users          *users.Repository
	Carts          *cart.Repository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Notifier       notifications.Notifier
	Logger         *logger.Logger
	Now            func() time.Time
}

type registerService struct {
	tx          txRunner
	users       *users.Repository
	carts       *cart.Repository
	tokens      issuer
	passwordCfg config.PasswordConfig
	notifier    notifications.Notifier
	logg        *logger.Logger
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner is required")
	case params.Users == nil:
		return nil, fmt.Errorf("user repository is required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart repository is required")
	case params.Notifier == nil:
		return nil, fmt.Errorf("notifier is required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	}
	tokens, err := newIssuer(params.SessionManager, params.JWTConfig, params.Now)
	if err != nil {
		return nil, err
	}
	return &registerService{
		tx:          params.Tx,
		users:       params.Users,
		carts:       params.Carts,
		tokens:      tokens,
		passwordCfg: params.PasswordConfig,
		notifier:    params.Notifier,
		logg:        params.Logger,
	}, nil
}

// Register creates the user and their empty cart in one transaction, then
// sends the welcome email and signs the user in.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := security.CheckPasswordStrength(req.Password, s.passwordCfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.users.WithTx(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, emailTakenMessage)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Phone:        trimmed(req.Phone),
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, emailTakenMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		if err := s.carts.WithTx(tx).Create(ctx, created.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithUserID(ctx, user.ID.String())
	s.logg.Info(logCtx, "auth.registered")
	s.notifier.Notify(logCtx, notifications.Welcome(*user))

	return s.tokens.issue(ctx, user)
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
