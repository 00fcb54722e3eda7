package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pharmacy-backend/internal/users"
	pkgAuth "github.com/angelmondragon/pharmacy-backend/pkg/auth"
	"github.com/angelmondragon/pharmacy-backend/pkg/auth/session"
	"github.com/angelmondragon/pharmacy-backend/pkg/config"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
)

type sessionManager interface {
	Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error)
	Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// issuer mints an access token and binds a fresh refresh session to it.
type issuer struct {
	sessions sessionManager
	jwtCfg   config.JWTConfig
	now      func() time.Time
}

func newIssuer(sessions sessionManager, cfg config.JWTConfig, now func() time.Time) (issuer, error) {
	if sessions == nil {
		return issuer{}, fmt.Errorf("session manager is required")
	}
	if now == nil {
		now = time.Now
	}
	return issuer{sessions: sessions, jwtCfg: cfg, now: now}, nil
}

func (i issuer) issue(ctx context.Context, user *models.User) (*TokenResponse, error) {
	accessID := session.NewAccessID()
	refreshToken, err := i.sessions.Generate(ctx, accessID, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return i.mint(user, accessID, refreshToken)
}

func (i issuer) mint(user *models.User, accessID, refreshToken string) (*TokenResponse, error) {
	accessToken, err := pkgAuth.MintAccessToken(i.jwtCfg, i.now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role(),
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    i.jwtCfg.ExpirationMinutes * 60,
		User:         users.FromModel(user),
	}, nil
}
