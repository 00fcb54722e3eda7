// Package repo holds the connection handling shared by domain repositories.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
)

const dialectPostgres = "postgres"

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bind scopes the base to tx. A nil tx keeps the current connection.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// IsPostgres reports whether the connection speaks the postgres dialect.
func (b Base) IsPostgres() bool {
	return b.db != nil && b.db.Dialector != nil && b.db.Dialector.Name() == dialectPostgres
}

// NotFound turns gorm.ErrRecordNotFound into a typed NOT_FOUND error for the
// named resource and wraps anything else as a dependency failure.
func NotFound(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, resource+" not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load "+resource)
}
