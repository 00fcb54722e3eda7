package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/pharmacy-backend/pkg/config"
	"github.com/angelmondragon/pharmacy-backend/pkg/db"
	"github.com/angelmondragon/pharmacy-backend/pkg/db/dbtest"
	"github.com/angelmondragon/pharmacy-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
	require.NoError(t, ValidateEmbedded())
}

func TestMigrationsContainSchema(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	var all strings.Builder
	for _, path := range matches {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		all.Write(data)
	}
	content := all.String()

	for _, stmt := range []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CREATE UNIQUE INDEX IF NOT EXISTS users_email_key",
		"CREATE TABLE IF NOT EXISTS categories",
		"CREATE TABLE IF NOT EXISTS products",
		"category_id uuid NULL REFERENCES categories(id) ON DELETE SET NULL",
		"CREATE INDEX IF NOT EXISTS idx_products_search ON products USING GIN",
		"CONSTRAINT carts_user_id_key UNIQUE (user_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_items_cart_product",
		"CREATE TABLE IF NOT EXISTS addresses",
		"CONSTRAINT orders_order_number_key UNIQUE (order_number)",
		"product_id uuid NULL REFERENCES products(id) ON DELETE SET NULL",
		"price_at_purchase numeric(10,2) NOT NULL",
	} {
		require.Contains(t, content, stmt)
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, ValidateDir(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, ValidateDir(dir))

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250101000000_missing_down.sql"), []byte("-- +goose Up\n"), 0o644))
	require.Error(t, ValidateDir(dir))

	dir = t.TempDir()
	unbalanced := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250101000000_unbalanced.sql"), []byte(unbalanced), 0o644))
	require.Error(t, ValidateDir(dir))
}

func TestCheckAnnotationsOrder(t *testing.T) {
	require.Error(t, checkAnnotations("-- +goose Down\n-- +goose Up\n"))
	require.NoError(t, checkAnnotations("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Product Barcode!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_product_barcode.sql"))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestCreateAtRefusesExistingVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	path, err := createAt(dir, "add stock alerts", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20250301090000_add_stock_alerts.sql"), path)

	_, err = createAt(dir, "add stock alerts", now)
	require.Error(t, err)
}

func TestMaybeRunDevAutoMigratesSQLite(t *testing.T) {
	conn := dbtest.Open(t)
	require.NoError(t, conn.Migrator().DropTable("order_items"))

	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvDev},
		DB:           config.DBConfig{Driver: config.DBDriverSQLite},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	require.NoError(t, MaybeRunDev(context.Background(), cfg, logger.Nop(), db.NewFromGorm(conn)))
	require.True(t, conn.Migrator().HasTable("order_items"))
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvProd},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	require.NoError(t, MaybeRunDev(context.Background(), cfg, logger.Nop(), nil))
}
