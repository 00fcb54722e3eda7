package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// sqliteConstraintColumns maps postgres constraint names to the table.column
// list sqlite prints in "UNIQUE constraint failed: ..." since sqlite never
// reports index names.
var sqliteConstraintColumns = map[string][]string{
	"users_email_key":            {"users.email"},
	"categories_name_key":        {"categories.name"},
	"carts_user_id_key":          {"carts.user_id"},
	"ux_cart_items_cart_product": {"cart_items.cart_id", "cart_items.product_id"},
	"orders_order_number_key":    {"orders.order_number"},
}

// IsUniqueViolation reports whether err is a unique constraint violation. When
// constraintName is set the violated constraint must match it.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	if constraintName == "" || strings.Contains(msg, constraintName) {
		return true
	}
	return sqliteColumnsMatch(msg, constraintName)
}

func sqliteColumnsMatch(msg, constraintName string) bool {
	columns, ok := sqliteConstraintColumns[constraintName]
	if !ok {
		return false
	}
	_, failed, found := strings.Cut(msg, "UNIQUE constraint failed:")
	if !found {
		return false
	}
	reported := strings.Split(failed, ",")
	if len(reported) != len(columns) {
		return false
	}
	for i, col := range reported {
		if strings.TrimSpace(col) != columns[i] {
			return false
		}
	}
	return true
}
