package product

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
)

// Shortage describes one line that cannot be served from current stock.
type Shortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Product   string    `json:"product"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// InsufficientStock aggregates shortages into one INSUFFICIENT_STOCK error
// listing every offending item under details.items.
func InsufficientStock(shortages ...Shortage) error {
	parts := make([]string, 0, len(shortages))
	for _, s := range shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.Product, s.Requested, s.Available))
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for: "+strings.Join(parts, ", ")).
		WithDetails(map[string]any{"items": shortages})
}
