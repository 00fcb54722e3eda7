package models

// All lists every persisted model in dependency order; used by sqlite auto-migration.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Address{},
		&Order{},
		&OrderItem{},
	}
}
