// Package seed loads the demo pharmacy catalog.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type categorySeed struct {
	Name        string
	Description string
}

type productSeed struct {
	Name          string
	Description   string
	Price         string
	StockQuantity int
	Category      string
	Manufacturer  string
}

// Result counts rows inserted by a seed run; existing rows are left untouched.
type Result struct {
	Categories int
	Products   int
}

var demoCategories = []categorySeed{
	{Name: "Pain Relief", Description: "Painkillers and anti-inflammatory medicines"},
	{Name: "Vitamins & Supplements", Description: "Daily vitamins and dietary supplements"},
	{Name: "Cold & Flu", Description: "Medicines for cold, flu, and cough"},
	{Name: "Digestive Health", Description: "Medicines for stomach and digestive issues"},
	{Name: "First Aid", Description: "Bandages, antiseptics, and first aid supplies"},
	{Name: "Personal Care", Description: "Health and hygiene products"},
}

var demoProducts = []productSeed{
	{Name: "Paracetamol 500mg", Description: "Effective pain relief and fever reducer. Safe for adults and children over 12.", Price: "12.50", StockQuantity: 150, Category: "Pain Relief", Manufacturer: "GSK"},
	{Name: "Ibuprofen 400mg", Description: "Anti-inflammatory pain relief for headaches, muscle pain, and fever.", Price: "15.00", StockQuantity: 120, Category: "Pain Relief", Manufacturer: "Reckitt"},
	{Name: "Aspirin 100mg", Description: "Low-dose aspirin for heart health and pain relief.", Price: "18.00", StockQuantity: 80, Category: "Pain Relief", Manufacturer: "Bayer"},
	{Name: "Vitamin D3 1000IU", Description: "Essential vitamin D supplement for bone health and immunity.", Price: "25.00", StockQuantity: 100, Category: "Vitamins & Supplements", Manufacturer: "Nature's Bounty"},
	{Name: "Omega-3 Fish Oil", Description: "High-quality fish oil capsules for heart and brain health.", Price: "45.00", StockQuantity: 60, Category: "Vitamins & Supplements", Manufacturer: "Nordic Naturals"},
	{Name: "Multivitamin Complex", Description: "Complete daily multivitamin with essential minerals.", Price: "35.00", StockQuantity: 90, Category: "Vitamins & Supplements", Manufacturer: "Centrum"},
	{Name: "Vitamin C 1000mg", Description: "High-strength Vitamin C for immune support.", Price: "20.00", StockQuantity: 110, Category: "Vitamins & Supplements", Manufacturer: "Redoxon"},
	{Name: "Cold & Flu Relief Tablets", Description: "Multi-symptom relief for cold and flu.", Price: "22.00", StockQuantity: 85, Category: "Cold & Flu", Manufacturer: "Panadol"},
	{Name: "Cough Syrup 120ml", Description: "Soothing cough syrup for dry and chesty coughs.", Price: "28.00", StockQuantity: 50, Category: "Cold & Flu", Manufacturer: "Benylin"},
	{Name: "Throat Lozenges", Description: "Medicated lozenges for sore throat relief.", Price: "15.00", StockQuantity: 95, Category: "Cold & Flu", Manufacturer: "Strepsils"},
	{Name: "Antacid Tablets", Description: "Fast relief from heartburn and indigestion.", Price: "16.00", StockQuantity: 100, Category: "Digestive Health", Manufacturer: "Gaviscon"},
	{Name: "Probiotic Capsules", Description: "Supports digestive health and gut flora.", Price: "40.00", StockQuantity: 55, Category: "Digestive Health", Manufacturer: "Culturelle"},
	{Name: "Laxative Tablets", Description: "Gentle relief for occasional constipation.", Price: "18.00", StockQuantity: 70, Category: "Digestive Health", Manufacturer: "Dulcolax"},
	{Name: "Adhesive Bandages Box", Description: "Assorted sizes of sterile adhesive bandages.", Price: "12.00", StockQuantity: 120, Category: "First Aid", Manufacturer: "Band-Aid"},
	{Name: "Antiseptic Cream 30g", Description: "Prevents infection in minor cuts and burns.", Price: "14.00", StockQuantity: 80, Category: "First Aid", Manufacturer: "Savlon"},
	{Name: "Gauze Pads (Pack of 10)", Description: "Sterile gauze pads for wound care.", Price: "10.00", StockQuantity: 90, Category: "First Aid", Manufacturer: "Hartmann"},
	{Name: "Hand Sanitizer 500ml", Description: "70% alcohol hand sanitizer gel.", Price: "20.00", StockQuantity: 200, Category: "Personal Care", Manufacturer: "Dettol"},
	{Name: "Digital Thermometer", Description: "Fast and accurate digital thermometer.", Price: "35.00", StockQuantity: 45, Category: "Personal Care", Manufacturer: "Omron"},
}

// Catalog inserts the demo categories and products that are missing by name.
func Catalog(ctx context.Context, tx txRunner) (Result, error) {
	var res Result
	err := tx.WithTx(ctx, func(tx *gorm.DB) error {
		res = Result{}
		ids := make(map[string]models.Category, len(demoCategories))
		for _, c := range demoCategories {
			category := models.Category{Name: c.Name, Description: c.Description}
			created, err := firstOrCreate(ctx, tx, &category, "name = ?", c.Name)
			if err != nil {
				return fmt.Errorf("seed category %q: %w", c.Name, err)
			}
			if created {
				res.Categories++
			}
			ids[c.Name] = category
		}

		for _, p := range demoProducts {
			category, ok := ids[p.Category]
			if !ok {
				return fmt.Errorf("seed product %q: unknown category %q", p.Name, p.Category)
			}
			product := models.Product{
				Name:          p.Name,
				Description:   p.Description,
				Price:         decimal.RequireFromString(p.Price),
				StockQuantity: p.StockQuantity,
				CategoryID:    &category.ID,
				Manufacturer:  p.Manufacturer,
			}
			created, err := firstOrCreate(ctx, tx, &product, "name = ?", p.Name)
			if err != nil {
				return fmt.Errorf("seed product %q: %w", p.Name, err)
			}
			if created {
				res.Products++
			}
		}
		return nil
	})
	return res, err
}

func firstOrCreate[T any](ctx context.Context, tx *gorm.DB, row *T, query string, args ...any) (bool, error) {
	var existing T
	err := tx.WithContext(ctx).Where(query, args...).First(&existing).Error
	if err == nil {
		*row = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		return false, err
	}
	return true, nil
}
