package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// The current price of a variant is its price row with the latest
// valid_from; equal timestamps are settled by the higher id. Every price
// dependent query goes through the helpers below.

func latestPriceOrder(alias string) string {
	return fmt.Sprintf("%[1]s.valid_from DESC, %[1]s.id DESC", alias)
}

// currentPriceExpr is a correlated subquery yielding the current price in
// cents of the variant referenced by variantColumn, or NULL.
func currentPriceExpr(variantColumn string) string {
	return "(SELECT cp.amount_cents FROM prices cp WHERE cp.variant_id = " + variantColumn +
		" ORDER BY " + latestPriceOrder("cp") + " LIMIT 1)"
}

// CurrentPriceSQL evaluates to the current price of product_variants.id.
var CurrentPriceSQL = currentPriceExpr("product_variants.id")

// LatestPrice returns the current price of a variant, or nil when the
// variant has no price history.
func LatestPrice(ctx context.Context, db *gorm.DB, variantID string) (*Price, error) {
	var price Price
	err := db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order(latestPriceOrder("prices")).
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}

// LatestPrices returns the current price for each of the given variants.
// Variants without prices are absent from the map.
func LatestPrices(ctx context.Context, db *gorm.DB, variantIDs []string) (map[string]Price, error) {
	out := make(map[string]Price, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}

	var prices []Price
	if err := db.WithContext(ctx).
		Raw("SELECT DISTINCT ON (prices.variant_id) prices.* FROM prices WHERE prices.variant_id IN ? ORDER BY prices.variant_id, "+latestPriceOrder("prices"), variantIDs).
		Scan(&prices).Error; err != nil {
		return nil, err
	}
	for _, p := range prices {
		out[p.VariantID] = p
	}
	return out, nil
}
