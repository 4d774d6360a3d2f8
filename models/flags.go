package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Flag heuristics. The same rules back the per-product reconciliation and
// the batch job.
const (
	FeaturedWindow        = 365 * 24 * time.Hour
	NewWindow             = 90 * 24 * time.Hour
	PopularStockThreshold = 10
)

// FlagCounts summarizes a batch reconciliation.
type FlagCounts struct {
	Featured int64
	Popular  int64
	New      int64
}

// FlagReconciler recomputes the denormalized product_type and computed flags
// from relational state. It only issues UPDATEs scoped by id or narrow
// predicates and never saves products through the model layer.
type FlagReconciler struct {
	db  *gorm.DB
	now func() time.Time
}

func NewFlagReconciler(db *gorm.DB) *FlagReconciler {
	return &FlagReconciler{db: db, now: time.Now}
}

func flagAssignments(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"is_featured": gorm.Expr("(release_date IS NOT NULL AND release_date >= ?)", now.Add(-FeaturedWindow)),
		"is_new":      gorm.Expr("(created_at IS NOT NULL AND created_at >= ?)", now.Add(-NewWindow)),
		"is_popular": gorm.Expr("EXISTS (SELECT 1 FROM product_variants fv JOIN stock_levels fs ON fs.variant_id = fv.id"+
			" WHERE fv.product_id = products.id AND fs.qty_available > ?)", PopularStockThreshold),
	}
}

// reconcile applies the rule set to the products selected by scope.
func reconcile(db *gorm.DB, now time.Time, scope func(*gorm.DB) *gorm.DB) error {
	products := func() *gorm.DB {
		return scope(db.Model(&Product{}).Session(&gorm.Session{AllowGlobalUpdate: true}))
	}

	if err := products().
		Where("category_id IS NOT NULL").
		UpdateColumn("product_type", gorm.Expr("COALESCE((SELECT c.slug FROM categories c WHERE c.id = products.category_id), product_type)")).Error; err != nil {
		return err
	}
	if err := products().
		Where("(product_type IS NULL OR product_type = '')").
		UpdateColumn("product_type", DefaultProductType).Error; err != nil {
		return err
	}
	return products().UpdateColumns(flagAssignments(now)).Error
}

// ReconcileProduct recomputes one product. The importer calls it after
// writing a product so flags are fresh between batch runs.
func (f *FlagReconciler) ReconcileProduct(ctx context.Context, productID string) error {
	return reconcileProduct(f.db.WithContext(ctx), f.now(), productID)
}

func reconcileProduct(db *gorm.DB, now time.Time, productID string) error {
	return reconcile(db, now, func(q *gorm.DB) *gorm.DB {
		return q.Where("id = ?", productID)
	})
}

// ReconcileAll recomputes every product in one transaction and returns the
// resulting flag counts.
func (f *FlagReconciler) ReconcileAll(ctx context.Context) (FlagCounts, error) {
	var counts FlagCounts
	now := f.now()

	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reconcile(tx, now, func(q *gorm.DB) *gorm.DB { return q }); err != nil {
			return err
		}
		if err := tx.Model(&Product{}).Where("is_featured = ?", true).Count(&counts.Featured).Error; err != nil {
			return err
		}
		if err := tx.Model(&Product{}).Where("is_popular = ?", true).Count(&counts.Popular).Error; err != nil {
			return err
		}
		return tx.Model(&Product{}).Where("is_new = ?", true).Count(&counts.New).Error
	})
	if err != nil {
		return FlagCounts{}, err
	}
	return counts, nil
}
