package models

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockRepository hands out named leases stored in import_locks. A lease is
// free when absent or expired, so a crashed holder blocks others for at most
// its TTL.
type LockRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewLockRepository(db *gorm.DB) *LockRepository {
	return &LockRepository{db: db, now: time.Now}
}

// Acquire takes the lease for owner. It returns false without error when
// another owner holds an unexpired lease.
func (r *LockRepository) Acquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	now := r.now()
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"owner", "expires_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "import_locks.expires_at < ?", Vars: []interface{}{now}},
			}},
		}).
		Create(&ImportLock{Name: name, Owner: owner, ExpiresAt: now.Add(ttl)})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release drops the lease if owner still holds it.
func (r *LockRepository) Release(ctx context.Context, name, owner string) error {
	return r.db.WithContext(ctx).
		Where("name = ? AND owner = ?", name, owner).
		Delete(&ImportLock{}).Error
}
