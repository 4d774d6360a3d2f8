package models

import "time"

// ImportLock is a named mutual exclusion lease. An expired lease is free.
type ImportLock struct {
	Name      string    `gorm:"primaryKey"`
	Owner     string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
}

func (l *ImportLock) TableName() string {
	return "import_locks"
}
