package keyset

import (
	"context"

	"gorm.io/gorm"
)

// Counter derives a row count for a query without materializing its
// projection. Count reports ok=false when the backend cannot determine a
// count at all; that is a normal outcome distinct from an execution error,
// and no implementation may signal it with a negative sentinel.
type Counter interface {
	Count(ctx context.Context, db *gorm.DB) (count int64, ok bool, err error)
}

// GORMCounter counts through gorm's count finisher, which issues
// SELECT count(*) with the query's ORDER BY stripped instead of
// materializing rows.
type GORMCounter struct{}

func (GORMCounter) Count(ctx context.Context, db *gorm.DB) (int64, bool, error) {
	if ctx != nil {
		db = db.WithContext(ctx)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, false, err
	}

	return count, true, nil
}

var _ Counter = GORMCounter{}
