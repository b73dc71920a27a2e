package memory

import (
	"context"

	"github.com/lifemap/memorymap/database"
	apperrors "github.com/lifemap/memorymap/errors"
)

// table holds the CRUD queries shared by the three record types. Errors
// come back as *errors.AppError.
type table[T any] struct {
	db       *database.DB
	resource string
}

func newTable[T any](db *database.DB, resource string) *table[T] {
	return &table[T]{db: db, resource: resource}
}

func (t *table[T]) create(ctx context.Context, row *T) error {
	if err := t.db.WithContext(ctx).Create(row).Error; err != nil {
		return database.FromDatabase(err, t.resource)
	}
	return nil
}

func (t *table[T]) get(ctx context.Context, id string) (*T, error) {
	var row T
	if err := t.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if database.IsNotFoundError(err) {
			return nil, apperrors.NotFound(t.resource, id)
		}
		return nil, database.FromDatabase(err, t.resource)
	}
	return &row, nil
}

// list returns the newest rows first.
func (t *table[T]) list(ctx context.Context, limit int) ([]T, error) {
	rows := []T{}
	q := t.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, database.FromDatabase(err, t.resource)
	}
	return rows, nil
}

// update applies the non-empty column map and returns the fresh row.
func (t *table[T]) update(ctx context.Context, id string, columns map[string]any) (*T, error) {
	if len(columns) > 0 {
		var model T
		res := t.db.WithContext(ctx).Model(&model).Where("id = ?", id).Updates(columns)
		if res.Error != nil {
			return nil, database.FromDatabase(res.Error, t.resource)
		}
		if res.RowsAffected == 0 {
			return nil, apperrors.NotFound(t.resource, id)
		}
	}
	return t.get(ctx, id)
}

// updateIf applies columns to the row only while cond holds, in a single
// statement. It reports whether the row changed; false covers both a
// missing row and a failed condition.
func (t *table[T]) updateIf(ctx context.Context, id string, columns map[string]any, cond string, args ...any) (bool, error) {
	var model T
	res := t.db.WithContext(ctx).Model(&model).Where("id = ?", id).Where(cond, args...).Updates(columns)
	if res.Error != nil {
		return false, database.FromDatabase(res.Error, t.resource)
	}
	return res.RowsAffected > 0, nil
}

func (t *table[T]) delete(ctx context.Context, id string) error {
	var model T
	res := t.db.WithContext(ctx).Where("id = ?", id).Delete(&model)
	if res.Error != nil {
		return database.FromDatabase(res.Error, t.resource)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(t.resource, id)
	}
	return nil
}
