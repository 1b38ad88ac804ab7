package database

import (
	"context"
	"errors"
	"fmt" // For error wrapping

	"tutorials_api/internal/domain/tutorial"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type PostgresTutorialRepository struct {
	db *gorm.DB
}

func NewPostgresTutorialRepository(db *gorm.DB) *PostgresTutorialRepository {
	return &PostgresTutorialRepository{db: db}
}

func (r *PostgresTutorialRepository) Create(ctx context.Context, t *tutorial.Tutorial) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("error creating tutorial: %w", describe(err))
	}
	return nil
}

func (r *PostgresTutorialRepository) GetByID(ctx context.Context, id uint) (*tutorial.Tutorial, error) {
	t := &tutorial.Tutorial{}
	err := r.db.WithContext(ctx).First(t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tutorial.ErrNotFound
		}
		return nil, fmt.Errorf("error getting tutorial by ID: %w", describe(err))
	}
	return t, nil
}

func (r *PostgresTutorialRepository) List(ctx context.Context, filter tutorial.Filter) ([]*tutorial.Tutorial, error) {
	tutorials := make([]*tutorial.Tutorial, 0)
	if err := r.scoped(ctx, filter).Order("id").Find(&tutorials).Error; err != nil {
		return nil, fmt.Errorf("error listing tutorials: %w", describe(err))
	}
	return tutorials, nil
}

func (r *PostgresTutorialRepository) Count(ctx context.Context, filter tutorial.Filter) (int64, error) {
	var n int64
	if err := r.scoped(ctx, filter).Model(&tutorial.Tutorial{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("error counting tutorials: %w", describe(err))
	}
	return n, nil
}

func (r *PostgresTutorialRepository) Update(ctx context.Context, id uint, patch tutorial.Patch) (int64, error) {
	if patch.IsEmpty() {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&tutorial.Tutorial{}).Where("id = ?", id).Updates(patch.Columns())
	if res.Error != nil {
		return 0, fmt.Errorf("error updating tutorial: %w", describe(res.Error))
	}
	return res.RowsAffected, nil
}

func (r *PostgresTutorialRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&tutorial.Tutorial{})
	if res.Error != nil {
		return 0, fmt.Errorf("error deleting tutorial: %w", describe(res.Error))
	}
	return res.RowsAffected, nil
}

func (r *PostgresTutorialRepository) DeleteAll(ctx context.Context) (int64, error) {
	// Row-by-row DELETE, not TRUNCATE.
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&tutorial.Tutorial{})
	if res.Error != nil {
		return 0, fmt.Errorf("error deleting all tutorials: %w", describe(res.Error))
	}
	return res.RowsAffected, nil
}

func (r *PostgresTutorialRepository) scoped(ctx context.Context, filter tutorial.Filter) *gorm.DB {
	q := r.db.WithContext(ctx)
	if filter.TitleContains != "" {
		q = q.Where("title LIKE ?", "%"+filter.TitleContains+"%")
	}
	if filter.PublishedOnly {
		q = q.Where("published = ?", true)
	}
	return q
}

// describe prefixes PostgreSQL errors with their condition name, e.g. "not_null_violation".
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %w", pqErr.Code.Name(), err)
	}
	return err
}
