package tutorial

import (
	"context"
	"errors"
)

// Domain errors shared by the service and the storage layer.
var (
	ErrNotFound      = errors.New("tutorial not found")
	ErrTitleRequired = errors.New("title can not be empty")
	ErrInvalidID     = errors.New("invalid tutorial id")
)

// Repository defines the operations for persisting and retrieving Tutorial entities.
// Every method issues exactly one statement.
type Repository interface {
	Create(ctx context.Context, t *Tutorial) error
	GetByID(ctx context.Context, id uint) (*Tutorial, error) // ErrNotFound when no row matches
	List(ctx context.Context, filter Filter) ([]*Tutorial, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	// Update returns the number of rows affected; an empty patch affects none.
	Update(ctx context.Context, id uint, patch Patch) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
	// DeleteAll removes every row with a single DELETE, never a TRUNCATE.
	DeleteAll(ctx context.Context) (int64, error)
}
