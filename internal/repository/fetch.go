package repository

import (
	"context"
	"errors"

	"randomuser-page/internal/domain"
)

// ErrFetchNotFound is returned when no fetch record has the requested id.
var ErrFetchNotFound = errors.New("fetch record not found")

// FetchRepository persists the audit trail of upstream fetches.
type FetchRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, record *domain.FetchRecord) (int64, error)
	Get(ctx context.Context, id int64) (*domain.FetchRecord, error)
	// List returns at most limit records, newest first.
	List(ctx context.Context, limit int) ([]domain.FetchRecord, error)
}
