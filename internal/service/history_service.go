package service

import (
	"context"

	"randomuser-page/internal/domain"
	"randomuser-page/internal/repository"
)

const (
	defaultHistoryPage = 50
	maxHistoryPage     = 500
)

// HistoryService exposes the fetch audit trail.
type HistoryService interface {
	List(ctx context.Context, limit int) ([]domain.FetchRecord, error)
	Get(ctx context.Context, id int64) (*domain.FetchRecord, error)
}

type historyService struct {
	fetches repository.FetchRepository
}

func NewHistoryService(fetches repository.FetchRepository) HistoryService {
	return &historyService{fetches: fetches}
}

func (s *historyService) List(ctx context.Context, limit int) ([]domain.FetchRecord, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryPage
	case limit > maxHistoryPage:
		limit = maxHistoryPage
	}
	return s.fetches.List(ctx, limit)
}

func (s *historyService) Get(ctx context.Context, id int64) (*domain.FetchRecord, error) {
	return s.fetches.Get(ctx, id)
}
