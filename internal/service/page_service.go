package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"randomuser-page/internal/domain"
	"randomuser-page/internal/randomuser"
	"randomuser-page/internal/repository"
)

// PageData is what the users page template renders.
type PageData struct {
	Users []domain.User
	Limit int
}

// PageService loads the data behind the users page and the JSON view of it.
type PageService interface {
	// Load fetches the configured number of users for the page.
	Load(ctx context.Context) (*PageData, error)
	Users(ctx context.Context, limit int) ([]domain.User, error)
	PageLimit() int
}

type pageService struct {
	recorder  *fetchRecorder
	pageLimit int
}

func NewPageService(fetcher randomuser.Fetcher, history repository.FetchRepository, pageLimit int, logger *logrus.Logger) PageService {
	if pageLimit <= 0 {
		pageLimit = 100
	}
	return &pageService{
		recorder:  newFetchRecorder(fetcher, history, logger),
		pageLimit: pageLimit,
	}
}

func (s *pageService) Load(ctx context.Context) (*PageData, error) {
	page, err := s.recorder.fetch(ctx, domain.FetchSourcePage, s.pageLimit)
	if err != nil {
		return nil, err
	}
	return &PageData{
		Users: page.Users,
		Limit: s.pageLimit,
	}, nil
}

func (s *pageService) Users(ctx context.Context, limit int) ([]domain.User, error) {
	page, err := s.recorder.fetch(ctx, domain.FetchSourceAPI, limit)
	if err != nil {
		return nil, err
	}
	return page.Users, nil
}

func (s *pageService) PageLimit() int {
	return s.pageLimit
}
