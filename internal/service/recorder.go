package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"randomuser-page/internal/domain"
	"randomuser-page/internal/randomuser"
	"randomuser-page/internal/repository"
)

// fetchRecorder performs one upstream fetch and writes its outcome to the
// fetch history. History failures are logged, never returned.
type fetchRecorder struct {
	fetcher randomuser.Fetcher
	history repository.FetchRepository
	logger  *logrus.Logger
	now     func() time.Time
}

func newFetchRecorder(fetcher randomuser.Fetcher, history repository.FetchRepository, logger *logrus.Logger) *fetchRecorder {
	if logger == nil {
		logger = logrus.New()
	}
	return &fetchRecorder{
		fetcher: fetcher,
		history: history,
		logger:  logger,
		now:     time.Now,
	}
}

func (r *fetchRecorder) fetch(ctx context.Context, source domain.FetchSource, limit int) (*randomuser.Page, error) {
	started := r.now()
	page, err := r.fetcher.FetchPage(ctx, limit)
	elapsed := r.now().Sub(started)

	record := domain.FetchRecord{
		Source:         source,
		Limit:          limit,
		DurationMillis: elapsed.Milliseconds(),
		CreatedAt:      started.UTC(),
	}
	entry := r.logger.WithFields(logrus.Fields{
		"source":   source,
		"limit":    limit,
		"duration": elapsed,
	})
	if err != nil {
		record.ErrorMessage = err.Error()
		entry.WithError(err).Warn("random user fetch failed")
	} else {
		record.Count = len(page.Users)
		record.Seed = page.Info.Seed
		record.Version = page.Info.Version
		entry.WithField("count", record.Count).Info("fetched random users")
	}

	if r.history != nil {
		// the caller may have gone away; the audit row is still wanted
		if _, herr := r.history.Create(context.WithoutCancel(ctx), &record); herr != nil {
			r.logger.Warnf("record fetch history: %v", herr)
		}
	}

	return page, err
}
