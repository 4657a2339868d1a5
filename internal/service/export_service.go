package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"randomuser-page/internal/domain"
	"randomuser-page/internal/randomuser"
	"randomuser-page/internal/repository"
	"randomuser-page/internal/storage"
)

var (
	// ErrExportsDisabled is returned when no export bucket is configured.
	ErrExportsDisabled = errors.New("exports are not configured")
	// ErrInvalidExportKey is returned for keys outside the export prefix.
	ErrInvalidExportKey = errors.New("invalid export key")
)

// ExportService stores fetched batches of users in object storage.
type ExportService interface {
	Create(ctx context.Context, limit int) (*domain.Export, error)
	List(ctx context.Context) ([]domain.Export, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	// PurgeDay removes every export written on the given UTC day.
	PurgeDay(ctx context.Context, day time.Time) error
}

type ExportConfig struct {
	Bucket    string
	KeyPrefix string
	URLTTL    time.Duration
}

type exportService struct {
	cfg      ExportConfig
	storage  storage.Service
	recorder *fetchRecorder
	logger   *logrus.Logger
	newID    func() string
}

// exportDocument mirrors the upstream response envelope.
type exportDocument struct {
	Results []domain.User   `json:"results"`
	Info    randomuser.Info `json:"info"`
}

func NewExportService(cfg ExportConfig, store storage.Service, fetcher randomuser.Fetcher, history repository.FetchRepository, logger *logrus.Logger) ExportService {
	if logger == nil {
		logger = logrus.New()
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "randomuser-exports"
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = 15 * time.Minute
	}
	return &exportService{
		cfg:      cfg,
		storage:  store,
		recorder: newFetchRecorder(fetcher, history, logger),
		logger:   logger,
		newID:    uuid.NewString,
	}
}

func (s *exportService) enabled() bool {
	return s.storage != nil && s.cfg.Bucket != ""
}

func (s *exportService) Create(ctx context.Context, limit int) (*domain.Export, error) {
	if !s.enabled() {
		return nil, ErrExportsDisabled
	}

	page, err := s.recorder.fetch(ctx, domain.FetchSourceExport, limit)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(exportDocument{Results: page.Users, Info: page.Info}); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	size := int64(buf.Len())

	now := s.recorder.now().UTC()
	key := path.Join(s.cfg.KeyPrefix, now.Format("2006/01/02"), s.newID()+".json")
	location, err := s.storage.PutObject(ctx, &buf, storage.PutOptions{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: "application/json",
		Metadata: map[string]string{
			"count": strconv.Itoa(len(page.Users)),
			"seed":  page.Info.Seed,
		},
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infof("exported %d users to %s", len(page.Users), location)

	return &domain.Export{
		Key:          key,
		Size:         size,
		Count:        len(page.Users),
		LastModified: &now,
	}, nil
}

func (s *exportService) List(ctx context.Context) ([]domain.Export, error) {
	if !s.enabled() {
		return nil, ErrExportsDisabled
	}

	objects, err := s.storage.ListObjects(ctx, s.cfg.Bucket, s.cfg.KeyPrefix+"/")
	if err != nil {
		return nil, err
	}

	exports := make([]domain.Export, 0, len(objects))
	for _, obj := range objects {
		exports = append(exports, domain.Export{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	// keys embed the date, so reverse lexical order is newest day first
	sort.SliceStable(exports, func(i, j int) bool {
		return exports[i].Key > exports[j].Key
	})
	return exports, nil
}

func (s *exportService) URL(ctx context.Context, key string) (string, error) {
	if !s.enabled() {
		return "", ErrExportsDisabled
	}
	if err := s.checkKey(key); err != nil {
		return "", err
	}
	return s.storage.GetObjectURL(ctx, s.cfg.Bucket, key, s.cfg.URLTTL)
}

func (s *exportService) Delete(ctx context.Context, key string) error {
	if !s.enabled() {
		return ErrExportsDisabled
	}
	if err := s.checkKey(key); err != nil {
		return err
	}
	return s.storage.DeleteObject(ctx, s.cfg.Bucket, key)
}

func (s *exportService) PurgeDay(ctx context.Context, day time.Time) error {
	if !s.enabled() {
		return ErrExportsDisabled
	}
	prefix := path.Join(s.cfg.KeyPrefix, day.UTC().Format("2006/01/02")) + "/"
	return s.storage.DeletePrefix(ctx, s.cfg.Bucket, prefix)
}

func (s *exportService) checkKey(key string) error {
	if !strings.HasPrefix(key, s.cfg.KeyPrefix+"/") || !strings.HasSuffix(key, ".json") {
		return fmt.Errorf("%w: %q", ErrInvalidExportKey, key)
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidExportKey, key)
	}
	return nil
}
