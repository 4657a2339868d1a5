package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"randomuser-page/internal/domain"
	"randomuser-page/internal/repository"
)

const createFetchesTable = `
CREATE TABLE IF NOT EXISTS fetches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	requested_limit INTEGER NOT NULL,
	result_count INTEGER NOT NULL DEFAULT 0,
	seed TEXT NOT NULL DEFAULT '',
	version TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS fetches_created_at ON fetches (created_at);
`

const selectFetchColumns = `
SELECT id, source, requested_limit, result_count, seed, version, duration_ms, error_message, created_at
FROM fetches`

type FetchRepository struct {
	db *sql.DB
}

func NewFetchRepository(db *sql.DB) repository.FetchRepository {
	return &FetchRepository{db: db}
}

func (r *FetchRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createFetchesTable); err != nil {
		return fmt.Errorf("create fetches table: %w", err)
	}
	return nil
}

func (r *FetchRepository) Create(ctx context.Context, record *domain.FetchRecord) (int64, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO fetches (source, requested_limit, result_count, seed, version, duration_ms, error_message, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(record.Source),
		record.Limit,
		record.Count,
		record.Seed,
		record.Version,
		record.DurationMillis,
		record.ErrorMessage,
		record.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert fetch: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("fetch last insert id: %w", err)
	}
	record.ID = id
	return id, nil
}

func (r *FetchRepository) Get(ctx context.Context, id int64) (*domain.FetchRecord, error) {
	row := r.db.QueryRowContext(ctx, selectFetchColumns+`
WHERE id = ?`,
		id,
	)
	return scanFetch(row)
}

func (r *FetchRepository) List(ctx context.Context, limit int) ([]domain.FetchRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, selectFetchColumns+`
ORDER BY id DESC
LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query fetches: %w", err)
	}
	defer rows.Close()

	records := []domain.FetchRecord{}
	for rows.Next() {
		record, err := scanFetch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	return records, rows.Err()
}

func scanFetch(scanner interface {
	Scan(dest ...any) error
}) (*domain.FetchRecord, error) {
	var (
		record    domain.FetchRecord
		source    string
		createdAt time.Time
	)

	if err := scanner.Scan(
		&record.ID,
		&source,
		&record.Limit,
		&record.Count,
		&record.Seed,
		&record.Version,
		&record.DurationMillis,
		&record.ErrorMessage,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrFetchNotFound
		}
		return nil, fmt.Errorf("scan fetch: %w", err)
	}

	record.Source = domain.FetchSource(source)
	record.CreatedAt = createdAt.UTC()
	return &record, nil
}
