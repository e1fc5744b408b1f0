package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3"
)

// Compile-time interface verification.
var _ sitecrawl.SourceService = (*SourceService)(nil)

// SourceService implements sitecrawl.SourceService using SQLite.
type SourceService struct {
	db *DB
}

// NewSourceService creates a new SourceService.
func NewSourceService(db *DB) *SourceService {
	return &SourceService{db: db}
}

const sourceColumns = "id, name, base_url, url_processor, extra_crawl_urls, exclude_patterns, created_at, updated_at"

// CreateSource creates a new source.
func (s *SourceService) CreateSource(ctx context.Context, source *sitecrawl.Source) error {
	if err := source.Validate(); err != nil {
		return err
	}

	source.ID = uuid.New().String()
	now := time.Now().UTC()
	source.CreatedAt = now
	source.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (`+sourceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, source.ID, source.Name, source.BaseURL, source.URLProcessor,
		joinLines(source.ExtraCrawlURLs), joinLines(source.ExcludePatterns),
		source.CreatedAt.Format(time.RFC3339), source.UpdatedAt.Format(time.RFC3339))

	return uniqueName(err, source.Name)
}

// FindSourceByID retrieves a source by ID.
func (s *SourceService) FindSourceByID(ctx context.Context, id string) (*sitecrawl.Source, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sourceColumns+" FROM sources WHERE id = ?", id)
	source, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "source not found")
	}
	return source, err
}

// FindSources retrieves sources matching the filter, oldest first.
func (s *SourceService) FindSources(ctx context.Context, filter sitecrawl.SourceFilter) ([]*sitecrawl.Source, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + sourceColumns + " FROM sources WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Name != nil {
		query.WriteString(" AND name = ?")
		args = append(args, *filter.Name)
	}

	query.WriteString(" ORDER BY created_at ASC, name ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*sitecrawl.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}

	return sources, rows.Err()
}

// UpdateSource updates an existing source.
func (s *SourceService) UpdateSource(ctx context.Context, id string, upd sitecrawl.SourceUpdate) (*sitecrawl.Source, error) {
	source, err := s.FindSourceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		source.Name = *upd.Name
	}
	if upd.BaseURL != nil {
		source.BaseURL = *upd.BaseURL
	}
	if upd.URLProcessor != nil {
		source.URLProcessor = *upd.URLProcessor
	}
	if upd.ExtraCrawlURLs != nil {
		source.ExtraCrawlURLs = *upd.ExtraCrawlURLs
	}
	if upd.ExcludePatterns != nil {
		source.ExcludePatterns = *upd.ExcludePatterns
	}

	if err := source.Validate(); err != nil {
		return nil, err
	}

	source.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE sources
		SET name = ?, base_url = ?, url_processor = ?, extra_crawl_urls = ?, exclude_patterns = ?, updated_at = ?
		WHERE id = ?
	`, source.Name, source.BaseURL, source.URLProcessor,
		joinLines(source.ExtraCrawlURLs), joinLines(source.ExcludePatterns),
		source.UpdatedAt.Format(time.RFC3339), id)
	if err != nil {
		return nil, uniqueName(err, source.Name)
	}

	return source, nil
}

// DeleteSource permanently removes a source. Its schemas are removed by the
// foreign key cascade.
func (s *SourceService) DeleteSource(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return sitecrawl.Errorf(sitecrawl.ENOTFOUND, "source not found")
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSource(row scanner) (*sitecrawl.Source, error) {
	var source sitecrawl.Source
	var extra, exclude, createdAt, updatedAt string

	if err := row.Scan(&source.ID, &source.Name, &source.BaseURL, &source.URLProcessor,
		&extra, &exclude, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	source.ExtraCrawlURLs = splitLines(extra)
	source.ExcludePatterns = splitLines(exclude)

	var err error
	if source.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if source.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &source, nil
}

// uniqueName maps a unique constraint violation on the name column to EINVALID.
func uniqueName(err error, name string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sqlite3.CONSTRAINT_UNIQUE) {
		return sitecrawl.Errorf(sitecrawl.EINVALID, "source %q already exists", name)
	}
	return err
}
